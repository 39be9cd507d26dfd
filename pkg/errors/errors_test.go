package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrNotEligible, "age exceeds limit")
	require.True(t, stderrors.Is(err, ErrNotEligible))
	assert.False(t, stderrors.Is(err, ErrDocument))
	assert.Equal(t, "age exceeds limit", err.Message)
	assert.Equal(t, "applicant not eligible", ErrNotEligible.Message)
}

func TestWithDetailsDoesNotMutateTemplate(t *testing.T) {
	err := WithDetails(ErrDocument, "photo rejected", map[string]string{"field": "photo", "reason": "TooLarge"})
	assert.Equal(t, "photo", err.Details["field"])
	assert.Nil(t, ErrDocument.Details)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, ErrInternal.Code, appErr.Code)

	wrapped := fmt.Errorf("outer: %w", ErrInvalidTransition)
	assert.Equal(t, ErrInvalidTransition.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}
