package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/serc-portal/recruitment-api/internal/middleware"
	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
	"github.com/serc-portal/recruitment-api/pkg/response"
)

// principalOrAbort returns the authenticated caller or writes 401.
func principalOrAbort(c *gin.Context) (models.Principal, bool) {
	principal, ok := middleware.Principal(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Principal{}, false
	}
	return principal, true
}

func withProcessingMeta(c *gin.Context, cacheHit bool) map[string]interface{} {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{"cache_hit": cacheHit}
	}
	return meta
}
