package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/serc-portal/recruitment-api/internal/models"
)

// Extension sets accepted by intake.
var (
	ImageExtensions = []string{"jpg", "jpeg", "png"}
	PDFExtensions   = []string{"pdf"}
)

type blobStore interface {
	Put(data []byte, suggestedName string) (string, error)
	Delete(ref string) error
}

// DocumentRejection explains why an uploaded file was refused.
type DocumentRejection struct {
	Field  string
	Reason string
	Detail string
}

func (r *DocumentRejection) Error() string {
	if r.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", r.Field, r.Reason, r.Detail)
	}
	return fmt.Sprintf("%s: %s", r.Field, r.Reason)
}

// StoredDocument describes an accepted and persisted file.
type StoredDocument struct {
	Field        string
	Reference    string
	OriginalName string
	SizeBytes    int64
}

// DocumentIntake validates uploads and writes them to the blob store under collision-free names.
type DocumentIntake struct {
	store blobStore
	now   func() time.Time
}

// NewDocumentIntake constructs an intake bound to store.
func NewDocumentIntake(store blobStore) *DocumentIntake {
	return &DocumentIntake{store: store, now: time.Now}
}

// Accept validates one upload and persists it. A *DocumentRejection is
// returned for files that fail validation; any other error comes from the store.
func (d *DocumentIntake) Accept(ownerID string, upload *models.FileUpload, field string, allowed []string, maxBytes int64) (*StoredDocument, error) {
	if upload == nil || upload.Content == nil || strings.TrimSpace(upload.Filename) == "" {
		return nil, &DocumentRejection{Field: field, Reason: models.RejectMissing}
	}
	ext := extensionOf(upload.Filename)
	if ext == "" || !containsFold(allowed, ext) {
		return nil, &DocumentRejection{Field: field, Reason: models.RejectUnsupportedType, Detail: "allowed: " + strings.Join(allowed, ", ")}
	}

	data, err := io.ReadAll(io.LimitReader(upload.Content, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s upload: %w", field, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, &DocumentRejection{Field: field, Reason: models.RejectTooLarge, Detail: fmt.Sprintf("limit %d bytes", maxBytes)}
	}
	if len(data) == 0 {
		return nil, &DocumentRejection{Field: field, Reason: models.RejectMissing, Detail: "empty file"}
	}

	ref, err := d.store.Put(data, d.artifactName(ownerID, field, ext))
	if err != nil {
		return nil, fmt.Errorf("store %s upload: %w", field, err)
	}
	return &StoredDocument{
		Field:        field,
		Reference:    ref,
		OriginalName: filepath.Base(upload.Filename),
		SizeBytes:    int64(len(data)),
	}, nil
}

// Discard removes stored blobs best-effort, returning the refs that could not be removed.
func (d *DocumentIntake) Discard(refs []string) []string {
	var failed []string
	for _, ref := range refs {
		if err := d.store.Delete(ref); err != nil {
			failed = append(failed, ref)
		}
	}
	return failed
}

func (d *DocumentIntake) artifactName(ownerID, field, ext string) string {
	return fmt.Sprintf("%s_%s_%d_%s.%s", sanitizeSegment(ownerID), field, d.now().UnixNano(), randomSuffix(), ext)
}

func extensionOf(filename string) string {
	ext := filepath.Ext(strings.TrimSpace(filename))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

func sanitizeSegment(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "anon"
	}
	return b.String()
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
