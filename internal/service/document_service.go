package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/serc-portal/recruitment-api/internal/models"
	appErrors "github.com/serc-portal/recruitment-api/pkg/errors"
)

type documentStore interface {
	GetDocument(ctx context.Context, id string) (*models.DocumentRef, error)
}

type applicationGetter interface {
	GetByID(ctx context.Context, id string) (*models.Application, error)
}

type documentSigner interface {
	Generate(id, ref string) (string, time.Time, error)
	Parse(token string) (id, ref string, expiresAt time.Time, err error)
}

// DocumentLink is a signed, expiring download location.
type DocumentLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentDownload bundles an open blob with its response metadata.
type DocumentDownload struct {
	Content     io.ReadCloser
	Filename    string
	ContentType string
}

// DocumentService issues signed download links for uploaded documents and resolves them.
type DocumentService struct {
	docs      documentStore
	apps      applicationGetter
	blobs     blobReader
	signer    documentSigner
	logger    *zap.Logger
	apiPrefix string
}

// NewDocumentService constructs the service. apiPrefix is prepended to generated URLs.
func NewDocumentService(docs documentStore, apps applicationGetter, blobs blobReader, signer documentSigner, logger *zap.Logger, apiPrefix string) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if apiPrefix == "" {
		apiPrefix = "/api/v1"
	}
	return &DocumentService{docs: docs, apps: apps, blobs: blobs, signer: signer, logger: logger, apiPrefix: apiPrefix}
}

// GetDownloadURL returns a signed link for the document's owner or for staff.
func (s *DocumentService) GetDownloadURL(ctx context.Context, documentID string, actor models.Principal) (*DocumentLink, error) {
	if actor.ID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	app, err := s.apps.GetByID(ctx, doc.ApplicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if app.OwnerID != actor.ID && !actor.IsStaff() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "document belongs to another applicant")
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.StorageReference)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate download token")
	}
	base := strings.TrimRight(s.apiPrefix, "/")
	return &DocumentLink{
		URL:       fmt.Sprintf("%s/documents/%s/download?token=%s", base, doc.ID, token),
		ExpiresAt: expiresAt,
	}, nil
}

// Download resolves a signed token and opens the stored blob. The token is the only credential.
func (s *DocumentService) Download(ctx context.Context, documentID, token string) (*DocumentDownload, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
	}
	tokenID, ref, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired token")
	}
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if tokenID != doc.ID || ref != doc.StorageReference {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	content, err := s.blobs.Open(ref)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}
	contentType := mime.TypeByExtension("." + extensionOf(ref))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	filename := doc.OriginalName
	if filename == "" {
		filename = doc.DocType + "." + extensionOf(ref)
	}
	s.logger.Debug("document download", zap.String("document_id", doc.ID))
	return &DocumentDownload{Content: content, Filename: filename, ContentType: contentType}, nil
}

func (s *DocumentService) load(ctx context.Context, id string) (*models.DocumentRef, error) {
	doc, err := s.docs.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}
