package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/serc-portal/recruitment-api/internal/models"
	"github.com/serc-portal/recruitment-api/internal/repository"
)

// memTx serializes transactions the way row locks serialize concurrent writers.
// When repo is set, a failed fn restores the repo to its state before the call.
type memTx struct {
	mu    sync.Mutex
	calls int
	repo  *memRepo
}

func (t *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if t.repo == nil {
		return fn(ctx)
	}
	snap := t.repo.snapshot()
	if err := fn(ctx); err != nil {
		t.repo.restore(snap)
		return err
	}
	return nil
}

// memRepo is an in-memory stand-in for the recruitment repositories.
type memRepo struct {
	mu          sync.Mutex
	users       map[string]*models.User
	profiles    map[string]*models.ApplicantProfile
	apps        map[string]*models.Application
	education   []models.EducationRecord
	employment  []models.EmploymentRecord
	documents   []models.DocumentRef
	payments    map[string]*models.PaymentClaim
	failPayment error
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:    map[string]*models.User{},
		profiles: map[string]*models.ApplicantProfile{},
		apps:     map[string]*models.Application{},
		payments: map[string]*models.PaymentClaim{},
	}
}

// memState is a deep copy of the rows held by memRepo.
type memState struct {
	users      map[string]*models.User
	profiles   map[string]*models.ApplicantProfile
	apps       map[string]*models.Application
	education  []models.EducationRecord
	employment []models.EmploymentRecord
	documents  []models.DocumentRef
	payments   map[string]*models.PaymentClaim
}

func (m *memRepo) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return memState{
		users:      cloneRows(m.users),
		profiles:   cloneRows(m.profiles),
		apps:       cloneRows(m.apps),
		education:  append([]models.EducationRecord(nil), m.education...),
		employment: append([]models.EmploymentRecord(nil), m.employment...),
		documents:  append([]models.DocumentRef(nil), m.documents...),
		payments:   cloneRows(m.payments),
	}
}

func (m *memRepo) restore(s memState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users, m.profiles, m.apps, m.payments = s.users, s.profiles, s.apps, s.payments
	m.education, m.employment, m.documents = s.education, s.employment, s.documents
}

func cloneRows[T any](in map[string]*T) map[string]*T {
	out := make(map[string]*T, len(in))
	for k, v := range in {
		clone := *v
		out[k] = &clone
	}
	return out
}

func (m *memRepo) addUser(id, email string, role models.UserRole) models.Principal {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = &models.User{ID: id, Email: email, Role: role, Active: true}
	return models.Principal{ID: id, Email: email, Role: role}
}

func (m *memRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (m *memRepo) Upsert(_ context.Context, profile *models.ApplicantProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.profiles[profile.OwnerID]; ok {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.ID = uuid.NewString()
		profile.CreatedAt = time.Now().UTC()
	}
	clone := *profile
	m.profiles[profile.OwnerID] = &clone
	return nil
}

func (m *memRepo) FindByOwner(_ context.Context, ownerID string) (*models.ApplicantProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[ownerID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *p
	return &clone, nil
}

func (m *memRepo) Create(_ context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.apps {
		if existing.OwnerID == app.OwnerID && existing.PostCode == app.PostCode && existing.Status != models.StatusRejected {
			return repository.ErrDuplicate
		}
	}
	app.ID = uuid.NewString()
	app.UpdatedAt = app.SubmittedAt
	clone := *app
	m.apps[app.ID] = &clone
	return nil
}

func (m *memRepo) HasActive(_ context.Context, ownerID, postCode string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.apps {
		if existing.OwnerID == ownerID && existing.PostCode == postCode && existing.Status != models.StatusRejected {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *app
	return &clone, nil
}

func (m *memRepo) GetForUpdate(ctx context.Context, id string) (*models.Application, error) {
	return m.GetByID(ctx, id)
}

func (m *memRepo) UpdateReview(_ context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.apps[app.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *app
	m.apps[app.ID] = &clone
	return nil
}

func (m *memRepo) ListByOwner(_ context.Context, ownerID string) ([]models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Application
	for _, app := range m.apps {
		if app.OwnerID == ownerID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (m *memRepo) ListSummaries(_ context.Context, filter models.ApplicationFilter) ([]models.ApplicationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ApplicationSummary
	for _, app := range m.apps {
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		if filter.PostCode != "" && app.PostCode != filter.PostCode {
			continue
		}
		row := models.ApplicationSummary{ID: app.ID, OwnerID: app.OwnerID, PostCode: app.PostCode, Status: app.Status, SubmittedAt: app.SubmittedAt}
		if u, ok := m.users[app.OwnerID]; ok {
			row.OwnerEmail = u.Email
		}
		if p, ok := m.profiles[app.OwnerID]; ok {
			name, category := p.Name, p.Category
			row.Name, row.Category = &name, &category
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memRepo) CountByStatus(_ context.Context) ([]models.StatusCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[models.ApplicationStatus]int{}
	for _, app := range m.apps {
		counts[app.Status]++
	}
	var out []models.StatusCount
	for status, n := range counts {
		out = append(out, models.StatusCount{Status: status, Count: n})
	}
	return out, nil
}

func (m *memRepo) CreateEducation(_ context.Context, records []models.EducationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.education = append(m.education, records...)
	return nil
}

func (m *memRepo) CreateEmployment(_ context.Context, records []models.EmploymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employment = append(m.employment, records...)
	return nil
}

func (m *memRepo) CreateDocument(_ context.Context, doc *models.DocumentRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.ID = uuid.NewString()
	m.documents = append(m.documents, *doc)
	return nil
}

func (m *memRepo) ListEducation(_ context.Context, applicationID string) ([]models.EducationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EducationRecord
	for _, r := range m.education {
		if r.ApplicationID == applicationID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) ListEmployment(_ context.Context, applicationID string) ([]models.EmploymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EmploymentRecord
	for _, r := range m.employment {
		if r.ApplicationID == applicationID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) ListDocuments(_ context.Context, applicationID string) ([]models.DocumentRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DocumentRef
	for _, r := range m.documents {
		if r.ApplicationID == applicationID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) GetDocument(_ context.Context, id string) (*models.DocumentRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.documents {
		if r.ID == id {
			clone := r
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

// memPayments implements the payment ports on top of memRepo.
type memPayments struct{ *memRepo }

func (p memPayments) Create(_ context.Context, claim *models.PaymentClaim) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failPayment != nil {
		return p.failPayment
	}
	claim.ID = uuid.NewString()
	claim.CreatedAt = time.Now().UTC()
	clone := *claim
	p.payments[claim.ID] = &clone
	return nil
}

func (p memPayments) GetByID(_ context.Context, id string) (*models.PaymentClaim, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	claim, ok := p.payments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *claim
	return &clone, nil
}

func (p memPayments) GetByApplication(_ context.Context, applicationID string) (*models.PaymentClaim, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, claim := range p.payments {
		if claim.ApplicationID == applicationID {
			clone := *claim
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (p memPayments) UpdateVerification(_ context.Context, id string, verified bool, at time.Time, by string) (*models.PaymentClaim, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	claim, ok := p.payments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	claim.Verified = verified
	claim.VerifiedAt = &at
	claim.VerifiedBy = &by
	clone := *claim
	return &clone, nil
}

// memBlobs is an in-memory blob store.
type memBlobs struct {
	mu      sync.Mutex
	data    map[string][]byte
	putErr  error
	deleted []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: map[string][]byte{}}
}

func (b *memBlobs) Put(data []byte, name string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return "", b.putErr
	}
	if _, exists := b.data[name]; exists {
		return "", fmt.Errorf("blob %s exists", name)
	}
	b.data[name] = append([]byte(nil), data...)
	return name, nil
}

func (b *memBlobs) Delete(ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, ref)
	b.deleted = append(b.deleted, ref)
	return nil
}

func (b *memBlobs) Open(ref string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.data[ref]
	if !ok {
		return nil, fmt.Errorf("blob %s missing", ref)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// recordingPublisher captures published notifications.
type recordingPublisher struct {
	mu   sync.Mutex
	sent []Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
}

func (p *recordingPublisher) all() []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Notification(nil), p.sent...)
}
