// Package service manages résumés and the verification results attached
// to them.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"talentmatch/internal/platform/privacy"
	"talentmatch/internal/resume/models"
	"talentmatch/internal/resume/store"
	vmetrics "talentmatch/internal/verification/metrics"
	vmodels "talentmatch/internal/verification/models"
	"talentmatch/pkg/domain"
	dErrors "talentmatch/pkg/domain-errors"
)

// Store persists résumés.
type Store interface {
	Add(ctx context.Context, r models.Resume) error
	Remove(ctx context.Context, id domain.ResumeID) error
	Update(ctx context.Context, id domain.ResumeID, fn func(*models.Resume) error) (models.Resume, error)
	FindByID(ctx context.Context, id domain.ResumeID) (models.Resume, error)
	List(ctx context.Context, filter models.Filter) ([]models.Resume, error)
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// Reverifier runs one re-verification query for a transaction.
type Reverifier interface {
	Query(ctx context.Context, txID vmodels.TransactionID) (vmodels.Result, error)
}

// CreateRequest holds the fields of a new résumé.
type CreateRequest struct {
	Name        string
	Email       string
	Phone       string
	DesiredRole string
	Summary     string
	Experience  []models.Experience
	Education   []models.Education
	Skills      []string
}

// Service is the résumé use-case layer.
type Service struct {
	store      Store
	reverifier Reverifier
	logger     *slog.Logger
	metrics    *vmetrics.Metrics
	now        func() time.Time

	mu       sync.Mutex
	inflight map[domain.ResumeID]struct{}
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *vmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service. reverifier may be nil when re-verification is not
// offered.
func New(st Store, reverifier Reverifier, opts ...Option) *Service {
	s := &Service{
		store:      st,
		reverifier: reverifier,
		logger:     slog.New(slog.DiscardHandler),
		now:        time.Now,
		inflight:   make(map[domain.ResumeID]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a résumé at the top of the list.
func (s *Service) Create(ctx context.Context, req CreateRequest) (models.Resume, error) {
	if strings.TrimSpace(req.Name) == "" {
		return models.Resume{}, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	now := s.now()
	r := models.Resume{
		ID:          domain.NewResumeID(),
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		DesiredRole: strings.TrimSpace(req.DesiredRole),
		Summary:     req.Summary,
		Experience:  req.Experience,
		Education:   req.Education,
		Skills:      req.Skills,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Add(ctx, r); err != nil {
		return models.Resume{}, translate(err, "failed to save resume")
	}
	s.logger.InfoContext(ctx, "resume created",
		"resume_id", r.ID,
		"email", privacy.MaskEmail(r.Email),
	)
	return r, nil
}

func (s *Service) Get(ctx context.Context, id domain.ResumeID) (models.Resume, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.Resume{}, translate(err, "failed to load resume")
	}
	return r, nil
}

// Exists reports whether a résumé with id is stored.
func (s *Service) Exists(ctx context.Context, id domain.ResumeID) bool {
	_, err := s.store.FindByID(ctx, id)
	return err == nil
}

// List returns résumés matching filter, newest first.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]models.Resume, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Role = strings.TrimSpace(filter.Role)
	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, translate(err, "failed to list resumes")
	}
	return out, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, translate(err, "failed to count resumes")
	}
	return n, nil
}

// Update applies a partial update. Verification fields cannot be changed
// this way.
func (s *Service) Update(ctx context.Context, id domain.ResumeID, u models.Update) (models.Resume, error) {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return models.Resume{}, dErrors.New(dErrors.CodeValidation, "name cannot be empty")
	}
	r, err := s.store.Update(ctx, id, func(r *models.Resume) error {
		u.Apply(r)
		r.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return models.Resume{}, translate(err, "failed to update resume")
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, id domain.ResumeID) error {
	if err := s.store.Remove(ctx, id); err != nil {
		return translate(err, "failed to delete resume")
	}
	s.logger.InfoContext(ctx, "resume deleted", "resume_id", id)
	return nil
}

// Clear removes every résumé.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return translate(err, "failed to clear resumes")
	}
	return nil
}

// AttachVerification stores a verified result on the résumé, replacing any
// earlier one. It is the result consumer of résumé-bound sessions.
func (s *Service) AttachVerification(ctx context.Context, id domain.ResumeID, result vmodels.Result) error {
	if !result.Verified {
		return dErrors.New(dErrors.CodeInvariantViolation, "only verified results can be attached")
	}
	if result.TransactionID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "result has no transaction ID")
	}
	_, err := s.store.Update(ctx, id, func(r *models.Resume) error {
		owned := result.Clone()
		r.TransactionID = result.TransactionID
		r.Verification = &owned
		r.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return translate(err, "failed to attach verification")
	}
	s.logger.InfoContext(ctx, "verification attached to resume",
		"resume_id", id,
		"transaction_id", result.TransactionID,
	)
	return nil
}

// Reverify re-queries the verifier for the résumé's stored transaction.
// Only one re-verification per résumé may be outstanding; concurrent calls
// get a conflict. A verified answer replaces the attached result; any other
// answer leaves it untouched and yields a failed outcome.
func (s *Service) Reverify(ctx context.Context, id domain.ResumeID) (models.ReverifyOutcome, error) {
	if s.reverifier == nil {
		return models.ReverifyOutcome{}, dErrors.New(dErrors.CodeInternal, "re-verification is not configured")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.ReverifyOutcome{}, err
	}
	if current.TransactionID.IsNil() {
		return models.ReverifyOutcome{}, dErrors.New(dErrors.CodeValidation, "resume has never been verified")
	}

	if !s.acquire(id) {
		s.metrics.IncrementReverification(vmetrics.OutcomeConflict)
		return models.ReverifyOutcome{}, dErrors.New(dErrors.CodeConflict, "re-verification already in progress")
	}
	defer s.release(id)

	txID := current.TransactionID
	result, err := s.reverifier.Query(ctx, txID)
	if err != nil {
		s.metrics.IncrementReverification(vmetrics.OutcomeFailed)
		s.logger.WarnContext(ctx, "re-verification failed",
			"resume_id", id,
			"transaction_id", txID,
			"error", err,
		)
		return models.ReverifyOutcome{}, vmodels.ToDomainError(err)
	}

	if !result.Verified {
		s.metrics.IncrementReverification(vmetrics.OutcomeNotVerified)
		s.logger.InfoContext(ctx, "re-verification not confirmed",
			"resume_id", id,
			"transaction_id", txID,
		)
		return models.ReverifyOutcome{Status: models.ReverifyFailed, Resume: current, Result: result}, nil
	}

	updated, err := s.store.Update(ctx, id, func(r *models.Resume) error {
		if r.TransactionID != txID {
			return dErrors.New(dErrors.CodeConflict, "resume was verified again meanwhile")
		}
		owned := result.Clone()
		r.Verification = &owned
		r.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		s.metrics.IncrementReverification(vmetrics.OutcomeConflict)
		return models.ReverifyOutcome{}, translate(err, "failed to store re-verification")
	}

	s.metrics.IncrementReverification(vmetrics.OutcomeVerified)
	s.logger.InfoContext(ctx, "re-verification confirmed",
		"resume_id", id,
		"transaction_id", txID,
	)
	return models.ReverifyOutcome{Status: models.ReverifyVerified, Resume: updated, Result: result}, nil
}

func (s *Service) acquire(id domain.ResumeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Service) release(id domain.ResumeID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

// translate maps store errors to domain errors; coded errors pass through.
func translate(err error, msg string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "resume not found")
	case errors.Is(err, store.ErrAlreadyExists):
		return dErrors.New(dErrors.CodeConflict, "resume already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
