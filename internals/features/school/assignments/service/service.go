// file: internals/features/school/assignments/service/service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	model "classroom_backend/internals/features/school/assignments/model"
	"classroom_backend/internals/features/school/assignments/repository"
	batchService "classroom_backend/internals/features/school/batches/service"
	"classroom_backend/internals/helpers/apperr"
	helperOSS "classroom_backend/internals/helpers/oss"
)

// Service is the assignment/submission lifecycle engine.
type Service struct {
	store   *repository.Store
	roster  batchService.RosterProvider
	objects helperOSS.ObjectStore
	log     *zap.Logger

	now           func() time.Time
	cleanup       RetryPolicy
	uploadTTL     time.Duration
	exportTimeout time.Duration
}

type Option func(*Service)

// WithClock replaces time.Now; status derivation and window checks read it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Service) { s.cleanup = p }
}

func WithUploadURLTTL(ttl time.Duration) Option {
	return func(s *Service) { s.uploadTTL = ttl }
}

// WithExportTimeout caps a single archive run; zero means no cap.
func WithExportTimeout(d time.Duration) Option {
	return func(s *Service) { s.exportTimeout = d }
}

func New(store *repository.Store, roster batchService.RosterProvider, objects helperOSS.ObjectStore, lg *zap.Logger, opts ...Option) *Service {
	if lg == nil {
		lg = zap.NewNop()
	}
	s := &Service{
		store:     store,
		roster:    roster,
		objects:   objects,
		log:       lg.Named("assignments"),
		now:       time.Now,
		cleanup:   DefaultRetryPolicy(),
		uploadTTL: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// persistErr keeps domain errors as they are and turns storage failures
// into ErrPersistenceFailure.
func persistErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return model.ErrPersistenceFailure.Wrap(err)
}

// loadOwned returns the assignment when requesterID created it.
func (s *Service) loadOwned(ctx context.Context, store *repository.Store, assignmentID, requesterID uuid.UUID) (*model.AssignmentModel, error) {
	a, err := store.Assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, persistErr(err)
	}
	if a.AssignmentCreatedBy != requesterID {
		return nil, model.ErrNotAuthorized
	}
	return a, nil
}
