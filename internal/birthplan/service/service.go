package service

import (
	"context"
	"errors"

	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan/repository"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/models"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/users"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/logger"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound      = errors.New("birth plan not found")
	ErrConflict      = errors.New("birth plan already exists for this user")
	ErrOwnerNotFound = errors.New("user not found")
	ErrOwnerRequired = errors.New("userId is required")
)

// Service defines the birth plan operations used by the handler layer.
type Service interface {
	Create(ctx context.Context, doc *birthplan.Document) (*birthplan.Document, error)
	Get(ctx context.Context, id string) (*birthplan.Document, error)
	GetByOwner(ctx context.Context, ownerID string) (*birthplan.Document, error)
	Update(ctx context.Context, id string, fields birthplan.Fields) (*birthplan.Document, error)
	Delete(ctx context.Context, id string) error
}

// UserLookup resolves plan owners. A users.ErrUserNotFound makes Create
// fail with ErrOwnerNotFound.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Option configures the service.
type Option func(*service)

// WithUserLookup makes the service verify owners on create and fill in
// the owner name on every returned document.
func WithUserLookup(u UserLookup) Option {
	return func(s *service) { s.users = u }
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService(opts ...Option) Service {
	return NewService(repository.NewMemoryRepo(), opts...)
}

// NewMongoService returns a Service backed by a MongoDB collection.
// Caller is responsible for creating the collection (and client) and passing it in.
func NewMongoService(col *mongo.Collection, opts ...Option) Service {
	return NewService(repository.NewMongoRepo(col), opts...)
}

func NewService(repo repository.Repository, opts ...Option) Service {
	s := &service{repo: repo}
	for _, o := range opts {
		o(s)
	}
	return s
}

type service struct {
	repo  repository.Repository
	users UserLookup
}

func (s *service) Create(ctx context.Context, doc *birthplan.Document) (*birthplan.Document, error) {
	if doc.OwnerID == "" {
		observe("create", "invalid")
		return nil, ErrOwnerRequired
	}
	if err := doc.Fields.Validate(); err != nil {
		observe("create", "invalid")
		return nil, err
	}
	owner, err := s.owner(ctx, doc.OwnerID)
	if err != nil {
		observe("create", outcome(err))
		return nil, err
	}
	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		err = mapErr(err)
		observe("create", outcome(err))
		return nil, err
	}
	observe("create", "ok")
	logger.Infof("birth plan %s created for user %s", created.ID, created.OwnerID)
	return withOwner(created, owner), nil
}

func (s *service) Get(ctx context.Context, id string) (*birthplan.Document, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		err = mapErr(err)
		observe("get", outcome(err))
		return nil, err
	}
	observe("get", "ok")
	return s.decorate(ctx, d), nil
}

func (s *service) GetByOwner(ctx context.Context, ownerID string) (*birthplan.Document, error) {
	d, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		err = mapErr(err)
		observe("get_by_owner", outcome(err))
		return nil, err
	}
	observe("get_by_owner", "ok")
	return s.decorate(ctx, d), nil
}

// Update replaces every field of the plan. Absent fields in the request
// become empty; nothing is merged from the stored copy.
func (s *service) Update(ctx context.Context, id string, fields birthplan.Fields) (*birthplan.Document, error) {
	if err := fields.Validate(); err != nil {
		observe("update", "invalid")
		return nil, err
	}
	d, err := s.repo.Replace(ctx, id, fields)
	if err != nil {
		err = mapErr(err)
		observe("update", outcome(err))
		return nil, err
	}
	observe("update", "ok")
	return s.decorate(ctx, d), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		err = mapErr(err)
		observe("delete", outcome(err))
		return err
	}
	observe("delete", "ok")
	logger.Infof("birth plan %s deleted", id)
	return nil
}

func (s *service) owner(ctx context.Context, id string) (*models.User, error) {
	if s.users == nil {
		return nil, nil
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}
	return u, nil
}

// decorate fills OwnerName; lookup failures only cost the name.
func (s *service) decorate(ctx context.Context, d *birthplan.Document) *birthplan.Document {
	if s.users == nil {
		return d
	}
	u, err := s.users.GetByID(ctx, d.OwnerID)
	if err != nil {
		logger.Debugf("owner lookup for plan %s failed: %v", d.ID, err)
		return d
	}
	return withOwner(d, u)
}

func withOwner(d *birthplan.Document, u *models.User) *birthplan.Document {
	if u != nil {
		d.OwnerName = u.Name
	}
	return d
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrOwnerExists):
		return ErrConflict
	}
	return err
}

func outcome(err error) string {
	var verr *birthplan.ValidationError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrOwnerNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.As(err, &verr):
		return "invalid"
	}
	return "error"
}

func observe(op, result string) {
	metrics.BirthPlanOps.WithLabelValues(op, result).Inc()
}
