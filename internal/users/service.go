package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/models"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/validator"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// RegisterRequest is the body of POST /users/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Username string `json:"username" validate:"required,min=3,max=40,alphanum"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	CPF      string `json:"cpf" validate:"required,numeric,len=11"`
}

// InvalidRequestError carries per-field validation messages.
type InvalidRequestError struct {
	Fields map[string]string
}

func (e *InvalidRequestError) Error() string { return "validation failed" }

// Service encapsulates user-related business logic
type Service struct {
	repo     UserRepository
	validate *validator.CustomValidator
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r, validate: validator.NewValidator()}
}

// Register validates the request, hashes the password and stores the user.
// Usernames are case-insensitive and stored lower-cased.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Validate(req); err != nil {
		return nil, &InvalidRequestError{Fields: s.validate.FormatValidationErrors(err)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Username:     req.Username,
		CPF:          req.CPF,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks the credentials and returns the matching user.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// ResolveExternal returns the local account linked to an identity provider
// subject, creating it on first use. name is only used on creation.
func (s *Service) ResolveExternal(ctx context.Context, subject, name string) (*models.User, error) {
	if subject == "" {
		return nil, errors.New("empty subject")
	}
	u, err := s.repo.GetByExternalID(ctx, subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = subject
	}
	now := time.Now().UTC()
	u = &models.User{
		ID:         uuid.NewString(),
		Name:       name,
		ExternalID: subject,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUserExists) {
			// a concurrent first request created it
			return s.repo.GetByExternalID(ctx, subject)
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}
