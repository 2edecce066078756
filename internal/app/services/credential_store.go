package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/studentauth/internal/app/models"
	"github.com/yigit/studentauth/internal/app/repositories"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
	"github.com/yigit/studentauth/internal/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore owns student records and the secrets attached to them.
// Plaintext passwords are hashed here and never reach a repository.
type CredentialStore struct {
	repo       repositories.StudentRepository
	hasher     *auth.PasswordHasher
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewCredentialStore creates a new CredentialStore
func NewCredentialStore(
	repo repositories.StudentRepository,
	hasher *auth.PasswordHasher,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) *CredentialStore {
	return &CredentialStore{
		repo:       repo,
		hasher:     hasher,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Create hashes the password of fields and stores a new student.
// The returned record carries the generated ID and timestamps but no password hash.
func (s *CredentialStore) Create(ctx context.Context, fields models.NewStudent) (*models.Student, error) {
	hashed, err := s.hasher.HashPassword(fields.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("Password is too long", []apperrors.FieldError{
				{Field: "password", Message: "password must not exceed 72 bytes"},
			})
		}
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	student := &models.Student{
		FullName:   fields.FullName,
		Department: fields.Department,
		Sem:        fields.Sem,
		Email:      fields.Email,
		Phone:      fields.Phone,
		Password:   hashed,
	}
	if fields.Usn != "" {
		usn := fields.Usn
		student.Usn = &usn
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, err
	}

	student.Password = ""
	return student, nil
}

// FindByEmail returns the student registered with email
func (s *CredentialStore) FindByEmail(ctx context.Context, email string, projection models.Projection) (*models.Student, error) {
	return s.FindOne(ctx, models.StudentLookup{Email: email}, projection)
}

// FindByUsn returns the student registered with usn
func (s *CredentialStore) FindByUsn(ctx context.Context, usn string, projection models.Projection) (*models.Student, error) {
	return s.FindOne(ctx, models.StudentLookup{Usn: usn}, projection)
}

// FindByID returns the student with the given identifier
func (s *CredentialStore) FindByID(ctx context.Context, id string, projection models.Projection) (*models.Student, error) {
	return s.FindOne(ctx, models.StudentLookup{ID: id}, projection)
}

// FindOne returns the student matching every identifier set in lookup
func (s *CredentialStore) FindOne(ctx context.Context, lookup models.StudentLookup, projection models.Projection) (*models.Student, error) {
	return s.repo.FindOne(ctx, lookup, projection)
}

// EmailExists reports whether email is already registered
func (s *CredentialStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.repo.EmailExists(ctx, email)
}

// VerifyPassword reports whether plaintext matches the stored hash of student.
// Records loaded without the password never verify.
func (s *CredentialStore) VerifyPassword(student *models.Student, plaintext string) bool {
	if student == nil {
		return false
	}
	return auth.CheckPassword(student.Password, plaintext)
}

// IssueAccessToken mints a session token for student and returns it with its expiry
func (s *CredentialStore) IssueAccessToken(student *models.Student) (string, time.Time, error) {
	token, expiresAt, err := s.jwtService.GenerateAccessToken(student)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate access token")
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateAccessToken parses a session token minted by IssueAccessToken
func (s *CredentialStore) ValidateAccessToken(token string) (*auth.Claims, error) {
	return s.jwtService.ValidateToken(token)
}

// AccessTokenTTL returns the lifetime of issued tokens
func (s *CredentialStore) AccessTokenTTL() time.Duration {
	return s.jwtService.AccessTokenTTL()
}
