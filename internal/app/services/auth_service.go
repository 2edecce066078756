package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/studentauth/internal/app/models"
	"github.com/yigit/studentauth/internal/app/models/dto"
	"github.com/yigit/studentauth/internal/metrics"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
	"github.com/yigit/studentauth/internal/pkg/validation"
)

// Client-facing messages of the auth flows
const (
	msgEmailTaken        = "Student with email already exists"
	msgUsnTaken          = "Student with usn already exists"
	msgStudentConflict   = "Student already exists"
	msgCreateFailed      = "Something went wrong while creating the student"
	msgUnknownIdentifier = "Invalid email or usn"
	msgIncorrectPassword = "Incorrect password"
	msgTokenFailed       = "Something went wrong while generating access token"
	msgNotAuthenticated  = "Unauthorized request"
)

// ErrNotAuthenticated is returned when a request carries no session
var ErrNotAuthenticated = apperrors.NewCustomError(apperrors.ErrTokenNotFound, msgNotAuthenticated)

// AuthService handles student registration and authentication
type AuthService struct {
	store   *CredentialStore
	metrics metrics.MetricsCollector
	logger  zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(store *CredentialStore, collector metrics.MetricsCollector, logger zerolog.Logger) *AuthService {
	return &AuthService{
		store:   store,
		metrics: collector,
		logger:  logger,
	}
}

// AccessTokenTTL returns the lifetime of tokens issued at login
func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.store.AccessTokenTTL()
}

// Register validates req and creates a student. The returned record never carries the password.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterStudentRequest) (*dto.StudentResponse, error) {
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeInvalidInput)
		return nil, err
	}

	exists, err := s.store.EmailExists(ctx, req.Email)
	if err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeError)
		return nil, apperrors.NewInternalError(msgCreateFailed, err)
	}
	if exists {
		s.metrics.RecordRegistration(metrics.OutcomeConflict)
		return nil, apperrors.NewCustomError(apperrors.ErrEmailAlreadyExists, msgEmailTaken)
	}

	created, err := s.store.Create(ctx, req.ToNewStudent())
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrEmailAlreadyExists):
			// Lost a race against a concurrent registration with the same email
			s.metrics.RecordRegistration(metrics.OutcomeConflict)
			return nil, apperrors.NewCustomError(apperrors.ErrEmailAlreadyExists, msgEmailTaken)
		case errors.Is(err, apperrors.ErrUsnAlreadyExists):
			s.metrics.RecordRegistration(metrics.OutcomeConflict)
			return nil, apperrors.NewCustomError(apperrors.ErrUsnAlreadyExists, msgUsnTaken)
		case errors.Is(err, apperrors.ErrConflict):
			s.metrics.RecordRegistration(metrics.OutcomeConflict)
			s.logger.Warn().Err(err).Str("email", req.Email).Msg("Student conflicts with an existing record")
			return nil, apperrors.NewCustomError(apperrors.ErrConflict, msgStudentConflict)
		case errors.Is(err, apperrors.ErrValidationFailed):
			s.metrics.RecordRegistration(metrics.OutcomeInvalidInput)
			return nil, err
		}
		s.metrics.RecordRegistration(metrics.OutcomeError)
		s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to create student")
		return nil, apperrors.NewInternalError(msgCreateFailed, err)
	}

	student, err := s.store.FindByID(ctx, created.ID, models.ExcludePassword)
	if err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeError)
		s.logger.Error().Err(err).Str("studentID", created.ID).Msg("Created student could not be read back")
		return nil, apperrors.NewInternalError(msgCreateFailed, err)
	}

	s.metrics.RecordRegistration(metrics.OutcomeSuccess)
	s.logger.Info().Str("studentID", student.ID).Msg("Student registered")
	return dto.NewStudentResponse(student), nil
}

// Login verifies the credentials in req and issues an access token.
// Every identifier supplied must match the same student.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginStudentRequest) (*dto.LoginResponse, error) {
	req.Normalize()
	if err := validation.Struct(req); err != nil {
		s.metrics.RecordLogin(metrics.OutcomeInvalidInput)
		return nil, err
	}

	student, err := s.store.FindOne(ctx, req.Lookup(), models.IncludePassword)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			s.metrics.RecordLogin(metrics.OutcomeNotFound)
			return nil, apperrors.NewCustomError(apperrors.ErrStudentNotFound, msgUnknownIdentifier)
		}
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, apperrors.NewInternalError(apperrors.ErrInternal.Error(), err)
	}

	if !s.store.VerifyPassword(student, req.Password) {
		s.metrics.RecordLogin(metrics.OutcomeInvalidCredentials)
		s.logger.Warn().Str("studentID", student.ID).Msg("Login with incorrect password")
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, msgIncorrectPassword)
	}

	token, _, err := s.store.IssueAccessToken(student)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, apperrors.NewInternalError(msgTokenFailed, err)
	}

	sanitized, err := s.store.FindByID(ctx, student.ID, models.ExcludePassword)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, apperrors.NewInternalError(apperrors.ErrInternal.Error(), err)
	}

	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	s.logger.Info().Str("studentID", student.ID).Msg("Student logged in")
	return &dto.LoginResponse{
		Student:     dto.NewStudentResponse(sanitized),
		AccessToken: token,
	}, nil
}

// Authenticate validates an access token and returns the student ID it was issued to
func (s *AuthService) Authenticate(token string) (string, error) {
	claims, err := s.store.ValidateAccessToken(token)
	if err != nil {
		return "", apperrors.NewCustomError(err, msgNotAuthenticated)
	}
	return claims.StudentID, nil
}

// CurrentStudent returns the sanitized record of an authenticated student.
// A token whose student no longer exists is treated as invalid.
func (s *AuthService) CurrentStudent(ctx context.Context, studentID string) (*dto.StudentResponse, error) {
	student, err := s.store.FindByID(ctx, studentID, models.ExcludePassword)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrTokenInvalid, msgNotAuthenticated)
		}
		return nil, apperrors.NewInternalError(apperrors.ErrInternal.Error(), err)
	}
	return dto.NewStudentResponse(student), nil
}

// Logout records a logout. subject is the student ID of a still-valid session, or empty.
func (s *AuthService) Logout(subject string) {
	s.metrics.RecordLogout()
	if subject != "" {
		s.logger.Info().Str("studentID", subject).Msg("Student logged out")
		return
	}
	s.logger.Debug().Msg("Logout without an active session")
}
