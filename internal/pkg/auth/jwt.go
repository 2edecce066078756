package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yigit/studentauth/internal/app/models"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
)

// JWT errors
var (
	ErrInvalidFormat = errors.New("invalid token format")
	ErrMissingSecret = errors.New("signing secret is not configured")
)

// JWTConfig defines JWT configuration settings
type JWTConfig struct {
	SecretKey      string
	AccessTokenExp time.Duration
	TokenIssuer    string
	// Now overrides the clock, mainly for tests
	Now func() time.Time
}

// JWTService handles JWT operations
type JWTService struct {
	config JWTConfig
}

// NewJWTService creates a new JWT service
func NewJWTService(config JWTConfig) *JWTService {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &JWTService{
		config: config,
	}
}

// Claims defines JWT token content
type Claims struct {
	StudentID string `json:"studentId"`
	Email     string `json:"email"`
	Usn       string `json:"usn,omitempty"`
	jwt.RegisteredClaims
}

// AccessTokenTTL returns the lifetime of minted access tokens
func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.config.AccessTokenExp
}

// GenerateAccessToken mints a signed HS256 access token for student.
// The result only depends on the secret, the clock and the student's identifiers.
func (s *JWTService) GenerateAccessToken(student *models.Student) (string, time.Time, error) {
	if s.config.SecretKey == "" {
		return "", time.Time{}, fmt.Errorf("%w: %w", apperrors.ErrTokenSigning, ErrMissingSecret)
	}
	if student == nil || student.ID == "" {
		return "", time.Time{}, fmt.Errorf("%w: student has no identifier", apperrors.ErrTokenSigning)
	}

	now := s.config.Now()
	expiresAt := now.Add(s.config.AccessTokenExp)

	claims := &Claims{
		StudentID: student.ID,
		Email:     student.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.config.TokenIssuer,
			Subject:   student.ID,
		},
	}
	if student.Usn != nil {
		claims.Usn = *student.Usn
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.SecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %w", apperrors.ErrTokenSigning, err)
	}

	return signed, expiresAt, nil
}

// ValidateToken parses tokenString and checks signature, algorithm, issuer and expiry.
// Expired tokens return apperrors.ErrTokenExpired, every other failure apperrors.ErrTokenInvalid.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperrors.ErrTokenNotFound
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.config.Now),
		jwt.WithExpirationRequired(),
	}
	if s.config.TokenIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.TokenIssuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.SecretKey), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.StudentID == "" || claims.Subject != claims.StudentID {
		return nil, apperrors.ErrTokenInvalid
	}

	return claims, nil
}

// ExtractBearerToken extracts the token from the Authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" || authHeader == "Bearer" {
		return "", ErrInvalidFormat
	}

	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")), nil
	}

	return authHeader, nil
}
