package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
	"github.com/yigit/studentauth/internal/pkg/auth"
)

// AccessTokenCookie is the name of the session cookie set at login
const AccessTokenCookie = "accessToken"

// ContextStudentID is the gin context key holding the authenticated student ID
const ContextStudentID = "studentID"

// Authenticator resolves an access token to the student it was issued to
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// AuthMiddleware for authentication
type AuthMiddleware struct {
	authenticator Authenticator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authenticator Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator}
}

// RequireStudent rejects requests without a valid access token in the cookie or Authorization header
func (m *AuthMiddleware) RequireStudent() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := requestToken(c)
		if token == "" {
			HandleAPIError(c, apperrors.NewCustomError(apperrors.ErrTokenNotFound, "Unauthorized request"))
			return
		}

		studentID, err := m.authenticator.Authenticate(token)
		if err != nil {
			HandleAPIError(c, err)
			return
		}

		c.Set(ContextStudentID, studentID)
		c.Next()
	}
}

// IdentifyStudent sets the student ID when a valid token is present and never rejects the request
func (m *AuthMiddleware) IdentifyStudent() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := requestToken(c); token != "" {
			if studentID, err := m.authenticator.Authenticate(token); err == nil {
				c.Set(ContextStudentID, studentID)
			}
		}
		c.Next()
	}
}

// requestToken prefers the session cookie and falls back to a bearer header
func requestToken(c *gin.Context) string {
	if token, err := c.Cookie(AccessTokenCookie); err == nil && token != "" {
		return token
	}
	if token, err := auth.ExtractBearerToken(c.GetHeader("Authorization")); err == nil {
		return token
	}
	return ""
}

// StudentID returns the authenticated student ID set by the auth middleware
func StudentID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextStudentID)
	return id, id != ""
}
