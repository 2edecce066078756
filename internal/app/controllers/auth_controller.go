// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/studentauth/internal/app/models/dto"
	"github.com/yigit/studentauth/internal/app/services"
	"github.com/yigit/studentauth/internal/middleware"
)

// CookieOptions are the attributes shared by setting and clearing the session cookie
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// AuthController handles student authentication endpoints
type AuthController struct {
	authService *services.AuthService
	cookie      CookieOptions
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, cookie CookieOptions, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		cookie:      cookie,
		logger:      logger,
	}
}

// Register handles student registration
// @Summary Register a new student
// @Description Creates a student account. Accepts JSON or URL-encoded bodies.
// @Tags student
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body dto.RegisterStudentRequest true "Student registration information"
// @Success 201 {object} dto.APIResponse{data=dto.StudentResponse} "Student registered successfully"
// @Failure 400 {object} dto.ErrorResponse "Missing required fields"
// @Failure 409 {object} dto.ErrorResponse "Student with email already exists"
// @Failure 413 {object} dto.ErrorResponse "Request body too large"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /student/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterStudentRequest
	if err := middleware.BindRequest(ctx, &req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid registration request payload")
		middleware.HandleAPIError(ctx, err)
		return
	}

	student, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(http.StatusCreated, student, "Student registered successfully"))
}

// Login handles student login
// @Summary Student login
// @Description Authenticates a student by usn or email and sets the accessToken cookie
// @Tags student
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body dto.LoginStudentRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.LoginResponse} "Student logged in successfully"
// @Failure 400 {object} dto.ErrorResponse "Missing identifier or password"
// @Failure 401 {object} dto.ErrorResponse "Incorrect password"
// @Failure 404 {object} dto.ErrorResponse "Invalid email or usn"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /student/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginStudentRequest
	if err := middleware.BindRequest(ctx, &req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid login request payload")
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Str("usn", req.Usn).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.setSessionCookie(ctx, resp.AccessToken, c.authService.AccessTokenTTL())
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(http.StatusOK, resp, "Student logged in successfully"))
}

// Logout handles student logout
// @Summary Student logout
// @Description Clears the accessToken cookie. No authentication is required.
// @Tags student
// @Produce json
// @Success 200 {object} dto.APIResponse "Student logged out"
// @Router /student/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	studentID, _ := middleware.StudentID(ctx)
	c.authService.Logout(studentID)

	c.clearSessionCookie(ctx)
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(http.StatusOK, nil, "Student logged out"))
}

// Me returns the authenticated student
// @Summary Current student
// @Description Returns the student identified by the accessToken cookie or bearer token
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse} "Current student"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized request"
// @Router /student/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	studentID, ok := middleware.StudentID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, services.ErrNotAuthenticated)
		return
	}

	student, err := c.authService.CurrentStudent(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(http.StatusOK, student, "Current student fetched successfully"))
}

func (c *AuthController) setSessionCookie(ctx *gin.Context, token string, ttl time.Duration) {
	http.SetCookie(ctx.Writer, c.sessionCookie(token, int(ttl.Seconds())))
}

// clearSessionCookie expires the cookie with the same attributes it was set with
func (c *AuthController) clearSessionCookie(ctx *gin.Context) {
	http.SetCookie(ctx.Writer, c.sessionCookie("", -1))
}

func (c *AuthController) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    value,
		Path:     "/",
		Domain:   c.cookie.Domain,
		MaxAge:   maxAge,
		Secure:   c.cookie.Secure,
		HttpOnly: true,
		SameSite: c.cookie.SameSite,
	}
}
