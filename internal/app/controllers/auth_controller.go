// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ssis-app/ssis/internal/app/models/dto"
	"github.com/ssis-app/ssis/internal/app/services"
	"github.com/ssis-app/ssis/internal/middleware"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
)

// CookieConfig controls the session cookie written on login
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthController handles authentication related operations
type AuthController struct {
	authService *services.AuthService
	cookie      CookieConfig
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, cookie CookieConfig, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		cookie:      cookie,
		logger:      logger,
	}
}

// Signup handles account registration
// @Summary Register a dashboard account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "Account information"
// @Success 201 {object} dto.SuccessResponse "User registered successfully."
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid fields"
// @Failure 409 {object} dto.ErrorResponse "User already exists"
// @Router /auth/signup [post]
func (c *AuthController) Signup(ctx *gin.Context) {
	var req dto.SignupRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if _, err := c.authService.Signup(ctx, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.SuccessResponse{Message: "User registered successfully."})
}

// Login checks credentials and sets the session cookie
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.SuccessResponse "Login successful"
// @Failure 401 {object} dto.ErrorResponse "Incorrect password"
// @Failure 404 {object} dto.ErrorResponse "Email not registered"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	session, err := c.authService.Login(ctx, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.setCookie(ctx, session.Token, maxAge)
	c.logger.Info().Int64("userID", session.User.ID).Msg("User logged in")
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "Login successful"})
}

// Logout clears the session cookie
// @Summary Log out
// @Tags auth
// @Success 200 {object} dto.SuccessResponse "Logout successful"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	c.setCookie(ctx, "", -1)
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "Logout successful"})
}

// Ping reports the owner of the current session
// @Summary Check the session
// @Tags auth
// @Produce json
// @Success 200 {object} dto.PingResponse
// @Failure 401 {object} dto.ErrorResponse "Authentication required"
// @Router /auth/ping [get]
func (c *AuthController) Ping(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrTokenInvalid)
		return
	}

	user, err := c.authService.CurrentUser(ctx, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.PingResponse{
		UserID: user.ID,
		User:   dto.PingUser{Name: user.Username, Email: user.Email},
	})
}

func (c *AuthController) setCookie(ctx *gin.Context, value string, maxAge int) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(c.cookie.Name, value, maxAge, "/", "", c.cookie.Secure, true)
}
