package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/rosterhub/internal/app/models/dto"
	"github.com/yigit/rosterhub/internal/app/services"
	"github.com/yigit/rosterhub/internal/middleware"
)

// AuthController handles operator login and logout
type AuthController struct {
	authService    services.AuthService
	authMiddleware *middleware.AuthMiddleware
	secureCookie   bool
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, authMiddleware *middleware.AuthMiddleware, secureCookie bool) *AuthController {
	return &AuthController{
		authService:    authService,
		authMiddleware: authMiddleware,
		secureCookie:   secureCookie,
	}
}

// Login handles operator login
// @Summary Log in
// @Description Checks the credentials, opens a session and sets the session cookie. The token is also returned for Bearer use.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Logged in"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.authService.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.authMiddleware.SetSessionCookie(ctx, result.Token, result.ExpiresIn, c.secureCookie)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: result.Token,
			TokenType:   "Bearer",
			ExpiresIn:   result.ExpiresIn,
		},
		Student: dto.NewStudentResponse(result.Student),
	}, "Logged in"))
}

// Logout handles operator logout
// @Summary Log out
// @Description Revokes the current session and clears the session cookie
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Logged out"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextKeyToken)
	if err := c.authService.Logout(ctx.Request.Context(), token); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.authMiddleware.SetSessionCookie(ctx, "", -1, c.secureCookie)
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Logged out"))
}
