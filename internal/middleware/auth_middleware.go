package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/rosterhub/internal/app/models/dto"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
	"github.com/yigit/rosterhub/internal/pkg/auth"
	"github.com/yigit/rosterhub/internal/pkg/session"
)

// Context keys set by SessionAuth
const (
	ContextKeySession   = "session"
	ContextKeyStudentID = "studentID"
	ContextKeyToken     = "sessionToken"
)

// Authorizer resolves a session token to a live session.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*session.Session, error)
}

// AuthMiddleware guards routes that need a logged in operator
type AuthMiddleware struct {
	authorizer Authorizer
	cookieName string
}

// NewAuthMiddleware creates a new AuthMiddleware. Tokens are read from the
// cookie named cookieName or from a Bearer Authorization header.
func NewAuthMiddleware(authorizer Authorizer, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		authorizer: authorizer,
		cookieName: cookieName,
	}
}

// SessionAuth rejects the request with 401 before any handler runs unless it
// carries a token for a live session.
func (m *AuthMiddleware) SessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := m.TokenFromRequest(c)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails(err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		sess, err := m.authorizer.Authorize(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, apperrors.ErrUnauthorized) || errors.Is(err, apperrors.ErrSessionExpired) {
				m.clearCookie(c)
			}
			HandleAPIError(c, err)
			return
		}

		c.Set(ContextKeySession, sess)
		c.Set(ContextKeyStudentID, sess.StudentID)
		c.Set(ContextKeyToken, token)
		c.Next()
	}
}

// TokenFromRequest prefers the session cookie and falls back to the
// Authorization header.
func (m *AuthMiddleware) TokenFromRequest(c *gin.Context) (string, error) {
	if cookie, err := c.Cookie(m.cookieName); err == nil && cookie != "" {
		return cookie, nil
	}

	header := c.GetHeader("Authorization")
	if header == "" {
		return "", errors.New("no session cookie or Authorization header")
	}
	token, err := auth.ExtractBearerToken(header)
	if err != nil {
		return "", errors.New("authorization header must be 'Bearer <token>'")
	}
	return token, nil
}

// SetSessionCookie stores the token in an HttpOnly cookie.
func (m *AuthMiddleware) SetSessionCookie(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, token, maxAge, "/", "", secure, true)
}

func (m *AuthMiddleware) clearCookie(c *gin.Context) {
	if _, err := c.Cookie(m.cookieName); err == nil {
		c.SetCookie(m.cookieName, "", -1, "/", "", false, true)
	}
}

// GetSession returns the session stored by SessionAuth.
func GetSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(ContextKeySession)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}
