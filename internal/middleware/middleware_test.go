package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/rosterhub/internal/app/models/dto"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
	"github.com/yigit/rosterhub/internal/pkg/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp
}

func TestHandleAPIErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     dto.ErrorCode
		severity dto.ErrorSeverity
	}{
		{"no data", apperrors.ErrNoData, http.StatusNotFound, dto.ErrorCodeNoData, dto.ErrorSeverityInfo},
		{"invalid id", fmt.Errorf("%w: bad", apperrors.ErrInvalidID), http.StatusBadRequest, dto.ErrorCodeInvalidID, dto.ErrorSeverityError},
		{"invalid average", fmt.Errorf("%w: off by 0.5", apperrors.ErrInvalidAverage), http.StatusBadRequest, dto.ErrorCodeInvalidAverage, dto.ErrorSeverityError},
		{"validation", fmt.Errorf("%w: empty update", apperrors.ErrValidationFailed), http.StatusBadRequest, dto.ErrorCodeValidationFailed, dto.ErrorSeverityError},
		{"roll number locked", apperrors.ErrRollNumberLocked, http.StatusBadRequest, dto.ErrorCodeValidationFailed, dto.ErrorSeverityError},
		{"not found", apperrors.ErrStudentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, dto.ErrorSeverityError},
		{"conflict", apperrors.ErrRollNumberExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, dto.ErrorSeverityError},
		{"credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, dto.ErrorSeverityError},
		{"session expired", apperrors.ErrSessionExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, dto.ErrorSeverityError},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, dto.ErrorSeverityError},
		{"storage timeout", fmt.Errorf("%w: find", apperrors.ErrStorageTimeout), http.StatusGatewayTimeout, dto.ErrorCodeDatabaseTimeout, dto.ErrorSeverityCritical},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, dto.ErrorCodeDatabaseTimeout, dto.ErrorSeverityCritical},
		{"storage unavailable", apperrors.ErrStorageUnavailable, http.StatusInternalServerError, dto.ErrorCodeDatabaseError, dto.ErrorSeverityCritical},
		{"canceled", context.Canceled, StatusClientClosedRequest, dto.ErrorCodeInternalServer, dto.ErrorSeverityWarning},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrorCodeInternalServer, dto.ErrorSeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			HandleAPIError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.severity, resp.Error.Severity)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestHandleAPIErrorUsesPublicMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleAPIError(c, fmt.Errorf("lookup R001: %w", apperrors.ErrAcademicHistoryNotFound))

	resp := decodeError(t, w)
	assert.Equal(t, "academic history not found", resp.Error.Message)
}

type fakeAuthorizer struct {
	sessions map[string]*session.Session
	err      error
}

func (f *fakeAuthorizer) Authorize(_ context.Context, token string) (*session.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	sess, ok := f.sessions[token]
	if !ok {
		return nil, apperrors.ErrSessionExpired
	}
	return sess, nil
}

func newAuthRouter(authorizer Authorizer) (*gin.Engine, *int) {
	m := NewAuthMiddleware(authorizer, "roster_session")
	calls := 0
	r := gin.New()
	r.GET("/private", m.SessionAuth(), func(c *gin.Context) {
		calls++
		sess, ok := GetSession(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, sess.StudentID)
	})
	return r, &calls
}

func TestSessionAuth(t *testing.T) {
	authorizer := &fakeAuthorizer{sessions: map[string]*session.Session{
		"good": {ID: "s1", StudentID: "student-1"},
	}}

	t.Run("missing token", func(t *testing.T) {
		r, calls := newAuthRouter(authorizer)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeUnauthorized, decodeError(t, w).Error.Code)
		assert.Zero(t, *calls)
	})

	t.Run("malformed header", func(t *testing.T) {
		r, calls := newAuthRouter(authorizer)
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Token good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Zero(t, *calls)
	})

	t.Run("bearer token", func(t *testing.T) {
		r, calls := newAuthRouter(authorizer)
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "student-1", w.Body.String())
		assert.Equal(t, 1, *calls)
	})

	t.Run("cookie wins over header", func(t *testing.T) {
		r, _ := newAuthRouter(authorizer)
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: "roster_session", Value: "good"})
		req.Header.Set("Authorization", "Bearer stale")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("expired session clears cookie", func(t *testing.T) {
		r, calls := newAuthRouter(authorizer)
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.AddCookie(&http.Cookie{Name: "roster_session", Value: "gone"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeExpiredToken, decodeError(t, w).Error.Code)
		assert.Contains(t, w.Header().Get("Set-Cookie"), "roster_session=;")
		assert.Zero(t, *calls)
	})

	t.Run("session store down", func(t *testing.T) {
		r, calls := newAuthRouter(&fakeAuthorizer{err: fmt.Errorf("%w: redis", apperrors.ErrStorageUnavailable)})
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, w.Header().Get("Set-Cookie"))
		assert.Zero(t, *calls)
	})
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(zerolog.Nop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}

func TestBindJSONReportsFields(t *testing.T) {
	type body struct {
		Name string `json:"name" binding:"required"`
	}
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var b body
		if !BindJSON(c, &b) {
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeValidationFailed, decodeError(t, w).Error.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
