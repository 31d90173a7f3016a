package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yigit/rosterhub/internal/app/controllers"
	"github.com/yigit/rosterhub/internal/app/models/dto"
	"github.com/yigit/rosterhub/internal/config"
	"github.com/yigit/rosterhub/internal/pkg/export"
	"github.com/yigit/rosterhub/internal/pkg/session"
)

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	deps   *Dependencies
	token  string
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Server.ShutdownTimeout = "1s"
	cfg.Database.Driver = config.DriverMemory
	cfg.Database.DBName = "rosterhub"
	cfg.Database.ConnectTimeout = "1s"
	cfg.Database.OperationTimeout = "1s"
	cfg.Session.Secret = "test-secret"
	cfg.Session.TTL = "1h"
	cfg.Session.CookieName = "roster_session"
	cfg.Session.Issuer = "rosterhub"
	cfg.Auth.BcryptCost = 4
	cfg.Roster.DefaultPageSize = 10
	cfg.Roster.MaxPageSize = 100
	cfg.Roster.MaxSearchResults = 1000
	cfg.Roster.ExportBatchSize = 2
	cfg.Roster.GradeScale = 10
	cfg.Roster.AverageTolerance = 0.01
	return cfg
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	cfg := testConfig()
	lgr := zerolog.Nop()

	store, err := SetupStore(ctx, cfg, lgr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	mr := miniredis.RunT(t)
	client, err := session.NewClient(ctx, session.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	sessions := NewSessionStore(client, cfg)
	t.Cleanup(func() { _ = sessions.Close() })

	deps, err := BuildDependencies(cfg, store, sessions, lgr)
	require.NoError(t, err)

	return &apiClient{t: t, router: SetupRouter(cfg, deps, lgr), deps: deps}
}

func (c *apiClient) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func registerBody(rollNumber, name, username string) map[string]interface{} {
	return map[string]interface{}{
		"rollNumber":      rollNumber,
		"name":            name,
		"phone":           "+911234567890",
		"email":           "student@example.edu",
		"dob":             "2003-04-12",
		"gender":          "female",
		"course":          "B.Tech",
		"branch":          "CSE",
		"section":         "A",
		"year":            "3",
		"residenceStatus": "hosteller",
		"username":        username,
		"password":        "password123",
	}
}

func (c *apiClient) registerAndLogin() string {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/v1/students", registerBody("R001", "Asha Verma", "asha"))
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	var registered dto.RegisterStudentResponse
	decode(c.t, w, &registered)

	w = c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "asha", "password": "password123"})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(c.t, w.Header().Get("Set-Cookie"), "roster_session=")
	var auth dto.AuthResponse
	decode(c.t, w, &auth)
	require.NotEmpty(c.t, auth.Token.AccessToken)
	c.token = auth.Token.AccessToken
	return registered.ID
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	c := newAPIClient(t)

	w := c.do(http.MethodPost, "/api/v1/students", registerBody("R001", "Asha Verma", "asha"))
	require.Equal(t, http.StatusCreated, w.Code)
	var registered dto.RegisterStudentResponse
	decode(t, w, &registered)

	before, err := c.deps.StudentService.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)

	w = c.do(http.MethodPatch, "/api/v1/students/"+registered.ID, map[string]string{"name": "Changed", "section": "Z"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodDelete, "/api/v1/students/"+registered.ID, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	after, err := c.deps.StudentService.GetByID(context.Background(), registered.ID)
	require.NoError(t, err, "the profile must survive an unauthenticated delete")
	assert.Equal(t, before, after, "the profile must be unchanged")

	grades := map[string]interface{}{"semesterGrades": []map[string]interface{}{{"semester": "S1", "gpa": 8.0}}}
	w = c.do(http.MethodPut, "/api/v1/academic-history/R001", grades)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, err = c.deps.AcademicHistoryService.GetByRollNumber(context.Background(), "R001")
	assert.Error(t, err, "no history may be stored by an unauthenticated request")

	for _, path := range []string{"/api/v1/students", "/api/v1/students/search?name=a", "/api/v1/students/export"} {
		w = c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	c.token = "not-a-token"
	w = c.do(http.MethodGet, "/api/v1/students", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	c := newAPIClient(t)
	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/v1/students", registerBody("R001", "Asha Verma", "asha")).Code)

	w := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "asha", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeInvalidCredentials, decode(t, w, nil).Error.Code)

	w = c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "nobody", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	c := newAPIClient(t)

	body := registerBody("bad roll!", "Asha Verma", "asha")
	w := c.do(http.MethodPost, "/api/v1/students", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "rollNumber", decode(t, w, nil).Error.Field)

	require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/v1/students", registerBody("R001", "Asha Verma", "asha")).Code)
	w = c.do(http.MethodPost, "/api/v1/students", registerBody("R001", "Someone Else", "other"))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRosterLifecycle(t *testing.T) {
	c := newAPIClient(t)
	id := c.registerAndLogin()

	var page dto.RosterPageResponse
	w := c.do(http.MethodGet, "/api/v1/students", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "N/A", page.Items[0].OverallAverage)
	assert.Equal(t, int64(1), page.Pagination.TotalItems)

	grades := map[string]interface{}{
		"semesterGrades": []map[string]interface{}{
			{"semester": "S1", "gpa": 8.2},
			{"semester": "S2", "gpa": 8.6},
			{"semester": "S3", "gpa": 8.0},
			{"semester": "S4", "gpa": 8.4},
		},
	}
	w = c.do(http.MethodPut, "/api/v1/academic-history/R001", grades)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	grades["overallAverage"] = 8.3
	w = c.do(http.MethodPut, "/api/v1/academic-history/R001", grades)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	grades["overallAverage"] = 9.5
	w = c.do(http.MethodPut, "/api/v1/academic-history/R001", grades)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeInvalidAverage, decode(t, w, nil).Error.Code)

	w = c.do(http.MethodPut, "/api/v1/academic-history/R404", map[string]interface{}{
		"semesterGrades": []map[string]interface{}{{"semester": "S1", "gpa": 7.0}},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var history dto.AcademicHistoryResponse
	w = c.do(http.MethodGet, "/api/v1/academic-history/R001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &history)
	assert.InDelta(t, 8.3, history.OverallAverage, 1e-9)
	assert.Len(t, history.SemesterGrades, 4)

	w = c.do(http.MethodGet, "/api/v1/students", nil)
	decode(t, w, &page)
	assert.Equal(t, "8.30", page.Items[0].OverallAverage)

	var search dto.SearchResponse
	w = c.do(http.MethodGet, "/api/v1/students/search?name=asha&sort=name", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &search)
	assert.Equal(t, 1, search.Count)
	assert.False(t, search.Truncated)

	w = c.do(http.MethodGet, "/api/v1/students/search?name=zzz", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w, nil)
	assert.Equal(t, dto.ErrorCodeNoData, env.Error.Code)
	assert.Equal(t, dto.ErrorSeverityInfo, env.Error.Severity)

	w = c.do(http.MethodGet, "/api/v1/students/search?name=a&sort=passwordHash", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodGet, "/api/v1/students?page=5", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = c.do(http.MethodGet, "/api/v1/students?limit=1000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPatch, "/api/v1/students/"+id, map[string]string{"rollNumber": "R999"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var updated dto.StudentResponse
	w = c.do(http.MethodPatch, "/api/v1/students/"+id, map[string]string{"section": "B"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &updated)
	assert.Equal(t, "B", updated.Section)
	assert.Equal(t, "R001", updated.RollNumber)
	assert.NotContains(t, w.Body.String(), "passwordHash")

	w = c.do(http.MethodDelete, "/api/v1/students/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Deleting the student revoked the session used for the request.
	w = c.do(http.MethodGet, "/api/v1/students/"+id, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, err := c.deps.AcademicHistoryService.GetByRollNumber(context.Background(), "R001")
	assert.Error(t, err)
}

func TestGetStudentErrors(t *testing.T) {
	c := newAPIClient(t)
	c.registerAndLogin()

	w := c.do(http.MethodGet, "/api/v1/students/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodGet, "/api/v1/academic-history/R001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportRoster(t *testing.T) {
	c := newAPIClient(t)
	c.registerAndLogin()
	for i, roll := range []string{"R002", "R003"} {
		body := registerBody(roll, "Student "+roll, "user"+string(rune('a'+i)))
		require.Equal(t, http.StatusCreated, c.do(http.MethodPost, "/api/v1/students", body).Code)
	}

	w := c.do(http.MethodGet, "/api/v1/students/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.XLSXContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), controllers.ExportFilename)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Roster")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "RollNumber", rows[0][0])
	assert.Equal(t, []string{"R001", "R002", "R003"}, []string{rows[1][0], rows[2][0], rows[3][0]})
	assert.Equal(t, "N/A", rows[1][len(rows[1])-1])
}

func TestLogoutRevokesSession(t *testing.T) {
	c := newAPIClient(t)
	c.registerAndLogin()

	w := c.do(http.MethodPost, "/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.Contains(w.Header().Get("Set-Cookie"), "Max-Age=0"))

	w = c.do(http.MethodGet, "/api/v1/students", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	c := newAPIClient(t)

	w := c.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status map[string]string
	decode(t, w, &status)
	assert.Equal(t, map[string]string{"store": "up", "sessions": "up"}, status)

	w = c.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
