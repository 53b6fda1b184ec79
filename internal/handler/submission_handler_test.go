package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"form-service/internal/handler"
	"form-service/internal/repository/file"
	"form-service/internal/service"
	"form-service/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, maxRequests int) chi.Router {
	t.Helper()
	dataDir := t.TempDir()

	recordStore := file.NewRecordStore()
	rateLimits := file.NewRateLimitStore(recordStore, dataDir, maxRequests, time.Hour)
	submissions := file.NewSubmissionStore(recordStore, dataDir)

	formValidator, err := validation.New(50, 100, 20)
	require.NoError(t, err)

	svc := service.NewSubmissionService(rateLimits, submissions, formValidator, zap.NewNop())
	h := handler.NewSubmissionHandler(svc, zap.NewNop())
	return handler.NewRouter(h, zap.NewNop(), []string{"*"})
}

func doSubmit(router chi.Router, remoteAddr, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

const validPayload = `{"name":"Jo Ann","company":"Acme & Co","email":"X@Foo.com","phone":"555-1234"}`

func TestSubmitSuccessThenDuplicate(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	router := newRouter(t, 10)

	rec := doSubmit(router, "203.0.113.7:50000", validPayload)
	require.Equal(http.StatusOK, rec.Code)

	var body struct {
		Success      bool   `json:"success"`
		Message      string `json:"message"`
		SubmissionID string `json:"submission_id"`
	}
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(body.Success)
	require.Equal("Thank you for entering! Your submission has been recorded.", body.Message)
	require.True(strings.HasPrefix(body.SubmissionID, "contest_"))

	rec = doSubmit(router, "203.0.113.8:50000",
		`{"name":"Someone Else","company":"Other Co","email":"x@foo.com","phone":"555-9999"}`)
	require.Equal(http.StatusBadRequest, rec.Code)
	require.Equal("This email has already been entered in the contest.", errorBody(t, rec))
}

func TestSubmitValidationError(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	router := newRouter(t, 10)
	rec := doSubmit(router, "203.0.113.7:50000",
		`{"name":"J0hn","company":"Acme & Co","email":"jo@example.com","phone":"555-1234"}`)
	require.Equal(http.StatusBadRequest, rec.Code)
	require.Equal("Please enter a valid name (letters, spaces, hyphens, apostrophes only)", errorBody(t, rec))
}

func TestSubmitMalformedBody(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	router := newRouter(t, 10)

	rec := doSubmit(router, "203.0.113.7:50000", `{oops`)
	require.Equal(http.StatusBadRequest, rec.Code)
	require.Equal("Invalid JSON data", errorBody(t, rec))

	rec = doSubmit(router, "203.0.113.7:50000", "")
	require.Equal(http.StatusBadRequest, rec.Code)
	require.Equal("No data received", errorBody(t, rec))
}

func TestSubmitRateLimited(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	router := newRouter(t, 1)

	rec := doSubmit(router, "203.0.113.7:50000", validPayload)
	require.Equal(http.StatusOK, rec.Code)

	rec = doSubmit(router, "203.0.113.7:50000",
		`{"name":"Jo Ann","company":"Acme & Co","email":"other@foo.com","phone":"555-1234"}`)
	require.Equal(http.StatusTooManyRequests, rec.Code)
	require.Equal("Too many requests. Please try again in an hour.", errorBody(t, rec))
}

func TestWrongMethodNotAllowed(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	router := newRouter(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/submit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(http.StatusMethodNotAllowed, rec.Code)
	require.Equal("Method not allowed", errorBody(t, rec))
}

func TestPreflightOptions(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	router := newRouter(t, 10)

	req := httptest.NewRequest(http.MethodOptions, "/submit", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
	require.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(rec.Body.String())
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	router := newRouter(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
	require.JSONEq(`{"status":"healthy","service":"form-service"}`, rec.Body.String())
}
