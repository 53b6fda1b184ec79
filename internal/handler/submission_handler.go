package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"form-service/internal/repository/file"
	"form-service/internal/service"
	"form-service/internal/util"
	"form-service/internal/validation"

	"go.uber.org/zap"
)

// User-facing messages for non-validation failures
const (
	msgRateLimited    = "Too many requests. Please try again in an hour."
	msgDuplicateEmail = "This email has already been entered in the contest."
	msgStorageFailure = "Failed to save submission. Please try again."
	msgSuccess        = "Thank you for entering! Your submission has been recorded."
)

// SubmissionHandler handles HTTP requests for contest form submissions
type SubmissionHandler struct {
	service *service.SubmissionService
	logger  *zap.Logger
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(service *service.SubmissionService, logger *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger,
	}
}

// successResponse is the body returned for an accepted submission
type successResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	SubmissionID string `json:"submission_id"`
}

// errorResponse carries the only error detail a client ever sees
type errorResponse struct {
	Error string `json:"error"`
}

// CreateSubmission handles the contest form POST
func (h *SubmissionHandler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	clientID := clientAddr(r)

	body, err := io.ReadAll(r.Body)
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		h.respondWithError(w, http.StatusBadRequest, "No data received")
		return
	}

	var req service.SubmissionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	sub, err := h.service.Submit(r.Context(), clientID, &req)
	if err != nil {
		status, message := h.mapError(err)
		h.respondWithError(w, status, message)
		return
	}

	h.respondWithJSON(w, http.StatusOK, successResponse{
		Success:      true,
		Message:      msgSuccess,
		SubmissionID: sub.ID,
	})
	h.logger.Info("Submission accepted via HTTP",
		util.String("submission_id", sub.ID),
		util.String("client_id", clientID),
		util.Duration("duration", time.Since(startTime)),
	)
}

// HealthCheck reports service liveness
func (h *SubmissionHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"form-service"}`))
}

// mapError translates service errors into a status code and a client-safe
// message. Storage detail stays in the logs.
func (h *SubmissionHandler) mapError(err error) (int, string) {
	var vErr *validation.Error
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, vErr.Message
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	case errors.Is(err, file.ErrDuplicateEmail):
		return http.StatusBadRequest, msgDuplicateEmail
	default:
		return http.StatusInternalServerError, msgStorageFailure
	}
}

func (h *SubmissionHandler) respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", util.ErrorField(err))
	}
}

func (h *SubmissionHandler) respondWithError(w http.ResponseWriter, status int, message string) {
	h.respondWithJSON(w, status, errorResponse{Error: message})
}

// clientAddr extracts the client IP used as the rate-limit key. RealIP
// middleware has already folded proxy headers into RemoteAddr.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
