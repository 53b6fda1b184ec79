package service

import (
	"context"
	"errors"

	"form-service/internal/models"
	"form-service/internal/repository/file"
	"form-service/internal/util"
	"form-service/internal/validation"

	"go.uber.org/zap"
)

// ErrRateLimited is returned when a client has used up its request window
var ErrRateLimited = errors.New("rate limit exceeded")

// SubmissionRequest is the decoded form payload
type SubmissionRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// SubmissionService handles the submission flow: rate limiting, validation,
// sanitization and the duplicate-checked insert.
type SubmissionService struct {
	rateLimits  *file.RateLimitStore
	submissions *file.SubmissionStore
	validator   *validation.FormValidator
	logger      *zap.Logger
}

func NewSubmissionService(
	rateLimits *file.RateLimitStore,
	submissions *file.SubmissionStore,
	validator *validation.FormValidator,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		rateLimits:  rateLimits,
		submissions: submissions,
		validator:   validator,
		logger:      logger,
	}
}

// Submit runs one submission through the full flow and returns the stored
// entry. Errors are *validation.Error, ErrRateLimited, file.ErrDuplicateEmail
// or a wrapped storage error.
func (s *SubmissionService) Submit(ctx context.Context, clientID string, req *SubmissionRequest) (models.Submission, error) {
	allowed, err := s.rateLimits.Check(clientID)
	if err != nil {
		s.logger.Error("Rate limit check failed",
			util.String("client_id", clientID),
			util.ErrorField(err),
		)
		return models.Submission{}, err
	}
	if !allowed {
		return models.Submission{}, ErrRateLimited
	}

	// Admission precedes validation: a rejected field has still consumed a
	// rate-limit slot for this client.
	if err := s.validator.Validate(req.Name, req.Company, req.Email, req.Phone); err != nil {
		var vErr *validation.Error
		if errors.As(err, &vErr) {
			s.logger.Info("Submission failed validation",
				util.String("client_id", clientID),
				util.String("field", vErr.Field),
			)
		}
		return models.Submission{}, err
	}

	sub := models.Submission{
		Name:    util.SanitizeInput(req.Name),
		Company: util.SanitizeInput(req.Company),
		Email:   util.SanitizeEmail(req.Email),
		Phone:   util.SanitizeInput(req.Phone),
	}

	stored, err := s.submissions.TryInsert(sub)
	if err != nil {
		if errors.Is(err, file.ErrDuplicateEmail) {
			s.logger.Info("Duplicate email attempt",
				util.String("client_id", clientID),
				util.String("email", sub.Email),
			)
			return models.Submission{}, err
		}
		s.logger.Error("Failed to persist submission",
			util.String("client_id", clientID),
			util.ErrorField(err),
		)
		return models.Submission{}, err
	}

	s.logger.Info("Submission recorded",
		util.String("submission_id", stored.ID),
		util.String("email", stored.Email),
		util.String("client_id", clientID),
	)
	return stored, nil
}

// Count returns the current ledger size
func (s *SubmissionService) Count() int {
	return s.submissions.Count()
}
