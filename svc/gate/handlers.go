package gate

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jobbyai/planguard/pkg/logger"
	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/subscription"
)

// HeaderPaddleSignature carries the Paddle webhook signature.
const HeaderPaddleSignature = "Paddle-Signature"

// Webhook outcomes reported to metrics.
const (
	webhookApplied  = "applied"
	webhookRejected = "rejected"
	webhookSkipped  = "skipped"
	webhookFailed   = "failed"
)

func (s *Server) listPlans(*http.Request) Response {
	return JSON(http.StatusOK, s.catalog.Plans())
}

func (s *Server) usageSummary(r *http.Request) Response {
	summary, err := s.entitlements.Summary(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		s.log.ErrorContext(r.Context(), "usage summary failed", logger.Error(err))
		return Fail(err)
	}
	return JSON(http.StatusOK, summary)
}

type creditRequest struct {
	UserID  string        `json:"user_id"`
	Feature plans.Feature `json:"feature"`
	Units   int64         `json:"units"`
	Reason  string        `json:"reason"`
}

// grantCredit compensates a user whose metered action failed downstream.
func (s *Server) grantCredit(r *http.Request) Response {
	var req creditRequest
	if err := decodeJSON(r, &req); err != nil {
		return Fail(invalidRequest(err))
	}
	if strings.TrimSpace(req.UserID) == "" {
		return Fail(invalidRequest(errors.New("user_id is required")))
	}

	credit, err := s.entitlements.Refund(r.Context(), req.UserID, req.Feature, req.Units, req.Reason)
	if err != nil {
		s.log.ErrorContext(r.Context(), "credit grant failed",
			logger.UserID(req.UserID),
			logger.Feature(req.Feature),
			logger.Error(err),
		)
		return Fail(err)
	}
	return JSON(http.StatusCreated, credit)
}

func (s *Server) paddleWebhook(r *http.Request) Response {
	if s.webhooks == nil {
		return Fail(ErrBillingDisabled)
	}

	payload, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, s.webhookMaxBytes))
	if err != nil {
		s.observeWebhook(webhookRejected)
		return Fail(invalidRequest(err))
	}

	err = s.webhooks.HandleWebhook(r.Context(), payload, r.Header.Get(HeaderPaddleSignature))
	switch {
	case err == nil:
		s.observeWebhook(webhookApplied)
		return JSON(http.StatusOK, nil)
	case errors.Is(err, subscription.ErrInvalidTransition):
		// Redelivery cannot make an illegal transition legal.
		s.log.WarnContext(r.Context(), "billing webhook skipped", logger.Error(err))
		s.observeWebhook(webhookSkipped)
		return JSON(http.StatusOK, nil)
	}

	httpErr := toHTTPError(err)
	if httpErr.Status >= http.StatusInternalServerError {
		s.observeWebhook(webhookFailed)
		s.log.ErrorContext(r.Context(), "billing webhook failed", logger.Error(err))
	} else {
		s.observeWebhook(webhookRejected)
		s.log.WarnContext(r.Context(), "billing webhook rejected", logger.Error(err))
	}
	return Fail(httpErr)
}

func (s *Server) observeWebhook(result string) {
	if s.metrics != nil {
		s.metrics.ObserveWebhook(result)
	}
}
