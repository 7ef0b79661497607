package gate

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jobbyai/planguard/pkg/entitlement"
	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/subscription"
	"github.com/jobbyai/planguard/pkg/usage"
)

// Machine-readable error codes of the JSON envelope.
const (
	CodeUsageLimitExceeded = "USAGE_LIMIT_EXCEEDED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeWebhookRejected    = "WEBHOOK_REJECTED"
	CodeBillingDisabled    = "BILLING_DISABLED"
	CodeConflict           = "CONFLICT"
	CodeNotFound           = "NOT_FOUND"
)

// HTTPError is an error with the status and envelope code it renders as.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e HTTPError) Error() string {
	return e.Message
}

var (
	ErrUnauthorized    = HTTPError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: "missing user id"}
	ErrInvalidRequest  = HTTPError{Status: http.StatusBadRequest, Code: CodeInvalidRequest, Message: "invalid request"}
	ErrInternal        = HTTPError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "internal error"}
	ErrWebhookRejected = HTTPError{Status: http.StatusUnauthorized, Code: CodeWebhookRejected, Message: "webhook signature verification failed"}
	ErrBillingDisabled = HTTPError{Status: http.StatusNotFound, Code: CodeBillingDisabled, Message: "billing provider is not configured"}
	ErrConflict        = HTTPError{Status: http.StatusConflict, Code: CodeConflict, Message: "concurrent update, retry"}
	ErrNotFound        = HTTPError{Status: http.StatusNotFound, Code: CodeNotFound, Message: "not found"}
)

// limitExceeded is the denial for feature.
func limitExceeded(feature plans.Feature) HTTPError {
	return HTTPError{
		Status:  http.StatusTooManyRequests,
		Code:    CodeUsageLimitExceeded,
		Message: fmt.Sprintf("%s limit reached", feature),
	}
}

func invalidRequest(err error) HTTPError {
	e := ErrInvalidRequest
	e.Message = err.Error()
	return e
}

// toHTTPError maps domain errors onto the envelope. Anything unclassified,
// including unknown plans and missing subscriptions, is an internal error.
func toHTTPError(err error) HTTPError {
	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, entitlement.ErrMissingUserID), errors.Is(err, subscription.ErrMissingUserID):
		return ErrUnauthorized
	case errors.Is(err, plans.ErrUnknownFeature), errors.Is(err, usage.ErrInvalidCredit):
		return invalidRequest(err)
	case errors.Is(err, subscription.ErrWebhookVerificationFailed):
		return ErrWebhookRejected
	case errors.Is(err, subscription.ErrInvalidWebhookPayload), errors.Is(err, subscription.ErrUnmappedPrice):
		return invalidRequest(err)
	case errors.Is(err, subscription.ErrNoBillingProvider):
		return ErrBillingDisabled
	case errors.Is(err, subscription.ErrConcurrentUpdate), errors.Is(err, usage.ErrWriteConflict):
		return ErrConflict
	default:
		return ErrInternal
	}
}
