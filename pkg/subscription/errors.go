package subscription

import "errors"

var (
	ErrNoSubscription            = errors.New("subscription: no subscription for user")
	ErrSubscriptionExists        = errors.New("subscription: subscription already exists")
	ErrInvalidSubscription       = errors.New("subscription: invalid subscription record")
	ErrInvalidTransition         = errors.New("subscription: invalid lifecycle transition")
	ErrConcurrentUpdate          = errors.New("subscription: concurrent update, reload and retry")
	ErrInvalidCycle              = errors.New("subscription: billing cycle must be positive")
	ErrMissingUserID             = errors.New("subscription: user id is required")
	ErrUnknownEvent              = errors.New("subscription: unknown lifecycle event")
	ErrStorage                   = errors.New("subscription: storage failure")
	ErrNoBillingProvider         = errors.New("subscription: billing provider is not configured")
	ErrWebhookVerificationFailed = errors.New("subscription: webhook signature verification failed")
	ErrInvalidWebhookPayload     = errors.New("subscription: invalid webhook payload")
	ErrMissingWebhookSecret      = errors.New("subscription: billing provider webhook secret is required")
	ErrUnmappedPrice             = errors.New("subscription: provider price is not mapped to a plan")
)
