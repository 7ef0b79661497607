// Package subscription tracks which plan each user is on and which billing
// period their usage is counted in.
//
// A subscription is stored as append-only versions: every lifecycle change
// writes a new row with Version+1 and the highest version is current. Two
// writers racing on the same version lose with ErrConcurrentUpdate rather than
// overwrite each other.
//
// # Lifecycle
//
// Transitions follow a fixed table:
//
//	trial_converted    trialing -> active
//	trial_expired      trialing -> canceled
//	payment_failed     active   -> past_due
//	payment_recovered  past_due -> active
//	grace_exceeded     past_due -> canceled
//	renewed            active   -> active
//	plan_changed       trialing|active|past_due -> same status
//	canceled           trialing|active|past_due -> canceled
//	reactivated        canceled -> active
//
// Anything else fails with ErrInvalidTransition. The package only records
// events; deciding that a payment failed is the billing provider's job.
//
// # Periods and terms
//
// GetCurrentPeriod derives the usage period from the subscription. Active
// periods roll forward in whole billing cycles, so quotas reset on time even
// if the renewal webhook is late. ResolveTerms adds least-privilege fallback:
// canceled subscriptions, past-due ones beyond the grace period and expired
// trials are governed by the FREE plan.
//
// # Usage
//
//	svc := subscription.NewService(catalog, subscription.NewPostgresStore(pool),
//		subscription.WithBillingCycle(30*24*time.Hour),
//		subscription.WithGracePeriod(72*time.Hour),
//		subscription.WithProvider(paddleProvider),
//	)
//
//	sub, err := svc.Provision(ctx, userID)
//	terms, err := svc.Terms(sub, time.Now())
//
// Paddle notifications are verified with the SDK's webhook verifier and
// mapped onto lifecycle events by HandleWebhook.
package subscription
