// Package entitlement gates billable features on the user's plan and the
// usage recorded in the current billing period.
//
// CheckAndReserve is the single entry point for gated actions:
//
//	res, err := checker.CheckAndReserve(ctx, userID, plans.FeatureJobAnalysis)
//	if err != nil {
//		return err // unknown plan, no subscription, storage failure
//	}
//	if !res.Allowed {
//		// respond 429, nothing was recorded
//	}
//
// For a finite limit the check and the increment are one atomic ledger
// operation, so concurrent requests never approve more than the limit.
// Unlimited features are always allowed and still counted. Canceled,
// past-due beyond grace and expired-trial subscriptions are checked against
// the FREE plan. Credits granted on the ledger raise the limit of a period.
package entitlement
