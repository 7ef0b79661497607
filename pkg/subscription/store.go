package subscription

import "context"

// Store persists subscription versions. Rows are never updated or deleted.
type Store interface {
	// Current returns the highest version for the user, or ErrNoSubscription.
	Current(ctx context.Context, userID string) (*Subscription, error)

	// Append writes a new version. It fails with ErrConcurrentUpdate when the
	// version already exists, which means another writer got there first.
	Append(ctx context.Context, sub Subscription) error

	// History returns every version of the user's subscription, newest first.
	History(ctx context.Context, userID string) ([]Subscription, error)

	// UserByProviderSubID finds the user owning a provider subscription id.
	UserByProviderSubID(ctx context.Context, providerSubID string) (string, error)
}
