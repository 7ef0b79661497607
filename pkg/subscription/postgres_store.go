package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jobbyai/planguard/pkg/pg"
	"github.com/jobbyai/planguard/pkg/plans"
)

const (
	subscriptionColumns = `id, user_id, version, plan_id, status, provider_sub_id, trial_end,
current_period_end, past_due_since, canceled_at, created_at, updated_at`

	currentSubscriptionQuery = `SELECT ` + subscriptionColumns + `
FROM subscriptions WHERE user_id = $1 ORDER BY version DESC LIMIT 1`

	subscriptionHistoryQuery = `SELECT ` + subscriptionColumns + `
FROM subscriptions WHERE user_id = $1 ORDER BY version DESC`

	appendSubscriptionQuery = `INSERT INTO subscriptions (` + subscriptionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	userByProviderSubIDQuery = `SELECT user_id FROM subscriptions
WHERE provider_sub_id = $1 ORDER BY created_at DESC LIMIT 1`
)

// PostgresStore persists subscription versions in the subscriptions table.
// The unique (user_id, version) constraint arbitrates concurrent writers.
type PostgresStore struct {
	db pg.DB
}

// NewPostgresStore creates a store on top of a pgx pool (or any pg.DB).
func NewPostgresStore(db pg.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Current(ctx context.Context, userID string) (*Subscription, error) {
	sub, err := scanSubscription(s.db.QueryRow(ctx, currentSubscriptionQuery, userID))
	if pg.IsNotFoundError(err) {
		return nil, ErrNoSubscription
	}
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return sub, nil
}

func (s *PostgresStore) Append(ctx context.Context, sub Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx, appendSubscriptionQuery,
		sub.ID, sub.UserID, sub.Version, string(sub.PlanID), string(sub.Status), sub.ProviderSubID,
		sub.TrialEnd, sub.CurrentPeriodEnd, sub.PastDueSince, sub.CanceledAt, sub.CreatedAt, sub.UpdatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return errors.Join(ErrConcurrentUpdate, err)
	}
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, userID string) ([]Subscription, error) {
	rows, err := s.db.Query(ctx, subscriptionHistoryQuery, userID)
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	defer rows.Close()

	out := make([]Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, errors.Join(ErrStorage, err)
		}
		out = append(out, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return out, nil
}

func (s *PostgresStore) UserByProviderSubID(ctx context.Context, providerSubID string) (string, error) {
	if providerSubID == "" {
		return "", ErrNoSubscription
	}

	var userID string
	err := s.db.QueryRow(ctx, userByProviderSubIDQuery, providerSubID).Scan(&userID)
	if pg.IsNotFoundError(err) {
		return "", ErrNoSubscription
	}
	if err != nil {
		return "", errors.Join(ErrStorage, err)
	}
	return userID, nil
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var (
		sub            Subscription
		planID, status string
	)
	if err := row.Scan(
		&sub.ID, &sub.UserID, &sub.Version, &planID, &status, &sub.ProviderSubID, &sub.TrialEnd,
		&sub.CurrentPeriodEnd, &sub.PastDueSince, &sub.CanceledAt, &sub.CreatedAt, &sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	sub.PlanID = plans.ID(planID)
	sub.Status = Status(status)
	sub.CurrentPeriodEnd = sub.CurrentPeriodEnd.UTC()
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()
	sub.TrialEnd = utcPtr(sub.TrialEnd)
	sub.PastDueSince = utcPtr(sub.PastDueSince)
	sub.CanceledAt = utcPtr(sub.CanceledAt)
	return &sub, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
