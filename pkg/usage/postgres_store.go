package usage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jobbyai/planguard/pkg/pg"
	"github.com/jobbyai/planguard/pkg/plans"
)

const (
	selectCountQuery = `SELECT count FROM usage_records
WHERE user_id = $1 AND feature = $2 AND period_start = $3 AND period_end = $4`

	incrementQuery = `INSERT INTO usage_records (id, user_id, feature, period_start, period_end, count)
VALUES ($1, $2, $3, $4, $5, 1)
ON CONFLICT (user_id, feature, period_start, period_end)
DO UPDATE SET count = usage_records.count + 1, updated_at = NOW()
RETURNING count`

	// The WHERE on the conflict branch turns the upsert into a conditional
	// increment: when the limit is reached no row is updated and nothing is returned.
	incrementIfBelowQuery = `INSERT INTO usage_records (id, user_id, feature, period_start, period_end, count)
VALUES ($1, $2, $3, $4, $5, 1)
ON CONFLICT (user_id, feature, period_start, period_end)
DO UPDATE SET count = usage_records.count + 1, updated_at = NOW()
WHERE usage_records.count < $6
RETURNING count`

	sumCreditsQuery = `SELECT LEAST(COALESCE(SUM(units), 0), 9223372036854775807)::bigint FROM usage_credits
WHERE user_id = $1 AND feature = $2 AND period_start = $3 AND period_end = $4`

	insertCreditQuery = `INSERT INTO usage_credits (id, user_id, feature, period_start, period_end, units, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	historyQuery = `SELECT id, user_id, feature, period_start, period_end, count, created_at, updated_at
FROM usage_records
WHERE user_id = $1 AND feature = $2
ORDER BY period_start DESC`
)

// PostgresStore persists usage in the usage_records and usage_credits tables.
type PostgresStore struct {
	db pg.DB
}

// NewPostgresStore creates a store on top of a pgx pool (or any pg.DB).
func NewPostgresStore(db pg.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key Key) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, selectCountQuery,
		key.UserID, string(key.Feature), key.Period.Start, key.Period.End,
	).Scan(&count)
	if pg.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, storeError(err)
	}
	return count, nil
}

func (s *PostgresStore) Increment(ctx context.Context, key Key) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, incrementQuery,
		uuid.New(), key.UserID, string(key.Feature), key.Period.Start, key.Period.End,
	).Scan(&count)
	if err != nil {
		return 0, storeError(err)
	}
	return count, nil
}

func (s *PostgresStore) IncrementIfBelow(ctx context.Context, key Key, limit int64) (int64, bool, error) {
	// A fresh insert would bypass the conflict WHERE, so zero limits never reach the upsert.
	if limit <= 0 {
		count, err := s.Get(ctx, key)
		return count, false, err
	}

	var count int64
	err := s.db.QueryRow(ctx, incrementIfBelowQuery,
		uuid.New(), key.UserID, string(key.Feature), key.Period.Start, key.Period.End, limit,
	).Scan(&count)
	if pg.IsNotFoundError(err) {
		current, err := s.Get(ctx, key)
		return current, false, err
	}
	if err != nil {
		return 0, false, storeError(err)
	}
	return count, true, nil
}

func (s *PostgresStore) Credits(ctx context.Context, key Key) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx, sumCreditsQuery,
		key.UserID, string(key.Feature), key.Period.Start, key.Period.End,
	).Scan(&total)
	if err != nil {
		return 0, storeError(err)
	}
	return total, nil
}

func (s *PostgresStore) AddCredit(ctx context.Context, credit Credit) error {
	_, err := s.db.Exec(ctx, insertCreditQuery,
		credit.ID, credit.Key.UserID, string(credit.Key.Feature),
		credit.Key.Period.Start, credit.Key.Period.End,
		credit.Units, credit.Reason, credit.CreatedAt,
	)
	if err != nil {
		return storeError(err)
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, userID string, feature plans.Feature) ([]Record, error) {
	rows, err := s.db.Query(ctx, historyQuery, userID, string(feature))
	if err != nil {
		return nil, storeError(err)
	}
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		var (
			r       Record
			feature string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &feature, &r.PeriodStart, &r.PeriodEnd, &r.Count, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, storeError(err)
		}
		r.Feature = plans.Feature(feature)
		r.PeriodStart = r.PeriodStart.UTC()
		r.PeriodEnd = r.PeriodEnd.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}
	return out, nil
}

func storeError(err error) error {
	if pg.IsSerializationFailure(err) {
		return errors.Join(ErrWriteConflict, err)
	}
	return errors.Join(ErrStorage, err)
}
