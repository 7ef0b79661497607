package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/suite"

	"github.com/jobbyai/planguard/pkg/plans"
	"github.com/jobbyai/planguard/pkg/subscription"
)

var subscriptionColumns = []string{
	"id", "user_id", "version", "plan_id", "status", "provider_sub_id", "trial_end",
	"current_period_end", "past_due_since", "canceled_at", "created_at", "updated_at",
}

type PostgresStoreTestSuite struct {
	suite.Suite
	mock  pgxmock.PgxPoolIface
	store *subscription.PostgresStore
	ctx   context.Context
}

func (s *PostgresStoreTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	s.Require().NoError(err)
	s.mock = mock
	s.store = subscription.NewPostgresStore(mock)
	s.ctx = context.Background()
}

func (s *PostgresStoreTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.mock.Close()
}

func TestPostgresStoreTestSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreTestSuite))
}

func (s *PostgresStoreTestSuite) TestCurrent_NotFound() {
	s.mock.ExpectQuery(`SELECT .* FROM subscriptions WHERE user_id = \$1 ORDER BY version DESC LIMIT 1`).
		WithArgs("user-1").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.store.Current(s.ctx, "user-1")
	s.ErrorIs(err, subscription.ErrNoSubscription)
}

func (s *PostgresStoreTestSuite) TestCurrent() {
	id := uuid.New()
	trialEnd := t0.Add(14 * 24 * time.Hour)
	s.mock.ExpectQuery(`SELECT .* FROM subscriptions WHERE user_id = \$1 ORDER BY version DESC LIMIT 1`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(subscriptionColumns).AddRow(
			id, "user-1", 3, "pro", "past_due", "sub_01", &trialEnd,
			t0.Add(cycle), &t0, (*time.Time)(nil), t0, t0,
		))

	sub, err := s.store.Current(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(id, sub.ID)
	s.Equal(3, sub.Version)
	s.Equal(plans.Pro, sub.PlanID)
	s.Equal(subscription.StatusPastDue, sub.Status)
	s.Require().NotNil(sub.PastDueSince)
	s.True(sub.PastDueSince.Equal(t0))
	s.Nil(sub.CanceledAt)
}

func (s *PostgresStoreTestSuite) TestAppend() {
	sub := subWithStatus(subscription.StatusActive)
	sub.ID = uuid.New()

	s.mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(sub.ID, "user-1", 1, "basic", "active", "",
			sub.TrialEnd, sub.CurrentPeriodEnd, sub.PastDueSince, sub.CanceledAt, sub.CreatedAt, sub.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s.NoError(s.store.Append(s.ctx, sub))
}

func (s *PostgresStoreTestSuite) TestAppend_VersionTaken() {
	sub := subWithStatus(subscription.StatusActive)
	sub.ID = uuid.New()

	s.mock.ExpectExec(`INSERT INTO subscriptions`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	s.ErrorIs(s.store.Append(s.ctx, sub), subscription.ErrConcurrentUpdate)
}

func (s *PostgresStoreTestSuite) TestAppend_InvalidNeverQueries() {
	sub := subWithStatus(subscription.StatusActive)
	sub.Version = 0

	s.ErrorIs(s.store.Append(s.ctx, sub), subscription.ErrInvalidSubscription)
}

func (s *PostgresStoreTestSuite) TestHistory() {
	rows := pgxmock.NewRows(subscriptionColumns).
		AddRow(uuid.New(), "user-1", 2, "basic", "active", "", (*time.Time)(nil),
			t0.Add(cycle), (*time.Time)(nil), (*time.Time)(nil), t0, t0).
		AddRow(uuid.New(), "user-1", 1, "free", "active", "", (*time.Time)(nil),
			t0.Add(cycle), (*time.Time)(nil), (*time.Time)(nil), t0, t0)

	s.mock.ExpectQuery(`SELECT .* FROM subscriptions WHERE user_id = \$1 ORDER BY version DESC`).
		WithArgs("user-1").
		WillReturnRows(rows)

	history, err := s.store.History(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(2, history[0].Version)
	s.Equal(plans.Free, history[1].PlanID)
}

func (s *PostgresStoreTestSuite) TestUserByProviderSubID() {
	s.mock.ExpectQuery(`SELECT user_id FROM subscriptions WHERE provider_sub_id = \$1`).
		WithArgs("sub_01").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow("user-1"))

	userID, err := s.store.UserByProviderSubID(s.ctx, "sub_01")
	s.NoError(err)
	s.Equal("user-1", userID)
}
