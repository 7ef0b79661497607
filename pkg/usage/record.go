package usage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jobbyai/planguard/pkg/plans"
)

// Key identifies one usage counter: a user, a feature and a billing period.
type Key struct {
	UserID  string
	Feature plans.Feature
	Period  Period
}

// NewKey validates and normalizes the parts of a usage key.
func NewKey(userID string, feature plans.Feature, period Period) (Key, error) {
	if strings.TrimSpace(userID) == "" {
		return Key{}, fmt.Errorf("%w: empty user id", ErrInvalidKey)
	}
	if !feature.Valid() {
		return Key{}, fmt.Errorf("%w: %w: %q", ErrInvalidKey, plans.ErrUnknownFeature, feature)
	}
	p, err := NewPeriod(period.Start, period.End)
	if err != nil {
		return Key{}, err
	}
	return Key{UserID: userID, Feature: feature, Period: p}, nil
}

// String is the canonical form used by the memory and redis stores.
func (k Key) String() string {
	return k.UserID + "|" + string(k.Feature) + "|" +
		strconv.FormatInt(k.Period.Start.UnixMicro(), 10) + "|" +
		strconv.FormatInt(k.Period.End.UnixMicro(), 10)
}

// Record is the consumption counter of one key.
// Count never decreases; a new period starts a new record.
type Record struct {
	ID          uuid.UUID     `json:"id"`
	UserID      string        `json:"user_id"`
	Feature     plans.Feature `json:"feature"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	Count       int64         `json:"count"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Credit is a compensating entry that raises the allowance of one key.
// Credits are how usage gets corrected without editing a record's history.
type Credit struct {
	ID        uuid.UUID `json:"id"`
	Key       Key       `json:"-"`
	Units     int64     `json:"units"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
