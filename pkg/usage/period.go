package usage

import (
	"fmt"
	"time"
)

// Period is a half-open billing window [Start, End) within which usage accumulates.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewPeriod normalizes both bounds to UTC at microsecond precision, matching
// what PostgreSQL stores, so the same window always yields the same key.
func NewPeriod(start, end time.Time) (Period, error) {
	p := Period{Start: normalize(start), End: normalize(end)}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate reports whether the period is non-empty.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() || !p.End.After(p.Start) {
		return fmt.Errorf("%w: [%s, %s)", ErrInvalidPeriod, p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether t falls inside [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Length returns End - Start.
func (p Period) Length() time.Duration {
	return p.End.Sub(p.Start)
}

func (p Period) String() string {
	return fmt.Sprintf("[%s, %s)", p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339))
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
