package plans

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

const unlimitedLiteral = "unlimited"

// Quota is either a finite non-negative cap or Unlimited.
// The zero value is a finite quota of 0.
type Quota struct {
	n         int64
	unlimited bool
}

// Unlimited is the quota with no cap.
var Unlimited = Quota{unlimited: true}

// Limit returns a finite quota. Negative values are clamped to 0.
func Limit(n int64) Quota {
	return Quota{n: max(n, 0)}
}

// QuotaFromInt64 decodes the storage encoding where -1 means unlimited.
func QuotaFromInt64(n int64) Quota {
	if n < 0 {
		return Unlimited
	}
	return Quota{n: n}
}

// IsUnlimited reports whether the quota has no cap.
func (q Quota) IsUnlimited() bool {
	return q.unlimited
}

// Value returns the finite cap and true, or 0 and false for Unlimited.
func (q Quota) Value() (int64, bool) {
	if q.unlimited {
		return 0, false
	}
	return q.n, true
}

// Int64 returns the storage encoding (-1 for unlimited, SQL friendly).
func (q Quota) Int64() int64 {
	if q.unlimited {
		return -1
	}
	return q.n
}

// Add raises a finite quota by n units. Unlimited stays unlimited.
func (q Quota) Add(n int64) Quota {
	if q.unlimited {
		return q
	}
	return Limit(q.n + n)
}

// Less reports whether q allows strictly fewer units than other.
func (q Quota) Less(other Quota) bool {
	switch {
	case q.unlimited:
		return false
	case other.unlimited:
		return true
	default:
		return q.n < other.n
	}
}

func (q Quota) String() string {
	if q.unlimited {
		return unlimitedLiteral
	}
	return strconv.FormatInt(q.n, 10)
}

// MarshalJSON encodes a number or the string "unlimited".
func (q Quota) MarshalJSON() ([]byte, error) {
	if q.unlimited {
		return json.Marshal(unlimitedLiteral)
	}
	return json.Marshal(q.n)
}

func (q *Quota) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return q.parse(s)
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidQuota, string(data))
	}
	return q.set(n)
}

func (q Quota) MarshalYAML() (any, error) {
	if q.unlimited {
		return unlimitedLiteral, nil
	}
	return q.n, nil
}

func (q *Quota) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected scalar", ErrInvalidQuota, node.Line)
	}
	return q.parse(node.Value)
}

func (q *Quota) parse(s string) error {
	if s == unlimitedLiteral {
		*q = Unlimited
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidQuota, s)
	}
	return q.set(n)
}

func (q *Quota) set(n int64) error {
	if n < 0 {
		return fmt.Errorf("%w: negative limit %d, use %q", ErrInvalidQuota, n, unlimitedLiteral)
	}
	*q = Quota{n: n}
	return nil
}
