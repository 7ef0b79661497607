package logger

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups non-nil errors under "errors". All nil yields an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under "error". A nil err yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier. An empty id yields an empty Attr.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// Feature records a metered feature name.
func Feature[T ~string](f T) slog.Attr {
	return slog.String("feature", string(f))
}

// PlanID records a plan identifier.
func PlanID[T ~string](id T) slog.Attr {
	return slog.String("plan_id", string(id))
}

// Status records a subscription status.
func Status[T ~string](s T) slog.Attr {
	return slog.String("status", string(s))
}

// Period records a billing period by its string form.
func Period(p fmt.Stringer) slog.Attr {
	return slog.String("period", p.String())
}

// Allowed records the outcome of an entitlement decision.
func Allowed(ok bool) slog.Attr {
	return slog.Bool("allowed", ok)
}

// RequestID records the request identifier. An empty id yields an empty Attr.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Duration records a duration under "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event records a lifecycle or webhook event name.
func Event[T ~string](name T) slog.Attr {
	return slog.String("event", string(name))
}
