package subscription

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusPastDue, StatusCanceled:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// EventType names a lifecycle transition. Events are reported by the billing
// provider; this package records them and never initiates one.
type EventType string

const (
	EventTrialConverted   EventType = "trial_converted"
	EventTrialExpired     EventType = "trial_expired"
	EventPaymentFailed    EventType = "payment_failed"
	EventPaymentRecovered EventType = "payment_recovered"
	EventGraceExceeded    EventType = "grace_exceeded"
	EventRenewed          EventType = "renewed"
	EventPlanChanged      EventType = "plan_changed"
	EventCanceled         EventType = "canceled"
	EventReactivated      EventType = "reactivated"
)

func (e EventType) String() string { return string(e) }

// Valid reports whether e is one of the known lifecycle events.
func (e EventType) Valid() bool {
	switch e {
	case EventTrialConverted, EventTrialExpired, EventPaymentFailed, EventPaymentRecovered,
		EventGraceExceeded, EventRenewed, EventPlanChanged, EventCanceled, EventReactivated:
		return true
	}
	return false
}
