package booking

import "time"

// Reason explains why a candidate slot was rejected.
type Reason string

const (
	ReasonSlotTaken    Reason = "SLOT_TAKEN"
	ReasonOutsideHours Reason = "OUTSIDE_HOURS"
	ReasonInPast       Reason = "IN_PAST"
)

// Decision is the outcome of evaluating one candidate moment.
type Decision struct {
	Accepted bool
	Reason   Reason
}

func Accept() Decision              { return Decision{Accepted: true} }
func Reject(reason Reason) Decision { return Decision{Reason: reason} }

// Validator decides whether a moment may be booked. It holds no state
// besides its policy, so Evaluate is safe to call concurrently.
type Validator struct {
	Hours BusinessHours
}

// Evaluate runs the checks in order and stops at the first failure:
// duplicate moment, time of day and grid, moments in the past, and finally
// closed weekdays. Closed days share the OUTSIDE_HOURS reason.
func (v Validator) Evaluate(candidate time.Time, existing []time.Time, now time.Time) Decision {
	c := normalize(candidate)
	for _, e := range existing {
		if normalize(e).Equal(c) {
			return Reject(ReasonSlotTaken)
		}
	}
	if !v.Hours.InWindow(candidate) {
		return Reject(ReasonOutsideHours)
	}
	if candidate.Before(now) {
		return Reject(ReasonInPast)
	}
	if !v.Hours.IsOpenDay(v.Hours.In(candidate).Weekday()) {
		return Reject(ReasonOutsideHours)
	}
	return Accept()
}

// Message is the user-facing text for a rejection.
func (v Validator) Message(r Reason) string {
	switch r {
	case ReasonSlotTaken:
		return "Ya existe un turno en este horario."
	case ReasonOutsideHours:
		return "El turno debe estar entre las " + v.Hours.Describe() + ", en intervalos de 15 minutos."
	case ReasonInPast:
		return "No puedes reservar un turno en el pasado."
	default:
		return string(r)
	}
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
