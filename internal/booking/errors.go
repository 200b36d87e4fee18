package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSubmitInFlight is returned when a view already has a submission waiting
// on the store.
var ErrSubmitInFlight = errors.New("booking: a submission is already in progress")

// RejectedError is a local validation rejection. Nothing was written; the
// user can change the input and try again.
type RejectedError struct {
	Reason  Reason
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "booking rejected: " + string(e.Reason)
	}
	return fmt.Sprintf("booking rejected: %s: %s", e.Reason, e.Message)
}

// RemoteFailure wraps an error from the store. Local state was not touched,
// so resubmitting the identical form is safe.
type RemoteFailure struct {
	Op    string
	Cause error
}

func (e *RemoteFailure) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Cause)
}

func (e *RemoteFailure) Unwrap() error { return e.Cause }

// FormError lists per-field problems found while building a Form.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// RejectionReason extracts the reason from a *RejectedError anywhere in err's chain.
func RejectionReason(err error) (Reason, bool) {
	var re *RejectedError
	if errors.As(err, &re) {
		return re.Reason, true
	}
	return "", false
}

func IsRemoteFailure(err error) bool {
	var rf *RemoteFailure
	return errors.As(err, &rf)
}
