package booking

import (
	"context"
	"time"

	"github.com/example/turnos/internal/logger"
	"github.com/sirupsen/logrus"
)

// Observer is told about every decision and store failure. The metrics
// package implements it.
type Observer interface {
	Decided(d Decision)
	RemoteFailed(op string)
}

// Submitter validates booking forms against a client's view and writes
// accepted ones through to the store.
//
// The duplicate check reads the view and the insert happens afterwards with
// no conditional write, so two clients can still book the same moment.
type Submitter struct {
	Store     Store
	Validator Validator
	Log       *logger.Logger
	Observer  Observer

	// Now defaults to time.Now.
	Now func() time.Time
}

// Load fetches every appointment into a fresh view.
func (s *Submitter) Load(ctx context.Context) (*View, error) {
	slots, err := s.Store.List(ctx)
	if err != nil {
		s.remoteFailed("list", err)
		return nil, &RemoteFailure{Op: "list", Cause: err}
	}
	return NewView(slots), nil
}

// Submit books f against v. A rejection or store failure leaves both f and v
// untouched; on success the stored record is appended to v and f is cleared.
func (s *Submitter) Submit(ctx context.Context, f *Form, v *View) (Slot, error) {
	if err := f.Validate(); err != nil {
		return Slot{}, err
	}
	if !v.begin() {
		return Slot{}, ErrSubmitInFlight
	}
	defer v.end()

	candidate := f.ScheduledAt
	d := s.Validator.Evaluate(candidate, v.Moments(), s.now())
	if s.Observer != nil {
		s.Observer.Decided(d)
	}
	if !d.Accepted {
		s.entry().WithFields(logrus.Fields{
			"reason":    d.Reason,
			"candidate": candidate.Format(time.RFC3339),
		}).Info("booking rejected")
		return Slot{}, &RejectedError{Reason: d.Reason, Message: s.Validator.Message(d.Reason)}
	}

	rec := f.Slot()
	created, err := s.Store.Insert(ctx, rec)
	if err != nil {
		s.remoteFailed("insert", err)
		return Slot{}, &RemoteFailure{Op: "insert", Cause: err}
	}
	if created.ScheduledAt.IsZero() {
		rec.ID = created.ID
		created = rec
	}

	v.add(created)
	f.Clear()
	s.entry().WithFields(logrus.Fields{
		"id":        created.ID,
		"candidate": candidate.Format(time.RFC3339),
	}).Info("booking stored")
	return created, nil
}

// Delete removes an appointment at the store and then from v, which may be nil.
func (s *Submitter) Delete(ctx context.Context, id string, v *View) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		s.remoteFailed("delete", err)
		return &RemoteFailure{Op: "delete", Cause: err}
	}
	if v != nil {
		v.remove(id)
	}
	s.entry().WithField("id", id).Info("booking deleted")
	return nil
}

func (s *Submitter) remoteFailed(op string, err error) {
	if s.Observer != nil {
		s.Observer.RemoteFailed(op)
	}
	s.entry().WithError(err).WithField("op", op).Error("store call failed")
}

func (s *Submitter) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Submitter) entry() *logrus.Entry {
	if s.Log == nil {
		return logger.Discard().WithComponent("booking")
	}
	return s.Log.WithComponent("booking")
}
