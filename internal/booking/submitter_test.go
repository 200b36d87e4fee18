package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) List(ctx context.Context) ([]Slot, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Slot), args.Error(1)
}

func (m *MockStore) Insert(ctx context.Context, s Slot) (Slot, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(Slot), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type recordingObserver struct {
	mu        sync.Mutex
	decisions []Decision
	failures  []string
}

func (o *recordingObserver) Decided(d Decision) {
	o.mu.Lock()
	o.decisions = append(o.decisions, d)
	o.mu.Unlock()
}

func (o *recordingObserver) RemoteFailed(op string) {
	o.mu.Lock()
	o.failures = append(o.failures, op)
	o.mu.Unlock()
}

func setupSubmitter() (*Submitter, *MockStore, *recordingObserver) {
	store := &MockStore{}
	obs := &recordingObserver{}
	s := &Submitter{
		Store:     store,
		Validator: Validator{Hours: utcHours()},
		Observer:  obs,
		Now:       func() time.Time { return monday10 },
	}
	return s, store, obs
}

func validForm(t *testing.T, moment string) *Form {
	t.Helper()
	f, err := NewForm("30111222", "Ana Pérez", "OSDE", "12345", moment, time.UTC)
	require.NoError(t, err)
	return f
}

func TestSubmit_Success(t *testing.T) {
	s, store, obs := setupSubmitter()
	view := NewView([]Slot{{ID: "a", ScheduledAt: at("2024-01-08T17:00")}})
	form := validForm(t, "2024-01-08T18:00")

	want := form.Slot()
	stored := want
	stored.ID = "b"
	store.On("Insert", mock.Anything, want).Return(stored, nil)

	got, err := s.Submit(context.Background(), form, view)

	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)
	assert.Equal(t, 2, view.Len())
	assert.Equal(t, "b", view.Slots()[1].ID)
	assert.True(t, form.IsEmpty(), "form cleared")
	assert.False(t, view.Submitting())
	assert.Equal(t, []Decision{Accept()}, obs.decisions)
	store.AssertExpectations(t)
}

func TestSubmit_StoreWithoutRepresentationFallsBackToConstructedRecord(t *testing.T) {
	s, store, _ := setupSubmitter()
	view := NewView(nil)
	form := validForm(t, "2024-01-08T18:00")

	store.On("Insert", mock.Anything, mock.AnythingOfType("booking.Slot")).Return(Slot{ID: "42"}, nil)

	got, err := s.Submit(context.Background(), form, view)

	require.NoError(t, err)
	assert.Equal(t, "42", got.ID)
	assert.Equal(t, at("2024-01-08T18:00"), got.ScheduledAt)
	assert.Equal(t, "Ana Pérez", view.Slots()[0].PatientName)
}

func TestSubmit_RejectedHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		moment string
		reason Reason
	}{
		{"taken", "2024-01-08T17:00", ReasonSlotTaken},
		{"outside hours", "2024-01-08T16:45", ReasonOutsideHours},
		{"in past", "2024-01-07T18:00", ReasonInPast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store, obs := setupSubmitter()
			view := NewView([]Slot{{ID: "a", ScheduledAt: at("2024-01-08T17:00")}})
			form := validForm(t, tt.moment)
			before := *form

			_, err := s.Submit(context.Background(), form, view)

			reason, ok := RejectionReason(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.reason, reason)
			var re *RejectedError
			require.ErrorAs(t, err, &re)
			assert.NotEmpty(t, re.Message)
			assert.Equal(t, before, *form, "form kept")
			assert.Equal(t, 1, view.Len())
			assert.Equal(t, []Decision{Reject(tt.reason)}, obs.decisions)
			store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_RemoteFailureLeavesStateUnchanged(t *testing.T) {
	s, store, obs := setupSubmitter()
	view := NewView([]Slot{{ID: "a", ScheduledAt: at("2024-01-08T17:00")}})
	form := validForm(t, "2024-01-08T18:00")
	before := *form
	boom := errors.New("connection reset")

	store.On("Insert", mock.Anything, mock.Anything).Return(Slot{}, boom)

	_, err := s.Submit(context.Background(), form, view)

	require.Error(t, err)
	assert.True(t, IsRemoteFailure(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, *form, "form not cleared")
	assert.Equal(t, 1, view.Len(), "view unchanged")
	assert.False(t, view.Submitting(), "control re-enabled")
	assert.Equal(t, []string{"insert"}, obs.failures)

	// resubmitting the identical form works once the store recovers
	store.ExpectedCalls = nil
	store.On("Insert", mock.Anything, mock.Anything).Return(Slot{ID: "b", ScheduledAt: before.ScheduledAt}, nil)
	_, err = s.Submit(context.Background(), form, view)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Len())
}

func TestSubmit_InvalidFormNeverReachesStore(t *testing.T) {
	s, store, obs := setupSubmitter()
	form := &Form{PatientName: "Ana"}

	_, err := s.Submit(context.Background(), form, NewView(nil))

	var fe *FormError
	assert.ErrorAs(t, err, &fe)
	assert.Empty(t, obs.decisions)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSubmit_ReentrantSubmissionRefused(t *testing.T) {
	s, store, _ := setupSubmitter()
	view := NewView(nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	store.On("Insert", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(Slot{ID: "x", ScheduledAt: at("2024-01-08T18:00")}, nil).Once()

	first := validForm(t, "2024-01-08T18:00")
	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), first, view)
		done <- err
	}()

	<-entered
	assert.True(t, view.Submitting())
	_, err := s.Submit(context.Background(), validForm(t, "2024-01-08T18:15"), view)
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, view.Len())
	store.AssertNumberOfCalls(t, "Insert", 1)
}

func TestLoad(t *testing.T) {
	s, store, _ := setupSubmitter()
	store.On("List", mock.Anything).Return([]Slot{
		{ID: "late", ScheduledAt: at("2024-01-09T18:00")},
		{ID: "early", ScheduledAt: at("2024-01-08T18:00")},
	}, nil)

	view, err := s.Load(context.Background())

	require.NoError(t, err)
	slots := view.Slots()
	require.Len(t, slots, 2)
	assert.Equal(t, "early", slots[0].ID)
}

func TestLoad_RemoteFailure(t *testing.T) {
	s, store, obs := setupSubmitter()
	store.On("List", mock.Anything).Return([]Slot(nil), errors.New("503"))

	_, err := s.Load(context.Background())

	assert.True(t, IsRemoteFailure(err))
	assert.Equal(t, []string{"list"}, obs.failures)
}

func TestDelete(t *testing.T) {
	s, store, _ := setupSubmitter()
	view := NewView([]Slot{{ID: "a"}, {ID: "b"}})
	store.On("Delete", mock.Anything, "a").Return(nil)
	store.On("Delete", mock.Anything, "b").Return(errors.New("denied"))

	require.NoError(t, s.Delete(context.Background(), "a", view))
	assert.Equal(t, 1, view.Len())

	err := s.Delete(context.Background(), "b", view)
	assert.True(t, IsRemoteFailure(err))
	assert.Equal(t, 1, view.Len(), "kept after failed delete")
}

// The duplicate check runs against each client's own view, so two clients
// that loaded before either wrote can both book the same moment. Closing
// this needs a uniqueness constraint at the store.
func TestSubmit_ConcurrentClientsCanDoubleBook(t *testing.T) {
	s, store, _ := setupSubmitter()
	store.On("Insert", mock.Anything, mock.Anything).Return(Slot{ID: "x", ScheduledAt: at("2024-01-08T18:00")}, nil)

	first := NewView(nil)
	second := NewView(nil)

	_, err := s.Submit(context.Background(), validForm(t, "2024-01-08T18:00"), first)
	require.NoError(t, err)
	_, err = s.Submit(context.Background(), validForm(t, "2024-01-08T18:00"), second)
	require.NoError(t, err)

	store.AssertNumberOfCalls(t, "Insert", 2)

	_, err = s.Submit(context.Background(), validForm(t, "2024-01-08T18:00"), first)
	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, ReasonSlotTaken, rejected.Reason)
}
