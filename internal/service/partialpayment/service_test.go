package partialpayment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TrekBookingService/internal/integrations/notifyservice"
)

type fakeStore struct {
	bookings map[int64]*domain.Booking
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeStore) CompletePartial(_ context.Context, id int64, status domain.BookingStatus, completedAt time.Time) error {
	b, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.Status = status
	b.Partial.RemainingAmount = 0
	b.Partial.CompletedAt = &completedAt
	return nil
}

func (f *fakeStore) MarkReminderSent(_ context.Context, id int64, at time.Time) error {
	b, ok := f.bookings[id]
	if !ok || b.Partial == nil || b.Partial.ReminderSent {
		return bookingRepo.ErrBookingNotFound
	}
	b.Partial.ReminderSent = true
	b.Partial.ReminderSentAt = &at
	return nil
}

func (f *fakeStore) ListPartialPaymentsDue(_ context.Context, from, to time.Time) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range f.bookings {
		if b.Status != domain.StatusPaymentConfirmedPartial || b.Partial == nil || b.Partial.ReminderSent {
			continue
		}
		due := b.Partial.FinalPaymentDueDate
		if due != nil && !due.Before(from) && !due.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeTreks struct{ batch *domain.Batch }

func (f *fakeTreks) GetBatchForUpdate(_ context.Context, _, _ int64) (*domain.Batch, error) {
	return f.batch, nil
}

type fakeCapacity struct{ calls int }

func (f *fakeCapacity) Reconcile(_ context.Context, _, _ int64) (int, error) {
	f.calls++
	return 0, nil
}

type fakeNotify struct {
	sent []notifyservice.PaymentReminder
	fail bool
}

func (f *fakeNotify) SendPaymentReminder(_ context.Context, r notifyservice.PaymentReminder) error {
	if f.fail {
		return notifyservice.ErrInternal
	}
	f.sent = append(f.sent, r)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
func (passthroughTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (passthroughTx) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func partialBooking(id int64, dueInDays int, now time.Time, withDetails bool) *domain.Booking {
	due := now.AddDate(0, 0, dueInDays)
	b := &domain.Booking{
		ID:                   id,
		UserID:               42,
		TrekID:               7,
		BatchID:              3,
		NumberOfParticipants: 2,
		TotalPrice:           2000,
		Status:               domain.StatusPaymentConfirmedPartial,
		PaymentMode:          domain.PaymentModePartial,
		ContactName:          "Ivan Petrov",
		ContactEmail:         "ivan@example.com",
		Partial: &domain.PartialPaymentDetails{
			InitialAmount:       600,
			RemainingAmount:     1400,
			FinalPaymentDueDate: &due,
		},
	}
	if withDetails {
		b.Participants = []*domain.Participant{
			{ID: "p1", BookingID: id, Name: "Ivan Petrov", Age: 34},
			{ID: "p2", BookingID: id, Name: "Anna Petrova", Age: 31},
		}
	}
	return b
}

func newService(store *fakeStore, notify *fakeNotify, now time.Time, windowDays int) (*Service, *fakeCapacity) {
	cap := &fakeCapacity{}
	svc := NewService(store, &fakeTreks{batch: &domain.Batch{ID: 3, TrekID: 7}}, cap, notify, passthroughTx{}, windowDays, nopLogger{})
	svc.timeProvider = fixedTime{t: now}
	return svc, cap
}

func TestMarkComplete(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("With Details Promotes To Confirmed", func(t *testing.T) {
		store := &fakeStore{bookings: map[int64]*domain.Booking{
			10: partialBooking(10, 20, now, true),
		}}
		svc, cap := newService(store, &fakeNotify{}, now, 3)

		updated, err := svc.MarkComplete(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, updated.Status)
		assert.Zero(t, updated.Partial.RemainingAmount)
		assert.NotNil(t, updated.Partial.CompletedAt)
		assert.Equal(t, 1, cap.calls)
	})

	t.Run("Without Details Promotes To Payment Completed", func(t *testing.T) {
		store := &fakeStore{bookings: map[int64]*domain.Booking{
			10: partialBooking(10, 20, now, false),
		}}
		svc, _ := newService(store, &fakeNotify{}, now, 3)

		updated, err := svc.MarkComplete(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaymentCompleted, updated.Status)
	})

	t.Run("Already Completed Rejected", func(t *testing.T) {
		b := partialBooking(10, 20, now, true)
		b.Partial.CompletedAt = &now
		store := &fakeStore{bookings: map[int64]*domain.Booking{10: b}}
		svc, _ := newService(store, &fakeNotify{}, now, 3)

		_, err := svc.MarkComplete(ctx, 10)
		assert.ErrorIs(t, err, ErrAlreadyCompleted)
	})

	t.Run("Full Payment Rejected", func(t *testing.T) {
		b := partialBooking(10, 20, now, true)
		b.PaymentMode = domain.PaymentModeFull
		b.Partial = nil
		store := &fakeStore{bookings: map[int64]*domain.Booking{10: b}}
		svc, _ := newService(store, &fakeNotify{}, now, 3)

		_, err := svc.MarkComplete(ctx, 10)
		assert.ErrorIs(t, err, ErrNotPartialPayment)
	})
}

func TestProcessDueReminders(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Sends Inside Window Only", func(t *testing.T) {
		store := &fakeStore{bookings: map[int64]*domain.Booking{
			10: partialBooking(10, 2, now, true),  // в окне
			11: partialBooking(11, 10, now, true), // далеко до срока
		}}
		notify := &fakeNotify{}
		svc, _ := newService(store, notify, now, 3)

		sent, err := svc.ProcessDueReminders(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		require.Len(t, notify.sent, 1)
		assert.Equal(t, int64(10), notify.sent[0].BookingID)
		assert.InDelta(t, 1400.0, notify.sent[0].RemainingAmount, 0.001)
	})

	t.Run("Idempotent", func(t *testing.T) {
		store := &fakeStore{bookings: map[int64]*domain.Booking{
			10: partialBooking(10, 2, now, true),
		}}
		notify := &fakeNotify{}
		svc, _ := newService(store, notify, now, 3)

		first, err := svc.ProcessDueReminders(ctx)
		require.NoError(t, err)
		second, err := svc.ProcessDueReminders(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, first)
		assert.Equal(t, 0, second)
		assert.Len(t, notify.sent, 1)
	})

	t.Run("Notify Failure Leaves Flag Set", func(t *testing.T) {
		// Флаг захватывается до отправки: повторной доставки не будет
		store := &fakeStore{bookings: map[int64]*domain.Booking{
			10: partialBooking(10, 2, now, true),
		}}
		notify := &fakeNotify{fail: true}
		svc, _ := newService(store, notify, now, 3)

		sent, err := svc.ProcessDueReminders(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
		assert.True(t, store.bookings[10].Partial.ReminderSent)
	})
}
