package capacity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	trekRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/trek"
)

type fakeBookingRepo struct {
	bookings []*domain.Booking
	err      error
}

func (f *fakeBookingRepo) ListByBatch(_ context.Context, _ int64) ([]*domain.Booking, error) {
	return f.bookings, f.err
}

type fakeTrekRepo struct {
	batch *domain.Batch

	// конфликты версий на первых N записях счётчика
	conflicts int

	savedCount   int
	savedVersion int64
	updateCalls  int
}

func (f *fakeTrekRepo) GetBatch(_ context.Context, _, _ int64) (*domain.Batch, error) {
	if f.batch == nil {
		return nil, trekRepo.ErrBatchNotFound
	}
	copied := *f.batch
	return &copied, nil
}

func (f *fakeTrekRepo) UpdateBatchParticipants(_ context.Context, _ int64, count int, version int64) error {
	f.updateCalls++
	if f.conflicts > 0 {
		f.conflicts--
		f.batch.Version++
		return trekRepo.ErrVersionConflict
	}
	f.savedCount = count
	f.savedVersion = version
	f.batch.CurrentParticipants = count
	f.batch.Version++
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func booking(status domain.BookingStatus, declared int, participants ...*domain.Participant) *domain.Booking {
	return &domain.Booking{
		Status:               status,
		NumberOfParticipants: declared,
		Participants:         participants,
	}
}

func TestSeatsUsed(t *testing.T) {
	ctx := context.Background()

	t.Run("Counts Only Seat Holding Statuses", func(t *testing.T) {
		repo := &fakeBookingRepo{bookings: []*domain.Booking{
			booking(domain.StatusPendingPayment, 4),
			booking(domain.StatusPaymentCompleted, 2),
			booking(domain.StatusPaymentConfirmedPartial, 3),
			booking(domain.StatusCancelled, 5),
			booking(domain.StatusTrekCompleted, 5),
		}}
		svc := NewService(repo, &fakeTrekRepo{}, nopLogger{})

		used, err := svc.SeatsUsed(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 5, used)
	})

	t.Run("Confirmed Uses Live Participant Rows", func(t *testing.T) {
		repo := &fakeBookingRepo{bookings: []*domain.Booking{
			booking(domain.StatusConfirmed, 3,
				&domain.Participant{ID: "p1"},
				&domain.Participant{ID: "p2", IsCancelled: true},
			),
			// анкеты ещё не поданы, действует заявленное число
			booking(domain.StatusConfirmed, 2),
		}}
		svc := NewService(repo, &fakeTrekRepo{}, nopLogger{})

		used, err := svc.SeatsUsed(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, used)
	})

	t.Run("Empty Batch", func(t *testing.T) {
		svc := NewService(&fakeBookingRepo{}, &fakeTrekRepo{}, nopLogger{})

		used, err := svc.SeatsUsed(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, used)
	})
}

func TestFreeSeats(t *testing.T) {
	ctx := context.Background()

	trekStore := &fakeTrekRepo{batch: &domain.Batch{
		ID:              3,
		TrekID:          7,
		MaxParticipants: 20,
		ReservedSlots:   2,
		StartDate:       time.Now().AddDate(0, 1, 0),
	}}
	bookingStore := &fakeBookingRepo{bookings: []*domain.Booking{
		booking(domain.StatusPaymentCompleted, 10),
		booking(domain.StatusConfirmed, 5),
	}}
	svc := NewService(bookingStore, trekStore, nopLogger{})

	free, err := svc.FreeSeats(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, free)
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("Corrects Stale Counter", func(t *testing.T) {
		trekStore := &fakeTrekRepo{batch: &domain.Batch{
			ID:                  3,
			TrekID:              7,
			MaxParticipants:     20,
			CurrentParticipants: 11,
			Version:             5,
		}}
		bookingStore := &fakeBookingRepo{bookings: []*domain.Booking{
			booking(domain.StatusPaymentConfirmedPartial, 4),
		}}
		svc := NewService(bookingStore, trekStore, nopLogger{})

		used, err := svc.Reconcile(ctx, 7, 3)
		require.NoError(t, err)
		assert.Equal(t, 4, used)
		assert.Equal(t, 4, trekStore.savedCount)
		assert.Equal(t, int64(5), trekStore.savedVersion)
	})

	t.Run("Idempotent", func(t *testing.T) {
		trekStore := &fakeTrekRepo{batch: &domain.Batch{TrekID: 7, ID: 3, MaxParticipants: 20}}
		bookingStore := &fakeBookingRepo{bookings: []*domain.Booking{
			booking(domain.StatusConfirmed, 2),
		}}
		svc := NewService(bookingStore, trekStore, nopLogger{})

		first, err := svc.Reconcile(ctx, 7, 3)
		require.NoError(t, err)
		second, err := svc.Reconcile(ctx, 7, 3)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 2, trekStore.batch.CurrentParticipants)
	})

	t.Run("Retries On Version Conflict", func(t *testing.T) {
		trekStore := &fakeTrekRepo{
			batch:     &domain.Batch{TrekID: 7, ID: 3, MaxParticipants: 20, Version: 1},
			conflicts: 2,
		}
		bookingStore := &fakeBookingRepo{bookings: []*domain.Booking{
			booking(domain.StatusPaymentCompleted, 6),
		}}
		svc := NewService(bookingStore, trekStore, nopLogger{})

		used, err := svc.Reconcile(ctx, 7, 3)
		require.NoError(t, err)
		assert.Equal(t, 6, used)
		assert.Equal(t, 3, trekStore.updateCalls)
	})

	t.Run("Batch Not Found", func(t *testing.T) {
		svc := NewService(&fakeBookingRepo{}, &fakeTrekRepo{}, nopLogger{})

		_, err := svc.Reconcile(ctx, 7, 99)
		assert.ErrorIs(t, err, ErrBatchNotFound)
	})
}
