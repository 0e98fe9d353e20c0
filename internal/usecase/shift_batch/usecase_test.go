package shift_batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	trekRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/trek"
)

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking

	setBatchID int64
	setDueDate *time.Time
	setCalls   int
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) SetBatch(_ context.Context, id int64, batchID int64, due *time.Time) error {
	f.setCalls++
	f.setBatchID = batchID
	f.setDueDate = due
	f.bookings[id].BatchID = batchID
	return nil
}

type fakeTrekRepo struct {
	trek    *domain.Trek
	batches map[int64]*domain.Batch
	locked  []int64
}

func (f *fakeTrekRepo) GetByID(_ context.Context, id int64) (*domain.Trek, error) {
	if f.trek == nil || f.trek.ID != id {
		return nil, trekRepo.ErrTrekNotFound
	}
	return f.trek, nil
}

func (f *fakeTrekRepo) GetBatchForUpdate(_ context.Context, trekID, batchID int64) (*domain.Batch, error) {
	b, ok := f.batches[batchID]
	if !ok || b.TrekID != trekID {
		return nil, trekRepo.ErrBatchNotFound
	}
	f.locked = append(f.locked, batchID)
	return b, nil
}

type fakeCapacity struct {
	used           map[int64]int
	reconciled     []int64
	reconcileCalls int
}

func (f *fakeCapacity) SeatsUsed(_ context.Context, batchID int64) (int, error) {
	return f.used[batchID], nil
}

func (f *fakeCapacity) Reconcile(_ context.Context, _, batchID int64) (int, error) {
	f.reconcileCalls++
	f.reconciled = append(f.reconciled, batchID)
	return f.used[batchID], nil
}

type passthroughTx struct{}

func (passthroughTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct{ now time.Time }

func (f *fixedTime) Now() time.Time { return f.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fixture struct {
	uc       *UseCase
	bookings *fakeBookingRepo
	treks    *fakeTrekRepo
	capacity *fakeCapacity
	now      time.Time
}

func newFixture() *fixture {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	bookings := &fakeBookingRepo{bookings: map[int64]*domain.Booking{}}
	bookings.bookings[1] = &domain.Booking{
		ID:                   1,
		UserID:               42,
		TrekID:               7,
		BatchID:              3,
		NumberOfParticipants: 2,
		TotalPrice:           2000,
		Status:               domain.StatusConfirmed,
		PaymentMode:          domain.PaymentModeFull,
	}

	treks := &fakeTrekRepo{
		trek: &domain.Trek{
			ID:      7,
			Enabled: true,
			PartialPayment: domain.PartialPaymentPolicy{
				Enabled:             true,
				AmountType:          domain.AmountTypePercentage,
				Amount:              30,
				FinalPaymentDueDays: 10,
			},
		},
		batches: map[int64]*domain.Batch{
			3: {ID: 3, TrekID: 7, StartDate: now.AddDate(0, 0, 30), MaxParticipants: 10},
			4: {ID: 4, TrekID: 7, StartDate: now.AddDate(0, 0, 45), MaxParticipants: 10},
			9: {ID: 9, TrekID: 8, StartDate: now.AddDate(0, 0, 45), MaxParticipants: 10},
		},
	}

	capacity := &fakeCapacity{used: map[int64]int{3: 2, 4: 0}}

	f := &fixture{bookings: bookings, treks: treks, capacity: capacity, now: now}
	f.uc = NewUseCase(bookings, treks, capacity, passthroughTx{}, nopLogger{})
	f.uc.timeProvider = &fixedTime{now: now}
	return f
}

func TestShiftFullPayment(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, TargetBatchID: 4})
	require.NoError(t, err)

	assert.Equal(t, int64(3), resp.OldBatchID)
	assert.Equal(t, int64(4), resp.NewBatchID)
	assert.Nil(t, resp.FinalPaymentDueDate, "full payment has no due date")

	assert.Equal(t, 1, f.bookings.setCalls)
	assert.Equal(t, int64(4), f.bookings.setBatchID)

	// Оба батча блокируются в порядке возрастания id и выравниваются
	assert.Equal(t, []int64{3, 4}, f.treks.locked)
	assert.ElementsMatch(t, []int64{3, 4}, f.capacity.reconciled)
}

func TestShiftLockOrderByID(t *testing.T) {
	f := newFixture()
	f.bookings.bookings[1].BatchID = 4
	f.capacity.used = map[int64]int{3: 0, 4: 2}

	_, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, TargetBatchID: 3})
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 4}, f.treks.locked, "lower id is locked first regardless of direction")
}

func TestShiftPartialRecomputesDueDate(t *testing.T) {
	f := newFixture()
	f.bookings.bookings[1].PaymentMode = domain.PaymentModePartial
	f.bookings.bookings[1].Status = domain.StatusPaymentConfirmedPartial
	f.bookings.bookings[1].Partial = &domain.PartialPaymentDetails{
		InitialAmount:   600,
		RemainingAmount: 1400,
	}

	resp, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, TargetBatchID: 4})
	require.NoError(t, err)

	require.NotNil(t, resp.FinalPaymentDueDate)
	expected := f.treks.batches[4].StartDate.AddDate(0, 0, -10)
	assert.Equal(t, expected, *resp.FinalPaymentDueDate)
}

func TestShiftCompletedPartialKeepsNoDueDate(t *testing.T) {
	f := newFixture()
	completed := f.now.AddDate(0, 0, -1)
	f.bookings.bookings[1].PaymentMode = domain.PaymentModePartial
	f.bookings.bookings[1].Partial = &domain.PartialPaymentDetails{
		InitialAmount:   600,
		RemainingAmount: 0,
		CompletedAt:     &completed,
	}

	resp, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, TargetBatchID: 4})
	require.NoError(t, err)
	assert.Nil(t, resp.FinalPaymentDueDate)
}

func TestShiftTargetFull(t *testing.T) {
	f := newFixture()
	f.capacity.used[4] = 9 // бронированию нужно 2 места

	_, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, TargetBatchID: 4})
	assert.ErrorIs(t, err, ErrBatchFull)
	assert.Equal(t, 0, f.bookings.setCalls)
}

func TestShiftGuards(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, TargetBatchID: 3})
	assert.ErrorIs(t, err, ErrSameBatch)

	_, err = f.uc.Execute(context.Background(), &Request{BookingID: 1, TargetBatchID: 9})
	assert.ErrorIs(t, err, ErrBatchNotInTrek)

	_, err = f.uc.Execute(context.Background(), &Request{BookingID: 99, TargetBatchID: 4})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	f.bookings.bookings[1].Status = domain.StatusCancelled
	_, err = f.uc.Execute(context.Background(), &Request{BookingID: 1, TargetBatchID: 4})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestShiftTargetStarted(t *testing.T) {
	f := newFixture()
	f.treks.batches[4].StartDate = f.now.AddDate(0, 0, -1)

	_, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, TargetBatchID: 4})
	assert.ErrorIs(t, err, ErrBatchStarted)
}
