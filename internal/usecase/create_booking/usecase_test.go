package create_booking

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
	nextID    int64
	bookings  map[int64]*domain.Booking
	pending   *domain.Booking
	createErr error
	updates   int
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{nextID: 1, bookings: map[int64]*domain.Booking{}}
}

func (f *fakeBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	b.ID = f.nextID
	f.nextID++
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	f.bookings[b.ID] = b
	return b, nil
}

func (f *fakeBookingRepo) FindPendingByUserTrekBatch(_ context.Context, userID, trekID, batchID int64) (*domain.Booking, error) {
	if f.pending != nil && f.pending.UserID == userID && f.pending.TrekID == trekID && f.pending.BatchID == batchID {
		return f.pending, nil
	}
	return nil, bookingRepo.ErrBookingNotFound
}

func (f *fakeBookingRepo) UpdatePending(_ context.Context, b *domain.Booking) error {
	f.updates++
	f.bookings[b.ID] = b
	return nil
}

type fakeTrekRepo struct {
	trek  *domain.Trek
	batch *domain.Batch
}

func (f *fakeTrekRepo) GetByID(_ context.Context, id int64) (*domain.Trek, error) {
	if f.trek == nil || f.trek.ID != id {
		return nil, trekRepo.ErrTrekNotFound
	}
	return f.trek, nil
}

func (f *fakeTrekRepo) GetBatchForUpdate(_ context.Context, trekID, batchID int64) (*domain.Batch, error) {
	if f.batch == nil || f.batch.ID != batchID || f.batch.TrekID != trekID {
		return nil, trekRepo.ErrBatchNotFound
	}
	return f.batch, nil
}

type fakeCapacity struct {
	used           int
	reconcileCalls int
}

func (f *fakeCapacity) SeatsUsed(_ context.Context, _ int64) (int, error) {
	return f.used, nil
}

func (f *fakeCapacity) Reconcile(_ context.Context, _, _ int64) (int, error) {
	f.reconcileCalls++
	return f.used, nil
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

func newFixture(daysToDeparture int) *fixture {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	start := now.AddDate(0, 0, daysToDeparture)

	trek := &domain.Trek{
		ID:      7,
		Name:    "Annapurna Circuit",
		Enabled: true,
		PartialPayment: domain.PartialPaymentPolicy{
			Enabled:             true,
			AmountType:          domain.AmountTypePercentage,
			Amount:              30,
			FinalPaymentDueDays: 10,
		},
	}
	batch := &domain.Batch{
		ID:              3,
		TrekID:          7,
		StartDate:       start,
		EndDate:         start.AddDate(0, 0, 5),
		Price:           1000,
		MaxParticipants: 10,
	}

	f := &fixture{
		bookings: newFakeBookingRepo(),
		treks:    &fakeTrekRepo{trek: trek, batch: batch},
		capacity: &fakeCapacity{},
		now:      now,
	}
	f.uc = NewUseCase(f.bookings, f.treks, f.capacity, passthroughTx{}, 30*time.Minute, nopLogger{})
	f.uc.timeProvider = &fixedTime{now: now}
	return f
}

func validRequest() *Request {
	return &Request{
		UserID:               42,
		TrekID:               7,
		BatchID:              3,
		NumberOfParticipants: 2,
		ContactName:          "Ivan Petrov",
		ContactEmail:         "ivan@example.com",
		PaymentMode:          string(domain.PaymentModeFull),
	}
}

func TestExecuteFullPayment(t *testing.T) {
	f := newFixture(30)

	resp, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusPendingPayment), resp.Status)
	assert.Equal(t, 2000.0, resp.TotalPrice)
	assert.Nil(t, resp.InitialAmount)
	require.NotNil(t, resp.SessionToken)
	assert.NotEmpty(t, *resp.SessionToken)
	require.NotNil(t, resp.SessionExpiresAt)
	assert.Equal(t, f.now.Add(30*time.Minute), *resp.SessionExpiresAt)
	assert.Equal(t, 0, f.capacity.reconcileCalls)
}

func TestExecuteCapacity(t *testing.T) {
	f := newFixture(30)

	// 8 из 10 мест занято: двое ещё помещаются
	f.capacity.used = 8
	_, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	// Трое уже не помещаются
	req := validRequest()
	req.NumberOfParticipants = 3
	_, err = f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrBatchFull)

	// Отмена освободила места, те же трое проходят
	f.capacity.used = 5
	_, err = f.uc.Execute(context.Background(), req)
	assert.NoError(t, err)
}

func TestExecuteReservedSlotsReduceCapacity(t *testing.T) {
	f := newFixture(30)
	f.treks.batch.ReservedSlots = 4

	req := validRequest()
	req.NumberOfParticipants = 7
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrBatchFull)

	req.NumberOfParticipants = 6
	_, err = f.uc.Execute(context.Background(), req)
	assert.NoError(t, err)
}

func TestExecuteDedupLiveSession(t *testing.T) {
	f := newFixture(30)

	pending := &domain.Booking{
		ID:                   11,
		UserID:               42,
		TrekID:               7,
		BatchID:              3,
		NumberOfParticipants: 1,
		TotalPrice:           1000,
		Status:               domain.StatusPendingPayment,
		PaymentMode:          domain.PaymentModeFull,
		Session: &domain.BookingSession{
			Token:     "old-token",
			ExpiresAt: f.now.Add(10 * time.Minute),
		},
	}
	f.bookings.pending = pending

	resp, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(11), resp.ID)
	assert.Equal(t, 2, resp.NumberOfParticipants)
	assert.Equal(t, 2000.0, resp.TotalPrice)
	require.NotNil(t, resp.SessionToken)
	assert.NotEqual(t, "old-token", *resp.SessionToken)
	assert.Equal(t, 1, f.bookings.updates)
	assert.Equal(t, int64(1), f.bookings.nextID, "no new booking row expected")
}

func TestExecuteDedupExpiredSession(t *testing.T) {
	f := newFixture(30)

	f.bookings.pending = &domain.Booking{
		ID:      11,
		UserID:  42,
		TrekID:  7,
		BatchID: 3,
		Status:  domain.StatusPendingPayment,
		Session: &domain.BookingSession{
			Token:     "old-token",
			ExpiresAt: f.now.Add(-1 * time.Minute),
		},
	}

	resp, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.ID, "expired lease must not be reused")
	assert.Equal(t, 0, f.bookings.updates)
}

func TestExecutePartialPayment(t *testing.T) {
	f := newFixture(30)

	req := validRequest()
	req.PaymentMode = string(domain.PaymentModePartial)

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	// 30% от 2000
	require.NotNil(t, resp.InitialAmount)
	assert.Equal(t, 600.0, *resp.InitialAmount)
	require.NotNil(t, resp.RemainingAmount)
	assert.Equal(t, 1400.0, *resp.RemainingAmount)
	require.NotNil(t, resp.FinalPaymentDueDate)
	assert.Equal(t, f.treks.batch.StartDate.AddDate(0, 0, -10), *resp.FinalPaymentDueDate)
}

func TestExecutePartialAmountMismatch(t *testing.T) {
	f := newFixture(30)

	req := validRequest()
	req.PaymentMode = string(domain.PaymentModePartial)
	tampered := 500.0
	req.ClientInitialAmount = &tampered

	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestExecutePartialClientAmountMatches(t *testing.T) {
	f := newFixture(30)

	req := validRequest()
	req.PaymentMode = string(domain.PaymentModePartial)
	client := 600.0
	req.ClientInitialAmount = &client

	_, err := f.uc.Execute(context.Background(), req)
	assert.NoError(t, err)
}

func TestExecutePartialInsideFinalWindow(t *testing.T) {
	f := newFixture(9) // окно финального платежа 10 дней

	req := validRequest()
	req.PaymentMode = string(domain.PaymentModePartial)

	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrFinalPaymentWindow)
}

func TestExecutePartialDisabled(t *testing.T) {
	f := newFixture(30)
	f.treks.trek.PartialPayment.Enabled = false

	req := validRequest()
	req.PaymentMode = string(domain.PaymentModePartial)

	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrPartialPaymentDisabled)
}

func TestExecuteCustomTrek(t *testing.T) {
	f := newFixture(30)
	f.treks.trek.IsCustom = true

	resp, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	assert.Nil(t, resp.SessionToken)
	assert.Equal(t, 1, f.capacity.reconcileCalls)
}

func TestExecuteTrekDisabled(t *testing.T) {
	f := newFixture(30)
	f.treks.trek.Enabled = false

	_, err := f.uc.Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrTrekDisabled)
}

func TestExecuteBatchStarted(t *testing.T) {
	f := newFixture(-1)

	_, err := f.uc.Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrBatchStarted)
}

func TestExecuteTrekNotFound(t *testing.T) {
	f := newFixture(30)

	req := validRequest()
	req.TrekID = 99
	req.BatchID = 3

	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrTrekNotFound)
}

func TestExecuteBatchNotFound(t *testing.T) {
	f := newFixture(30)

	req := validRequest()
	req.BatchID = 99

	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestExecuteValidation(t *testing.T) {
	f := newFixture(30)

	req := validRequest()
	req.NumberOfParticipants = 0
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req = validRequest()
	req.ContactEmail = "not-an-email"
	_, err = f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req = validRequest()
	req.PaymentMode = "installments"
	_, err = f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
