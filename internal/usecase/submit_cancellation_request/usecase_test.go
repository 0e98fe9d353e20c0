package submit_cancellation_request

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	trekRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/trek"
	"github.com/m04kA/SMC-TrekBookingService/pkg/ptr"
)

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking
	created  map[int64]*domain.CancellationRequest
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) CreateRequest(_ context.Context, bookingID int64, request *domain.CancellationRequest) error {
	f.created[bookingID] = request
	return nil
}

type fakeTrekRepo struct {
	batches map[int64]*domain.Batch // по id батча, все в одном треке
}

func (f *fakeTrekRepo) GetBatch(_ context.Context, trekID, batchID int64) (*domain.Batch, error) {
	b, ok := f.batches[batchID]
	if !ok || b.TrekID != trekID {
		return nil, trekRepo.ErrBatchNotFound
	}
	return b, nil
}

type fakeCapacity struct {
	free map[int64]int
}

func (f *fakeCapacity) FreeSeats(_ context.Context, _, batchID int64) (int, error) {
	return f.free[batchID], nil
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
	capacity *fakeCapacity
	now      time.Time
}

func newFixture() *fixture {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	bookings := &fakeBookingRepo{
		bookings: map[int64]*domain.Booking{},
		created:  map[int64]*domain.CancellationRequest{},
	}
	bookings.bookings[1] = &domain.Booking{
		ID:                   1,
		UserID:               42,
		TrekID:               7,
		BatchID:              3,
		NumberOfParticipants: 2,
		Status:               domain.StatusConfirmed,
	}

	treks := &fakeTrekRepo{batches: map[int64]*domain.Batch{
		3: {ID: 3, TrekID: 7, StartDate: now.AddDate(0, 0, 30), MaxParticipants: 10},
		4: {ID: 4, TrekID: 7, StartDate: now.AddDate(0, 0, 45), MaxParticipants: 10},
		5: {ID: 5, TrekID: 9, StartDate: now.AddDate(0, 0, 45), MaxParticipants: 10},
	}}

	capacity := &fakeCapacity{free: map[int64]int{3: 5, 4: 5}}

	f := &fixture{bookings: bookings, capacity: capacity, now: now}
	f.uc = NewUseCase(bookings, treks, capacity, passthroughTx{}, nopLogger{})
	f.uc.timeProvider = &fixedTime{now: now}
	return f
}

func TestSubmitCancellation(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), &Request{
		BookingID:   1,
		UserID:      42,
		RequestType: "cancellation",
		Reason:      ptr.Ptr("family emergency"),
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.RequestStatusPending), resp.RequestStatus)
	assert.Equal(t, "cancellation", resp.RequestType)

	created := f.bookings.created[1]
	require.NotNil(t, created)
	assert.Equal(t, domain.RequestTypeCancellation, created.Type)
	assert.Equal(t, f.now, *created.CreatedAt)
}

func TestSubmitReschedule(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), &Request{
		BookingID:        1,
		UserID:           42,
		RequestType:      "reschedule",
		PreferredBatchID: ptr.Ptr[int64](4),
	})
	require.NoError(t, err)

	assert.Equal(t, "reschedule", resp.RequestType)
	require.NotNil(t, resp.PreferredBatchID)
	assert.Equal(t, int64(4), *resp.PreferredBatchID)
}

func TestSubmitDuplicatePending(t *testing.T) {
	f := newFixture()
	f.bookings.bookings[1].Request = &domain.CancellationRequest{
		Type:   domain.RequestTypeCancellation,
		Status: domain.RequestStatusPending,
	}

	_, err := f.uc.Execute(context.Background(), &Request{
		BookingID:   1,
		UserID:      42,
		RequestType: "cancellation",
	})
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestSubmitAfterResolvedRequest(t *testing.T) {
	f := newFixture()
	f.bookings.bookings[1].Request = &domain.CancellationRequest{
		Type:   domain.RequestTypeCancellation,
		Status: domain.RequestStatusRejected,
	}

	// Отклонённая заявка не мешает подать новую
	_, err := f.uc.Execute(context.Background(), &Request{
		BookingID:   1,
		UserID:      42,
		RequestType: "cancellation",
	})
	assert.NoError(t, err)
}

func TestSubmitInvalidStatus(t *testing.T) {
	f := newFixture()
	f.bookings.bookings[1].Status = domain.StatusPendingPayment

	_, err := f.uc.Execute(context.Background(), &Request{
		BookingID:   1,
		UserID:      42,
		RequestType: "cancellation",
	})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSubmitAccessDenied(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), &Request{
		BookingID:   1,
		UserID:      777,
		RequestType: "cancellation",
	})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestSubmitRescheduleValidation(t *testing.T) {
	f := newFixture()

	// reschedule без целевого батча
	_, err := f.uc.Execute(context.Background(), &Request{
		BookingID:   1,
		UserID:      42,
		RequestType: "reschedule",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// тот же батч
	_, err = f.uc.Execute(context.Background(), &Request{
		BookingID:        1,
		UserID:           42,
		RequestType:      "reschedule",
		PreferredBatchID: ptr.Ptr[int64](3),
	})
	assert.ErrorIs(t, err, ErrSameBatch)

	// батч чужого трека
	_, err = f.uc.Execute(context.Background(), &Request{
		BookingID:        1,
		UserID:           42,
		RequestType:      "reschedule",
		PreferredBatchID: ptr.Ptr[int64](5),
	})
	assert.ErrorIs(t, err, ErrBatchNotInTrek)
}

func TestSubmitRescheduleBatchFull(t *testing.T) {
	f := newFixture()
	f.capacity.free[4] = 1 // бронированию нужно 2 места

	_, err := f.uc.Execute(context.Background(), &Request{
		BookingID:        1,
		UserID:           42,
		RequestType:      "reschedule",
		PreferredBatchID: ptr.Ptr[int64](4),
	})
	assert.ErrorIs(t, err, ErrBatchFull)
}

func TestSubmitUnknownType(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), &Request{
		BookingID:   1,
		UserID:      42,
		RequestType: "upgrade",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
