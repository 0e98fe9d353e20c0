package resolve_cancellation_request

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings"
	bookingmodels "github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-TrekBookingService/internal/usecase/shift_batch"
	"github.com/m04kA/SMC-TrekBookingService/pkg/ptr"
)

type fakeBookingRepo struct {
	bookings map[int64]*domain.Booking

	resolvedStatus domain.RequestStatus
	resolveCalls   int
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) ResolveRequest(_ context.Context, bookingID int64, status domain.RequestStatus, adminResponse *string, _ time.Time) error {
	f.resolveCalls++
	f.resolvedStatus = status
	if b, ok := f.bookings[bookingID]; ok && b.Request != nil {
		b.Request.Status = status
		b.Request.AdminResponse = adminResponse
	}
	return nil
}

type fakeCancelService struct {
	plan        *bookings.RefundPlan
	err         error
	cancelCalls int
	lastCancel  *bookingmodels.CancelBookingRequest

	refundCalls int
}

func (f *fakeCancelService) CancelTx(_ context.Context, req *bookingmodels.CancelBookingRequest) (*bookings.RefundPlan, error) {
	f.cancelCalls++
	f.lastCancel = req
	return f.plan, f.err
}

func (f *fakeCancelService) ProcessRefunds(_ context.Context, _ *bookings.RefundPlan) {
	f.refundCalls++
}

type fakeShifter struct {
	err        error
	shiftCalls int
	lastReq    *shift_batch.Request
}

func (f *fakeShifter) ExecuteTx(_ context.Context, req *shift_batch.Request) (*shift_batch.Response, error) {
	f.shiftCalls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &shift_batch.Response{
		BookingID:  req.BookingID,
		OldBatchID: 3,
		NewBatchID: req.TargetBatchID,
	}, nil
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
	cancels  *fakeCancelService
	shifter  *fakeShifter
	now      time.Time
}

func newFixture(requestType domain.RequestType) *fixture {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	request := &domain.CancellationRequest{
		Type:   requestType,
		Status: domain.RequestStatusPending,
		Reason: ptr.Ptr("plans changed"),
	}
	if requestType == domain.RequestTypeReschedule {
		request.PreferredBatchID = ptr.Ptr[int64](4)
	}

	bookings := &fakeBookingRepo{bookings: map[int64]*domain.Booking{
		1: {
			ID:      1,
			UserID:  42,
			TrekID:  7,
			BatchID: 3,
			Status:  domain.StatusConfirmed,
			Request: request,
		},
	}}

	f := &fixture{
		bookings: bookings,
		cancels:  &fakeCancelService{},
		shifter:  &fakeShifter{},
		now:      now,
	}
	f.uc = NewUseCase(bookings, f.cancels, f.shifter, passthroughTx{}, nopLogger{})
	f.uc.timeProvider = &fixedTime{now: now}
	return f
}

func TestResolveReject(t *testing.T) {
	f := newFixture(domain.RequestTypeCancellation)

	resp, err := f.uc.Execute(context.Background(), &Request{
		BookingID:     1,
		AdminID:       100,
		Approve:       false,
		AdminResponse: ptr.Ptr("departure cannot be refunded"),
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.RequestStatusRejected), resp.RequestStatus)
	assert.Equal(t, domain.RequestStatusRejected, f.bookings.resolvedStatus)

	// Отклонение не исполняет действие заявки
	assert.Equal(t, 0, f.cancels.cancelCalls)
	assert.Equal(t, 0, f.shifter.shiftCalls)
}

func TestResolveApproveCancellation(t *testing.T) {
	f := newFixture(domain.RequestTypeCancellation)
	f.cancels.plan = &bookings.RefundPlan{BookingID: 1, Amount: 1500}

	resp, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, AdminID: 100, Approve: true})
	require.NoError(t, err)

	assert.Equal(t, string(domain.RequestStatusApproved), resp.RequestStatus)
	assert.Equal(t, 1, f.cancels.cancelCalls)
	assert.Equal(t, 1, f.bookings.resolveCalls)

	// Отмена выполняется от имени владельца с авто-возвратом
	assert.True(t, f.cancels.lastCancel.IsAdmin)
	assert.Equal(t, int64(42), f.cancels.lastCancel.UserID)
	assert.Equal(t, string(domain.RefundTypeAuto), f.cancels.lastCancel.RefundType)
	assert.Equal(t, "plans changed", f.cancels.lastCancel.Reason)

	// Возврат исполняется после коммита
	assert.Equal(t, 1, f.cancels.refundCalls)
}

func TestResolveApproveCancellationWithoutRefund(t *testing.T) {
	f := newFixture(domain.RequestTypeCancellation)
	f.cancels.plan = nil // платить нечего

	_, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, AdminID: 100, Approve: true})
	require.NoError(t, err)
	assert.Equal(t, 0, f.cancels.refundCalls)
}

func TestResolveApproveReschedule(t *testing.T) {
	f := newFixture(domain.RequestTypeReschedule)

	resp, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, AdminID: 100, Approve: true})
	require.NoError(t, err)

	assert.Equal(t, string(domain.RequestStatusApproved), resp.RequestStatus)
	assert.Equal(t, 1, f.shifter.shiftCalls)
	assert.Equal(t, int64(4), f.shifter.lastReq.TargetBatchID)
	require.NotNil(t, resp.NewBatchID)
	assert.Equal(t, int64(4), *resp.NewBatchID)
	assert.Equal(t, 0, f.cancels.cancelCalls)
}

func TestResolveRescheduleBatchFull(t *testing.T) {
	f := newFixture(domain.RequestTypeReschedule)
	f.shifter.err = shift_batch.ErrBatchFull

	_, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, AdminID: 100, Approve: true})
	assert.ErrorIs(t, err, ErrBatchFull)

	// Заявка остаётся pending
	assert.Equal(t, 0, f.bookings.resolveCalls)
}

func TestResolveCancellationAlreadyCancelled(t *testing.T) {
	f := newFixture(domain.RequestTypeCancellation)
	f.cancels.err = bookings.ErrAlreadyCancelled

	_, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, AdminID: 100, Approve: true})
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, 0, f.cancels.refundCalls)
}

func TestResolveNoPendingRequest(t *testing.T) {
	f := newFixture(domain.RequestTypeCancellation)
	f.bookings.bookings[1].Request.Status = domain.RequestStatusApproved

	_, err := f.uc.Execute(context.Background(), &Request{BookingID: 1, AdminID: 100, Approve: true})
	assert.ErrorIs(t, err, ErrNoPendingRequest)

	f.bookings.bookings[1].Request = nil
	_, err = f.uc.Execute(context.Background(), &Request{BookingID: 1, AdminID: 100, Approve: true})
	assert.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestResolveBookingNotFound(t *testing.T) {
	f := newFixture(domain.RequestTypeCancellation)

	_, err := f.uc.Execute(context.Background(), &Request{BookingID: 99, AdminID: 100, Approve: true})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
