package bookings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-TrekBookingService/internal/integrations/invoiceservice"
	"github.com/m04kA/SMC-TrekBookingService/internal/integrations/paymentgateway"
	"github.com/m04kA/SMC-TrekBookingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-TrekBookingService/pkg/ptr"
)

// In-memory фейки за узкими интерфейсами пакета

type fakeBookingStore struct {
	bookings map[int64]*domain.Booking
}

func (f *fakeBookingStore) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingStore) GetByUserID(_ context.Context, userID int64) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range f.bookings {
		if b.UserID == userID && b.Status != domain.StatusPending && b.Status != domain.StatusPendingPayment {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) ListAdmin(_ context.Context, _ bookingRepo.AdminFilter) ([]*domain.Booking, int64, error) {
	return nil, 0, nil
}

func (f *fakeBookingStore) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) error {
	b, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeBookingStore) MarkCancelled(_ context.Context, id int64, reason string, refund bookingRepo.RefundRecord) error {
	b, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	now := time.Now()
	b.Status = domain.StatusCancelled
	b.CancellationReason = &reason
	b.CancelledAt = &now
	status := refund.Status
	b.RefundStatus = &status
	amount := refund.Amount
	b.RefundAmount = &amount
	rt := refund.Type
	b.RefundType = &rt
	return nil
}

func (f *fakeBookingStore) UpdateRefundStatus(_ context.Context, id int64, status domain.RefundStatus) error {
	b, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.RefundStatus = &status
	return nil
}

func (f *fakeBookingStore) UpdateSeatState(_ context.Context, id int64, count int, totalPrice float64) error {
	b, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.NumberOfParticipants = count
	b.TotalPrice = totalPrice
	return nil
}

func (f *fakeBookingStore) ReplaceParticipants(_ context.Context, id int64, participants []*domain.Participant) error {
	b, ok := f.bookings[id]
	if !ok {
		return bookingRepo.ErrBookingNotFound
	}
	b.Participants = participants
	return nil
}

func (f *fakeBookingStore) findParticipant(pid string) *domain.Participant {
	for _, b := range f.bookings {
		for _, p := range b.Participants {
			if p.ID == pid {
				return p
			}
		}
	}
	return nil
}

func (f *fakeBookingStore) CancelParticipant(_ context.Context, pid string, reason string, refund bookingRepo.RefundRecord) error {
	p := f.findParticipant(pid)
	if p == nil || p.IsCancelled {
		return bookingRepo.ErrParticipantNotFound
	}
	now := time.Now()
	p.IsCancelled = true
	p.CancelledAt = &now
	p.CancellationReason = &reason
	status := refund.Status
	p.RefundStatus = &status
	amount := refund.Amount
	p.RefundAmount = &amount
	return nil
}

func (f *fakeBookingStore) RestoreParticipant(_ context.Context, pid string) error {
	p := f.findParticipant(pid)
	if p == nil || !p.IsCancelled {
		return bookingRepo.ErrParticipantNotFound
	}
	p.IsCancelled = false
	p.CancelledAt = nil
	p.CancellationReason = nil
	p.RefundStatus = nil
	p.RefundAmount = nil
	return nil
}

func (f *fakeBookingStore) UpdateParticipantRefundStatus(_ context.Context, pid string, status domain.RefundStatus) error {
	p := f.findParticipant(pid)
	if p == nil {
		return bookingRepo.ErrParticipantNotFound
	}
	p.RefundStatus = &status
	return nil
}

type fakeTrekStore struct {
	trek  *domain.Trek
	batch *domain.Batch
}

func (f *fakeTrekStore) GetByID(_ context.Context, _ int64) (*domain.Trek, error) {
	return f.trek, nil
}

func (f *fakeTrekStore) GetBatch(_ context.Context, _, _ int64) (*domain.Batch, error) {
	return f.batch, nil
}

func (f *fakeTrekStore) GetBatchForUpdate(_ context.Context, _, _ int64) (*domain.Batch, error) {
	return f.batch, nil
}

type fakeCapacity struct {
	store          *fakeBookingStore
	reconcileCalls int
}

func (f *fakeCapacity) SeatsUsed(_ context.Context, batchID int64) (int, error) {
	used := 0
	for _, b := range f.store.bookings {
		if b.BatchID == batchID {
			used += b.SeatsHeld()
		}
	}
	return used, nil
}

func (f *fakeCapacity) Reconcile(ctx context.Context, _, batchID int64) (int, error) {
	f.reconcileCalls++
	return f.SeatsUsed(ctx, batchID)
}

type fakeGateway struct {
	calls []float64
	fail  bool
}

func (f *fakeGateway) Refund(_ context.Context, _ string, amount float64, _ string) (*paymentgateway.RefundResult, error) {
	f.calls = append(f.calls, amount)
	if f.fail {
		return nil, paymentgateway.ErrRefundFailed
	}
	return &paymentgateway.RefundResult{Amount: amount, Status: "succeeded"}, nil
}

type fakeInvoices struct {
	calls int
	fail  bool
}

func (f *fakeInvoices) GenerateInvoice(_ context.Context, req invoiceservice.InvoiceRequest) (*invoiceservice.Invoice, error) {
	f.calls++
	if f.fail {
		return nil, invoiceservice.ErrInternal
	}
	return &invoiceservice.Invoice{ID: "inv-1", BookingID: req.BookingID}, nil
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

type fixture struct {
	svc      *Service
	store    *fakeBookingStore
	treks    *fakeTrekStore
	capacity *fakeCapacity
	gateway  *fakeGateway
	invoices *fakeInvoices
	now      time.Time
}

func newFixture(daysToDeparture int) *fixture {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	store := &fakeBookingStore{bookings: map[int64]*domain.Booking{}}
	treks := &fakeTrekStore{
		trek: &domain.Trek{ID: 7, Name: "Annapurna Base Camp", Region: "Nepal", Enabled: true},
		batch: &domain.Batch{
			ID:              3,
			TrekID:          7,
			StartDate:       now.AddDate(0, 0, daysToDeparture),
			EndDate:         now.AddDate(0, 0, daysToDeparture+7),
			Price:           1000,
			MaxParticipants: 10,
		},
	}
	cap := &fakeCapacity{store: store}
	gateway := &fakeGateway{}
	invoices := &fakeInvoices{}

	svc := NewService(store, treks, cap, gateway, invoices, passthroughTx{}, nopLogger{})
	svc.timeProvider = fixedTime{t: now}

	return &fixture{svc: svc, store: store, treks: treks, capacity: cap, gateway: gateway, invoices: invoices, now: now}
}

func (f *fixture) addBooking(id int64, status domain.BookingStatus, seats int, price float64, withPayment bool, participantCount int) *domain.Booking {
	b := &domain.Booking{
		ID:                   id,
		UserID:               42,
		TrekID:               7,
		BatchID:              3,
		NumberOfParticipants: seats,
		TotalPrice:           price,
		Status:               status,
		PaymentMode:          domain.PaymentModeFull,
		ContactName:          "Ivan Petrov",
		ContactEmail:         "ivan@example.com",
	}
	if withPayment {
		b.PaymentID = ptr.Ptr("pay_123")
	}
	for i := 0; i < participantCount; i++ {
		b.Participants = append(b.Participants, &domain.Participant{
			ID:        fmt.Sprintf("p%d-%d", id, i+1),
			BookingID: id,
			Name:      fmt.Sprintf("Participant %d", i+1),
			Age:       30,
		})
	}
	f.store.bookings[id] = b
	return b
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Tiered Refund And Gateway Success", func(t *testing.T) {
		// 18 дней до старта, тариф 75%
		f := newFixture(18)
		f.addBooking(10, domain.StatusConfirmed, 2, 2000, true, 2)

		resp, err := f.svc.Cancel(ctx, &models.CancelBookingRequest{
			BookingID: 10, UserID: 42, Reason: "plans changed",
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusCancelled), resp.Status)
		require.NotNil(t, resp.RefundAmount)
		assert.InDelta(t, 1500.0, *resp.RefundAmount, 0.001)
		require.NotNil(t, resp.RefundStatus)
		assert.Equal(t, string(domain.RefundStatusSuccess), *resp.RefundStatus)

		require.Len(t, f.gateway.calls, 1)
		assert.InDelta(t, 1500.0, f.gateway.calls[0], 0.001)
		assert.Equal(t, 1, f.capacity.reconcileCalls)
	})

	t.Run("Terminality", func(t *testing.T) {
		f := newFixture(30)
		f.addBooking(10, domain.StatusConfirmed, 1, 1000, true, 1)

		_, err := f.svc.Cancel(ctx, &models.CancelBookingRequest{BookingID: 10, UserID: 42})
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, &models.CancelBookingRequest{BookingID: 10, UserID: 42})
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
		// Повторная отмена не породила второй возврат
		assert.Len(t, f.gateway.calls, 1)
	})

	t.Run("After Departure", func(t *testing.T) {
		f := newFixture(-1)
		f.addBooking(10, domain.StatusConfirmed, 1, 1000, true, 1)

		_, err := f.svc.Cancel(ctx, &models.CancelBookingRequest{BookingID: 10, UserID: 42})
		assert.ErrorIs(t, err, ErrTrekStarted)
		assert.Empty(t, f.gateway.calls)
	})

	t.Run("Gateway Failure Does Not Block Cancellation", func(t *testing.T) {
		f := newFixture(30)
		f.gateway.fail = true
		f.addBooking(10, domain.StatusConfirmed, 1, 1000, true, 1)

		resp, err := f.svc.Cancel(ctx, &models.CancelBookingRequest{BookingID: 10, UserID: 42})
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusCancelled), resp.Status)
		require.NotNil(t, resp.RefundStatus)
		assert.Equal(t, string(domain.RefundStatusFailed), *resp.RefundStatus)
	})

	t.Run("No Payment Skips Gateway", func(t *testing.T) {
		f := newFixture(30)
		f.addBooking(10, domain.StatusConfirmed, 1, 1000, false, 1)

		resp, err := f.svc.Cancel(ctx, &models.CancelBookingRequest{BookingID: 10, UserID: 42})
		require.NoError(t, err)
		require.NotNil(t, resp.RefundStatus)
		assert.Equal(t, string(domain.RefundStatusSuccess), *resp.RefundStatus)
		assert.Empty(t, f.gateway.calls)
	})

	t.Run("No Refund Inside Eight Days", func(t *testing.T) {
		f := newFixture(3)
		f.addBooking(10, domain.StatusConfirmed, 2, 2000, true, 2)

		resp, err := f.svc.Cancel(ctx, &models.CancelBookingRequest{BookingID: 10, UserID: 42})
		require.NoError(t, err)
		require.NotNil(t, resp.RefundAmount)
		assert.Zero(t, *resp.RefundAmount)
		assert.Empty(t, f.gateway.calls)
	})

	t.Run("Foreign Booking Denied", func(t *testing.T) {
		f := newFixture(30)
		f.addBooking(10, domain.StatusConfirmed, 1, 1000, true, 1)

		_, err := f.svc.Cancel(ctx, &models.CancelBookingRequest{BookingID: 10, UserID: 777})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestCancelParticipant(t *testing.T) {
	ctx := context.Background()

	t.Run("Decrements Seats And Price", func(t *testing.T) {
		f := newFixture(30)
		b := f.addBooking(10, domain.StatusConfirmed, 3, 3000, true, 3)

		resp, err := f.svc.CancelParticipant(ctx, &models.CancelParticipantRequest{
			BookingID: 10, ParticipantID: "p10-2", UserID: 42, Reason: "injury",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.NumberOfParticipants)
		assert.InDelta(t, 2000.0, resp.TotalPrice, 0.001)
		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
		assert.Equal(t, 2, b.SeatsHeld())

		// Возврат 100% доли участника, 30 дней до старта
		require.Len(t, f.gateway.calls, 1)
		assert.InDelta(t, 1000.0, f.gateway.calls[0], 0.001)
	})

	t.Run("Last Participant Cascades To Full Cancel", func(t *testing.T) {
		f := newFixture(30)
		f.addBooking(10, domain.StatusConfirmed, 1, 1000, true, 1)

		resp, err := f.svc.CancelParticipant(ctx, &models.CancelParticipantRequest{
			BookingID: 10, ParticipantID: "p10-1", UserID: 42, Reason: "injury",
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusCancelled), resp.Status)
		assert.Equal(t, 0, f.store.bookings[10].SeatsHeld())
	})

	t.Run("Custom Amount Falls Back To Auto For Non Admin", func(t *testing.T) {
		f := newFixture(10) // тариф 50%
		f.addBooking(10, domain.StatusConfirmed, 2, 2000, true, 2)

		_, err := f.svc.CancelParticipant(ctx, &models.CancelParticipantRequest{
			BookingID: 10, ParticipantID: "p10-1", UserID: 42,
			RefundType: "custom", CustomAmount: ptr.Ptr(999999.0),
		})
		require.NoError(t, err)
		require.Len(t, f.gateway.calls, 1)
		assert.InDelta(t, 500.0, f.gateway.calls[0], 0.001)
	})

	t.Run("Custom Amount Honoured For Admin", func(t *testing.T) {
		f := newFixture(10)
		f.addBooking(10, domain.StatusConfirmed, 2, 2000, true, 2)

		_, err := f.svc.CancelParticipant(ctx, &models.CancelParticipantRequest{
			BookingID: 10, ParticipantID: "p10-1", UserID: 1, IsAdmin: true,
			RefundType: "custom", CustomAmount: ptr.Ptr(800.0),
		})
		require.NoError(t, err)
		require.Len(t, f.gateway.calls, 1)
		assert.InDelta(t, 800.0, f.gateway.calls[0], 0.001)
	})

	t.Run("Unknown Participant", func(t *testing.T) {
		f := newFixture(30)
		f.addBooking(10, domain.StatusConfirmed, 1, 1000, true, 1)

		_, err := f.svc.CancelParticipant(ctx, &models.CancelParticipantRequest{
			BookingID: 10, ParticipantID: "missing", UserID: 42,
		})
		assert.ErrorIs(t, err, ErrParticipantNotFound)
	})
}

func TestRestoreParticipant(t *testing.T) {
	ctx := context.Background()

	t.Run("Restores Seat And Price", func(t *testing.T) {
		f := newFixture(30)
		b := f.addBooking(10, domain.StatusConfirmed, 3, 3000, true, 3)
		b.Participants[1].IsCancelled = true
		b.NumberOfParticipants = 2
		b.TotalPrice = 2000

		resp, err := f.svc.RestoreParticipant(ctx, 10, "p10-2", 42, false)
		require.NoError(t, err)
		assert.Equal(t, 3, resp.NumberOfParticipants)
		assert.InDelta(t, 3000.0, resp.TotalPrice, 0.001)
		assert.Equal(t, 3, b.SeatsHeld())
	})

	t.Run("Rejected When Batch Full", func(t *testing.T) {
		f := newFixture(30)
		b := f.addBooking(10, domain.StatusConfirmed, 2, 2000, true, 2)
		b.Participants[1].IsCancelled = true
		b.NumberOfParticipants = 1
		b.TotalPrice = 1000
		// Второе бронирование занимает остаток батча
		f.addBooking(11, domain.StatusPaymentCompleted, 9, 9000, true, 0)

		_, err := f.svc.RestoreParticipant(ctx, 10, "p10-2", 42, false)
		assert.ErrorIs(t, err, ErrBatchFull)
		assert.True(t, b.Participants[1].IsCancelled)
	})

	t.Run("Live Participant Rejected", func(t *testing.T) {
		f := newFixture(30)
		f.addBooking(10, domain.StatusConfirmed, 2, 2000, true, 2)

		_, err := f.svc.RestoreParticipant(ctx, 10, "p10-1", 42, false)
		assert.ErrorIs(t, err, ErrParticipantNotCancelled)
	})
}

func TestCalculateRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("Preview Matches Cancel Math", func(t *testing.T) {
		f := newFixture(18)
		f.addBooking(10, domain.StatusConfirmed, 2, 2000, true, 2)

		preview, err := f.svc.CalculateRefund(ctx, &models.CalculateRefundRequest{
			BookingID: 10, UserID: 42, Scope: ScopeEntire,
		})
		require.NoError(t, err)
		assert.Equal(t, "75% refund", preview.PolicyDescription)
		assert.Equal(t, 18, preview.DaysToDeparture)

		resp, err := f.svc.Cancel(ctx, &models.CancelBookingRequest{BookingID: 10, UserID: 42})
		require.NoError(t, err)
		require.NotNil(t, resp.RefundAmount)
		assert.InDelta(t, preview.TotalRefund, *resp.RefundAmount, 0.001)
	})

	t.Run("Individual Scope", func(t *testing.T) {
		f := newFixture(30)
		f.addBooking(10, domain.StatusConfirmed, 3, 3000, true, 3)

		preview, err := f.svc.CalculateRefund(ctx, &models.CalculateRefundRequest{
			BookingID: 10, UserID: 42, Scope: ScopeIndividual,
			ParticipantIDs: []string{"p10-1", "p10-3"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Free cancellation", preview.PolicyDescription)
		assert.InDelta(t, 2000.0, preview.TotalRefund, 0.001)
		assert.Len(t, preview.Breakdown, 2)
	})
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Confirm Generates Invoice", func(t *testing.T) {
		f := newFixture(30)
		f.addBooking(10, domain.StatusPaymentCompleted, 2, 2000, true, 0)

		resp, err := f.svc.UpdateStatus(ctx, 10, domain.StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
		assert.Equal(t, 1, f.invoices.calls)
		assert.Equal(t, 1, f.capacity.reconcileCalls)
	})

	t.Run("Invoice Failure Is Not Fatal", func(t *testing.T) {
		f := newFixture(30)
		f.invoices.fail = true
		f.addBooking(10, domain.StatusPaymentCompleted, 2, 2000, true, 0)

		resp, err := f.svc.UpdateStatus(ctx, 10, domain.StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	})

	t.Run("Invalid Status Rejected", func(t *testing.T) {
		f := newFixture(30)
		f.addBooking(10, domain.StatusPaymentCompleted, 2, 2000, true, 0)

		_, err := f.svc.UpdateStatus(ctx, 10, domain.BookingStatus("shipped"))
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestSubmitParticipants(t *testing.T) {
	ctx := context.Background()

	t.Run("Promotes Paid Booking To Confirmed", func(t *testing.T) {
		f := newFixture(30)
		f.addBooking(10, domain.StatusPaymentCompleted, 2, 2000, true, 0)

		resp, err := f.svc.SubmitParticipants(ctx, 10, 42, false, []models.ParticipantInput{
			{Name: "Ivan Petrov", Age: 34},
			{Name: "Anna Petrova", Age: 31},
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
		assert.Len(t, resp.Participants, 2)
	})

	t.Run("Partial Payment Keeps Status", func(t *testing.T) {
		f := newFixture(30)
		f.addBooking(10, domain.StatusPaymentConfirmedPartial, 1, 1000, true, 0)

		resp, err := f.svc.SubmitParticipants(ctx, 10, 42, false, []models.ParticipantInput{
			{Name: "Ivan Petrov", Age: 34},
		})
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusPaymentConfirmedPartial), resp.Status)
	})

	t.Run("Count Mismatch Rejected", func(t *testing.T) {
		f := newFixture(30)
		f.addBooking(10, domain.StatusPaymentCompleted, 2, 2000, true, 0)

		_, err := f.svc.SubmitParticipants(ctx, 10, 42, false, []models.ParticipantInput{
			{Name: "Ivan Petrov", Age: 34},
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
