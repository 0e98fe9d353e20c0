package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	"github.com/m04kA/SMC-TrekBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-TrekBookingService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с бронированиями и их участниками
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// RefundRecord запись о возврате для фиксации на бронировании или участнике
type RefundRecord struct {
	Status domain.RefundStatus
	Amount float64
	Type   domain.RefundType
}

// AdminFilter фильтр админской выборки бронирований
type AdminFilter struct {
	Status    *domain.BookingStatus
	TrekID    *int64
	BatchID   *int64
	StartDate *time.Time // по дате создания бронирования
	EndDate   *time.Time
	Search    *string // подстрока имени или email контакта
	Limit     uint64
	Offset    uint64
}

var bookingColumns = []string{
	"id",
	"user_id",
	"trek_id",
	"batch_id",
	"number_of_participants",
	"total_price",
	"status",
	"payment_mode",
	"payment_id",
	"promo_code",
	"contact_name",
	"contact_email",
	"initial_amount",
	"remaining_amount",
	"final_payment_due_date",
	"partial_payment_completed_at",
	"reminder_sent",
	"reminder_sent_at",
	"refund_status",
	"refund_amount",
	"refund_date",
	"refund_type",
	"cancellation_reason",
	"cancelled_at",
	"request_type",
	"request_status",
	"request_reason",
	"request_preferred_batch_id",
	"request_admin_response",
	"request_created_at",
	"request_resolved_at",
	"session_token",
	"session_expires_at",
	"created_at",
	"updated_at",
}

// Create создает новое бронирование вместе с участниками (если они уже заполнены)
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertBuilder := psqlbuilder.Insert("bookings").
		Columns(
			"user_id",
			"trek_id",
			"batch_id",
			"number_of_participants",
			"total_price",
			"status",
			"payment_mode",
			"payment_id",
			"promo_code",
			"contact_name",
			"contact_email",
			"initial_amount",
			"remaining_amount",
			"final_payment_due_date",
			"session_token",
			"session_expires_at",
		)

	var initialAmount, remainingAmount interface{}
	var finalDueDate interface{}
	if booking.Partial != nil {
		initialAmount = booking.Partial.InitialAmount
		remainingAmount = booking.Partial.RemainingAmount
		finalDueDate = booking.Partial.FinalPaymentDueDate
	}

	var sessionToken, sessionExpiresAt interface{}
	if booking.Session != nil {
		sessionToken = booking.Session.Token
		sessionExpiresAt = booking.Session.ExpiresAt
	}

	query, args, err := insertBuilder.
		Values(
			booking.UserID,
			booking.TrekID,
			booking.BatchID,
			booking.NumberOfParticipants,
			booking.TotalPrice,
			booking.Status,
			booking.PaymentMode,
			booking.PaymentID,
			booking.PromoCode,
			booking.ContactName,
			booking.ContactEmail,
			initialAmount,
			remainingAmount,
			finalDueDate,
			sessionToken,
			sessionExpiresAt,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	if len(booking.Participants) > 0 {
		if err := r.insertParticipants(ctx, executor, booking.ID, booking.Participants); err != nil {
			return nil, err
		}
	}

	return booking, nil
}

// GetByID получает бронирование по ID вместе с участниками
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	if err := r.attachParticipants(ctx, executor, []*domain.Booking{booking}); err != nil {
		return nil, err
	}

	return booking, nil
}

// GetByUserID получает список бронирований пользователя
// Бронирования в статусах pending/pending_payment (брошенные попытки оплаты) исключаются
func (r *Repository) GetByUserID(ctx context.Context, userID int64) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.NotEq{"status": []string{
			string(domain.StatusPending),
			string(domain.StatusPendingPayment),
		}}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachParticipants(ctx, executor, bookings); err != nil {
		return nil, err
	}

	return bookings, nil
}

// ListByBatch получает все бронирования батча вместе с участниками
// Это авторитетный источник для пересчёта занятых мест.
// Внутри транзакции выборка блокируется (FOR UPDATE), чтобы конкурентный
// допуск на последние места не прошёл по одному и тому же снимку.
func (r *Repository) ListByBatch(ctx context.Context, batchID int64) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"batch_id": batchID}).
		OrderBy("id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByBatch - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByBatch - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachParticipants(ctx, executor, bookings); err != nil {
		return nil, err
	}

	return bookings, nil
}

// FindPendingByUserTrekBatch ищет последнее pending_payment бронирование
// пользователя на пару (трек, батч) для дедупликации повторных попыток оплаты
func (r *Repository) FindPendingByUserTrekBatch(ctx context.Context, userID, trekID, batchID int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{
			"user_id":  userID,
			"trek_id":  trekID,
			"batch_id": batchID,
			"status":   domain.StatusPendingPayment,
		}).
		OrderBy("created_at DESC").
		Limit(1)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindPendingByUserTrekBatch - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: FindPendingByUserTrekBatch - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// ListAdmin получает страницу бронирований по админскому фильтру
// Возвращает страницу и общее количество строк под фильтром
func (r *Repository) ListAdmin(ctx context.Context, filter AdminFilter) ([]*domain.Booking, int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	applyFilter := func(b squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.Status != nil {
			b = b.Where(squirrel.Eq{"status": *filter.Status})
		} else {
			// По умолчанию брошенные попытки оплаты не показываются
			b = b.Where(squirrel.NotEq{"status": []string{
				string(domain.StatusPending),
				string(domain.StatusPendingPayment),
			}})
		}
		if filter.TrekID != nil {
			b = b.Where(squirrel.Eq{"trek_id": *filter.TrekID})
		}
		if filter.BatchID != nil {
			b = b.Where(squirrel.Eq{"batch_id": *filter.BatchID})
		}
		if filter.StartDate != nil {
			b = b.Where(squirrel.GtOrEq{"created_at": *filter.StartDate})
		}
		if filter.EndDate != nil {
			b = b.Where(squirrel.LtOrEq{"created_at": *filter.EndDate})
		}
		if filter.Search != nil && *filter.Search != "" {
			pattern := "%" + *filter.Search + "%"
			b = b.Where(squirrel.Or{
				squirrel.ILike{"contact_name": pattern},
				squirrel.ILike{"contact_email": pattern},
			})
		}
		return b
	}

	countQuery, countArgs, err := applyFilter(psqlbuilder.Select("COUNT(*)").From("bookings")).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: ListAdmin - build count query: %v", ErrBuildQuery, err)
	}

	var total int64
	if err := executor.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: ListAdmin - scan count: %v", ErrScanRow, err)
	}

	selectBuilder := applyFilter(psqlbuilder.Select(bookingColumns...).From("bookings")).
		OrderBy("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset)

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: ListAdmin - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: ListAdmin - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachParticipants(ctx, executor, bookings); err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// ListPartialPaymentsDue получает partial-бронирования с ненапомненной доплатой,
// у которых срок финального платежа попадает в интервал [from, to]
func (r *Repository) ListPartialPaymentsDue(ctx context.Context, from, to time.Time) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{
			"status":        domain.StatusPaymentConfirmedPartial,
			"reminder_sent": false,
		}).
		Where(squirrel.GtOrEq{"final_payment_due_date": from}).
		Where(squirrel.LtOrEq{"final_payment_due_date": to}).
		OrderBy("final_payment_due_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListPartialPaymentsDue - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListPartialPaymentsDue - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdatePending обновляет брошенное pending_payment бронирование на месте
// при повторной попытке оплаты (дедупликация мест)
func (r *Repository) UpdatePending(ctx context.Context, booking *domain.Booking) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("number_of_participants", booking.NumberOfParticipants).
		Set("total_price", booking.TotalPrice).
		Set("payment_mode", booking.PaymentMode).
		Set("promo_code", booking.PromoCode).
		Set("contact_name", booking.ContactName).
		Set("contact_email", booking.ContactEmail).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": booking.ID, "status": domain.StatusPendingPayment})

	if booking.Partial != nil {
		updateBuilder = updateBuilder.
			Set("initial_amount", booking.Partial.InitialAmount).
			Set("remaining_amount", booking.Partial.RemainingAmount).
			Set("final_payment_due_date", booking.Partial.FinalPaymentDueDate)
	} else {
		updateBuilder = updateBuilder.
			Set("initial_amount", nil).
			Set("remaining_amount", nil).
			Set("final_payment_due_date", nil)
	}

	if booking.Session != nil {
		updateBuilder = updateBuilder.
			Set("session_token", booking.Session.Token).
			Set("session_expires_at", booking.Session.ExpiresAt)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdatePending - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "UpdatePending")
}

// UpdateStatus обновляет статус бронирования
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "UpdateStatus")
}

// MarkCancelled переводит бронирование в cancelled с фиксацией причины и возврата
func (r *Repository) MarkCancelled(ctx context.Context, id int64, reason string, refund RefundRecord) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("refund_status", refund.Status).
		Set("refund_amount", refund.Amount).
		Set("refund_type", refund.Type).
		Set("refund_date", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkCancelled - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "MarkCancelled")
}

// UpdateRefundStatus фиксирует итог обращения к платёжному шлюзу на уровне бронирования
func (r *Repository) UpdateRefundStatus(ctx context.Context, id int64, status domain.RefundStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("refund_status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateRefundStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "UpdateRefundStatus")
}

// UpdateSeatState обновляет число участников и суммарную стоимость
// после отмены или восстановления отдельного участника
func (r *Repository) UpdateSeatState(ctx context.Context, id int64, numberOfParticipants int, totalPrice float64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("number_of_participants", numberOfParticipants).
		Set("total_price", totalPrice).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateSeatState - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "UpdateSeatState")
}

// SetBatch переносит бронирование на другой батч
// Срок финального платежа пересчитывается вызывающей стороной; флаг напоминания сбрасывается
func (r *Repository) SetBatch(ctx context.Context, id int64, batchID int64, finalPaymentDueDate *time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("batch_id", batchID).
		Set("reminder_sent", false).
		Set("reminder_sent_at", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if finalPaymentDueDate != nil {
		updateBuilder = updateBuilder.Set("final_payment_due_date", *finalPaymentDueDate)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: SetBatch - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "SetBatch")
}

// CompletePartial закрывает остаток частичной оплаты и продвигает статус
func (r *Repository) CompletePartial(ctx context.Context, id int64, status domain.BookingStatus, completedAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("remaining_amount", 0).
		Set("partial_payment_completed_at", completedAt).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: CompletePartial - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "CompletePartial")
}

// MarkReminderSent идемпотентно помечает бронирование как напомненное
// Возвращает ErrBookingNotFound, если напоминание уже было отправлено
func (r *Repository) MarkReminderSent(ctx context.Context, id int64, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("reminder_sent", true).
		Set("reminder_sent_at", at).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "reminder_sent": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkReminderSent - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "MarkReminderSent")
}

// CreateRequest сохраняет заявку на отмену/перенос на бронировании
func (r *Repository) CreateRequest(ctx context.Context, bookingID int64, request *domain.CancellationRequest) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("request_type", request.Type).
		Set("request_status", request.Status).
		Set("request_reason", request.Reason).
		Set("request_preferred_batch_id", request.PreferredBatchID).
		Set("request_admin_response", nil).
		Set("request_created_at", squirrel.Expr("NOW()")).
		Set("request_resolved_at", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": bookingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: CreateRequest - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "CreateRequest")
}

// ResolveRequest фиксирует решение админа по заявке
func (r *Repository) ResolveRequest(ctx context.Context, bookingID int64, status domain.RequestStatus, adminResponse *string, resolvedAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("request_status", status).
		Set("request_admin_response", adminResponse).
		Set("request_resolved_at", resolvedAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": bookingID, "request_status": domain.RequestStatusPending}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ResolveRequest - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "ResolveRequest")
}

// execExpectingRow выполняет update и требует ровно затронутой строки
func (r *Repository) execExpectingRow(ctx context.Context, executor DBExecutor, query string, args []interface{}, op string) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// rowScanner покрывает *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking

	var (
		paymentID, promoCode                       sql.NullString
		initialAmount, remainingAmount             sql.NullFloat64
		finalDueDate, partialCompletedAt           sql.NullTime
		reminderSent                               bool
		reminderSentAt                             sql.NullTime
		refundStatus, refundType                   sql.NullString
		refundAmount                               sql.NullFloat64
		refundDate                                 sql.NullTime
		cancellationReason                         sql.NullString
		cancelledAt                                sql.NullTime
		requestType, requestStatus, requestReason  sql.NullString
		requestPreferredBatchID                    sql.NullInt64
		requestAdminResponse                       sql.NullString
		requestCreatedAt, requestResolvedAt        sql.NullTime
		sessionToken                               sql.NullString
		sessionExpiresAt                           sql.NullTime
		createdAt, updatedAt                       sql.NullTime
	)

	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.TrekID,
		&b.BatchID,
		&b.NumberOfParticipants,
		&b.TotalPrice,
		&b.Status,
		&b.PaymentMode,
		&paymentID,
		&promoCode,
		&b.ContactName,
		&b.ContactEmail,
		&initialAmount,
		&remainingAmount,
		&finalDueDate,
		&partialCompletedAt,
		&reminderSent,
		&reminderSentAt,
		&refundStatus,
		&refundAmount,
		&refundDate,
		&refundType,
		&cancellationReason,
		&cancelledAt,
		&requestType,
		&requestStatus,
		&requestReason,
		&requestPreferredBatchID,
		&requestAdminResponse,
		&requestCreatedAt,
		&requestResolvedAt,
		&sessionToken,
		&sessionExpiresAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.PaymentID = nullStringPtr(paymentID)
	b.PromoCode = nullStringPtr(promoCode)
	b.RefundAmount = nullFloatPtr(refundAmount)
	b.RefundDate = nullTimePtr(refundDate)
	b.CancellationReason = nullStringPtr(cancellationReason)
	b.CancelledAt = nullTimePtr(cancelledAt)
	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	if refundStatus.Valid {
		status := domain.RefundStatus(refundStatus.String)
		b.RefundStatus = &status
	}
	if refundType.Valid {
		rt := domain.RefundType(refundType.String)
		b.RefundType = &rt
	}

	if b.PaymentMode == domain.PaymentModePartial && initialAmount.Valid {
		b.Partial = &domain.PartialPaymentDetails{
			InitialAmount:       initialAmount.Float64,
			RemainingAmount:     remainingAmount.Float64,
			FinalPaymentDueDate: nullTimePtr(finalDueDate),
			CompletedAt:         nullTimePtr(partialCompletedAt),
			ReminderSent:        reminderSent,
			ReminderSentAt:      nullTimePtr(reminderSentAt),
		}
	}

	if requestType.Valid {
		b.Request = &domain.CancellationRequest{
			Type:             domain.RequestType(requestType.String),
			Status:           domain.RequestStatus(requestStatus.String),
			Reason:           nullStringPtr(requestReason),
			PreferredBatchID: nullInt64Ptr(requestPreferredBatchID),
			AdminResponse:    nullStringPtr(requestAdminResponse),
			CreatedAt:        nullTimePtr(requestCreatedAt),
			ResolvedAt:       nullTimePtr(requestResolvedAt),
		}
	}

	if sessionToken.Valid {
		b.Session = &domain.BookingSession{
			Token:     sessionToken.String,
			ExpiresAt: sessionExpiresAt.Time,
		}
	}

	return &b, nil
}

func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

func nullStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
