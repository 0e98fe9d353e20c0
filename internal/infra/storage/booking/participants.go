package booking

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
	"github.com/m04kA/SMC-TrekBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-TrekBookingService/pkg/psqlbuilder"
)

var participantColumns = []string{
	"id",
	"booking_id",
	"name",
	"age",
	"phone",
	"is_cancelled",
	"cancelled_at",
	"cancellation_reason",
	"refund_status",
	"refund_amount",
	"refund_date",
	"refund_type",
	"created_at",
	"updated_at",
}

// ReplaceParticipants заменяет список участников бронирования
// Используется при подаче анкет участников после оплаты
func (r *Repository) ReplaceParticipants(ctx context.Context, bookingID int64, participants []*domain.Participant) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("booking_participants").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceParticipants - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ReplaceParticipants - execute delete: %v", ErrExecQuery, err)
	}

	return r.insertParticipants(ctx, executor, bookingID, participants)
}

// GetParticipant получает участника по ID
func (r *Repository) GetParticipant(ctx context.Context, participantID string) (*domain.Participant, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(participantColumns...).
		From("booking_participants").
		Where(squirrel.Eq{"id": participantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetParticipant - build select query: %v", ErrBuildQuery, err)
	}

	participant, err := scanParticipant(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetParticipant - scan participant: %v", ErrScanRow, err)
	}

	return participant, nil
}

// CancelParticipant помечает участника отменённым с фиксацией возврата
func (r *Repository) CancelParticipant(ctx context.Context, participantID string, reason string, refund RefundRecord) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("booking_participants").
		Set("is_cancelled", true).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("cancellation_reason", reason).
		Set("refund_status", refund.Status).
		Set("refund_amount", refund.Amount).
		Set("refund_type", refund.Type).
		Set("refund_date", squirrel.Expr("NOW()")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": participantID, "is_cancelled": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: CancelParticipant - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingParticipant(ctx, executor, query, args, "CancelParticipant")
}

// RestoreParticipant снимает отметку отмены с участника
// Записи о возврате очищаются, место снова считается занятым
func (r *Repository) RestoreParticipant(ctx context.Context, participantID string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("booking_participants").
		Set("is_cancelled", false).
		Set("cancelled_at", nil).
		Set("cancellation_reason", nil).
		Set("refund_status", nil).
		Set("refund_amount", nil).
		Set("refund_type", nil).
		Set("refund_date", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": participantID, "is_cancelled": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: RestoreParticipant - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingParticipant(ctx, executor, query, args, "RestoreParticipant")
}

// UpdateParticipantRefundStatus фиксирует итог обращения к платёжному шлюзу на уровне участника
func (r *Repository) UpdateParticipantRefundStatus(ctx context.Context, participantID string, status domain.RefundStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("booking_participants").
		Set("refund_status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": participantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateParticipantRefundStatus - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingParticipant(ctx, executor, query, args, "UpdateParticipantRefundStatus")
}

func (r *Repository) insertParticipants(ctx context.Context, executor DBExecutor, bookingID int64, participants []*domain.Participant) error {
	if len(participants) == 0 {
		return nil
	}

	insertBuilder := psqlbuilder.Insert("booking_participants").
		Columns("id", "booking_id", "name", "age", "phone")

	for _, p := range participants {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.BookingID = bookingID
		insertBuilder = insertBuilder.Values(p.ID, bookingID, p.Name, p.Age, p.Phone)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: insertParticipants - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insertParticipants - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// attachParticipants догружает участников для набора бронирований одним запросом
func (r *Repository) attachParticipants(ctx context.Context, executor DBExecutor, bookings []*domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(bookings))
	byID := make(map[int64]*domain.Booking, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
		byID[b.ID] = b
	}

	query, args, err := psqlbuilder.Select(participantColumns...).
		From("booking_participants").
		Where(squirrel.Eq{"booking_id": ids}).
		OrderBy("booking_id ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: attachParticipants - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: attachParticipants - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		participant, err := scanParticipant(rows)
		if err != nil {
			return fmt.Errorf("%w: attachParticipants - scan row: %v", ErrScanRow, err)
		}
		if booking, ok := byID[participant.BookingID]; ok {
			booking.Participants = append(booking.Participants, participant)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: attachParticipants - rows error: %v", ErrScanRow, err)
	}

	return nil
}

func (r *Repository) execExpectingParticipant(ctx context.Context, executor DBExecutor, query string, args []interface{}, op string) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

func scanParticipant(row rowScanner) (*domain.Participant, error) {
	var p domain.Participant

	var (
		phone              sql.NullString
		cancelledAt        sql.NullTime
		cancellationReason sql.NullString
		refundStatus       sql.NullString
		refundAmount       sql.NullFloat64
		refundDate         sql.NullTime
		refundType         sql.NullString
		createdAt          sql.NullTime
		updatedAt          sql.NullTime
	)

	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.Name,
		&p.Age,
		&phone,
		&p.IsCancelled,
		&cancelledAt,
		&cancellationReason,
		&refundStatus,
		&refundAmount,
		&refundDate,
		&refundType,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Phone = nullStringPtr(phone)
	p.CancelledAt = nullTimePtr(cancelledAt)
	p.CancellationReason = nullStringPtr(cancellationReason)
	p.RefundAmount = nullFloatPtr(refundAmount)
	p.RefundDate = nullTimePtr(refundDate)
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	if refundStatus.Valid {
		status := domain.RefundStatus(refundStatus.String)
		p.RefundStatus = &status
	}
	if refundType.Valid {
		rt := domain.RefundType(refundType.String)
		p.RefundType = &rt
	}

	return &p, nil
}
