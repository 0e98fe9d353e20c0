package trek

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

// Repository репозиторий для работы с треками и их батчами
//
// Батчи хранятся первоклассными строками с собственным version-токеном,
// при этом их идентичность остаётся привязанной к владеющему треку:
// все выборки батча идут по паре (trek_id, batch_id).
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория треков
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var trekColumns = []string{
	"id",
	"name",
	"slug",
	"region",
	"difficulty",
	"enabled",
	"is_custom",
	"partial_payment_enabled",
	"partial_amount_type",
	"partial_amount",
	"final_payment_due_days",
	"created_at",
	"updated_at",
}

var batchColumns = []string{
	"id",
	"trek_id",
	"start_date",
	"end_date",
	"price",
	"max_participants",
	"reserved_slots",
	"current_participants",
	"version",
	"created_at",
	"updated_at",
}

// GetByID получает трек по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Trek, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(trekColumns...).
		From("treks").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var trek domain.Trek
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&trek.ID,
		&trek.Name,
		&trek.Slug,
		&trek.Region,
		&trek.Difficulty,
		&trek.Enabled,
		&trek.IsCustom,
		&trek.PartialPayment.Enabled,
		&trek.PartialPayment.AmountType,
		&trek.PartialPayment.Amount,
		&trek.PartialPayment.FinalPaymentDueDays,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrTrekNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan trek: %v", ErrScanRow, err)
	}

	trek.CreatedAt = createdAt.Time
	trek.UpdatedAt = updatedAt.Time

	return &trek, nil
}

// GetBatch получает батч по ID в рамках трека
func (r *Repository) GetBatch(ctx context.Context, trekID, batchID int64) (*domain.Batch, error) {
	return r.getBatch(ctx, trekID, batchID, false)
}

// GetBatchForUpdate получает батч с блокировкой строки (FOR UPDATE)
// Используется в транзакциях допуска к вместимости
func (r *Repository) GetBatchForUpdate(ctx context.Context, trekID, batchID int64) (*domain.Batch, error) {
	return r.getBatch(ctx, trekID, batchID, true)
}

func (r *Repository) getBatch(ctx context.Context, trekID, batchID int64, forUpdate bool) (*domain.Batch, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(batchColumns...).
		From("batches").
		Where(squirrel.Eq{"id": batchID, "trek_id": trekID})

	if forUpdate {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getBatch - build select query: %v", ErrBuildQuery, err)
	}

	batch, err := scanBatch(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getBatch - scan batch: %v", ErrScanRow, err)
	}

	return batch, nil
}

// ListBatchesByTrek получает все батчи трека, отсортированные по дате старта
func (r *Repository) ListBatchesByTrek(ctx context.Context, trekID int64) ([]*domain.Batch, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(batchColumns...).
		From("batches").
		Where(squirrel.Eq{"trek_id": trekID}).
		OrderBy("start_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBatchesByTrek - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListBatchesByTrek - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBatches(rows)
}

// ListUpcomingBatches получает батчи со стартом в интервале [from, to)
// Используется фоновой задачей периодической сверки вместимости
func (r *Repository) ListUpcomingBatches(ctx context.Context, from, to time.Time) ([]*domain.Batch, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(batchColumns...).
		From("batches").
		Where(squirrel.GtOrEq{"start_date": from}).
		Where(squirrel.Lt{"start_date": to}).
		OrderBy("start_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListUpcomingBatches - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListUpcomingBatches - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBatches(rows)
}

// UpdateBatchParticipants записывает пересчитанный кеш занятых мест под version-токеном
// Возвращает ErrVersionConflict, если строка была изменена конкурентно
func (r *Repository) UpdateBatchParticipants(ctx context.Context, batchID int64, count int, version int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("batches").
		Set("current_participants", count).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": batchID, "version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateBatchParticipants - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateBatchParticipants - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateBatchParticipants - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrVersionConflict
	}

	return nil
}

// rowScanner покрывает *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBatch(row rowScanner) (*domain.Batch, error) {
	var batch domain.Batch
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&batch.ID,
		&batch.TrekID,
		&batch.StartDate,
		&batch.EndDate,
		&batch.Price,
		&batch.MaxParticipants,
		&batch.ReservedSlots,
		&batch.CurrentParticipants,
		&batch.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	batch.CreatedAt = createdAt.Time
	batch.UpdatedAt = updatedAt.Time

	return &batch, nil
}

func scanBatches(rows *sql.Rows) ([]*domain.Batch, error) {
	batches := make([]*domain.Batch, 0)

	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBatches - scan row: %v", ErrScanRow, err)
		}
		batches = append(batches, batch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBatches - rows error: %v", ErrScanRow, err)
	}

	return batches, nil
}
