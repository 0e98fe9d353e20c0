package get_batch_availability

import (
	"context"
	"errors"
	"fmt"

	trekRepo "github.com/m04kA/SMC-TrekBookingService/internal/infra/storage/trek"
)

// UseCase use case для получения доступности отправлений трека
//
// Свободные места считаются движком пересчёта по бронированиям, а не по
// кэшированному счётчику батча
type UseCase struct {
	trekRepo     TrekRepository
	capacity     CapacityService
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(trekRepo TrekRepository, capacity CapacityService, logger Logger) *UseCase {
	return &UseCase{
		trekRepo:     trekRepo,
		capacity:     capacity,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case получения доступности
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req.TrekID <= 0 {
		return nil, fmt.Errorf("%w: trekID must be positive", ErrInvalidInput)
	}

	// 1. Трек должен существовать и продаваться
	trek, err := uc.trekRepo.GetByID(ctx, req.TrekID)
	if err != nil {
		if errors.Is(err, trekRepo.ErrTrekNotFound) {
			return nil, ErrTrekNotFound
		}
		uc.logger.Error("GetBatchAvailability: failed to get trek id=%d: %v", req.TrekID, err)
		return nil, fmt.Errorf("%w: failed to get trek: %v", ErrInternal, err)
	}
	if !trek.Enabled {
		return nil, ErrTrekDisabled
	}

	// 2. Будущие отправления в хронологическом порядке
	batches, err := uc.trekRepo.ListBatchesByTrek(ctx, req.TrekID)
	if err != nil {
		uc.logger.Error("GetBatchAvailability: failed to list batches for trek id=%d: %v", req.TrekID, err)
		return nil, fmt.Errorf("%w: failed to list batches: %v", ErrInternal, err)
	}

	now := uc.timeProvider.Now()
	resp := &Response{TrekID: req.TrekID, Batches: make([]BatchAvailability, 0, len(batches))}

	for _, batch := range batches {
		if batch.HasStarted(now) {
			continue
		}

		used, err := uc.capacity.SeatsUsed(ctx, batch.ID)
		if err != nil {
			uc.logger.Error("GetBatchAvailability: failed to count seats for batch id=%d: %v", batch.ID, err)
			return nil, fmt.Errorf("%w: failed to count seats: %v", ErrInternal, err)
		}

		resp.Batches = append(resp.Batches, BatchAvailability{
			BatchID:   batch.ID,
			StartDate: batch.StartDate,
			EndDate:   batch.EndDate,
			Price:     batch.Price,
			FreeSeats: batch.FreeSeats(used),
			MaxSeats:  batch.SellableCapacity(),
		})
	}

	return resp, nil
}
