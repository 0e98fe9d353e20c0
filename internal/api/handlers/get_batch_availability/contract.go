package get_batch_availability

import (
	"context"

	usecase "github.com/m04kA/SMC-TrekBookingService/internal/usecase/get_batch_availability"
)

type GetBatchAvailabilityUseCase interface {
	Execute(ctx context.Context, req *usecase.Request) (*usecase.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
