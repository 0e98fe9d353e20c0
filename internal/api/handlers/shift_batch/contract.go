package shift_batch

import (
	"context"

	usecase "github.com/m04kA/SMC-TrekBookingService/internal/usecase/shift_batch"
)

type ShiftBatchUseCase interface {
	Execute(ctx context.Context, req *usecase.Request) (*usecase.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
