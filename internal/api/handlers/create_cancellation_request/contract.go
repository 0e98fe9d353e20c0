package create_cancellation_request

import (
	"context"

	usecase "github.com/m04kA/SMC-TrekBookingService/internal/usecase/submit_cancellation_request"
)

type SubmitCancellationRequestUseCase interface {
	Execute(ctx context.Context, req *usecase.Request) (*usecase.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
