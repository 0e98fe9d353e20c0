package create_booking

import (
	"fmt"
	"math"
	"net/mail"

	"github.com/m04kA/SMC-TrekBookingService/internal/domain"
)

// Допустимое расхождение при сверке клиентской суммы первого взноса
const amountTolerance = 0.01

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.TrekID <= 0 {
		return fmt.Errorf("%w: trekID must be positive", ErrInvalidInput)
	}

	if req.BatchID <= 0 {
		return fmt.Errorf("%w: batchID must be positive", ErrInvalidInput)
	}

	if req.NumberOfParticipants < domain.MinParticipantsPerBooking ||
		req.NumberOfParticipants > domain.MaxParticipantsPerBooking {
		return fmt.Errorf("%w: numberOfParticipants must be in [%d, %d]",
			ErrInvalidInput, domain.MinParticipantsPerBooking, domain.MaxParticipantsPerBooking)
	}

	if req.ContactName == "" || len(req.ContactName) > domain.MaxContactNameLength {
		return fmt.Errorf("%w: contactName is required", ErrInvalidInput)
	}

	if _, err := mail.ParseAddress(req.ContactEmail); err != nil {
		return fmt.Errorf("%w: invalid contactEmail", ErrInvalidInput)
	}

	switch domain.PaymentMode(req.PaymentMode) {
	case domain.PaymentModeFull, domain.PaymentModePartial:
	default:
		return fmt.Errorf("%w: paymentMode must be full or partial", ErrInvalidInput)
	}

	return nil
}

// amountsMatch сверяет клиентский расчёт первого взноса с серверным
func amountsMatch(client, server float64) bool {
	return math.Abs(client-server) <= amountTolerance
}
