package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client клиент платёжного шлюза
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента платёжного шлюза
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Refund инициирует возврат средств по платежу
// Нулевая сумма не отправляется в шлюз, возврат считается состоявшимся
func (c *Client) Refund(ctx context.Context, paymentID string, amount float64, reason string) (*RefundResult, error) {
	if amount <= 0 {
		c.log.Info("Skipping gateway refund for payment_id=%s: amount=%.2f", paymentID, amount)
		return &RefundResult{PaymentID: paymentID, Amount: 0, Status: "skipped"}, nil
	}

	url := fmt.Sprintf("%s/internal/payments/%s/refund", c.baseURL, paymentID)

	body, err := json.Marshal(RefundRequest{Amount: amount, Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		// Продолжаем обработку
	case http.StatusNotFound:
		return nil, ErrPaymentNotFound
	case http.StatusUnprocessableEntity, http.StatusConflict:
		var errResp ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, fmt.Errorf("%w: payment_id=%s: %s", ErrRefundFailed, paymentID, errResp.Message)
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}

	// Парсим ответ
	var result RefundResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	c.log.Info("Refund accepted by gateway: payment_id=%s, refund_id=%s, amount=%.2f", paymentID, result.RefundID, result.Amount)
	return &result, nil
}
