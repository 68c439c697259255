package infrastructure

import (
	"context"
	"net/http"
	"time"

	"github.com/draftea/order-system/shared/models"
)

// PaymentHTTPClient implements PaymentPort against the payment service REST API.
// Both calls are accepted asynchronously; results arrive as payment.* events.
type PaymentHTTPClient struct {
	client jsonClient
}

// NewPaymentHTTPClient creates a new PaymentHTTPClient
func NewPaymentHTTPClient(baseURL string, timeout time.Duration) *PaymentHTTPClient {
	return &PaymentHTTPClient{client: newJSONClient("payment", baseURL, timeout)}
}

type captureRequest struct {
	PaymentRef string       `json:"payment_ref"`
	OrderID    models.ID    `json:"order_id"`
	Amount     models.Money `json:"amount"`
}

type refundRequest struct {
	PaymentRef string       `json:"payment_ref"`
	OrderID    models.ID    `json:"order_id"`
	Amount     models.Money `json:"amount"`
	Reason     string       `json:"reason"`
}

// RequestCapture asks the payment service to capture a pre-authorized payment
func (c *PaymentHTTPClient) RequestCapture(ctx context.Context, paymentRef string, orderID models.ID, amount models.Money) error {
	err := c.client.do(ctx, http.MethodPost, []string{"captures"}, "capture:"+orderID.String(),
		captureRequest{PaymentRef: paymentRef, OrderID: orderID, Amount: amount}, nil)
	return classify(err)
}

// RequestRefund asks the payment service to refund the order amount
func (c *PaymentHTTPClient) RequestRefund(ctx context.Context, paymentRef string, orderID models.ID, amount models.Money, reason string) error {
	err := c.client.do(ctx, http.MethodPost, []string{"refunds"}, "",
		refundRequest{PaymentRef: paymentRef, OrderID: orderID, Amount: amount, Reason: reason}, nil)
	return classify(err)
}
