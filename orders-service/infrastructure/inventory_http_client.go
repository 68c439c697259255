package infrastructure

import (
	"context"
	"net/http"
	"time"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/models"
)

// InventoryHTTPClient implements InventoryPort against the inventory service REST API
type InventoryHTTPClient struct {
	client jsonClient
}

// NewInventoryHTTPClient creates a new InventoryHTTPClient
func NewInventoryHTTPClient(baseURL string, timeout time.Duration) *InventoryHTTPClient {
	return &InventoryHTTPClient{client: newJSONClient("inventory", baseURL, timeout)}
}

type availabilityRequest struct {
	Items []domain.LineItem `json:"items"`
}

type availabilityResponse struct {
	Items []domain.ItemAvailability `json:"items"`
}

type reservationRequest struct {
	OrderID models.ID         `json:"order_id"`
	Items   []domain.LineItem `json:"items"`
}

type reservationResponse struct {
	ReservationID string `json:"reservation_id"`
}

// CheckAvailability asks for current stock without reserving it
func (c *InventoryHTTPClient) CheckAvailability(ctx context.Context, items []domain.LineItem) ([]domain.ItemAvailability, error) {
	var resp availabilityResponse
	err := c.client.do(ctx, http.MethodPost, []string{"availability"}, "", availabilityRequest{Items: items}, &resp)
	if err != nil {
		return nil, classify(err)
	}
	return resp.Items, nil
}

// Reserve holds the items for the order. 409 and 422 mean the reservation was rejected.
func (c *InventoryHTTPClient) Reserve(ctx context.Context, orderID models.ID, items []domain.LineItem) (string, error) {
	var resp reservationResponse
	err := c.client.do(ctx, http.MethodPost, []string{"reservations"}, "reserve:"+orderID.String(),
		reservationRequest{OrderID: orderID, Items: items}, &resp)
	if err != nil {
		switch statusCode(err) {
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return "", domain.WrapError(domain.KindInventoryUnavailable, err, "reservation rejected")
		default:
			return "", classify(err)
		}
	}
	return resp.ReservationID, nil
}

// Release frees the reservation of the order. A missing reservation counts as released.
func (c *InventoryHTTPClient) Release(ctx context.Context, orderID models.ID) error {
	err := c.client.do(ctx, http.MethodDelete, []string{"reservations", orderID.String()}, "", nil, nil)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return nil
		}
		return classify(err)
	}
	return nil
}
