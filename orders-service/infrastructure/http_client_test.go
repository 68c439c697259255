package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lineItems = []domain.LineItem{{ProductID: "sku-1", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")}}

func TestInventoryHTTPClient_CheckAvailability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/availability", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req availabilityRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sku-1", req.Items[0].ProductID)

		_ = json.NewEncoder(w).Encode(availabilityResponse{Items: []domain.ItemAvailability{
			{ProductID: "sku-1", Requested: 2, Available: 1},
		}})
	}))
	defer server.Close()

	client := NewInventoryHTTPClient(server.URL+"/v1/", time.Second)
	availability, err := client.CheckAvailability(context.Background(), lineItems)

	require.NoError(t, err)
	require.Len(t, availability, 1)
	assert.False(t, availability[0].Sufficient())
}

func TestInventoryHTTPClient_Reserve(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedRef   string
		expectedError domain.ErrorKind
	}{
		{name: "accepted", status: http.StatusCreated, body: `{"reservation_id":"rsv_1"}`, expectedRef: "rsv_1"},
		{name: "conflict is a rejection", status: http.StatusConflict, body: `{"error":"out of stock"}`, expectedError: domain.KindInventoryUnavailable},
		{name: "unprocessable is a rejection", status: http.StatusUnprocessableEntity, expectedError: domain.KindInventoryUnavailable},
		{name: "server error is transient", status: http.StatusBadGateway, expectedError: domain.KindTransientInfrastructure},
		{name: "throttling is transient", status: http.StatusTooManyRequests, expectedError: domain.KindTransientInfrastructure},
		{name: "bad request is permanent", status: http.StatusBadRequest, expectedError: domain.KindPermanentDownstreamFailure},
		{name: "garbage body is transient", status: http.StatusOK, body: `{`, expectedError: domain.KindTransientInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/reservations", r.URL.Path)
				assert.Equal(t, "reserve:order-1", r.Header.Get(idempotencyHeader))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			ref, err := NewInventoryHTTPClient(server.URL, time.Second).Reserve(context.Background(), "order-1", lineItems)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedError, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedRef, ref)
		})
	}
}

func TestInventoryHTTPClient_Release(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedError domain.ErrorKind
	}{
		{name: "released", status: http.StatusNoContent},
		{name: "already released", status: http.StatusNotFound},
		{name: "unavailable", status: http.StatusServiceUnavailable, expectedError: domain.KindTransientInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/reservations/order-1", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			err := NewInventoryHTTPClient(server.URL, time.Second).Release(context.Background(), "order-1")

			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, domain.KindOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInventoryHTTPClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewInventoryHTTPClient(url, time.Second).CheckAvailability(context.Background(), lineItems)

	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestPaymentHTTPClient(t *testing.T) {
	amount := models.NewMoney(decimal.RequireFromString("26.50"), "USD")

	var (
		captured refundRequest
		headers  = map[string]string{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers[r.URL.Path] = r.Header.Get(idempotencyHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		switch r.URL.Path {
		case "/captures":
			w.WriteHeader(http.StatusAccepted)
		case "/refunds":
			if captured.PaymentRef == "pay_voided" {
				w.WriteHeader(http.StatusConflict)
				return
			}
			w.WriteHeader(http.StatusAccepted)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewPaymentHTTPClient(server.URL, time.Second)

	require.NoError(t, client.RequestCapture(context.Background(), "pi_1", "order-1", amount))
	assert.Equal(t, "capture:order-1", headers["/captures"])
	assert.Equal(t, "pi_1", captured.PaymentRef)
	assert.True(t, captured.Amount.Amount.Equal(amount.Amount))

	require.NoError(t, client.RequestRefund(context.Background(), "pay_1", "order-1", amount, "order returned"))
	assert.Empty(t, headers["/refunds"])
	assert.Equal(t, "order returned", captured.Reason)

	err := client.RequestRefund(context.Background(), "pay_voided", "order-1", amount, "cancelled")
	require.Error(t, err)
	assert.Equal(t, domain.KindPermanentDownstreamFailure, domain.KindOf(err))
	assert.False(t, domain.IsRetryable(err))
}
