package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/pkg/errors"
)

const (
	defaultDownstreamTimeout = 5 * time.Second
	idempotencyHeader        = "Idempotency-Key"
	maxErrorBody             = 1 << 10
)

// jsonClient is the transport shared by the downstream service clients
type jsonClient struct {
	service string
	baseURL string
	http    *http.Client
}

func newJSONClient(service, baseURL string, timeout time.Duration) jsonClient {
	if timeout <= 0 {
		timeout = defaultDownstreamTimeout
	}
	return jsonClient{
		service: service,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// do sends body as JSON and decodes a 2xx response into out. Non 2xx responses are returned
// as *statusError so callers can map service specific codes.
func (c jsonClient) do(ctx context.Context, method string, path []string, idempotencyKey string, body, out interface{}) error {
	endpoint, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return errors.Wrapf(err, "%s: invalid endpoint", c.service)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "%s: failed to marshal request", c.service)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.Wrapf(err, "%s: failed to build request", c.service)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.WrapError(domain.KindTransientInfrastructure, err, c.service+" unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{service: c.service, code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.WrapError(domain.KindTransientInfrastructure, err, c.service+" returned an unreadable response")
	}
	return nil
}

type statusError struct {
	service string
	code    int
	body    string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.service, e.code, e.body)
}

// classify maps a response status to the error taxonomy
func classify(err error) error {
	var se *statusError
	if !errors.As(err, &se) {
		return err
	}

	switch {
	case se.code == http.StatusTooManyRequests, se.code >= 500:
		return domain.WrapError(domain.KindTransientInfrastructure, se, "downstream unavailable")
	default:
		return domain.WrapError(domain.KindPermanentDownstreamFailure, se, "downstream rejected the request")
	}
}

func statusCode(err error) int {
	var se *statusError
	if errors.As(err, &se) {
		return se.code
	}
	return 0
}
