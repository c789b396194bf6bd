package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/google/uuid"
)

const (
	OrdersAPIPath    = "/v2/orders"
	SearchOrdersPath = "/v2/orders/search"

	defaultRelayURL      = "http://localhost:8080/api/square-proxy"
	defaultEnvironment   = "sandbox"
	defaultLookbackHours = 8
	defaultPageLimit     = 100
)

// Client talks to the Square Orders API through the proxy relay. Every
// request to the relay is a POST carrying the intended upstream method;
// the relay injects credentials and forwards.
type Client struct {
	relayURL    string
	environment string
	locationID  string
	lookback    time.Duration
	pageLimit   int
	httpClient  *http.Client
	logger      aqm.Logger

	nowFn func() time.Time
}

func NewClient(config *aqm.Config, logger aqm.Logger) *Client {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}

	relayURL, _ := config.GetString("relay.url")
	if relayURL == "" {
		relayURL = defaultRelayURL
	}

	environment, _ := config.GetString("square.environment")
	if environment == "" {
		environment = defaultEnvironment
	}

	locationID, _ := config.GetString("square.location.id")

	lookbackHours := defaultLookbackHours
	if raw, _ := config.GetString("poll.lookback.hours"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			lookbackHours = n
		}
	}

	pageLimit := defaultPageLimit
	if raw, _ := config.GetString("poll.page.limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			pageLimit = n
		}
	}

	return &Client{
		relayURL:    relayURL,
		environment: environment,
		locationID:  locationID,
		lookback:    time.Duration(lookbackHours) * time.Hour,
		pageLimit:   pageLimit,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		nowFn:  time.Now,
	}
}

type relayRequest struct {
	Environment   string      `json:"environment"`
	SquareAPIPath string      `json:"square_api_path"`
	ActualMethod  string      `json:"actual_method_for_square"`
	Body          interface{} `json:"body"`
}

// call relays one upstream request and returns the raw JSON body. A
// non-2xx relay status or a populated errors envelope comes back as a
// wrapped *APIError so callers can inspect the upstream code.
func (c *Client) call(ctx context.Context, path, method string, body interface{}) (json.RawMessage, error) {
	payload, err := json.Marshal(relayRequest{
		Environment:   c.environment,
		SquareAPIPath: path,
		ActualMethod:  method,
		Body:          body,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot marshal relay request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("cannot create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read relay response: %w", err)
	}

	var env ErrorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("relay returned status %d with unparseable body", resp.StatusCode)
		}
		return nil, fmt.Errorf("cannot parse relay response: %w", err)
	}

	if apiErr := env.First(); apiErr != nil {
		c.logger.Errorf("Square API error on %s: %s (%s)", path, apiErr.Code, apiErr.Detail)
		return nil, fmt.Errorf("square %s %s: %w", method, path, apiErr)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("square %s %s: status %d", method, path, resp.StatusCode)
	}

	return data, nil
}

type searchQueryFilter struct {
	DateTimeFilter struct {
		CreatedAt struct {
			StartAt string `json:"start_at"`
		} `json:"created_at"`
	} `json:"date_time_filter"`
	StateFilter struct {
		States []string `json:"states"`
	} `json:"state_filter"`
}

type searchQuerySort struct {
	SortField string `json:"sort_field"`
	SortOrder string `json:"sort_order"`
}

type searchQuery struct {
	Filter searchQueryFilter `json:"filter"`
	Sort   searchQuerySort   `json:"sort"`
}

type searchOrdersRequest struct {
	LocationIDs []string    `json:"location_ids"`
	Query       searchQuery `json:"query"`
	Limit       int         `json:"limit"`
}

type searchOrdersResponse struct {
	Orders []Order `json:"orders"`
}

// SearchOrders fetches recent orders for the configured location:
// created within the lookback window, OPEN or COMPLETED, newest first,
// capped at the configured page limit.
func (c *Client) SearchOrders(ctx context.Context) ([]Order, error) {
	if c.locationID == "" {
		return nil, fmt.Errorf("square location ID not configured")
	}

	startAt := c.nowFn().Add(-c.lookback).UTC().Format(time.RFC3339)

	body := searchOrdersRequest{
		LocationIDs: []string{c.locationID},
		Limit:       c.pageLimit,
	}
	body.Query.Filter.DateTimeFilter.CreatedAt.StartAt = startAt
	body.Query.Filter.StateFilter.States = []string{OrderStateOpen, OrderStateCompleted}
	body.Query.Sort = searchQuerySort{SortField: "CREATED_AT", SortOrder: "DESC"}

	data, err := c.call(ctx, SearchOrdersPath, http.MethodPost, body)
	if err != nil {
		return nil, err
	}

	var result searchOrdersResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("cannot parse search orders response: %w", err)
	}

	return result.Orders, nil
}

type orderUpdateFulfillment struct {
	UID   string `json:"uid"`
	State string `json:"state"`
}

type orderUpdateBody struct {
	Version      int64                    `json:"version"`
	LocationID   string                   `json:"location_id"`
	State        string                   `json:"state,omitempty"`
	Fulfillments []orderUpdateFulfillment `json:"fulfillments,omitempty"`
}

type updateOrderRequest struct {
	Order          orderUpdateBody `json:"order"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type updateOrderResponse struct {
	Order *Order `json:"order"`
}

// CompleteOrder marks an order done upstream. When fulfillmentID is set
// the write targets that fulfillment's state; otherwise it flips the
// order-level state. The supplied version must match upstream or the
// call fails with VERSION_MISMATCH. Each attempt carries a fresh
// idempotency key so upstream never double-applies a retried request.
func (c *Client) CompleteOrder(ctx context.Context, orderID string, version int64, fulfillmentID string) (*Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("missing order id")
	}

	body := updateOrderRequest{
		Order: orderUpdateBody{
			Version:    version,
			LocationID: c.locationID,
		},
		IdempotencyKey: fmt.Sprintf("complete-%s-%s", orderID, uuid.New().String()),
	}

	if fulfillmentID != "" {
		body.Order.Fulfillments = []orderUpdateFulfillment{
			{UID: fulfillmentID, State: FulfillmentStateCompleted},
		}
	} else {
		body.Order.State = OrderStateCompleted
	}

	path := fmt.Sprintf("%s/%s", OrdersAPIPath, orderID)
	data, err := c.call(ctx, path, http.MethodPut, body)
	if err != nil {
		return nil, err
	}

	var result updateOrderResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("cannot parse update order response: %w", err)
	}

	return result.Order, nil
}
