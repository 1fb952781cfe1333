package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mesaviva/pos-payments-terminal/internal/apperrors"
	"github.com/mesaviva/pos-payments-terminal/internal/config"
	"github.com/mesaviva/pos-payments-terminal/internal/models"
	"github.com/mesaviva/pos-payments-terminal/internal/requestctx"
)

// PosClient is the remote POS core API, consumed purely as HTTP/JSON.
// It is the sole source of truth for accounts, splits and committed
// payments.
type PosClient interface {
	ListTables(ctx context.Context) ([]models.Table, error)
	GetTableAccount(ctx context.Context, tableID string) (*models.AccountSnapshot, error)
	SplitAccount(ctx context.Context, req *models.SplitRequest) (*models.SplitResult, error)
	ProcessPayment(ctx context.Context, req *models.ProcessPaymentRequest) error
	GetConfiguration(ctx context.Context) (*models.SystemConfiguration, error)
}

// Ensure HTTPPosClient implements PosClient
var _ PosClient = (*HTTPPosClient)(nil)

// HTTPPosClient implements PosClient over HTTP.
type HTTPPosClient struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	logger     *slog.Logger
}

// NewHTTPPosClient creates a new HTTP-based POS core client.
func NewHTTPPosClient(cfg config.ServiceConfig, logger *slog.Logger) *HTTPPosClient {
	return &HTTPPosClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

// envelope is the POS core response wrapper. The payload sits under
// "datos"; error responses carry a user-facing "mensaje".
type envelope struct {
	Data    json.RawMessage `json:"datos"`
	Message string          `json:"mensaje"`
}

// ListTables fetches all tables from the POS core.
func (c *HTTPPosClient) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := c.get(ctx, "/mesas", &tables); err != nil {
		return nil, err
	}
	return tables, nil
}

// GetTableAccount fetches a table's open account. A 404 means the table
// has no open account and is reported as (nil, nil), not as an error.
func (c *HTTPPosClient) GetTableAccount(ctx context.Context, tableID string) (*models.AccountSnapshot, error) {
	c.logger.Debug("fetching table account", "table_id", tableID)

	url := fmt.Sprintf("%s/pagos/mesas/%s/cuenta", c.baseURL, tableID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(ctx, httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &apperrors.ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.remoteError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}

	var account models.AccountSnapshot
	if err := json.Unmarshal(env.Data, &account); err != nil {
		return nil, err
	}

	c.logger.Debug("table account loaded",
		"table_id", tableID,
		"orders", len(account.Orders),
		"subtotal", account.Summary.Subtotal,
	)
	return &account, nil
}

// SplitAccount asks the POS core to divide an account. The returned
// result is authoritative and replaces any local per-person preview.
func (c *HTTPPosClient) SplitAccount(ctx context.Context, req *models.SplitRequest) (*models.SplitResult, error) {
	c.logger.Debug("splitting account",
		"table_id", req.TableID,
		"divisions", req.DivisionCount,
	)

	var result models.SplitResult
	if err := c.post(ctx, "/pagos/dividir-cuenta", req, &result); err != nil {
		c.logger.Error("split request failed", "table_id", req.TableID, "error", err)
		return nil, err
	}

	c.logger.Info("account split",
		"table_id", req.TableID,
		"divisions", len(result.Divisions),
		"total", result.Totals.Total,
	)
	return &result, nil
}

// ProcessPayment commits a payment. Any 2xx answer is success; the
// response payload is not consumed further.
func (c *HTTPPosClient) ProcessPayment(ctx context.Context, req *models.ProcessPaymentRequest) error {
	c.logger.Debug("processing payment",
		"table_id", req.TableID,
		"method", req.Method,
		"split", req.SplitBill,
	)

	if err := c.post(ctx, "/pagos/procesar", req, nil); err != nil {
		c.logger.Error("payment request failed", "table_id", req.TableID, "error", err)
		return err
	}

	c.logger.Info("payment processed", "table_id", req.TableID, "method", req.Method)
	return nil
}

// GetConfiguration fetches the restaurant-wide tax and tip policy.
func (c *HTTPPosClient) GetConfiguration(ctx context.Context) (*models.SystemConfiguration, error) {
	var cfg models.SystemConfiguration
	if err := c.get(ctx, "/configuracion", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *HTTPPosClient) get(ctx context.Context, path string, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(ctx, httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &apperrors.ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.remoteError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, out)
}

func (c *HTTPPosClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.setHeaders(ctx, httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &apperrors.ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.remoteError(resp)
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, out)
}

// remoteError turns a non-2xx answer into a RemoteError carrying the
// server's "mensaje" when present.
func (c *HTTPPosClient) remoteError(resp *http.Response) error {
	var env envelope
	_ = json.NewDecoder(resp.Body).Decode(&env)

	return &apperrors.RemoteError{
		StatusCode: resp.StatusCode,
		Message:    env.Message,
	}
}

func (c *HTTPPosClient) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	// The operator's credential takes precedence over the service key.
	if token := requestctx.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if requestID := requestctx.RequestID(ctx); requestID != "" {
		req.Header.Set(requestctx.HeaderRequestID, requestID)
	}
}
