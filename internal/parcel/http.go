package parcel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
)

// Config holds the county lookup service settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPClient looks parcels up with GET {BaseURL}/parcels/{id}.
type HTTPClient struct {
	cfg    Config
	client *http.Client
	schema *jsonschema.Schema
	logger *slog.Logger
}

// NewHTTPClient builds a client. A nil httpClient gets one with cfg.Timeout.
func NewHTTPClient(cfg Config, httpClient *http.Client, logger *slog.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("parcel lookup base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	schema, err := compileSchema(BuildParcelJSONSchema())
	if err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPClient{cfg: cfg, client: httpClient, schema: schema, logger: logger}, nil
}

// Lookup implements Lookup.
func (c *HTTPClient) Lookup(ctx context.Context, parcelID string) (*entity.ParcelSnapshot, error) {
	parcelID = strings.TrimSpace(parcelID)
	reqID := uuid.New().String()
	start := time.Now()

	endpoint := c.cfg.BaseURL + "/parcels/" + url.PathEscape(parcelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Error("parcel.http.build_request_error", "req_id", reqID, "error", err)
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	c.logger.Info("parcel.http.request", "req_id", reqID, "parcel_id", parcelID)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("parcel.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Warn("parcel.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	c.logger.Info("parcel.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode/100 != 2:
		return nil, fmt.Errorf("%w: non-2xx status: %d", ErrUnavailable, resp.StatusCode)
	}

	if err := validateJSON(c.schema, raw); err != nil {
		c.logger.Error("parcel.http.invalid_response", "req_id", reqID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var snap entity.ParcelSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if snap.Fields == nil {
		snap.Fields = map[string]*string{}
	}
	return &snap, nil
}
