// Package fortigate implements a read-only REST client for the FortiGate
// management API (/api/v2). Monitor and cmdb responses arrive as loosely
// typed JSON; the client hands them to callers as map[string]any records
// and degrades to empty results when an individual endpoint fails.
package fortigate

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrConnectivity marks authentication or network failures detected before
// aggregation starts. Callers treat it as fatal; per-endpoint failures after
// a successful Login are not errors and degrade to empty results instead.
var ErrConnectivity = errors.New("fortigate: appliance unreachable")

// Client talks to a single FortiGate appliance.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a Client for the appliance described by cfg.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Port == 0 {
		cfg.Port = 443
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultConfig().RequestsPerSecond
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !cfg.VerifySSL {
		// Appliances ship with self-signed management certificates.
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &Client{
		cfg:     cfg,
		baseURL: fmt.Sprintf("https://%s:%d", cfg.Host, cfg.Port),
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

// Host returns the configured appliance host.
func (c *Client) Host() string {
	return c.cfg.Host
}

// Login verifies API connectivity and token validity with a system status
// probe. A failure here means the whole run should abort.
func (c *Client) Login(ctx context.Context) error {
	if _, err := c.get(ctx, "monitor/system/status", nil); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	c.logger.Info("authenticated to appliance",
		zap.String("host", c.cfg.Host),
		zap.Int("port", c.cfg.Port),
	)
	return nil
}

// SystemStatus returns the full monitor/system/status document, including
// both the top-level envelope fields and the nested results object. Returns
// an empty map on failure.
func (c *Client) SystemStatus(ctx context.Context) map[string]any {
	doc, err := c.get(ctx, "monitor/system/status", nil)
	if err != nil {
		c.logger.Warn("system status fetch failed", zap.Error(err))
		return map[string]any{}
	}
	return doc
}

// SystemInfo returns the cmdb/system/global document. Returns an empty map
// on failure.
func (c *Client) SystemInfo(ctx context.Context) map[string]any {
	doc, err := c.get(ctx, "cmdb/system/global", nil)
	if err != nil {
		c.logger.Warn("system info fetch failed", zap.Error(err))
		return map[string]any{}
	}
	return doc
}

// Interfaces returns the appliance's configured interfaces. Empty on failure.
func (c *Client) Interfaces(ctx context.Context) []map[string]any {
	return c.getList(ctx, "cmdb/system/interface")
}

// ManagedSwitches returns the switches managed by the switch controller.
// Empty on failure.
func (c *Client) ManagedSwitches(ctx context.Context) []map[string]any {
	return c.getList(ctx, "cmdb/switch-controller/managed-switch")
}

// AccessPoints returns the managed wireless access points. Empty on failure.
func (c *Client) AccessPoints(ctx context.Context) []map[string]any {
	return c.getList(ctx, "monitor/wifi/managed_ap/select")
}

// UserDevices returns the connected user devices (endpoints). Empty on
// failure.
func (c *Client) UserDevices(ctx context.Context) []map[string]any {
	return c.getList(ctx, "monitor/user/device/query")
}

// getList fetches an endpoint and unwraps its results array. Any failure
// (transport, HTTP status, decode, unexpected shape) logs a warning and
// yields an empty slice so aggregation can continue with partial data.
func (c *Client) getList(ctx context.Context, endpoint string) []map[string]any {
	doc, err := c.get(ctx, endpoint, nil)
	if err != nil {
		c.logger.Warn("endpoint fetch failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return []map[string]any{}
	}
	return resultsList(doc)
}

// get performs a rate-limited GET against /api/v2/<endpoint> and decodes the
// JSON response. The root vdom is always selected.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}
	if params.Get("vdom") == "" {
		params.Set("vdom", "root")
	}
	u := c.baseURL + "/api/v2/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("get %s: HTTP %d: %s", endpoint, resp.StatusCode, strconv.Quote(string(body)))
	}

	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return doc, nil
}

// resultsList extracts the results field as a list of records. The API
// sometimes returns bare strings inside results (older firmware interface
// listings); those are wrapped as {"name": <string>} records.
func resultsList(doc map[string]any) []map[string]any {
	raw, ok := doc["results"].([]any)
	if !ok {
		return []map[string]any{}
	}
	records := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case map[string]any:
			records = append(records, v)
		case string:
			records = append(records, map[string]any{"name": v})
		}
	}
	return records
}
