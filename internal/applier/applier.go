// Package applier talks to the external pose applier over HTTP.
//
// The applier exposes three endpoints:
//
//	GET  /api/version      availability probe
//	POST /api/pose/import  {"path": "...", "flags": n}
//	POST /api/pose/undo
//
// Availability is cached and refreshed with Refresh, which callers run
// whenever the integration settings change.
package applier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"pose-browser/internal/logging"
	"pose-browser/internal/metrics"
	"pose-browser/internal/preview"
)

const defaultTimeout = 5 * time.Second

// Client implements preview.Applier.
type Client struct {
	baseURL    string
	httpClient *http.Client
	enabled    func() bool

	available atomic.Bool
	version   atomic.Pointer[string]
}

// VersionInfo is the probe response.
type VersionInfo struct {
	Version string `json:"version"`
}

type importRequest struct {
	Path  string        `json:"path"`
	Flags preview.Flags `json:"flags"`
}

// New creates a client for the applier at baseURL. enabled reports the
// integration toggle; nil means always enabled.
func New(baseURL string, enabled func() bool) *Client {
	if enabled == nil {
		enabled = func() bool { return true }
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		enabled:    enabled,
	}
}

// Available reports the cached availability.
func (c *Client) Available() bool {
	return c.available.Load()
}

// Version returns the version reported by the last successful probe.
func (c *Client) Version() string {
	if v := c.version.Load(); v != nil {
		return *v
	}
	return ""
}

// Refresh re-evaluates availability: the integration must be enabled, a
// base URL configured and the version probe must succeed.
func (c *Client) Refresh(ctx context.Context) bool {
	available := false
	defer func() {
		c.available.Store(available)
		if available {
			metrics.ApplierAvailable.Set(1)
		} else {
			metrics.ApplierAvailable.Set(0)
		}
	}()

	if c.baseURL == "" || !c.enabled() {
		logging.Debug("Applier integration disabled")
		return false
	}

	info, err := c.probe(ctx)
	if err != nil {
		logging.Warn("Applier not reachable at %s: %v", c.baseURL, err)
		return false
	}

	c.version.Store(&info.Version)
	available = true
	logging.Info("Applier available at %s (version %s)", c.baseURL, info.Version)
	return true
}

func (c *Client) probe(ctx context.Context) (*VersionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/version", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var info VersionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode version: %w", err)
	}
	return &info, nil
}

// ApplyPose asks the applier to import the pose at path. Transport errors
// and non-2xx responses count as a rejection.
func (c *Client) ApplyPose(path string, flags preview.Flags) bool {
	body, err := json.Marshal(importRequest{Path: path, Flags: flags})
	if err != nil {
		logging.Error("Failed to encode import request: %v", err)
		return false
	}
	return c.post("apply", "/api/pose/import", body)
}

// Undo asks the applier to restore the pose saved before the last preview.
func (c *Client) Undo() bool {
	return c.post("undo", "/api/pose/undo", nil)
}

func (c *Client) post(op, endpoint string, body []byte) bool {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		metrics.ApplierCallsTotal.WithLabelValues(op, "error").Inc()
		logging.Error("Failed to build %s request: %v", op, err)
		return false
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ApplierCallsTotal.WithLabelValues(op, "error").Inc()
		logging.Warn("Applier %s failed: %v", op, err)
		return false
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ApplierCallsTotal.WithLabelValues(op, "rejected").Inc()
		logging.Debug("Applier %s returned status %d", op, resp.StatusCode)
		return false
	}
	metrics.ApplierCallsTotal.WithLabelValues(op, "ok").Inc()
	return true
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		logging.Debug("failed to close applier response: %v", err)
	}
}
