package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/banshee-data/kmeans-explorer/internal/dataset"
	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
)

// Client drives a running explorer over HTTP. It remembers the session ID
// returned by GenerateData and sends it with every later request.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	SessionID  string
}

// NewClient creates a client for the explorer at baseURL.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{HTTPClient: httpClient, BaseURL: baseURL}
}

// GenerateData asks the server for a new dataset. Zero fields of cfg use the
// server defaults.
func (c *Client) GenerateData(ctx context.Context, cfg dataset.BlobConfig) (*GenerateResponse, error) {
	q := url.Values{}
	if cfg.Samples > 0 {
		q.Set("n_samples", strconv.Itoa(cfg.Samples))
	}
	if cfg.Centers > 0 {
		q.Set("centers", strconv.Itoa(cfg.Centers))
	}
	if cfg.ClusterStd > 0 {
		q.Set("cluster_std", strconv.FormatFloat(cfg.ClusterStd, 'g', -1, 64))
	}
	if cfg.Seed != nil {
		q.Set("seed", strconv.FormatUint(*cfg.Seed, 10))
	}

	target := c.BaseURL + "/api/generate_data"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var out GenerateResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	c.SessionID = out.SessionID
	return &out, nil
}

// RunKMeans runs a clustering over the session's dataset.
func (c *Client) RunKMeans(ctx context.Context, r RunRequest) (*kmeans.Run, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/run_kmeans", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var run kmeans.Run
	if err := c.do(req, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.SessionID != "" {
		req.Header.Set(SessionHeader, c.SessionID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
