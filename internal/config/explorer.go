package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
)

// DefaultConfigPath is the path to the explorer defaults file.
const DefaultConfigPath = "config/explorer.defaults.json"

// ExplorerConfig is the service configuration. Every field is optional; the
// Get* accessors supply the default for anything the file leaves out, so
// partial files are safe.
type ExplorerConfig struct {
	// HTTP server
	Listen        *string  `json:"listen,omitempty"`
	AllowedOrigin *string  `json:"allowed_origin,omitempty"`
	RateLimit     *float64 `json:"rate_limit,omitempty"` // requests per second, 0 disables
	RateBurst     *int     `json:"rate_burst,omitempty"`

	// Clustering
	DefaultK           *int    `json:"default_k,omitempty"`
	MaxIterations      *int    `json:"max_iterations,omitempty"`
	MaxIterationsLimit *int    `json:"max_iterations_limit,omitempty"`
	EmptyClusterPolicy *string `json:"empty_cluster_policy,omitempty"` // "retain" or "reseed"

	// Dataset
	Samples    *int     `json:"samples,omitempty"`
	MaxSamples *int     `json:"max_samples,omitempty"`
	Centers    *int     `json:"centers,omitempty"`
	ClusterStd *float64 `json:"cluster_std,omitempty"`

	// Sessions and replay
	SessionTTL      *string `json:"session_ttl,omitempty"`      // duration string like "30m"
	SessionCleanup  *string `json:"session_cleanup,omitempty"`  // duration string like "5m"
	ReplayInterval  *string `json:"replay_interval,omitempty"`  // duration string like "800ms"
	ShutdownTimeout *string `json:"shutdown_timeout,omitempty"` // duration string like "5s"
}

// LoadConfig loads an ExplorerConfig from a JSON file. The file must have a
// .json extension and be at most 1MB.
func LoadConfig(path string) (*ExplorerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ExplorerConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for tests.
func MustLoadDefaultConfig() *ExplorerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/<pkg>/
		"../../../" + DefaultConfigPath, // from cmd/<bin>/ subpackages
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *ExplorerConfig) Validate() error {
	if c.RateLimit != nil && *c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be non-negative, got %f", *c.RateLimit)
	}
	if c.RateBurst != nil && *c.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be at least 1, got %d", *c.RateBurst)
	}
	if c.DefaultK != nil && *c.DefaultK < 1 {
		return fmt.Errorf("default_k must be at least 1, got %d", *c.DefaultK)
	}
	if c.MaxIterations != nil && *c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be non-negative, got %d", *c.MaxIterations)
	}
	if c.MaxIterationsLimit != nil && *c.MaxIterationsLimit < c.GetMaxIterations() {
		return fmt.Errorf("max_iterations_limit (%d) is below max_iterations (%d)", *c.MaxIterationsLimit, c.GetMaxIterations())
	}
	if c.EmptyClusterPolicy != nil {
		if _, err := parseEmptyClusterPolicy(*c.EmptyClusterPolicy); err != nil {
			return err
		}
	}
	if c.Samples != nil && *c.Samples < 1 {
		return fmt.Errorf("samples must be at least 1, got %d", *c.Samples)
	}
	if c.MaxSamples != nil && *c.MaxSamples < c.GetSamples() {
		return fmt.Errorf("max_samples (%d) is below samples (%d)", *c.MaxSamples, c.GetSamples())
	}
	if c.Centers != nil && (*c.Centers < 1 || *c.Centers > c.GetSamples()) {
		return fmt.Errorf("centers must be between 1 and samples, got %d", *c.Centers)
	}
	if c.ClusterStd != nil && *c.ClusterStd < 0 {
		return fmt.Errorf("cluster_std must be non-negative, got %f", *c.ClusterStd)
	}

	for name, v := range map[string]*string{
		"session_ttl":      c.SessionTTL,
		"session_cleanup":  c.SessionCleanup,
		"replay_interval":  c.ReplayInterval,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *v)
		}
	}

	return nil
}

func parseEmptyClusterPolicy(s string) (kmeans.EmptyClusterPolicy, error) {
	switch s {
	case "", "retain":
		return kmeans.EmptyClusterRetain, nil
	case "reseed":
		return kmeans.EmptyClusterReseed, nil
	default:
		return kmeans.EmptyClusterRetain, fmt.Errorf("empty_cluster_policy must be 'retain' or 'reseed', got %q", s)
	}
}

func durationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// GetListen returns the listen address or ":8080".
func (c *ExplorerConfig) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return ":8080"
	}
	return *c.Listen
}

// GetAllowedOrigin returns the CORS origin or "*".
func (c *ExplorerConfig) GetAllowedOrigin() string {
	if c.AllowedOrigin == nil || *c.AllowedOrigin == "" {
		return "*"
	}
	return *c.AllowedOrigin
}

// GetRateLimit returns the request rate limit per second (default 20).
func (c *ExplorerConfig) GetRateLimit() float64 {
	if c.RateLimit == nil {
		return 20
	}
	return *c.RateLimit
}

// GetRateBurst returns the rate limiter burst (default 40).
func (c *ExplorerConfig) GetRateBurst() int {
	if c.RateBurst == nil {
		return 40
	}
	return *c.RateBurst
}

// GetDefaultK returns the cluster count used when a request omits k.
func (c *ExplorerConfig) GetDefaultK() int {
	if c.DefaultK == nil {
		return 3
	}
	return *c.DefaultK
}

// GetMaxIterations returns the iteration cap used when a request omits one.
func (c *ExplorerConfig) GetMaxIterations() int {
	if c.MaxIterations == nil {
		return kmeans.DefaultMaxIterations
	}
	return *c.MaxIterations
}

// GetMaxIterationsLimit returns the largest iteration cap a request may ask for.
func (c *ExplorerConfig) GetMaxIterationsLimit() int {
	if c.MaxIterationsLimit == nil {
		return 300
	}
	return *c.MaxIterationsLimit
}

// GetEmptyClusterPolicy returns the configured empty cluster policy.
func (c *ExplorerConfig) GetEmptyClusterPolicy() kmeans.EmptyClusterPolicy {
	if c.EmptyClusterPolicy == nil {
		return kmeans.EmptyClusterRetain
	}
	p, err := parseEmptyClusterPolicy(*c.EmptyClusterPolicy)
	if err != nil {
		return kmeans.EmptyClusterRetain
	}
	return p
}

// GetSamples returns the default dataset size (400).
func (c *ExplorerConfig) GetSamples() int {
	if c.Samples == nil {
		return 400
	}
	return *c.Samples
}

// GetMaxSamples returns the largest dataset a request may ask for.
func (c *ExplorerConfig) GetMaxSamples() int {
	if c.MaxSamples == nil {
		return 10000
	}
	return *c.MaxSamples
}

// GetCenters returns the default number of blobs (4).
func (c *ExplorerConfig) GetCenters() int {
	if c.Centers == nil {
		return 4
	}
	return *c.Centers
}

// GetClusterStd returns the default blob spread (0.8).
func (c *ExplorerConfig) GetClusterStd() float64 {
	if c.ClusterStd == nil {
		return 0.8
	}
	return *c.ClusterStd
}

// GetSessionTTL returns the idle session expiry (default 30m).
func (c *ExplorerConfig) GetSessionTTL() time.Duration {
	return durationOr(c.SessionTTL, 30*time.Minute)
}

// GetSessionCleanup returns the expired session sweep interval (default 5m).
func (c *ExplorerConfig) GetSessionCleanup() time.Duration {
	return durationOr(c.SessionCleanup, 5*time.Minute)
}

// GetReplayInterval returns the delay between replayed snapshots (default 800ms).
func (c *ExplorerConfig) GetReplayInterval() time.Duration {
	return durationOr(c.ReplayInterval, 800*time.Millisecond)
}

// GetShutdownTimeout returns the graceful shutdown budget (default 5s).
func (c *ExplorerConfig) GetShutdownTimeout() time.Duration {
	return durationOr(c.ShutdownTimeout, 5*time.Second)
}
