package sessionkit

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the environment-driven configuration. Variables are prefixed
// with SESSIONKIT_, e.g. SESSIONKIT_AUTH_SERVICE_URL.
type Config struct {
	AuthServiceURL       string        `envconfig:"AUTH_SERVICE_URL" required:"true"`
	CollectionServiceURL string        `envconfig:"COLLECTION_SERVICE_URL" required:"true"`
	HTTPTimeout          time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	StorageDir           string        `envconfig:"STORAGE_DIR"`
	WatchInterval        time.Duration `envconfig:"WATCH_INTERVAL" default:"2s"`
	Debug                bool          `envconfig:"DEBUG"`
}

// ConfigFromEnv loads Config from the process environment.
func ConfigFromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process("sessionkit", &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// NewFromConfig wires a SessionManager and its SavedProperties collection
// from cfg. The caller still owns the lifecycle: call mgr.Init to restore a
// persisted session and Close on both when done.
func NewFromConfig(cfg Config) (*SessionManager, *SavedProperties, error) {
	opts := []Option{
		WithHTTPTimeout(cfg.HTTPTimeout),
		WithWatchInterval(cfg.WatchInterval),
	}
	if cfg.StorageDir != "" {
		opts = append(opts, WithStorageDir(cfg.StorageDir))
	}
	if cfg.Debug {
		opts = append(opts, WithDebugLogging(true))
	}

	mgr, err := New(cfg.AuthServiceURL, opts...)
	if err != nil {
		return nil, nil, err
	}
	sp, err := NewSavedProperties(mgr, cfg.CollectionServiceURL)
	if err != nil {
		return nil, nil, err
	}
	return mgr, sp, nil
}
