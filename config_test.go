package sessionkit

import (
	"testing"
	"time"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SESSIONKIT_AUTH_SERVICE_URL", "https://auth.example.com/api")
	t.Setenv("SESSIONKIT_COLLECTION_SERVICE_URL", "https://collection.example.com/api")
	t.Setenv("SESSIONKIT_HTTP_TIMEOUT", "10s")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.AuthServiceURL != "https://auth.example.com/api" {
		t.Fatalf("unexpected auth URL: %q", cfg.AuthServiceURL)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.HTTPTimeout)
	}
	if cfg.WatchInterval != 2*time.Second {
		t.Fatalf("default watch interval not applied: %v", cfg.WatchInterval)
	}
}

func TestConfigFromEnv_MissingRequired(t *testing.T) {
	t.Setenv("SESSIONKIT_AUTH_SERVICE_URL", "")
	t.Setenv("SESSIONKIT_COLLECTION_SERVICE_URL", "")

	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected error for missing required variables")
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()
	_, srv := newFakeServices(t)
	mgr, sp, err := NewFromConfig(Config{
		AuthServiceURL:       srv.URL,
		CollectionServiceURL: srv.URL,
		HTTPTimeout:          5 * time.Second,
		StorageDir:           t.TempDir(),
		WatchInterval:        time.Minute,
	})
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	defer func() {
		_ = sp.Close()
		_ = mgr.Close()
	}()

	mustLogin(t, mgr)
	if !mgr.IsAuthenticated() {
		t.Fatal("manager should be usable end to end")
	}
}
