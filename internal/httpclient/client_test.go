package httpclient

import (
	"testing"
	"time"
)

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()

	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.DisableSSLVerification {
		t.Error("DisableSSLVerification should default to false")
	}
	if cfg.MaxIdleConns != 10 {
		t.Errorf("MaxIdleConns = %d, want 10", cfg.MaxIdleConns)
	}
}

func TestNewClient(t *testing.T) {
	cfg := ClientConfig{
		Timeout:               30 * time.Second,
		MaxRetries:            2,
		MaxIdleConns:          5,
		IdleConnTimeout:       60 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}

	client := NewClient(cfg)
	if client == nil {
		t.Fatal("expected client")
	}
	if client.Timeout != cfg.Timeout {
		t.Errorf("Timeout = %v, want %v", client.Timeout, cfg.Timeout)
	}
	if client.Transport == nil {
		t.Error("expected transport to be configured")
	}
}

func TestNewClientWithTimeout(t *testing.T) {
	timeout := 15 * time.Second
	client := NewClientWithTimeout(timeout)
	if client.Timeout != timeout {
		t.Errorf("Timeout = %v, want %v", client.Timeout, timeout)
	}
}

func TestNewDefaultClient(t *testing.T) {
	client := NewDefaultClient()
	if client.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", client.Timeout)
	}
}

func TestLogRelayClientConfig(t *testing.T) {
	cfg := LogRelayClientConfig()
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want 1", cfg.MaxRetries)
	}
}

func TestObjectStoreClientConfig(t *testing.T) {
	timeout := 20 * time.Second
	cfg := ObjectStoreClientConfig(timeout)
	if cfg.Timeout != timeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, timeout)
	}
	want := timeout / 2
	if cfg.ResponseHeaderTimeout != want {
		t.Errorf("ResponseHeaderTimeout = %v, want %v", cfg.ResponseHeaderTimeout, want)
	}
}

func TestNewClientWithSSLDisabled(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.DisableSSLVerification = true

	client := NewClient(cfg)
	if client.Transport == nil {
		t.Error("expected transport to be configured")
	}
}
