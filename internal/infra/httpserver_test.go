package infra

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerStartExitsCleanlyOnShutdown(t *testing.T) {
	cfg := &Config{
		Port:             "0",
		HTTPReadTimeout:  time.Second,
		HTTPWriteTimeout: time.Second,
		HTTPIdleTimeout:  time.Second,
	}
	srv := NewHTTPServer(cfg, http.NewServeMux())
	if got := srv.Addr(); got != ":0" {
		t.Fatalf("Addr() = %q, want %q", got, ":0")
	}

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	// Give the listener a moment to bind before shutting down.
	time.Sleep(50 * time.Millisecond)
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() after shutdown = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after shutdown")
	}
}
