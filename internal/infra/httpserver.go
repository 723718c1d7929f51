package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServer is the API's http.Server with the Config timeouts applied. The
// generate endpoint holds a response open for a slow upstream model call, so
// the write timeout is configured far above the read timeout.
type HTTPServer struct {
	server *http.Server
}

func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{server: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}}
}

// Addr reports the configured listen address.
func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Start serves requests until Shutdown is called or the listener fails.
// A shutdown-triggered close is a normal exit, not an error.
func (s *HTTPServer) Start() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
