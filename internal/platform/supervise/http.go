package supervise

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServer is the lifecycle of *http.Server
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService runs an http server as a supervised service
type HTTPService struct {
	server  HTTPServer
	timeout time.Duration
	name    string
}

// NewHTTPService wraps server, shutdown waits up to timeout for open connections
func NewHTTPService(name string, server HTTPServer, timeout time.Duration) *HTTPService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPService{server: server, timeout: timeout, name: name}
}

// Serve implements suture.Service
func (h *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err == nil {
			// closed from outside, let the supervisor restart us
			return errors.New(h.name + ": server closed unexpectedly")
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := h.server.Shutdown(sctx); err != nil {
		return err
	}
	<-errCh
	return ctx.Err()
}

// String names the service in supervisor events
func (h *HTTPService) String() string { return h.name }
