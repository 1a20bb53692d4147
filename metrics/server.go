package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHandler serves /metrics from gatherer and a plain /healthz.
func NewHandler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// StartServer listens on addr and serves NewHandler until ctx is done or the server is
// closed. With a context that is never cancelled the caller must Close the server.
//
// Arguments:
//   - ctx: Cancelling it shuts the server down.
//   - addr: The listen address, e.g. ":9090".
//   - gatherer: The registry to expose.
//   - log: The logger.
//
// Returns:
//   - *http.Server: The running server.
//   - error: An error if addr cannot be bound.
func StartServer(ctx context.Context, addr string, gatherer prometheus.Gatherer, log logs.Log) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           NewHandler(gatherer),
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Infof("Metrics server listening on %v", srv.Addr)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server error: %v", err)
		}
	}()

	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	return srv, nil
}
