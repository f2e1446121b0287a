package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StartServer exposes reg on /metrics at addr until ctx is done. A nil reg
// serves the default registry. It returns the address it is listening on.
func StartServer(ctx context.Context, addr string, reg prometheus.Gatherer) (string, error) {
	mux := http.NewServeMux()
	if reg == nil {
		mux.Handle("/metrics", promhttp.Handler())
	} else {
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	return ServeUntilContext(ctx, addr, mux)
}

// ServeUntilContext serves handler on addr and shuts the server down when
// ctx is done.
func ServeUntilContext(ctx context.Context, addr string, handler http.Handler) (string, error) {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(c)
	}()
	go func() { _ = srv.Serve(ln) }()
	return ln.Addr().String(), nil
}
