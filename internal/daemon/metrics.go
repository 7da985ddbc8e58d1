package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsServer serves /metrics and /healthz over HTTP when an address is
// configured. With no address Start and Stop do nothing.
type MetricsServer struct {
	addr   string
	srv    *http.Server
	logger *zap.Logger

	listener net.Listener
}

// NewMetricsServer builds the metrics router for reg.
func NewMetricsServer(p Params, reg *prometheus.Registry, logger *zap.Logger) *MetricsServer {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return &MetricsServer{
		addr:   p.Config.Daemon.MetricsAddr,
		srv:    &http.Server{Handler: r},
		logger: logger,
	}
}

// Handler returns the router, for tests.
func (m *MetricsServer) Handler() http.Handler { return m.srv.Handler }

// Addr returns the bound address once started, or "".
func (m *MetricsServer) Addr() string {
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// Start binds the address and serves in the background.
func (m *MetricsServer) Start() error {
	if m.addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		return fmt.Errorf("listen metrics: %w", err)
	}
	m.listener = ln
	m.logger.Info("metrics server starting", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := m.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down.
func (m *MetricsServer) Stop(ctx context.Context) {
	if m.listener == nil {
		return
	}
	if err := m.srv.Shutdown(ctx); err != nil {
		m.logger.Warn("metrics server shutdown", zap.Error(err))
	}
}
