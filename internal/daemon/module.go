package daemon

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/chatadmin/internal/bus"
	"github.com/matheus3301/chatadmin/internal/config"
	"github.com/matheus3301/chatadmin/internal/docstore"
	"github.com/matheus3301/chatadmin/internal/identity"
	"github.com/matheus3301/chatadmin/internal/lock"
	"github.com/matheus3301/chatadmin/internal/logging"
	"github.com/matheus3301/chatadmin/internal/profile"
	"github.com/matheus3301/chatadmin/internal/rpc"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	Profile string
	Config  *config.Config
	// SocketPath overrides the profile socket, for tests.
	SocketPath string
	// Logger replaces the profile log file, for tests.
	Logger *zap.Logger
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	if p.Config == nil {
		p.Config = config.Default()
	}
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideLock,
			provideRegistry,
			provideBus,
			provideStore,
			provideProvider,
			provideDocumentsService,
			provideIdentityService,
			provideDaemonService,
			NewServer,
			NewMetricsServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if p.Logger != nil {
		return p.Logger.With(zap.String("profile", p.Profile)), nil
	}
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	return logging.New(profile.DaemonLogPath(p.Profile), "chatadmind", p.Profile, logging.Options{
		Level:  p.Config.Daemon.LogLevel,
		Stderr: true,
	})
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock")
	l, err := lock.Acquire(profile.LockPath(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func provideBus(reg *prometheus.Registry) *bus.Bus {
	b := bus.New()
	reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "chatadmin_bus_dropped_events_total",
		Help: "Events dropped because a subscriber's buffer was full.",
	}, func() float64 { return float64(b.Dropped()) }))
	return b
}

// provideStore depends on the lock so two daemons never open one profile.
func provideStore(p Params, _ *lock.Lock, reg *prometheus.Registry, logger *zap.Logger) (docstore.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := docstore.Open(ctx, p.Config.Store, p.Profile)
	if err != nil {
		return nil, err
	}
	logger.Info("store initialized", zap.String("driver", driverName(p.Config)))
	return docstore.Instrument(s, reg), nil
}

func provideProvider(p Params, store docstore.Store, b *bus.Bus, logger *zap.Logger) (*identity.Provider, error) {
	secret, err := identity.LoadSecret(profile.SecretPath(p.Profile), p.Config.Identity.TokenSecret)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	provider, err := identity.NewProvider(ctx, store, b, logger, identity.Options{
		Secret: secret,
		TTL:    p.Config.Identity.TokenTTL.Duration,
	})
	if err != nil {
		return nil, err
	}
	n, err := provider.OperatorCount(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		logger.Warn("no operators yet; add one with chatadminctl add-operator")
	}
	return provider, nil
}

func provideDocumentsService(store docstore.Store, b *bus.Bus, logger *zap.Logger) *rpc.DocumentsService {
	return rpc.NewDocumentsService(store, b, logger)
}

func provideIdentityService(provider *identity.Provider, logger *zap.Logger) *rpc.IdentityService {
	return rpc.NewIdentityService(provider, logger)
}

func provideDaemonService(p Params, store docstore.Store, provider *identity.Provider) *rpc.DaemonService {
	return rpc.NewDaemonService(p.Profile, driverName(p.Config), store, provider)
}

func driverName(cfg *config.Config) string {
	if cfg.Store.Driver == "" {
		return config.DriverSQLite
	}
	return cfg.Store.Driver
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, metrics *MetricsServer, store docstore.Store, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if err := metrics.Start(); err != nil {
				return err
			}

			// Start gRPC server in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			logger.Info("daemon ready", zap.String("socket", srv.SocketPath()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			metrics.Stop(ctx)
			if err := store.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
