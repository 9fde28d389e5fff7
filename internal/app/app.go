package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-lessons/internal/http"
	"github.com/yungbote/neurobridge-lessons/internal/observability"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
	"github.com/yungbote/neurobridge-lessons/internal/realtime/bus"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Store    *Store
	Bus      bus.Bus
	Repos    Repos
	Services Services
	Router   *gin.Engine

	server       *http.Server
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Stage,
		Version:     cfg.Otel.Version,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})
	metrics, err := observability.NewMetrics(nil)
	if err != nil {
		log.Warn("metrics init failed (continuing without)", "error", err)
		metrics = nil
	}

	store, err := openStore(ctx, log, cfg.Store)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open store: %w", err)
	}
	chatBus, err := openBus(ctx, log, cfg.Redis)
	if err != nil {
		_ = store.Close()
		log.Sync()
		return nil, fmt.Errorf("open chat bus: %w", err)
	}

	reposet := wireRepos(store.Gateway, log)
	serviceset := wireServices(store.Gateway, log, cfg, reposet, metrics, chatBus)
	handlerset := wireHandlers(log, serviceset)
	middleware := wireMiddleware(log, cfg)
	server := http.NewServer(cfg.HTTPAddr, routerConfig(log, cfg, handlerset, middleware))

	return &App{
		Log:          log,
		Cfg:          cfg,
		Store:        store,
		Bus:          chatBus,
		Repos:        reposet,
		Services:     serviceset,
		Router:       server.Engine,
		server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Services.ActivityWorker != nil {
		a.Services.ActivityWorker.Start(ctx)
	}
}

func (a *App) Run() error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "addr", a.Cfg.HTTPAddr)
	return a.server.Run()
}

// Close stops the server, drains the activity queue, then releases clients.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	if a.Services.ActivityWorker != nil {
		errs = append(errs, a.Services.ActivityWorker.Close(ctx))
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Bus != nil {
		errs = append(errs, a.Bus.Close())
	}
	errs = append(errs, a.Store.Close())
	if a.otelShutdown != nil {
		sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		errs = append(errs, a.otelShutdown(sctx))
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}
