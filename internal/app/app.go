package app

import (
	"context"
	"fmt"

	"github.com/yungbote/scriptgraph/internal/importer"
	"github.com/yungbote/scriptgraph/internal/observability"
	"github.com/yungbote/scriptgraph/internal/platform/envutil"
	"github.com/yungbote/scriptgraph/internal/platform/logger"
	"github.com/yungbote/scriptgraph/internal/platform/neo4jdb"
)

// App wires the importer for a command. The graph store is not connected here;
// each import opens and closes its own driver.
type App struct {
	Log      *logger.Logger
	Cfg      Config
	Importer *importer.Importer

	otelShutdown func(context.Context) error
}

type Option func(*Config)

// WithRootMode overrides SCRIPT_IMPORT_ROOT_MODE.
func WithRootMode(mode importer.RootMode) Option {
	return func(c *Config) { c.RootMode = mode }
}

func New(ctx context.Context, service string, opts ...Option) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log = log.With("service", service)

	cfg, err := LoadConfig(log, service)
	if err != nil {
		log.Sync()
		return nil, err
	}
	for _, o := range opts {
		o(&cfg)
	}

	shutdown := observability.InitOTel(ctx, log, cfg.Otel)

	opener := neo4jdb.Opener{Config: cfg.Neo4j, Log: log}
	return &App{
		Log:          log,
		Cfg:          cfg,
		Importer:     importer.New(opener, importer.WithRootMode(cfg.RootMode)),
		otelShutdown: shutdown,
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}
