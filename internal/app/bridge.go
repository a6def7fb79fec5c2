package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nestlogic/forum-sentinel/internal/config"
	"github.com/nestlogic/forum-sentinel/internal/dedup"
	"github.com/nestlogic/forum-sentinel/internal/listener"
	"github.com/nestlogic/forum-sentinel/internal/logger"
	"github.com/nestlogic/forum-sentinel/internal/pipeline"
	"github.com/nestlogic/forum-sentinel/internal/postgres"
	"github.com/nestlogic/forum-sentinel/pkg/detectors"
	"github.com/nestlogic/forum-sentinel/pkg/sinks"
)

// Bridge represents the moderation bridge runtime. It owns the connection
// pool, the dedicated LISTEN connection, the detector pipeline, and the sink
// fanout, and tears them all down when the run ends.
type Bridge struct {
	cfg        *config.Config
	pool       *pgxpool.Pool
	listenConn *pgx.Conn
	listener   *listener.Listener
	fanout     *sinks.Fanout
	seen       dedup.Store
	log        logger.Logger
}

// NewBridge builds a bridge runtime from config files.
func NewBridge(ctx context.Context, cfg *config.Config, log logger.Logger) (*Bridge, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	detReg, err := detectors.LoadRegistry(cfg.DetectorsFile)
	if err != nil {
		return nil, fmt.Errorf("load detectors registry: %w", err)
	}
	enabledDetectors := detReg.Enabled()
	if len(enabledDetectors) == 0 {
		return nil, fmt.Errorf("no detectors enabled")
	}
	detectorIDs := make([]string, 0, len(enabledDetectors))
	for _, d := range enabledDetectors {
		detectorIDs = append(detectorIDs, d.ID)
	}
	log.InfoObj("detectors registry loaded", "detectors_meta", map[string]any{
		"count": len(detectorIDs),
		"ids":   detectorIDs,
	})

	overrides, err := detectors.LoadOverrides(cfg.IPOverridesFile, cfg.UserAgentOverridesFile)
	if err != nil {
		return nil, fmt.Errorf("load submitter overrides: %w", err)
	}

	env := detectors.Environment{
		BaseURL:   cfg.ForumBaseURL(),
		Overrides: overrides,
		Client:    detectors.DefaultHTTPClient(cfg.EvaluateTimeout),
		Log:       log,
	}
	dets, err := detectors.BuildAll(detectors.DefaultRegistry(), enabledDetectors, env)
	if err != nil {
		return nil, fmt.Errorf("build detectors: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	savers := make(map[string]pipeline.ResultSaver, len(enabledDetectors))
	for _, detCfg := range enabledDetectors {
		store, err := postgres.NewResultStore(pool, detCfg.Table)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("result store for detector %q: %w", detCfg.ID, err)
		}
		savers[detCfg.ID] = store
	}

	var sender pipeline.EventSender
	if fanout.Size() > 0 {
		sender = fanout
	}
	service, err := pipeline.NewService(postgres.NewFetcher(pool), dets, savers, sender)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	seen, err := buildDedupStore(cfg, log)
	if err != nil {
		pool.Close()
		return nil, err
	}

	listenConn, err := pgx.Connect(ctx, cfg.DatabaseURL())
	if err != nil {
		pool.Close()
		closeStore(seen, log)
		return nil, fmt.Errorf("open listen connection: %w", err)
	}

	lst, err := listener.New(listenConn, cfg.Channel, service, seen)
	if err != nil {
		pool.Close()
		closeStore(seen, log)
		_ = listenConn.Close(ctx)
		return nil, fmt.Errorf("build listener: %w", err)
	}

	return &Bridge{
		cfg:        cfg,
		pool:       pool,
		listenConn: listenConn,
		listener:   lst,
		fanout:     fanout,
		seen:       seen,
		log:        log,
	}, nil
}

// buildFanout loads the optional sinks registry and builds the dispatcher. An
// empty sinks file path means no sinks; results are only persisted.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*sinks.Fanout, error) {
	if cfg.SinksFile == "" {
		return sinks.NewFanout(nil), nil
	}

	sinkReg, err := sinks.LoadRegistry(cfg.SinksFile)
	if err != nil {
		return nil, fmt.Errorf("load sinks registry: %w", err)
	}

	enabledSinks := sinkReg.Enabled()
	built, err := sinks.BuildAll(ctx, sinks.DefaultRegistry(), enabledSinks, log)
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}

	sinkSummaries := make([]map[string]string, 0, len(enabledSinks))
	for _, sinkCfg := range enabledSinks {
		sinkSummaries = append(sinkSummaries, map[string]string{
			"id":   sinkCfg.ID,
			"type": sinkCfg.Type,
		})
	}
	log.InfoObj("sinks registry loaded", "sinks_meta", map[string]any{
		"count": len(sinkSummaries),
		"sinks": sinkSummaries,
	})

	return sinks.NewFanout(built), nil
}

// buildDedupStore opens the optional seen-notification store.
func buildDedupStore(cfg *config.Config, log logger.Logger) (dedup.Store, error) {
	if !cfg.DedupEnabled {
		return nil, nil
	}

	store, err := dedup.NewStore("bbolt", cfg.BBoltPath, dedup.Options{
		ContentTTL:      cfg.DedupTTL,
		CleanupInterval: cfg.DedupCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init dedup store: %w", err)
	}
	log.InfoObj("dedup store initialized", "dedup_config", map[string]any{
		"path":                     cfg.BBoltPath,
		"ttl_seconds":              int(cfg.DedupTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.DedupCleanupInterval.Seconds()),
	})
	return store, nil
}

// Run blocks consuming notifications until the context is cancelled or the
// listen transport fails.
func (b *Bridge) Run(ctx context.Context) error {
	if b == nil || b.listener == nil {
		return fmt.Errorf("bridge is not initialized")
	}
	defer b.close(ctx)

	b.log.InfoObj("bridge loop starting", "bridge_state", map[string]any{
		"channel":     b.cfg.Channel,
		"sinks_count": b.fanout.Size(),
	})

	if err := b.listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("listener run: %w", err)
	}
	return nil
}

// close releases the listen connection, the pool, and the dedup store.
func (b *Bridge) close(ctx context.Context) {
	if b.listenConn != nil {
		if err := b.listenConn.Close(ctx); err != nil {
			b.log.ErrorObj("listen connection close failed", "error", err)
		}
	}
	if b.pool != nil {
		b.pool.Close()
	}
	closeStore(b.seen, b.log)
}

// closeStore safely closes the dedup backend, logging any errors encountered.
func closeStore(store dedup.Store, log logger.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		log.ErrorObj("dedup store close failed", "error", err)
	}
}
