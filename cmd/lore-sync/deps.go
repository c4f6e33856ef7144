package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ersonp/lore-sync/internal/domain/ports"
	"github.com/ersonp/lore-sync/internal/domain/services"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
	embedder "github.com/ersonp/lore-sync/internal/infrastructure/embedder/openai"
	"github.com/ersonp/lore-sync/internal/infrastructure/logging"
	"github.com/ersonp/lore-sync/internal/infrastructure/mediaqueue/redis"
	"github.com/ersonp/lore-sync/internal/infrastructure/metrics"
	"github.com/ersonp/lore-sync/internal/infrastructure/oracle"
	"github.com/ersonp/lore-sync/internal/infrastructure/oracle/gemini"
	"github.com/ersonp/lore-sync/internal/infrastructure/oracle/httpjson"
	oracleopenai "github.com/ersonp/lore-sync/internal/infrastructure/oracle/openai"
	"github.com/ersonp/lore-sync/internal/infrastructure/relationaldb"
	"github.com/ersonp/lore-sync/internal/infrastructure/vectordb/qdrant"
)

// deps holds the storage-backed services every command needs.
// Oracle clients and optional integrations are built on demand by orchestrator.
type deps struct {
	cfg      *config.Config
	logger   *zap.Logger
	repo     *relationaldb.Repository
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	types    *services.EntityTypeService
	changes  *services.ChangeLogService
	statuses *services.StatusService

	closers []func() error
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	d, err := newDeps(ctx, cwd, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	return fn(d)
}

func newDeps(ctx context.Context, basePath string, cfg *config.Config) (*deps, error) {
	logger, err := logging.New(cfg.Log, globalVerbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	storage := cfg.Storage
	if storage.Driver == relationaldb.DriverSQLite {
		storage.Path = cfg.DatabasePath(basePath)
	}
	repo, err := relationaldb.NewRepository(storage)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	d := &deps{
		cfg:      cfg,
		logger:   logger,
		repo:     repo,
		registry: prometheus.NewRegistry(),
		closers:  []func() error{repo.Close},
	}

	if err := repo.EnsureSchema(ctx); err != nil {
		d.close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	d.types = services.NewEntityTypeService(repo)
	if err := d.types.LoadDefaults(ctx); err != nil {
		d.close()
		return nil, fmt.Errorf("seeding entity types: %w", err)
	}

	d.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	d.metrics = metrics.New(d.registry)
	d.changes = services.NewChangeLogService(repo, repo, logger.Named("changelog"))
	d.statuses = services.NewStatusService(repo)

	return d, nil
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.logger.Warn("closing dependency", zap.Error(err))
		}
	}
	_ = d.logger.Sync()
}

// orchestrator builds the oracle clients and optional integrations.
func (d *deps) orchestrator(ctx context.Context) (*services.Orchestrator, error) {
	primary, err := d.oracleClient(ctx, d.cfg.Oracle)
	if err != nil {
		return nil, fmt.Errorf("creating oracle: %w", err)
	}

	opts := []services.OrchestratorOption{
		services.WithMetrics(d.metrics),
		services.WithLogger(d.logger.Named("sync")),
	}

	if d.cfg.CrossCheck.Enabled {
		secondary, err := d.oracleClient(ctx, d.cfg.CrossCheck.Oracle)
		if err != nil {
			return nil, fmt.Errorf("creating cross-check oracle: %w", err)
		}
		opts = append(opts, services.WithCrossCheck(secondary))
	}

	if d.cfg.Reference.Enabled {
		reference, err := d.referenceService(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, services.WithReference(reference))
	}

	if d.cfg.Media.Queue == "redis" {
		queue, err := redis.Open(ctx, d.cfg.Media)
		if err != nil {
			return nil, fmt.Errorf("connecting media queue: %w", err)
		}
		d.closers = append(d.closers, queue.Close)
		opts = append(opts, services.WithMediaQueue(queue))
	}

	policy := services.Policy{
		MinConfidence: d.cfg.Policy.MinConfidence,
		MaxGaps:       d.cfg.Policy.MaxGaps,
	}

	return services.NewOrchestrator(
		services.NewValidator(policy),
		primary,
		d.changes,
		d.statuses,
		d.repo,
		opts...,
	), nil
}

func (d *deps) oracleClient(ctx context.Context, cfg config.OracleConfig) (*oracle.Client, error) {
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return oracle.NewClient(provider, cfg,
		oracle.WithMetrics(d.metrics),
		oracle.WithLogger(d.logger.Named("oracle").With(zap.String("provider", provider.Name()))),
	), nil
}

func newProvider(ctx context.Context, cfg config.OracleConfig) (ports.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return oracleopenai.NewProvider(cfg)
	case "gemini":
		return gemini.NewProvider(ctx, cfg)
	case "http":
		return httpjson.NewProvider(cfg, &http.Client{})
	case "":
		return nil, errors.New("oracle provider is required")
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}

func (d *deps) referenceService(ctx context.Context) (*services.ReferenceService, error) {
	emb, err := embedder.NewEmbedder(d.cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	index, err := qdrant.NewIndex(d.cfg.Qdrant)
	if err != nil {
		return nil, fmt.Errorf("creating reference index: %w", err)
	}
	d.closers = append(d.closers, index.Close)

	if err := index.EnsureCollection(ctx, emb.Dimensions()); err != nil {
		return nil, fmt.Errorf("ensuring reference collection: %w", err)
	}

	return services.NewReferenceService(emb, index, d.cfg.Reference.Limit, d.logger.Named("reference")), nil
}
