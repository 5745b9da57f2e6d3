package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/supermarket-receipt/internal/cart"
	"github.com/noah-isme/supermarket-receipt/internal/catalog"
	"github.com/noah-isme/supermarket-receipt/internal/checkout"
	"github.com/noah-isme/supermarket-receipt/internal/config"
	"github.com/noah-isme/supermarket-receipt/internal/obs"
	"github.com/noah-isme/supermarket-receipt/internal/receipt"
)

// Dependencies bundles the collaborators shared by tellers.
type Dependencies struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *obs.CheckoutMetrics
	Catalog *catalog.Memory
	Redis   *redis.Client
	DB      *pgxpool.Pool

	shutdownTracing func(context.Context) error
}

// Options tweak dependency construction.
type Options struct {
	LogWriter io.Writer
	Registry  prometheus.Registerer
	// TracerProvider replaces the provider built from cfg.Tracing.
	TracerProvider trace.TracerProvider
}

// New wires logger, metrics, tracing and a catalog snapshot from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Dependencies, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	deps := &Dependencies{
		Config:  cfg,
		Logger:  obs.NewLogger(opts.LogWriter, cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger(),
		Metrics: obs.NewCheckoutMetrics(cfg.MetricsNamespace, opts.Registry),
	}

	tp := opts.TracerProvider
	if tp == nil {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   cfg.Tracing.ServiceName,
			Endpoint:      cfg.Tracing.Endpoint,
			Exporter:      cfg.Tracing.Exporter,
			SamplingRatio: cfg.Tracing.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			return nil, fmt.Errorf("app: init tracing: %w", err)
		}
		deps.shutdownTracing = shutdown
		tp = otel.GetTracerProvider()
	}

	snap, err := deps.loadCatalog(ctx, tp)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Catalog = snap

	deps.Logger.Info().
		Str("backend", cfg.CatalogBackend).
		Int("products", deps.Catalog.Len()).
		Msg("catalog loaded")
	return deps, nil
}

func (d *Dependencies) loadCatalog(ctx context.Context, tp trace.TracerProvider) (snap *catalog.Memory, err error) {
	tracer := tp.Tracer(obs.TracerName)
	ctx, span := tracer.Start(ctx, "catalog.load",
		trace.WithAttributes(attribute.String("catalog.backend", d.Config.CatalogBackend)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("catalog.products", snap.Len()))
		}
		span.End()
	}()

	switch d.Config.CatalogBackend {
	case config.BackendRedis:
		redisOpts, err := redis.ParseURL(d.Config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("app: parse redis url: %w", err)
		}
		d.Redis = redis.NewClient(redisOpts)
		if err := redisotel.InstrumentTracing(d.Redis, redisotel.WithTracerProvider(tp)); err != nil {
			return nil, fmt.Errorf("app: instrument redis: %w", err)
		}
		return catalog.NewRedisStore(d.Redis, d.Config.CatalogKeyPrefix).Snapshot(ctx)
	case config.BackendPostgres:
		poolCfg, err := pgxpool.ParseConfig(d.Config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("app: parse database url: %w", err)
		}
		poolCfg.ConnConfig.Tracer = obs.PGXTracer{Tracer: tracer}
		d.DB, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("app: connect postgres: %w", err)
		}
		m, err := catalog.NewMigrator(d.Config.DatabaseURL)
		if err != nil {
			return nil, err
		}
		err = RunMigrations(m)
		_, _ = m.Close()
		if err != nil {
			return nil, err
		}
		return catalog.NewPostgresStore(d.DB).Snapshot(ctx)
	default:
		return catalog.NewMemory(), nil
	}
}

// RunMigrations applies pending catalog migrations. An up-to-date schema is
// not an error.
func RunMigrations(m *migrate.Migrate) error {
	if m == nil {
		return fmt.Errorf("app: migrator is required")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("app: apply migrations: %w", err)
	}
	return nil
}

// NewTeller returns a Teller bound to the catalog snapshot.
func (d *Dependencies) NewTeller() *checkout.Teller {
	return checkout.New(d.Catalog,
		checkout.WithLogger(d.Logger.With().Str("component", "teller").Logger()),
		checkout.WithMetrics(d.Metrics),
	)
}

// NewCart returns an empty cart validated against the catalog snapshot.
func (d *Dependencies) NewCart() *cart.Cart {
	return cart.New(d.Catalog)
}

// NewTextPrinter returns a slip printer sized from configuration.
func (d *Dependencies) NewTextPrinter() *receipt.TextPrinter {
	return &receipt.TextPrinter{Columns: d.Config.ReceiptColumns}
}

// Close releases backend clients.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	if d.shutdownTracing != nil {
		_ = d.shutdownTracing(context.Background())
	}
}
