package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"CEQAScanner/internal/classifier"
	"CEQAScanner/internal/config"
	"CEQAScanner/internal/domain"
	"CEQAScanner/internal/geocode"
	"CEQAScanner/internal/infrastructure/geocoder"
	"CEQAScanner/internal/infrastructure/parser"
	"CEQAScanner/internal/infrastructure/scheduler"
	"CEQAScanner/internal/infrastructure/source"
	"CEQAScanner/internal/infrastructure/storage"
	"CEQAScanner/internal/infrastructure/telegram"
	"CEQAScanner/internal/location"
	"CEQAScanner/internal/logging"
	"CEQAScanner/internal/ports"
	"CEQAScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	logger    *slog.Logger
	closers   []func(context.Context) error
}

// New builds the application, opening the configured storage backend.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	app := &Application{cfg: cfg, logger: baseLogger.With("component", "app")}

	repo, err := app.openRepository(ctx)
	if err != nil {
		return nil, err
	}

	src, err := source.NewCEQAnetSource(cfg.Source, baseLogger.With("component", "source"))
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	class, err := classifier.New(cfg.Classifier, baseLogger.With("component", "classifier"))
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	var locator ports.Geocoder
	if !cfg.Geocoder.Disabled {
		locator = geocode.NewAdapter(
			geocoder.NewNominatimClient(cfg.Geocoder),
			geocode.Options{State: cfg.Geocoder.State, MinInterval: cfg.Geocoder.MinInterval},
			baseLogger.With("component", "geocoder"),
		)
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	app.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:      src,
		Extractor:   parser.NewProjectPageParser(nil, baseLogger.With("component", "parser")),
		Resolver:    location.NewResolver(cfg.Gazetteer),
		Classifier:  class,
		Geocoder:    locator,
		Gateway:     usecase.NewGateway(repo, domain.DefaultStatusTable(), baseLogger.With("component", "gateway")),
		Notifier:    notifier,
		MaxProjects: cfg.Source.MaxProjects,
		Logger:      baseLogger.With("component", "pipeline"),
	})

	if cfg.Scheduler.Enabled {
		driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
		app.scheduler = usecase.NewScheduler(driver, app.pipeline, baseLogger.With("component", "scheduler"))
	}

	return app, nil
}

// Run performs a single scan, or with the scheduler enabled keeps scanning on
// schedule until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	if a.pipeline == nil {
		return nil
	}

	if a.scheduler == nil {
		report, err := a.pipeline.Run(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("scan finished", "processed", report.Processed, "relevant", report.Relevant)
		return nil
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression, "timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// Close releases storage connections.
func (a *Application) Close(ctx context.Context) error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func (a *Application) openRepository(ctx context.Context) (ports.RecordRepository, error) {
	db := a.cfg.Database

	switch db.Driver {
	case config.DriverMemory:
		a.logger.Warn("using in-memory storage, records are not persisted")
		return storage.NewMemoryRepository(), nil

	case config.DriverMongo:
		repo, err := storage.NewMongoRepository(ctx, db.DSN, db.MongoDatabase, db.Table)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil

	case config.DriverPostgres:
		conn, err := sql.Open("postgres", db.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return conn.Close() })

		repo := storage.NewPostgresRepository(conn, db.Table)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("%q: %w", db.Driver, config.ErrUnknownDriver)
	}
}
