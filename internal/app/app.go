package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"BlogCrawler/internal/classifier"
	"BlogCrawler/internal/config"
	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/extractor"
	"BlogCrawler/internal/infrastructure/feed"
	"BlogCrawler/internal/infrastructure/httpclient"
	"BlogCrawler/internal/infrastructure/llm"
	"BlogCrawler/internal/infrastructure/ml"
	"BlogCrawler/internal/infrastructure/notify"
	"BlogCrawler/internal/infrastructure/page"
	"BlogCrawler/internal/infrastructure/scheduler"
	"BlogCrawler/internal/infrastructure/slack"
	"BlogCrawler/internal/infrastructure/storage"
	"BlogCrawler/internal/infrastructure/strategy"
	"BlogCrawler/internal/infrastructure/telegram"
	"BlogCrawler/internal/logging"
	"BlogCrawler/internal/metrics"
	"BlogCrawler/internal/ports"
	"BlogCrawler/internal/usecase"
)

// StoreOpener connects the document store. Tests replace it.
type StoreOpener func(ctx context.Context, cfg config.StoreConfig) (ports.ArticleStore, error)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	openStore StoreOpener

	storeMu sync.Mutex
	store   ports.ArticleStore

	feeds          ports.FeedFetcher
	pages          extractor.PageFetcher
	throttledPages extractor.PageFetcher
	extractors     *extractor.Registry
	classifier     ports.Classifier
	reporter       ports.Reporter
}

// New builds the application without touching the store; it is opened on first use.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	feedClient := httpclient.New(httpclient.Options{
		Timeout:              cfg.Fetch.FeedTimeout,
		BlockPrivateNetworks: cfg.Fetch.BlockPrivateNetworks,
	})
	pageClient := httpclient.New(httpclient.Options{
		Timeout:              cfg.Fetch.PageTimeout,
		BlockPrivateNetworks: cfg.Fetch.BlockPrivateNetworks,
	})
	pages := page.NewFetcher(pageClient, cfg.Fetch.UserAgent, cfg.Fetch.MaxBodyBytes)

	return &Application{
		cfg:            cfg,
		logger:         baseLogger,
		openStore:      storage.Open,
		feeds:          feed.NewFetcher(feedClient, cfg.Fetch.UserAgent, cfg.Fetch.Accept, cfg.Fetch.MaxBodyBytes),
		pages:          pages,
		throttledPages: page.NewThrottled(pages, page.NewLimiter(cfg.Fetch.PageDelay)),
		extractors:     extractor.NewRegistry(strategy.Defaults()...),
		classifier:     buildClassifier(cfg.Classifier, baseLogger.With("component", "classifier")),
		reporter:       buildReporter(cfg.Notifications, baseLogger.With("component", "reporter")),
	}
}

// WithStoreOpener overrides how the store is connected.
func (a *Application) WithStoreOpener(open StoreOpener) *Application {
	a.openStore = open
	return a
}

// Sources lists the configured sources.
func (a *Application) Sources() []domain.SourceConfig {
	return a.cfg.DomainSources()
}

// Strategies lists the registered extraction strategies.
func (a *Application) Strategies() []string {
	return a.extractors.Names()
}

// Crawl performs a single run and pushes its metrics when a Pushgateway is configured.
func (a *Application) Crawl(ctx context.Context, opts usecase.RunOptions) (domain.RunReport, error) {
	store, storeErr := a.ensureStore(ctx)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:        a.cfg.DomainSources(),
		Feeds:          a.feeds,
		Extractors:     a.extractors,
		Pages:          a.pages,
		ThrottledPages: a.throttledPages,
		Store:          store,
		StoreErr:       storeErr,
		Classifier:     a.classifier,
		Reporter:       a.reporter,
		Metrics:        collector,
		Logger:         a.logger.With("component", "pipeline"),
		FlushThreshold: a.cfg.Store.FlushThreshold(),
		Location:       a.cfg.Scheduler.Location(),
	})

	report, err := pipeline.Run(ctx, opts)
	if report.RunID != "" && a.cfg.Metrics.PushgatewayURL != "" {
		if pushErr := metrics.Push(ctx, a.cfg.Metrics.PushgatewayURL, a.cfg.Metrics.Job, report.RunID, registry); pushErr != nil {
			a.logger.Warn("metrics push failed", "run_id", report.RunID, "error", pushErr)
		}
	}
	return report, err
}

// Run satisfies usecase.Runner so scheduled runs go through Crawl.
func (a *Application) Run(ctx context.Context, opts usecase.RunOptions) (domain.RunReport, error) {
	return a.Crawl(ctx, opts)
}

// Delete removes every stored article of sourceID. Tag counters are not decremented.
func (a *Application) Delete(ctx context.Context, sourceID string) (int, error) {
	if sourceID == "" {
		return 0, errors.New("source id is required")
	}
	store, storeErr := a.ensureStore(ctx)
	if storeErr != nil {
		return 0, fmt.Errorf("store initialization failed: %w", storeErr)
	}

	deleted, err := store.DeleteSource(ctx, sourceID, a.cfg.Store.DeleteBatchSize)
	if err != nil {
		return deleted, fmt.Errorf("delete %s: %w", sourceID, err)
	}
	a.logger.Info("source deleted", "source", sourceID, "articles", deleted)
	return deleted, nil
}

// Migrate applies the embedded Postgres schema.
func (a *Application) Migrate() error {
	if a.cfg.Store.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations apply to the %s driver only, configured %s", config.DriverPostgres, a.cfg.Store.Driver)
	}
	if err := storage.RunMigrations(a.cfg.Store.DSN); err != nil {
		return err
	}
	a.logger.Info("migrations applied")
	return nil
}

// Schedule runs a crawl on every configured cron expression until ctx is cancelled.
func (a *Application) Schedule(ctx context.Context) error {
	driver := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpressions,
		a.cfg.Scheduler.Location(),
		a.logger.With("component", "scheduler"),
	)
	if err := driver.Validate(); err != nil {
		return err
	}

	sched := usecase.NewScheduler(driver, a, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("waiting for scheduled runs", "next", driver.Next())

	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Close releases the store if it was opened.
func (a *Application) Close() error {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// ensureStore opens the store once it succeeds; a failed open is retried on the next call.
func (a *Application) ensureStore(ctx context.Context) (ports.ArticleStore, error) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()
	if a.store != nil {
		return a.store, nil
	}

	store, err := a.openStore(ctx, a.cfg.Store)
	if err != nil {
		a.logger.Error("store unavailable", "driver", a.cfg.Store.Driver, "error", err)
		return nil, err
	}
	a.store = store
	return store, nil
}

func buildClassifier(cfg config.ClassifierConfig, logger *slog.Logger) ports.Classifier {
	var backend ports.Classifier
	switch cfg.Provider {
	case config.ProviderService:
		backend = ml.NewClient(cfg.Service.Endpoint, cfg.Service.APIKey, cfg.Timeout)
	case config.ProviderChatGPT:
		if cfg.ChatGPT.APIKey == "" {
			logger.Warn("chatgpt classifier has no api key; every entry will fail classification")
		}
		backend = llm.NewChatGPTClient(cfg.ChatGPT, classifier.DefaultVocabulary(), cfg.Timeout)
	default:
		backend = classifier.Noop{}
	}
	return classifier.NewGuard(backend, classifier.DefaultVocabulary(), cfg.MaxBodyRunes)
}

func buildReporter(cfg config.NotificationConfig, logger *slog.Logger) ports.Reporter {
	var reporters notify.MultiReporter
	if cfg.Slack.WebhookURL != "" {
		reporters = append(reporters, slack.NewWebhook(cfg.Slack.WebhookURL, cfg.Timeout))
	}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		reporters = append(reporters, telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Timeout))
	}
	if len(reporters) == 0 {
		logger.Info("no report channel configured")
		return nil
	}
	return reporters
}
