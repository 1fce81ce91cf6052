// Package engine builds the gauntlet components from configuration and
// wires them together. The API server and every CLI command share it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/papercomputeco/gauntlet/pkg/config"
	"github.com/papercomputeco/gauntlet/pkg/conversation"
	"github.com/papercomputeco/gauntlet/pkg/corpus"
	"github.com/papercomputeco/gauntlet/pkg/credentials"
	"github.com/papercomputeco/gauntlet/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/gauntlet/pkg/embeddings/utils"
	"github.com/papercomputeco/gauntlet/pkg/eventstream"
	"github.com/papercomputeco/gauntlet/pkg/eventstream/kafka"
	"github.com/papercomputeco/gauntlet/pkg/eventstream/nop"
	"github.com/papercomputeco/gauntlet/pkg/generation"
	"github.com/papercomputeco/gauntlet/pkg/generation/fake"
	"github.com/papercomputeco/gauntlet/pkg/generation/llm"
	"github.com/papercomputeco/gauntlet/pkg/lifecycle"
	"github.com/papercomputeco/gauntlet/pkg/logger"
	"github.com/papercomputeco/gauntlet/pkg/storage"
	"github.com/papercomputeco/gauntlet/pkg/storage/inmemory"
	"github.com/papercomputeco/gauntlet/pkg/storage/postgres"
	"github.com/papercomputeco/gauntlet/pkg/storage/sqlite"
	"github.com/papercomputeco/gauntlet/pkg/vector"
	vectorutils "github.com/papercomputeco/gauntlet/pkg/vector/utils"
)

// Store driver names accepted in storage.driver.
const (
	StorageInMemory = "inmemory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Event publisher names accepted in eventstream.provider.
const (
	EventsNop   = "nop"
	EventsKafka = "kafka"
)

// ProviderFake selects the scripted generation gateway.
const ProviderFake = "fake"

const vectorFile = "gauntlet-vectors.sqlite"

// Engine holds the wired components. Close releases them in reverse
// construction order.
type Engine struct {
	Config       *config.Config
	Logger       *slog.Logger
	Driver       storage.Driver
	Lifecycle    *lifecycle.Manager
	Corpus       *corpus.Corpus
	Gateway      generation.Gateway
	Publisher    eventstream.Publisher
	Synchronizer *conversation.Synchronizer

	closers []func() error
}

type options struct {
	logger    *slog.Logger
	dir       string
	driver    storage.Driver
	gateway   generation.Gateway
	publisher eventstream.Publisher
}

// Option customizes New.
type Option func(*options)

// WithLogger sets the logger handed to every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDir sets the .gauntlet/ directory that relative default paths
// resolve against.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithDriver uses d instead of building a store from config. The engine
// does not close it.
func WithDriver(d storage.Driver) Option {
	return func(o *options) { o.driver = d }
}

// WithGateway uses g instead of building one from config.
func WithGateway(g generation.Gateway) Option {
	return func(o *options) { o.gateway = g }
}

// WithPublisher uses p instead of building one from config. The engine
// does not close it.
func WithPublisher(p eventstream.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// New builds an Engine from cfg. On error, anything already opened is closed.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (e *Engine, err error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Nop()
	}
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	e = &Engine{Config: cfg, Logger: o.logger}
	defer func() {
		if err != nil {
			_ = e.Close()
			e = nil
		}
	}()

	e.Driver = o.driver
	if e.Driver == nil {
		if e.Driver, err = newDriver(ctx, cfg.Storage, o.dir, o.logger); err != nil {
			return e, err
		}
		e.closers = append(e.closers, e.Driver.Close)
	}

	e.Lifecycle, err = lifecycle.New(lifecycle.Config{
		Driver: e.Driver,
		Logger: o.logger.With("component", "lifecycle"),
		Strict: cfg.Lifecycle.StrictTransitions,
	})
	if err != nil {
		return e, err
	}

	corpusOpts := []corpus.Option{
		corpus.WithDegradeOnReadError(cfg.Corpus.DegradeOnReadError),
		corpus.WithDefaultLimit(cfg.Corpus.DefaultLimit),
		corpus.WithLogger(o.logger.With("component", "corpus")),
	}
	embedder, vectors, err := e.newIndex(ctx, cfg, o.dir)
	if err != nil {
		return e, err
	}
	if embedder != nil && vectors != nil {
		corpusOpts = append(corpusOpts, corpus.WithIndex(embedder, vectors))
	}
	e.Corpus = corpus.New(e.Driver, corpusOpts...)

	gateway := o.gateway
	if gateway == nil {
		if gateway, err = newGateway(cfg, e.Corpus, o.dir, o.logger); err != nil {
			return e, err
		}
	}
	e.Gateway = generation.Instrument(gateway, o.logger.With("component", "generation"))

	e.Publisher = o.publisher
	if e.Publisher == nil {
		if e.Publisher, err = newPublisher(cfg.EventStream, o.logger); err != nil {
			return e, err
		}
		e.closers = append(e.closers, e.Publisher.Close)
	}

	e.Synchronizer, err = conversation.New(conversation.Config{
		Driver:    e.Driver,
		Lifecycle: e.Lifecycle,
		Gateway:   e.Gateway,
		Corpus:    e.Corpus,
		Publisher: e.Publisher,
		Logger:    o.logger.With("component", "conversation"),
	})
	if err != nil {
		return e, err
	}

	o.logger.Debug("engine ready",
		"storage", cfg.Storage.Driver,
		"target_provider", cfg.Target.Provider,
		"strategist_provider", cfg.Strategist.Provider,
		"vector_store", cfg.VectorStore.Provider,
		"eventstream", cfg.EventStream.Provider,
	)
	return e, nil
}

// Close releases every component the engine opened.
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	e.closers = nil
	return errors.Join(errs...)
}

func newDriver(ctx context.Context, c config.StorageConfig, dir string, log *slog.Logger) (storage.Driver, error) {
	switch c.Driver {
	case StorageInMemory:
		log.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	case StorageSQLite, "":
		path := c.SQLitePath
		if path == "" {
			path = resolve(dir, config.DefaultSQLiteFile())
		}
		log.Info("using SQLite storage", "path", path)
		d, err := sqlite.NewDriver(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%w: opening sqlite store: %w", storage.ErrUnavailable, err)
		}
		return d, nil

	case StoragePostgres:
		if c.PostgresDSN == "" {
			return nil, errors.New("storage.postgres_dsn is required for the postgres driver")
		}
		log.Info("using PostgreSQL storage")
		return postgres.NewDriver(ctx, c.PostgresDSN)

	default:
		return nil, fmt.Errorf("unknown storage driver %q (available: inmemory, sqlite, postgres)", c.Driver)
	}
}

// newIndex builds the embedder and vector store backing corpus retrieval.
// Both are nil when either provider is disabled.
func (e *Engine) newIndex(ctx context.Context, cfg *config.Config, dir string) (embeddings.Embedder, vector.Driver, error) {
	apiKey, err := storedKey(dir, cfg.Embedding.Provider)
	if err != nil {
		return nil, nil, err
	}
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
		APIKey:       apiKey,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}
	if embedder == nil {
		return nil, nil, nil
	}
	e.closers = append(e.closers, embedder.Close)

	target := cfg.VectorStore.Target
	if target == "" && cfg.VectorStore.Provider == vectorutils.ProviderSQLite {
		target = resolve(dir, vectorFile)
	}
	vectors, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		Target:       target,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       e.Logger.With("component", "vector"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating vector store: %w", err)
	}
	if vectors == nil {
		return nil, nil, nil
	}
	e.closers = append(e.closers, vectors.Close)

	return embedder, vectors, nil
}

func newGateway(cfg *config.Config, ctxSource llm.ContextSource, dir string, log *slog.Logger) (generation.Gateway, error) {
	if cfg.Target.Provider == ProviderFake {
		log.Warn("using the scripted fake generation gateway")
		return fake.New(), nil
	}

	targetKey, err := storedKey(dir, cfg.Target.Provider)
	if err != nil {
		return nil, err
	}
	target, err := llm.NewCaller(llm.CallerConfig{
		Provider: cfg.Target.Provider,
		Model:    cfg.Target.Model,
		APIKey:   targetKey,
		BaseURL:  cfg.Target.BaseURL,
		Logger:   log.With("role", "target"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating target caller: %w", err)
	}

	strategistCfg := cfg.Strategist
	if strategistCfg.Provider == ProviderFake {
		strategistCfg = cfg.Target
	}
	strategistKey, err := storedKey(dir, strategistCfg.Provider)
	if err != nil {
		return nil, err
	}
	strategist, err := llm.NewCaller(llm.CallerConfig{
		Provider: strategistCfg.Provider,
		Model:    strategistCfg.Model,
		APIKey:   strategistKey,
		BaseURL:  strategistCfg.BaseURL,
		Logger:   log.With("role", "strategist"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating strategist caller: %w", err)
	}

	return llm.NewGateway(llm.Config{
		Target:     target,
		Strategist: strategist,
		Context:    ctxSource,
		Logger:     log.With("component", "llm"),
	})
}

func newPublisher(c config.EventStreamConfig, log *slog.Logger) (eventstream.Publisher, error) {
	switch c.Provider {
	case EventsNop, "":
		return nop.NewPublisher(), nil
	case EventsKafka:
		if len(c.Brokers) == 0 {
			return nil, errors.New("eventstream.brokers is required for the kafka publisher")
		}
		return kafka.NewPublisher(kafka.Config{
			Brokers: c.Brokers,
			Topic:   c.Topic,
			Logger:  log.With("component", "kafka"),
		})
	default:
		return nil, fmt.Errorf("unknown eventstream provider %q (available: nop, kafka)", c.Provider)
	}
}

// storedKey resolves a provider API key through the credentials file in
// dir. Without a dir the caller falls back to the environment on its own.
func storedKey(dir, provider string) (string, error) {
	if dir == "" {
		return "", nil
	}
	mgr, err := credentials.NewManager(dir)
	if err != nil {
		return "", err
	}
	key, err := mgr.ResolveKey(provider)
	if err != nil {
		return "", fmt.Errorf("loading %s credentials: %w", provider, err)
	}
	return key, nil
}

// resolve places name inside dir, or the working directory when dir is empty.
func resolve(dir, name string) string {
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
