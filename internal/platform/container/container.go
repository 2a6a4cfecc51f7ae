package container

import (
	"context"
	"fmt"
	"log/slog"

	answerapp "github.com/jinford/kb-assistant/internal/module/answer/application"
	answerdomain "github.com/jinford/kb-assistant/internal/module/answer/domain"
	corpuspg "github.com/jinford/kb-assistant/internal/module/corpus/adapter/pg"
	"github.com/jinford/kb-assistant/internal/module/corpus/adapter/vectorfile"
	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	"github.com/jinford/kb-assistant/internal/module/corpus/registry"
	indexingapp "github.com/jinford/kb-assistant/internal/module/indexing/application"
	injectionjsonl "github.com/jinford/kb-assistant/internal/module/injection/adapter/jsonl"
	injectionapp "github.com/jinford/kb-assistant/internal/module/injection/application"
	llmadapter "github.com/jinford/kb-assistant/internal/module/llm/adapter"
	llm "github.com/jinford/kb-assistant/internal/module/llm/domain"
	threadfile "github.com/jinford/kb-assistant/internal/module/thread/adapter/file"
	thread "github.com/jinford/kb-assistant/internal/module/thread/domain"
	"github.com/jinford/kb-assistant/internal/platform/config"
	"github.com/jinford/kb-assistant/pkg/db"
)

// バックエンド識別子
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Container はアプリケーション全体の依存関係を保持する。
// 起動時に一度だけ構築し、CLI/APIの各エントリポイントへ引き渡す。
type Container struct {
	Registry         *registry.Registry
	AnswerService    *answerapp.AnswerService
	InjectionService *injectionapp.Service
	BuildService     *indexingapp.BuildService

	logger   *slog.Logger
	database *db.DB
}

type containerOptions struct {
	logger    *slog.Logger
	embedder  llm.Embedder
	generator llm.Generator
	threads   thread.Store
	tokens    answerapp.TokenCounter
}

// Option はContainer構築時のオプション
type Option func(*containerOptions)

// WithLogger はロガーを差し替える
func WithLogger(logger *slog.Logger) Option {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithEmbedder はカスタムEmbedderを注入する
func WithEmbedder(embedder llm.Embedder) Option {
	return func(opts *containerOptions) {
		opts.embedder = embedder
	}
}

// WithGenerator はカスタムGeneratorを注入する
func WithGenerator(generator llm.Generator) Option {
	return func(opts *containerOptions) {
		opts.generator = generator
	}
}

// WithThreadStore はスレッドストアを差し替える
func WithThreadStore(store thread.Store) Option {
	return func(opts *containerOptions) {
		opts.threads = store
	}
}

// WithTokenCounter はトークンカウンタを差し替える
func WithTokenCounter(counter answerapp.TokenCounter) Option {
	return func(opts *containerOptions) {
		opts.tokens = counter
	}
}

// New は設定からコンテナを生成し、ベース/デルタインデックスをロードする。
// 個別スラッグのロード失敗は縮退扱いで起動は継続する。
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	options := &containerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	embedder := options.embedder
	if embedder == nil {
		e, err := llmadapter.NewEmbedder(cfg.OpenAI.APIKey,
			llmadapter.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
			llmadapter.WithEmbeddingDimension(cfg.OpenAI.EmbeddingDimension),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create embedder: %w", err)
		}
		embedder = e
	}

	generator := options.generator
	if generator == nil {
		g, err := llmadapter.NewOpenAIGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.LLMModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create generator: %w", err)
		}
		generator = g
	}

	c := &Container{logger: logger}

	baseStore, deltaStore, err := c.buildStores(ctx, cfg, embedder)
	if err != nil {
		return nil, err
	}

	recorder := injectionjsonl.NewRecorder(cfg.Storage.InjectRoot, logger)

	reg := registry.New(baseStore, deltaStore, recorder, logger)
	report, err := reg.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus indexes: %w", err)
	}
	logger.Info("corpus registry loaded",
		slog.Int("base", len(report.BaseLoaded)),
		slog.Int("delta", len(report.DeltaLoaded)),
		slog.Int("degraded", len(report.Degraded)),
	)

	threads := options.threads
	if threads == nil {
		threads = threadfile.NewStore(cfg.Storage.StateRoot)
	}

	tokens := options.tokens
	if tokens == nil {
		tc, err := llmadapter.NewTokenCounter()
		if err != nil {
			return nil, fmt.Errorf("failed to create token counter: %w", err)
		}
		tokens = tc
	}

	c.Registry = reg
	c.AnswerService = answerapp.NewAnswerService(reg, generator, threads, tokens, answerapp.Config{
		Gate: answerdomain.GateParams{
			MinHits:             cfg.Retrieval.MinHits,
			SimilarityCutoff:    cfg.Retrieval.SimilarityCutoff,
			ConfidenceThreshold: cfg.Retrieval.ConfidenceThreshold,
		},
		TopK:              cfg.Retrieval.TopK,
		Temperature:       cfg.Retrieval.Temperature,
		ContextTokenLimit: cfg.Retrieval.ContextTokenLimit,
	}, logger)
	c.InjectionService = injectionapp.NewService(reg, recorder, logger)
	c.BuildService = indexingapp.NewBuildService(baseStore, indexingapp.WithBuildLogger(logger))

	return c, nil
}

// buildStores は設定されたバックエンドに応じてベース/デルタのIndexStoreを構築する
func (c *Container) buildStores(ctx context.Context, cfg *config.Config, embedder llm.Embedder) (corpus.IndexStore, corpus.IndexStore, error) {
	switch cfg.IndexBackend {
	case BackendFile, "":
		return vectorfile.NewStore(cfg.Storage.StorageRoot, embedder),
			vectorfile.NewStore(cfg.Storage.DeltaRoot, embedder),
			nil

	case BackendPostgres:
		database, err := db.New(ctx, db.ConnectionParams{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.database = database

		baseStore := corpuspg.NewStore(database.Pool, embedder, corpuspg.KindBase)
		if err := baseStore.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		deltaStore := corpuspg.NewStore(database.Pool, embedder, corpuspg.KindDelta)

		return baseStore, deltaStore, nil

	default:
		return nil, nil, fmt.Errorf("unknown index backend: %s", cfg.IndexBackend)
	}
}

// Close はコンテナが保持するリソースを解放する
func (c *Container) Close() {
	if c.database != nil {
		c.database.Close()
	}
}
