// Package app wires the engine together once per process. The API server
// and ragctl both start here.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/customHttpClient"
	"github.com/akolanti/GoRAG/internal/data/docsource"
	"github.com/akolanti/GoRAG/internal/data/redisStore"
	"github.com/akolanti/GoRAG/internal/data/store"
	"github.com/akolanti/GoRAG/internal/domain/capability"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/internal/job"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/internal/rag/chunker"
	"github.com/akolanti/GoRAG/internal/rag/embedding"
	"github.com/akolanti/GoRAG/internal/rag/ingest"
	"github.com/akolanti/GoRAG/internal/rag/llm"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/GoRAG/internal/rag/vectorDB/sqliteDB"
	"github.com/akolanti/GoRAG/internal/worker"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

type Options struct {
	// Workers starts the job queue and the worker pool. ragctl runs
	// indexing inline and leaves it off.
	Workers bool
}

type closer struct {
	name  string
	close func() error
}

type App struct {
	Settings *config.Settings
	RAG      rag.Service
	Indexer  *ingest.Indexer
	Jobs     *job.Service

	pool    *worker.Pool
	chunks  *sqliteDB.Store
	closers []closer
	logger  *logger_i.Logger
}

// New builds every component from settings. Only a chunk store that cannot
// be opened is fatal; every other dependency degrades.
func New(ctx context.Context, settings *config.Settings, opts Options) (*App, error) {
	a := &App{Settings: settings, logger: logger_i.NewLogger("app")}
	httpClient := customHttpClient.NewClient(0)

	embedder := embedding.Load(ctx, settings.Embedding.Provider, embeddingLoader(settings, httpClient))
	generator := llm.Load(ctx, settings.Generation.Provider, generationLoader(settings, httpClient))
	if p, ok := generator.Get(); ok {
		generator = capability.Available[llm.Provider](llm.NewBreaker(p))
	}

	chunks, err := sqliteDB.Open(ctx, settings.Store.SQLitePath, settings.Embedding.Dimension)
	if err != nil {
		return nil, fmt.Errorf("open chunk store: %w", err)
	}
	a.chunks = chunks
	a.addCloser("chunk store", chunks.Close)

	jobStore, queryLog := a.openRedisStores(ctx)
	source := a.openDocumentSource(ctx)

	deps := rag.Dependencies{
		Embedder:          queryEmbedder(embedder, settings.Embedding.QueryCacheSize, a.logger),
		Generator:         generator,
		Store:             chunks,
		QueryLog:          queryLog,
		TopK:              settings.Retrieval.TopK,
		ContextCharBudget: settings.Retrieval.ContextCharBudget,
		GenerationTimeout: settings.GenerationTimeout(),
	}
	if cache := a.openAnswerCache(ctx); cache != nil {
		deps.Cache = cache
	}
	a.RAG = rag.NewService(deps)

	a.Indexer = ingest.NewIndexer(source, chunks, embedder,
		chunker.New(chunker.WithTargetLength(settings.Chunker.TargetLength), chunker.WithOverlap(settings.Chunker.Overlap)))

	if opts.Workers {
		a.Jobs = job.InitJobService(job.ServiceConfig{JobStore: jobStore, Indexer: a.Indexer})
		a.pool = worker.NewPool(a.Jobs.JobChannel, a.Jobs.DispatcherChannel, a.Jobs)
		a.pool.Start()
	}

	a.logger.Info("Engine ready",
		"embedder", embedder.IsAvailable(), "generator", generator.IsAvailable(),
		"answerCache", deps.Cache != nil, "workers", opts.Workers)
	return a, nil
}

// queryEmbedder puts the LRU in front of question embeddings only. Document
// chunks are embedded once and would just evict questions.
func queryEmbedder(c embedding.Capability, size int, log *logger_i.Logger) embedding.Capability {
	e, ok := c.Get()
	if !ok {
		return c
	}
	e = embedding.ForQueries(e)
	cached, err := embedding.NewCachedEmbedder(e, size)
	if err != nil {
		log.Warn("Query embedding cache disabled", "error", err)
		return capability.Available[embedding.Embedder](e)
	}
	return capability.Available[embedding.Embedder](cached)
}

func (a *App) openRedisStores(ctx context.Context) (jobModel.JobStore, ragModel.QueryLog) {
	if a.Settings.Redis.Disabled {
		a.logger.Warn("Redis disabled, jobs and the query log are kept in memory")
		return store.InitInMemoryJobStore(), store.InitInMemoryQueryLog()
	}
	opts := redisStore.Options{Addr: a.Settings.Redis.Addr, Password: a.Settings.Redis.Password}

	var jobStore jobModel.JobStore = store.InitInMemoryJobStore()
	if jobDB, err := redisStore.Connect(ctx, opts, config.RedisJobStore); err != nil {
		a.logger.Error("Redis job store is offline, falling back to memory", "error", err)
	} else {
		jobStore = store.NewRedisJobStore(jobDB)
		a.addCloser("redis job store", jobDB.Close)
	}

	var queryLog ragModel.QueryLog = store.InitInMemoryQueryLog()
	if logDB, err := redisStore.Connect(ctx, opts, config.RedisQueryLogStore); err != nil {
		a.logger.Error("Redis query log is offline, falling back to memory", "error", err)
	} else {
		queryLog = store.NewRedisQueryLog(logDB)
		a.addCloser("redis query log", logDB.Close)
	}
	return jobStore, queryLog
}

func (a *App) openDocumentSource(ctx context.Context) ragModel.DocumentSource {
	dsn := a.Settings.DocumentSource.PostgresDSN
	if dsn == "" {
		a.logger.Warn("DOCUMENT_SOURCE_DSN not set, indexing is unavailable")
		return docsource.Unconfigured{Reason: "document source not configured"}
	}
	source, err := docsource.Open(ctx, dsn)
	if err != nil {
		a.logger.Error("Document source is offline, indexing is unavailable", "error", err)
		return docsource.Unconfigured{Reason: err.Error()}
	}
	a.addCloser("document source", source.Close)
	return source
}

func (a *App) openAnswerCache(ctx context.Context) *qdrantDB.SemanticCache {
	if !a.Settings.CacheEnabled() {
		return nil
	}
	q := a.Settings.Qdrant
	cache, err := qdrantDB.Connect(ctx, qdrantDB.Options{
		Host:      q.Host,
		Port:      q.Port,
		UseTLS:    q.UseTLS,
		APIKey:    q.APIKey,
		PoolSize:  uint(q.PoolSize),
		Dimension: a.Settings.Embedding.Dimension,
	})
	if err != nil {
		a.logger.Warn("Semantic answer cache disabled", "error", err)
		return nil
	}
	a.addCloser("answer cache", cache.Close)
	return cache
}

func (a *App) addCloser(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, close: fn})
}

// Close stops accepting jobs, drains the workers, then closes the stores
// in reverse opening order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Jobs != nil {
		a.Jobs.Stop()
	}
	if a.pool != nil {
		if err := a.pool.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Error("Close failed", "component", c.name, "error", err)
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}
