package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"manualpilot/internal/ai"
	"manualpilot/internal/app"
	"manualpilot/internal/cache"
	"manualpilot/internal/chunker"
	"manualpilot/internal/config"
	"manualpilot/internal/model"
	mysqlClient "manualpilot/internal/platform/mysql"
	postgresClient "manualpilot/internal/platform/postgres"
	rabbitmqClient "manualpilot/internal/platform/rabbitmq"
	redisClient "manualpilot/internal/platform/redis"
	"manualpilot/internal/vectorstore"
	mysqlstore "manualpilot/internal/vectorstore/mysql"
	pgvectorstore "manualpilot/internal/vectorstore/pgvector"
	"manualpilot/internal/worker"
)

type App struct {
	Config   *config.Config
	MySQL    *gorm.DB  // set when the mysql backend is active
	Postgres *sqlx.DB  // set when the pgvector backend is active
	Redis    *redis.Client
	MQConn   *amqp.Connection

	Store           vectorstore.Store
	History         *cache.HistoryCache
	IngestService   *app.IngestService
	AnswerService   *app.AnswerService
	ManualService   *app.ManualService
	IngestPublisher *rabbitmqClient.IngestPublisher
	IngestWorker    *worker.IngestWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	a := &App{Config: cfg, StartedAt: time.Now()}

	if err := a.initStore(ctx); err != nil {
		return nil, err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	a.Redis = redisCli
	a.History = cache.NewHistoryCache(
		redisCli,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		cfg.Redis.HistoryMaxTurns,
	)

	mqConn, err := rabbitmqClient.New(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}
	a.MQConn = mqConn
	a.IngestPublisher = rabbitmqClient.NewIngestPublisher(mqConn, cfg.RabbitMQ.IngestQueue)

	aiClient := ai.NewOpenAICompatibleClient(
		ai.EmbeddingConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.EmbeddingModel,
		},
		ai.ChatConfig{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		},
	)

	ck := chunker.New(
		chunker.WithChunkSize(cfg.RAG.ChunkSize),
		chunker.WithOverlap(cfg.RAG.ChunkOverlap),
		chunker.WithMinChunkLen(cfg.RAG.MinChunkLen),
	)

	a.IngestService = app.NewIngestService(a.Store, aiClient, ck, cfg.RAG.EmbedBatchSize)
	a.AnswerService = app.NewAnswerService(
		app.NewRetriever(aiClient, a.Store),
		aiClient,
		cfg.RAG.TopK,
		cfg.RAG.MaxSources,
	)
	a.ManualService = app.NewManualService(a.Store)

	a.IngestWorker = worker.NewIngestWorker(mqConn, a.IngestService, cfg.RabbitMQ.IngestQueue)
	if err := a.IngestWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start ingest worker failed: %w", err)
	}

	return a, nil
}

func (a *App) initStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Storage.Backend {
	case "mysql":
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN())
		if err != nil {
			return err
		}
		if err := db.AutoMigrate(&model.Manual{}, &model.ManualChunk{}); err != nil {
			return fmt.Errorf("auto migrate tables failed: %w", err)
		}
		a.MySQL = db
		a.Store = mysqlstore.New(db)
	case "pgvector":
		db, err := postgresClient.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		store := pgvectorstore.New(db, cfg.RAG.EmbeddingDimensions)
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("init pgvector schema failed: %w", err)
		}
		a.Postgres = db
		a.Store = store
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	if a.Postgres != nil {
		if err := a.Postgres.Close(); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
