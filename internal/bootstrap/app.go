package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"datagov-chat/internal/ai"
	appsvc "datagov-chat/internal/app"
	"datagov-chat/internal/catalog"
	"datagov-chat/internal/config"
	"datagov-chat/internal/index"
	"datagov-chat/internal/model"
	mysqlClient "datagov-chat/internal/platform/mysql"
	rabbitmqClient "datagov-chat/internal/platform/rabbitmq"
	redisClient "datagov-chat/internal/platform/redis"
	"datagov-chat/internal/repository"
	"datagov-chat/internal/worker"
)

type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	MySQL       *gorm.DB // nil when the sqlite backend is selected
	Redis       *redis.Client
	MQConn      *amqp.Connection
	EventWorker *worker.EventLogWorker
	Store       appsvc.SessionStore
	AIClient    *ai.Client
	Index       *index.Index

	sqliteStore *repository.SQLiteTurnStore
	StartedAt   time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("build logger failed: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		StartedAt: time.Now(),
	}

	eventStore, err := app.openStore(ctx)
	if err != nil {
		return nil, err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	app.Redis = redisCli

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}
	app.MQConn = mqConn

	eventWorker := worker.NewEventLogWorker(mqConn, eventStore, cfg.RabbitMQ.EventQueue, logger)
	if err := eventWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start event worker failed: %w", err)
	}
	app.EventWorker = eventWorker

	app.AIClient = ai.NewClient()
	embedder := ai.Embedder{
		Client: app.AIClient,
		Config: ai.EmbeddingConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.EmbeddingModel,
		},
	}
	catalogClient := catalog.NewClient(
		cfg.Catalog.Endpoint,
		time.Duration(cfg.Catalog.TimeoutSeconds)*time.Second,
	)

	// Cold builds embed the whole catalog; a warm restart reloads the
	// snapshot. Only an embedding failure is fatal here - a missing
	// catalog just leaves the index empty.
	app.Index = index.New(embedder, catalogClient, cfg.Index.SnapshotPath, logger)
	if err := app.Index.BuildOrLoad(ctx); err != nil {
		return nil, fmt.Errorf("build dataset index failed: %w", err)
	}

	return app, nil
}

func (a *App) openStore(ctx context.Context) (worker.EventStore, error) {
	switch a.Config.Store.Backend {
	case "mysql":
		db, err := mysqlClient.New(ctx, a.Config.MySQLDSN())
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&model.Turn{}, &model.ConversationEvent{}); err != nil {
			return nil, fmt.Errorf("auto migrate tables failed: %w", err)
		}
		a.MySQL = db
		a.Store = repository.NewTurnRepository(db)
		return repository.NewEventRepository(db), nil
	case "sqlite":
		store, err := repository.NewSQLiteTurnStore(a.Config.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.sqliteStore = store
		a.Store = store
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", a.Config.Store.Backend)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.EventWorker != nil {
		a.EventWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
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
	if a.sqliteStore != nil {
		if err := a.sqliteStore.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.App.Env == "dev" {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zapCfg.Build()
}
