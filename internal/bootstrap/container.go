package bootstrap

import (
	"context"
	"fmt"
	"time"

	"ai-notecopilot/internal/config"
	"ai-notecopilot/internal/controller"
	"ai-notecopilot/internal/pkg/logger"
	"ai-notecopilot/internal/repository/implementation"
	"ai-notecopilot/internal/repository/memory"
	recordredis "ai-notecopilot/internal/repository/redis"
	"ai-notecopilot/internal/service"
	"ai-notecopilot/internal/websocket"
	"ai-notecopilot/pkg/database"
	embeddingFactory "ai-notecopilot/pkg/embedding/factory"
	llmFactory "ai-notecopilot/pkg/llm/factory"
	pktNats "ai-notecopilot/pkg/nats"
	"ai-notecopilot/pkg/rag/cache"
	"ai-notecopilot/pkg/rag/conversation"
	"ai-notecopilot/pkg/store"
	"ai-notecopilot/pkg/trigger"

	"github.com/redis/go-redis/v9"
)

const containerModule = "Container"

type Container struct {
	// Controllers
	ChatController      controller.IChatController
	CommandController   controller.ICommandController
	PromptController    controller.IPromptController
	StoreController     controller.IStoreController
	WebsocketController controller.IWebsocketController

	// Exposed for main.go to run and shut down
	CopilotService service.ICopilotService
	WebSocketHub   *websocket.Hub
	Logger         logger.ILogger

	closers []func()
}

// NewContainer wires the copilot. Redis and NATS are optional: when they are not
// configured or unreachable the process runs single-instance.
func NewContainer(cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	var promptLog logger.ILogger
	if cfg.Copilot.Debug {
		promptLog = logger.NewIsolatedLogger(cfg.Copilot.PromptLogPath)
	}

	// 1. Providers
	embeddingProvider, err := embeddingFactory.NewEmbeddingProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.EmbeddingModel,
		cfg.EmbeddingBaseURL(),
		embeddingFactory.Keys{
			Gemini: cfg.Keys.GoogleGemini,
			Jina:   cfg.Keys.Jina,
			OpenAI: cfg.Keys.OpenAI,
		},
	)
	if err != nil {
		return nil, err
	}
	llmProvider, err := llmFactory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.LLMBaseURL(), cfg.LLMAPIKey())
	if err != nil {
		return nil, err
	}
	sysLogger.Info(containerModule, "Providers ready", map[string]interface{}{
		"llm":       cfg.Ai.LLMProvider,
		"llm_model": cfg.Ai.LLMModel,
		"embedding": cfg.Ai.EmbeddingProvider,
	})

	// 2. Redis (shared by the record store and the websocket fan-out)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		rdb, err = recordredis.NewClient(cfg.App.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			sysLogger.Warn(containerModule, "Failed to connect to Redis", map[string]interface{}{"error": err.Error()})
			if cfg.Copilot.RecordStore != "redis" {
				rdb.Close()
				rdb = nil
			}
		}
		if rdb != nil {
			client := rdb
			c.closers = append(c.closers, func() { _ = client.Close() })
		}
	}

	// 3. Document cache
	records, closeRecords, err := OpenRecordStore(cfg, rdb)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, closeRecords)
	documents := cache.New(records, embeddingProvider, sysLogger,
		cache.WithChunking(cfg.Copilot.ChunkSize, cfg.Copilot.ChunkOverlap),
	)

	// 4. Trigger sources
	bus := trigger.NewBus(trigger.NewGoChannel(), sysLogger)
	c.closers = append(c.closers, func() { _ = bus.Close() })

	var remote service.RemoteTriggers
	if cfg.App.NatsURL != "" {
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn(containerModule, "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
		} else {
			remote = natsSub
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// 5. Sessions and rendering
	sessionRepo := memory.NewSessionRepository(time.Duration(cfg.Copilot.SessionIdleTTL) * time.Minute)
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	conv := conversation.DefaultConfig()
	conv.Model = cfg.Ai.LLMModel
	conv.Temperature = cfg.Copilot.Temperature
	conv.MaxTokens = cfg.Copilot.MaxTokens
	conv.ContextTurns = cfg.Copilot.ContextTurns
	conv.SystemPrompt = cfg.Copilot.SystemPrompt
	conv.Stream = cfg.Copilot.Stream
	conv.TopK = cfg.Copilot.RetrievalTopK

	copilotService := service.NewCopilotService(
		service.CopilotServiceConfig{Conversation: conv, SaveFolder: cfg.Copilot.SaveFolder},
		documents,
		llmProvider,
		embeddingProvider,
		bus,
		remote,
		sessionRepo,
		c.WebSocketHub,
		sysLogger,
		promptLog,
	)
	c.CopilotService = copilotService

	// 6. Custom prompts
	promptRepo, err := implementation.NewCustomPromptRepository(cfg.Database.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open custom prompt store: %w", err)
	}
	c.closers = append(c.closers, func() { _ = promptRepo.Close() })
	promptService := service.NewPromptService(promptRepo, copilotService, sysLogger)

	// 7. Controllers
	c.ChatController = controller.NewChatController(copilotService)
	c.CommandController = controller.NewCommandController(copilotService)
	c.PromptController = controller.NewPromptController(promptService)
	c.StoreController = controller.NewStoreController(copilotService, cfg.Copilot.TTLDays)
	c.WebsocketController = controller.NewWebsocketController(c.WebSocketHub, copilotService)

	return c, nil
}

// OpenRecordStore builds the store named by COPILOT_RECORD_STORE. The returned
// func releases what the store opened; rdb stays owned by the caller.
func OpenRecordStore(cfg *config.Config, rdb *redis.Client) (store.RecordStore, func(), error) {
	switch cfg.Copilot.RecordStore {
	case "postgres":
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.Debug)
		if err != nil {
			return nil, nil, fmt.Errorf("connect record database: %w", err)
		}
		if err := implementation.MigrateDocumentRecords(db); err != nil {
			return nil, nil, err
		}
		closeDB := func() {}
		if sqlDB, err := db.DB(); err == nil {
			closeDB = func() { _ = sqlDB.Close() }
		}
		return implementation.NewDocumentRecordRepository(db), closeDB, nil
	case "redis":
		if rdb == nil {
			return nil, nil, fmt.Errorf("COPILOT_RECORD_STORE=redis requires REDIS_URL")
		}
		return recordredis.NewRecordStore(rdb, "copilot"), func() {}, nil
	case "memory", "":
		return memory.NewRecordStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported record store: %s", cfg.Copilot.RecordStore)
	}
}

// Close stops every session and releases connections in reverse order.
func (c *Container) Close() {
	if c.CopilotService != nil {
		c.CopilotService.Close()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
