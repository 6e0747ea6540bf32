package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rapteehv/support-bot/internal/api/channels/website"
	"github.com/rapteehv/support-bot/internal/chatwoot"
	"github.com/rapteehv/support-bot/internal/config"
	"github.com/rapteehv/support-bot/internal/core"
	"github.com/rapteehv/support-bot/internal/embedder"
	"github.com/rapteehv/support-bot/internal/llm"
	"github.com/rapteehv/support-bot/internal/rag"
	"github.com/rapteehv/support-bot/internal/realtime"
	"github.com/rapteehv/support-bot/internal/routes"
	"github.com/rapteehv/support-bot/internal/settings"
	"github.com/rapteehv/support-bot/internal/utils"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		fmt.Println("Warning: Error loading .env file", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	cleanup := utils.InitLogger(cfg)
	defer cleanup()

	utils.Zlog.Info("Starting application",
		zap.String("service", cfg.ServiceName),
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.ServerPort))

	ticketing := chatwoot.NewClient(cfg.ChatwootBaseURL, cfg.ChatwootAccountID, cfg.ChatwootAPIToken)

	states := core.NewStateStore(core.DefaultStateTimeout)

	guard, err := core.NewGuard()
	if err != nil {
		utils.Zlog.Error("Failed to create idempotency guard", zap.Error(err))
		os.Exit(1)
	}
	sessions, err := core.NewSessionStore()
	if err != nil {
		utils.Zlog.Error("Failed to create session store", zap.Error(err))
		os.Exit(1)
	}

	botSettings := settings.NewService(cfg.BotSettingsFile)
	retriever := buildRetriever(cfg)
	completer := llm.NewClient(cfg.MistralAPIKey)
	hub := realtime.NewHub()

	deps := &routes.Dependencies{
		Cfg:       cfg,
		Ticketing: ticketing,
		States:    states,
		Guard:     guard,
		Sessions:  sessions,
		Hub:       hub,
		InstagramResponder: rag.NewMarkerResponder(retriever, completer, func() settings.BotSettings {
			return botSettings.ForChannel("instagram")
		}),
		WhatsAppResponder: rag.NewMarkerResponder(retriever, completer, func() settings.BotSettings {
			return botSettings.ForChannel("whatsapp")
		}),
		WebsiteResponder: rag.NewStructuredResponder(retriever, completer, website.NewHistoryProvider(ticketing), func() settings.BotSettings {
			return botSettings.ForChannel("website")
		}),
	}

	appCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	states.StartSweeper(appCtx)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	routes.SetupRoutes(router, deps)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		utils.Zlog.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Zlog.Error("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Zlog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Zlog.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	utils.Zlog.Info("Server exited")
}

func buildRetriever(cfg *config.Config) rag.Retriever {
	if cfg.ChromaAPIKey == "" || cfg.ChromaTenant == "" || cfg.MistralAPIKey == "" {
		utils.Zlog.Warn("Knowledge store not configured, answering without retrieval")
		return rag.NewNoopRetriever()
	}

	database := cfg.ChromaDatabase
	if database == "" {
		database = "bot"
	}
	collection := cfg.ChromaCollection
	if collection == "" {
		collection = "raptee_t30_faq_light"
	}

	emb, err := embedder.NewMistralEmbedder(cfg.MistralAPIKey)
	if err != nil {
		utils.Zlog.Warn("Failed to create embedder, answering without retrieval", zap.Error(err))
		return rag.NewNoopRetriever()
	}
	return rag.NewChromaRetriever(cfg.ChromaTenant, database, collection, cfg.ChromaAPIKey, emb)
}
