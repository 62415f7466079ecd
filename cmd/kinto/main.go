package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"kinto/internal/api"
	"kinto/internal/api/handlers"
	"kinto/internal/repository"
	"kinto/internal/service"
	"kinto/pkg/auth"
	"kinto/pkg/config"
	"kinto/pkg/logger"
	"kinto/pkg/postgres"

	"go.uber.org/zap"
)

// @title Kinto Support API
// @version 1.0
// @description Career support chat service: retrieval-grounded answers with confidence scoring and human escalation.

// @contact.name API Support
// @contact.email support@kinto.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Malformed weights, thresholds or redaction patterns are fatal here,
	// never per-request.
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting Kinto support service")

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	articleRepo := repository.NewArticleRepository(db, appLogger)
	chatLogRepo := repository.NewChatLogRepository(db, appLogger)
	ticketRepo := repository.NewTicketRepository(db, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Core pipeline
	redactor, err := service.NewRedactor()
	if err != nil {
		appLogger.Fatal("Failed to compile redaction patterns", zap.Error(err))
	}

	index := service.NewKnowledgeIndex(articleRepo, appLogger)
	if err := index.Reload(ctx); err != nil {
		// The service still starts: retrieval degrades to empty results and
		// the synthesizer fallback until a reload succeeds.
		appLogger.Warn("Knowledge index unavailable at startup", zap.Error(err))
	}

	retriever := service.NewRetriever(index, &cfg.Engine, appLogger)
	scorer := service.NewConfidenceScorer(&cfg.Engine)
	synthesizer := service.NewSynthesizer(index, &cfg.Engine, appLogger)
	escalation := service.NewEscalationManager(ticketRepo, appLogger)
	generator := service.NewGenerationService(&cfg.OpenAI, appLogger)

	engine := service.NewEngine(redactor, index, retriever, scorer, synthesizer,
		escalation, generator, chatLogRepo, &cfg.Engine, appLogger)

	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	articleService := service.NewArticleService(articleRepo, index, appLogger)

	// Handlers
	chatHandler := handlers.NewChatHandler(engine, appLogger)
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	articleHandler := handlers.NewArticleHandler(articleService, appLogger)

	app := api.SetupRouter(chatHandler, authHandler, articleHandler, jwtManager, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
