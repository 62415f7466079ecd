package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"kinto/internal/dto"
	"kinto/internal/repository"
	"kinto/internal/service"
	"kinto/pkg/config"
	"kinto/pkg/logger"
	"kinto/pkg/postgres"

	"go.uber.org/zap"
)

// Seeds the knowledge base from a JSON file of articles, then rebuilds the
// retrieval index once so a running check against the same database sees the
// content immediately.
func main() {
	var file string
	flag.StringVar(&file, "file", "seed/articles.json", "path to the articles JSON file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	data, err := os.ReadFile(file)
	if err != nil {
		appLogger.Fatal("Failed to read seed file", zap.String("file", file), zap.Error(err))
	}

	var articles []dto.UpsertArticleRequest
	if err := json.Unmarshal(data, &articles); err != nil {
		appLogger.Fatal("Failed to parse seed file", zap.Error(err))
	}

	articleRepo := repository.NewArticleRepository(db, appLogger)
	index := service.NewKnowledgeIndex(articleRepo, appLogger)
	articleService := service.NewArticleService(articleRepo, index, appLogger)

	seeded := 0
	for i := range articles {
		stored, err := articleService.Upsert(ctx, &articles[i])
		if err != nil {
			appLogger.Error("Skipping article",
				zap.String("title", articles[i].Title),
				zap.Error(err),
			)
			continue
		}
		seeded++
		appLogger.Info("Seeded article",
			zap.String("id", stored.ID.String()),
			zap.String("title", stored.Title),
			zap.Int("version", stored.Version),
		)
	}

	appLogger.Info("Seeding complete",
		zap.Int("seeded", seeded),
		zap.Int("total", len(articles)),
	)
}
