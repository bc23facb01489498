package main

import (
	"context"
	"flag"
	"log"
	"os"

	"masterlearn/internal/config"
	"masterlearn/internal/db"
	"masterlearn/internal/repository"
	"masterlearn/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	datasetPath := flag.String("file", "courses.json", "ruta al dataset JSON de cursos")
	flag.Parse()

	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	f, err := os.Open(*datasetPath)
	if err != nil {
		logger.Fatal("open dataset", zap.String("path", *datasetPath), zap.Error(err))
	}
	defer f.Close()

	courses, err := service.ParseCourseDataset(f)
	if err != nil {
		logger.Fatal("parse dataset", zap.Error(err))
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	importer := service.NewCourseImporter(logger, repository.NewPgCourseRepository(pool))
	res, err := importer.Import(ctx, courses)
	if err != nil {
		logger.Fatal("import courses", zap.Error(err))
	}

	logger.Info("import finished",
		zap.Int("total", len(courses)),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed),
	)
}
