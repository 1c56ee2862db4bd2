// Package main implements the standalone corpus bootstrap: it pulls NYC
// open-data incidents, adds the curated reviews, and seeds the Qdrant
// collection the API server reads from.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/vibewalk/vibewalk/engine/domain"
	"github.com/vibewalk/vibewalk/engine/ingest"
	"github.com/vibewalk/vibewalk/engine/semantic"
	"github.com/vibewalk/vibewalk/pkg/ollama"
)

type Config struct {
	QdrantURL  string
	Collection string
	OllamaURL  string
	EmbedModel string
	SocrataURL string
	FetchLimit int
}

func loadConfig() Config {
	limit := ingest.DefaultFetchLimit
	if v := os.Getenv("SEED_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return Config{
		QdrantURL:  envOr("QDRANT_URL", "localhost:6334"),
		Collection: envOr("QDRANT_COLLECTION", "city_vibes_nyc"),
		OllamaURL:  envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel: envOr("EMBED_MODEL", ""),
		SocrataURL: envOr("SOCRATA_URL", ""),
		FetchLimit: limit,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(loadConfig(), logger); err != nil {
		logger.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant connect: %w", err)
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("qdrant ping: %w", err)
	}
	if err := store.EnsureCollection(ctx, domain.VectorDims); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	incidents, err := ingest.NewSocrataClient(cfg.SocrataURL).FetchIncidents(ctx, cfg.FetchLimit)
	if err != nil {
		logger.Warn("crime data fetch failed, seeding reviews only", "err", err)
	}
	corpus := ingest.BuildSeedCorpus(incidents, ingest.SeedReviews(), ingest.ManhattanDemo, logger)

	embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)
	written, err := ingest.NewSeeder(store, embedder, logger).Seed(ctx, corpus)
	if err != nil {
		return err
	}

	logger.Info("seed run finished", "written", written, "collection", cfg.Collection)
	return nil
}
