// Package main implements the submission worker: it consumes user vibe
// reports from NATS, embeds them, and writes them into the hybrid index.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/vibewalk/vibewalk/engine/domain"
	"github.com/vibewalk/vibewalk/engine/ingest"
	"github.com/vibewalk/vibewalk/engine/semantic"
	"github.com/vibewalk/vibewalk/pkg/natsutil"
	"github.com/vibewalk/vibewalk/pkg/ollama"
)

type Config struct {
	NATSURL    string
	QdrantURL  string
	Collection string
	OllamaURL  string
	EmbedModel string
}

func loadConfig() Config {
	return Config{
		NATSURL:    envOr("NATS_URL", nats.DefaultURL),
		QdrantURL:  envOr("QDRANT_URL", "localhost:6334"),
		Collection: envOr("QDRANT_COLLECTION", "city_vibes_nyc"),
		OllamaURL:  envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel: envOr("EMBED_MODEL", ""),
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
		logger.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

// dlqEntry mirrors the ingest DLQ payload for logging.
type dlqEntry struct {
	Submission domain.Submission `json:"submission"`
	Error      string            `json:"error"`
	Retries    int               `json:"retries"`
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

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	embedder := ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)
	sub, err := ingest.StartConsumer(nc, ingest.Deps{
		Sink:     store,
		Embedder: embedder,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer sub.Unsubscribe()

	// Surface dead-lettered submissions in the logs so they are not lost
	// silently.
	dlqSub, err := natsutil.Subscribe(nc, ingest.DLQSubject, func(_ context.Context, entry dlqEntry) {
		logger.Error("submission dead-lettered",
			"error", entry.Error,
			"retries", entry.Retries,
			"lat", entry.Submission.Lat,
			"lng", entry.Submission.Lng,
		)
	})
	if err != nil {
		return fmt.Errorf("subscribe dlq: %w", err)
	}
	defer dlqSub.Unsubscribe()

	logger.Info("worker consuming", "subject", ingest.ReportSubject)
	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}
