// Package main implements the VibeWalk API server: safety-scored walking
// routes over a hybrid geo-semantic index.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vibewalk/vibewalk/engine/concept"
	"github.com/vibewalk/vibewalk/engine/domain"
	"github.com/vibewalk/vibewalk/engine/ingest"
	"github.com/vibewalk/vibewalk/engine/route"
	"github.com/vibewalk/vibewalk/engine/score"
	"github.com/vibewalk/vibewalk/engine/semantic"
	"github.com/vibewalk/vibewalk/pkg/fn"
	"github.com/vibewalk/vibewalk/pkg/mid"
	"github.com/vibewalk/vibewalk/pkg/natsutil"
	"github.com/vibewalk/vibewalk/pkg/ollama"
	"github.com/vibewalk/vibewalk/pkg/osrm"
)

// Config holds all environment-based configuration.
type Config struct {
	Port       string
	QdrantURL  string
	Collection string
	OllamaURL  string
	EmbedModel string
	OSRMURL    string
	NATSURL    string
	CORSOrigin string
}

func loadConfig() Config {
	return Config{
		Port:       envOr("PORT", "8080"),
		QdrantURL:  envOr("QDRANT_URL", "localhost:6334"),
		Collection: envOr("QDRANT_COLLECTION", "city_vibes_nyc"),
		OllamaURL:  envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel: envOr("EMBED_MODEL", ""),
		OSRMURL:    envOr("OSRM_URL", ""),
		NATSURL:    envOr("NATS_URL", ""),
		CORSOrigin: envOr("CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func ollamaEmbedder(cfg Config) *ollama.EmbedClient {
	return ollama.NewEmbedClient(cfg.OllamaURL, cfg.EmbedModel)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder := ollamaEmbedder(cfg)

	// --- Hybrid index: Qdrant, or in-memory when unreachable ---
	index, backend, cleanup, err := connectIndex(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// --- Concept vectors: blocking, the engine cannot score without them ---
	concepts, err := concept.Init(ctx, embedder)
	if err != nil {
		return fmt.Errorf("concept init: %w", err)
	}
	logger.Info("concept vectors ready")

	// --- Bootstrap the corpus (no-op when already populated) ---
	seedIndex(ctx, index, embedder, logger)

	// --- Submission bus: NATS when configured, direct ingest otherwise ---
	submit, ncCleanup, err := submissionSink(cfg, index, embedder, logger)
	if err != nil {
		return err
	}
	defer ncCleanup()

	queryIndex := semantic.NewResilient(index, nil, semantic.DefaultQueryTimeout, logger)
	scorer := score.New(queryIndex, concepts, score.DefaultOptions(), logger)
	planner := route.NewPlanner(osrm.New(cfg.OSRMURL), logger)

	srvState := newServer(planner, scorer, queryIndex, submit, backend, logger)

	handler := mid.Chain(srvState.routes(),
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel("vibewalk-api"),
		mid.MaxBody(1<<16),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "backend", backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// connectIndex dials Qdrant and falls back to the in-memory index when the
// backend is unreachable, so the demo stays up without infrastructure.
func connectIndex(ctx context.Context, cfg Config, logger *slog.Logger) (semantic.Index, string, func(), error) {
	store, err := semantic.New(cfg.QdrantURL, cfg.Collection)
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = store.Ping(pingCtx)
		cancel()
		if err == nil {
			if err := store.EnsureCollection(ctx, domain.VectorDims); err != nil {
				store.Close()
				return nil, "", nil, fmt.Errorf("ensure collection: %w", err)
			}
			return store, "qdrant", func() { store.Close() }, nil
		}
		store.Close()
	}

	logger.Warn("qdrant unreachable, using in-memory index", "err", err)
	return semantic.NewMemoryIndex(), "memory", func() {}, nil
}

// seedIndex bootstraps crime and review data. Open-data fetch failures are
// tolerated; the curated reviews alone still make the demo work.
func seedIndex(ctx context.Context, index semantic.Index, embedder ingest.Embedder, logger *slog.Logger) {
	incidents, err := ingest.NewSocrataClient("").FetchIncidents(ctx, ingest.DefaultFetchLimit)
	if err != nil {
		logger.Warn("crime data fetch failed, seeding reviews only", "err", err)
	}
	corpus := ingest.BuildSeedCorpus(incidents, ingest.SeedReviews(), ingest.ManhattanDemo, logger)
	if _, err := ingest.NewSeeder(index, embedder, logger).Seed(ctx, corpus); err != nil {
		logger.Error("seeding failed", "err", err)
	}
}

// submissionSink returns the function that accepts a validated submission:
// publish to NATS when a bus is configured, otherwise ingest inline.
func submissionSink(cfg Config, index semantic.Index, embedder ingest.Embedder, logger *slog.Logger) (submitFunc, func(), error) {
	if cfg.NATSURL == "" {
		// No bus means no redelivery, so retry transient failures inline.
		pipeline := fn.RetryStage(
			fn.RetryOpts{MaxAttempts: 3, InitialWait: 200 * time.Millisecond, MaxWait: time.Second, Jitter: true},
			ingest.NewPipeline(ingest.Deps{Sink: index, Embedder: embedder, Logger: logger}),
		)
		return func(ctx context.Context, sub domain.Submission) error {
			_, err := pipeline(ctx, sub).Unwrap()
			return err
		}, func() {}, nil
	}

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}
	return func(ctx context.Context, sub domain.Submission) error {
		return natsutil.Publish(ctx, nc, ingest.ReportSubject, sub)
	}, nc.Close, nil
}
