// Command parley is the main entry point for the Parley interview copilot
// server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/parley-ai/parley/internal/config"
	"github.com/parley-ai/parley/internal/health"
	"github.com/parley-ai/parley/internal/observe"
	"github.com/parley-ai/parley/internal/pipeline"
	"github.com/parley-ai/parley/internal/retrieval"
	"github.com/parley-ai/parley/internal/server"
	"github.com/parley-ai/parley/internal/transcript"
	"github.com/parley-ai/parley/pkg/backend"
	"github.com/parley-ai/parley/pkg/embeddings/ollama"
	"github.com/parley-ai/parley/pkg/knowledge/postgres"
)

const defaultListenAddr = ":8080"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "parley: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logLevel := new(slog.LevelVar)
	logLevel.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("parley starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"provider", cfg.Generation.Provider,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Config watcher ────────────────────────────────────────────────────────
	// Only the log level is applied live; other changes are announced so the
	// operator knows a restart is needed.
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			logLevel.Set(slogLevel(d.NewLogLevel))
			slog.Info("log level updated", "level", d.NewLogLevel)
		}
		if d.Restartable() {
			slog.Warn("configuration changed on disk; restart to apply",
				"generation", d.GenerationChanged,
				"retrieval", d.RetrievalChanged,
				"transcript", d.TranscriptChanged,
				"knowledge", d.KnowledgeChanged,
			)
		}
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "parley",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Knowledge store (optional) ────────────────────────────────────────────
	var (
		store    *postgres.Store
		emb      *ollama.Embedder
		checkers []health.Checker
	)
	if cfg.Knowledge.PostgresDSN != "" {
		emb, err = ollama.New(cfg.Knowledge.Embeddings.BaseURL, cfg.Knowledge.Embeddings.Model,
			ollama.WithDimensions(cfg.Knowledge.Embeddings.Dimensions))
		if err != nil {
			slog.Error("failed to create embedder", "err", err)
			return 1
		}

		store, err = postgres.NewStore(ctx, cfg.Knowledge.PostgresDSN, emb)
		if err != nil {
			slog.Error("failed to open knowledge store", "err", err)
			return 1
		}
		defer store.Close()
		checkers = append(checkers,
			storeChecker(store),
			health.PingChecker("embeddings", emb),
		)
		slog.Info("knowledge store ready", "embedding_model", emb.ModelID(), "dimensions", emb.Dimensions())
	}

	// ── Answer pipeline ───────────────────────────────────────────────────────
	provider := backend.Provider(cfg.Generation.Provider)
	if provider == "" {
		provider = backend.ProviderPollinations
	}

	var pipeOpts []pipeline.Option
	if cfg.Retrieval.Enabled {
		fetcher, err := buildFetcher(cfg, store)
		if err != nil {
			slog.Error("failed to configure retrieval", "err", err)
			return 1
		}
		pipeOpts = append(pipeOpts, pipeline.WithFetcher(fetcher))
	}

	pipe, err := pipeline.New(backend.NewDispatcher(), provider, cfg.Generation.Model, cfg.Generation.APIKey, pipeOpts...)
	if err != nil {
		slog.Error("failed to create pipeline", "err", err)
		return 1
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srvOpts := []server.Option{
		server.WithHealth(health.New(checkers...)),
		server.WithTranscriptOptions(transcriptOptions(cfg.Transcript)...),
	}
	if store != nil {
		srvOpts = append(srvOpts, server.WithStore(store))
	}
	if emb != nil {
		srvOpts = append(srvOpts, server.WithEmbedder(emb))
	}
	srv := server.New(pipe, srvOpts...)

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = defaultListenAddr
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", addr)
		return srv.Run(gctx, addr)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// storeChecker readies the database and surfaces the stored chunk count, so
// /readyz doubles as a quick inventory check.
func storeChecker(store *postgres.Store) health.Checker {
	return health.Checker{
		Name: "database",
		Check: func(ctx context.Context) (string, error) {
			if err := store.Ping(ctx); err != nil {
				return "", err
			}
			n, err := store.Count(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d chunks", n), nil
		},
	}
}

// buildFetcher picks the retrieval path: a remote knowledge service when
// base_url is set, otherwise the local store.
func buildFetcher(cfg *config.Config, store *postgres.Store) (pipeline.ContextFetcher, error) {
	if cfg.Retrieval.BaseURL != "" {
		var opts []retrieval.Option
		if cfg.Retrieval.TopK > 0 {
			opts = append(opts, retrieval.WithTopK(cfg.Retrieval.TopK))
		}
		if cfg.Retrieval.MinSimilarity != nil {
			opts = append(opts, retrieval.WithMinSimilarity(*cfg.Retrieval.MinSimilarity))
		}
		return retrieval.New(cfg.Retrieval.BaseURL, opts...)
	}

	if store == nil {
		return nil, errors.New("retrieval.enabled requires retrieval.base_url or knowledge.postgres_dsn")
	}
	var opts []retrieval.StoreOption
	if cfg.Retrieval.TopK > 0 {
		opts = append(opts, retrieval.WithStoreTopK(cfg.Retrieval.TopK))
	}
	if cfg.Retrieval.MinSimilarity != nil {
		opts = append(opts, retrieval.WithStoreMinSimilarity(*cfg.Retrieval.MinSimilarity))
	}
	return retrieval.NewStoreFetcher(store, opts...)
}

// transcriptOptions converts the config block into buffer options, keeping
// package defaults for unset values.
func transcriptOptions(tc config.TranscriptConfig) []transcript.Option {
	var opts []transcript.Option
	if tc.Capacity > 0 {
		opts = append(opts, transcript.WithCapacity(tc.Capacity))
	}
	if tc.WindowSeconds > 0 {
		opts = append(opts, transcript.WithMaxAge(tc.Window()))
	}
	return opts
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
