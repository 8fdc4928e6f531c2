package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"debatearena/internal/ai"
	"debatearena/internal/api"
	"debatearena/internal/character"
	"debatearena/internal/config"
	"debatearena/internal/debate"
	"debatearena/internal/events"
	"debatearena/internal/observability"
	"debatearena/internal/topics"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger("api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	characters := character.Builtin()
	if cfg.CharactersFile != "" {
		loaded, err := character.Load(cfg.CharactersFile)
		if err != nil {
			logger.Error("startup_failed", observability.Fields{
				"step":  "load_characters",
				"error": err.Error(),
			})
			os.Exit(1)
		}
		characters = loaded
	}

	store, err := topics.New(ctx, cfg)
	if err != nil {
		logger.Error("startup_failed", observability.Fields{
			"step":  "topic_store",
			"store": cfg.TopicStore,
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer store.Close()

	sink, err := events.NewSink(cfg, logger)
	if err != nil {
		logger.Error("startup_failed", observability.Fields{
			"step":  "event_sink",
			"error": err.Error(),
		})
		os.Exit(1)
	}
	recorder := events.NewRecorder(sink, logger)
	defer recorder.Close()

	metrics := observability.NewAPIMetrics()
	service := debate.NewService(debate.Options{
		LLM:               ai.NewFromConfig(cfg),
		Characters:        characters,
		Metrics:           metrics,
		Logger:            logger,
		Events:            recorder,
		UserMessageMaxLen: cfg.UserMessageMaxLen,
	})
	server := api.New(cfg, api.Deps{
		Debate:  service,
		Topics:  store,
		Events:  recorder,
		Logger:  logger,
		Metrics: metrics,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.APIReadTimeout,
		WriteTimeout:      cfg.APIWriteTimeout,
		IdleTimeout:       cfg.APIIdleTimeout,
	}
	serverErrCh := make(chan error, 1)

	go func() {
		logger.Info("api_listening", observability.Fields{
			"addr":        ":" + cfg.Port,
			"llm":         cfg.LLMProvider,
			"topic_store": cfg.TopicStore,
			"characters":  characters.Len(),
		})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErrCh:
		logger.Error("http_server_failed", observability.Fields{"error": err.Error()})
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful_shutdown_failed", observability.Fields{"error": err.Error()})
	}
	logger.Info("api_stopped", nil)
}
