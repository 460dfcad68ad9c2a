package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamo2918/voicord/internal/audio"
	"github.com/tamo2918/voicord/internal/capture"
	"github.com/tamo2918/voicord/internal/config"
	"github.com/tamo2918/voicord/internal/llm"
	"github.com/tamo2918/voicord/internal/observability"
	"github.com/tamo2918/voicord/internal/pipeline"
	"github.com/tamo2918/voicord/internal/segment"
	"github.com/tamo2918/voicord/internal/server"
	"github.com/tamo2918/voicord/internal/summarize"
	"github.com/tamo2918/voicord/internal/transcribe"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("llm_provider", cfg.LLMProvider).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Voicord service starting")

	// Backends are constructed once here and injected; nothing downstream
	// creates its own clients.
	sttBackend := transcribe.NewDeepgramBackend(cfg.DeepgramAPIKey, cfg.DeepgramModel)

	llmClient, err := llm.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create LLM client")
	}
	if ok, detail := llmClient.Available(context.Background()); !ok {
		logger.Warn().Str("provider", llmClient.Name()).Str("detail", detail).
			Msg("Summarization backend is not ready, summaries will fail until it is")
	}

	format := audio.Format{
		SampleRate:  cfg.CaptureSampleRate,
		Channels:    cfg.CaptureChannels,
		SampleWidth: cfg.CaptureSampleWidth,
	}
	registry := capture.NewRegistry(cfg.RecordingsDir, format, cfg.MaxRecordingSeconds)

	segmenter := segment.NewSegmenter(cfg.SilenceThresholdDB, cfg.MinSilenceMs)
	orch := transcribe.NewOrchestrator(sttBackend, segmenter, transcribe.Options{
		TargetChunkMs:         cfg.TargetChunkMs,
		MinChunkMs:            cfg.MinChunkMs,
		MaxChunkMs:            cfg.MaxChunkMs,
		LongAudioThresholdSec: cfg.LongAudioThreshold,
		MaxChunkSizeMB:        cfg.MaxChunkSizeMB,
		MaxConcurrent:         cfg.MaxConcurrent,
	})

	summarizer := summarize.NewSummarizer(llmClient, cfg.CharBudget, cfg.MaxSummaryDepth)
	pipe := pipeline.New(orch, summarizer, cfg.DefaultLanguage, cfg.AutoDeleteRecordings)
	ingest := server.New(registry, pipe)

	// Create HTTP server
	mux := http.NewServeMux()

	// Register WebSocket ingest handler
	mux.HandleFunc("/stream", ingest.HandleStream)

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness checks the summarization backend and the transcription key.
	llmCheck := func(ctx context.Context) (bool, error) {
		ok, detail := llmClient.Available(ctx)
		if !ok {
			return false, fmt.Errorf("%s", detail)
		}
		return true, nil
	}
	deepgramCheck := func(ctx context.Context) (bool, error) {
		if cfg.DeepgramAPIKey == "" {
			return false, fmt.Errorf("DEEPGRAM_API_KEY is not set")
		}
		// No API call here to avoid costs on every probe.
		return true, nil
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		llmClient.Name(): llmCheck,
		"deepgram":       deepgramCheck,
	}))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts. The write timeout is generous because
	// a stop event holds the connection through transcription and
	// summarization.
	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/stream", cfg.Port)).
			Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
