package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/cubesat-wildfire-twin/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cubesat-wildfire-twin/internal/adapter/kafka"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/adapter/mapbox"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/adapter/orbit"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/adapter/plot"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/config"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/observability"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/pipeline"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/status"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(clock.Now().UnixNano())
	}
	synth := domain.NewGridSynthesizer(cfg.Synthesizer, rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	position, err := orbit.NewSGP4Provider(cfg.TLEName, cfg.TLELine1, cfg.TLELine2, clock)
	if err != nil {
		logger.Error("failed to load TLE", "name", cfg.TLEName, "error", err)
		os.Exit(1)
	}

	// Reverse geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.ReverseGeocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var frames pipeline.FrameSink
	var renderer *plot.Renderer
	if cfg.PlotEnabled {
		renderer, err = plot.NewRenderer(cfg.PlotOutputDir, metrics, logger)
		if err != nil {
			logger.Error("failed to create plot renderer", "error", err)
			os.Exit(1)
		}
		renderer.Start(ctx)
		frames = renderer
		logger.Info("thermal map rendering enabled", "path", renderer.Path())
	}

	sim := pipeline.New(pipeline.OptionsFromConfig(cfg), position, synth,
		pipeline.NewEnricher(geocoder, logger), frames, clock, logger, metrics)

	board := status.NewBoard()
	sim.AddDetectionSink("status", board)
	sim.OnStep(board.RecordStep)

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sim.AddDetectionSink("kafka", writer)
		logger.Info("kafka payout events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaPayoutTopic)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, sim, board, logger)

	logger.Info("mission start",
		"platform", position.Name(),
		"budget_usd", cfg.MissionBudgetUSD,
		"steps", cfg.Steps,
		"step_interval", cfg.StepInterval,
		"seed", seed,
		"eligibility", cfg.Eligibility,
	)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	simDone := make(chan error, 1)
	go func() { simDone <- sim.Run(ctx) }()

	// The dashboard stays up after the mission ends until a signal arrives.
	select {
	case err := <-simDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("simulation error", "error", err)
		}
		logSummary(logger, board.Snapshot())
		<-ctx.Done()
	case <-ctx.Done():
		<-simDone
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if renderer != nil {
		if err := renderer.Close(); err != nil {
			logger.Error("plot renderer close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func logSummary(logger *slog.Logger, snap status.Snapshot) {
	attrs := []any{
		"steps_completed", snap.StepsCompleted,
		"fire_detected", snap.FireDetected,
		"payout_status", snap.PayoutStatus,
	}
	if snap.FireDetected {
		attrs = append(attrs,
			"latitude", snap.Latitude,
			"longitude", snap.Longitude,
			"confidence", snap.Confidence,
			"detected_at", snap.DetectedAt.Format(time.RFC3339),
		)
	}
	logger.Info("mission complete", attrs...)
}
