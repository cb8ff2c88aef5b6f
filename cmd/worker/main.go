package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"archieos.app/intake/common/id"
	"archieos.app/intake/common/logger"
	"archieos.app/intake/common/otel"
	"archieos.app/intake/core/config"
	"archieos.app/intake/core/db"
	"archieos.app/intake/internal/intake"
	"archieos.app/intake/internal/queue"
	"archieos.app/intake/internal/service"
	"archieos.app/intake/internal/store"
	"archieos.app/intake/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Setup(cfg)

	slog.InfoContext(ctx, "intake worker starting",
		"env", cfg.Env,
		"poll_schedule", cfg.Intake.PollSchedule,
		"batch_size", cfg.Intake.BatchSize,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer)

	// Use a different node ID than the server
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	location, err := time.LoadLocation(cfg.Classifier.Timezone)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load timezone", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	// Wake-ups are optional; without Redis the cron sweep alone drains the queue.
	var (
		wakes worker.WakeSource
		stale worker.StaleAcker
	)
	if cfg.Pipeline.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}

		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

		consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
			Stream:    cfg.Pipeline.RedisStream,
			Group:     cfg.Pipeline.RedisGroup,
			Consumer:  cfg.Pipeline.RedisConsumer,
			BatchSize: 10,
			Block:     5 * time.Second,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create consumer", "error", err)
			os.Exit(1)
		}
		wakes, stale = consumer, consumer
	}

	stores := store.NewStores(database.Queries())
	processor := intake.NewProcessor(intake.Deps{
		Queue:           stores.IntakeQueue(),
		Events:          stores.IntakeEvents(),
		Classifications: stores.Classifications(),
		Users:           service.NewUserResolver(stores.Realtors(), slog.Default()),
		Tx:              service.NewTxRunner(database),
	}, intake.Config{
		ClaimantID: "worker-" + cfg.Pipeline.RedisConsumer,
		Lease:      cfg.Intake.ClaimLease,
		Location:   location,
	}, slog.Default())

	w := worker.New(wakes, processor, worker.Config{BatchSize: cfg.Intake.BatchSize})
	reclaimer := worker.NewReclaimer(stores.IntakeQueue(), stale, worker.ReclaimerConfig{
		Lease:    cfg.Intake.ClaimLease,
		Interval: time.Minute,
	})

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeps := cron.New()
	if _, err := sweeps.AddFunc(cfg.Intake.PollSchedule, func() {
		if n := w.Drain(runCtx); n > 0 {
			slog.InfoContext(runCtx, "scheduled intake sweep processed items", "processed", n)
		}
	}); err != nil {
		slog.ErrorContext(ctx, "invalid INTAKE_POLL_SCHEDULE", "error", err, "schedule", cfg.Intake.PollSchedule)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if err := w.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("worker: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		reclaimer.Run(gctx)
		return nil
	})

	sweeps.Start()
	slog.InfoContext(ctx, "worker initialized and running")

	// Drain whatever accumulated while no worker was running.
	w.Drain(runCtx)

	<-runCtx.Done()
	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	reclaimer.Stop()
	w.Stop()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-done:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	select {
	case <-sweeps.Stop().Done():
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "scheduled sweep still running at shutdown")
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 ___ _  _ _____ _   _  _____  __      _____  ___ _  _____ ___ 
|_ _| \| |_   _/_\ | |/ / __| \ \    / / _ \| _ \ |/ / __| _ \
 | || .' | | |/ _ \| ' <| _|   \ \/\/ / (_) |   / ' <| _||   /
|___|_|\_| |_/_/ \_\_|\_\___|   \_/\_/ \___/|_|_\_|\_\___|_|_\
`
