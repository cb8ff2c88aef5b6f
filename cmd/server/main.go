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
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"archieos.app/intake/common/id"
	"archieos.app/intake/common/llm"
	"archieos.app/intake/common/logger"
	"archieos.app/intake/common/otel"
	"archieos.app/intake/core/config"
	"archieos.app/intake/core/db"
	"archieos.app/intake/internal/classifier"
	"archieos.app/intake/internal/debounce"
	"archieos.app/intake/internal/http/middleware"
	httprouter "archieos.app/intake/internal/http/router"
	"archieos.app/intake/internal/intake"
	"archieos.app/intake/internal/queue"
	"archieos.app/intake/internal/service"
	"archieos.app/intake/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		// slog is not configured until OTel is up
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "intake server starting",
		"env", cfg.Env,
		"service", cfg.ServiceName,
		"debounce_window", cfg.Debounce.Window,
		"classifier_enabled", cfg.Classifier.Enabled,
		"slack_verify_bypassed", cfg.Slack.BypassVerify)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	location, err := time.LoadLocation(cfg.Classifier.Timezone)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load classifier timezone", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	var wakeProducer queue.Producer = queue.NoopProducer{}
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
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)
		wakeProducer = queue.NewRedisProducer(redisClient, cfg.Pipeline.RedisStream, slog.Default())
	} else {
		slog.InfoContext(ctx, "redis disabled, intake wake-ups will not be published")
	}
	defer wakeProducer.Close()

	var llmClient llm.Client
	if cfg.Classifier.Enabled {
		llmClient, err = llm.New(llm.Config{
			Provider: cfg.LLM.Provider,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
			Model:    cfg.LLM.Model,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create llm client", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "llm client ready", "provider", llmClient.Provider(), "model", llmClient.Model())
	}

	stores := store.NewStores(database.Queries())
	services := service.NewServices(stores, service.NewTxRunner(database), cfg.Slack, slog.Default())

	cls := classifier.New(llmClient, stores.IntakeQueue(), wakeProducer, classifier.Config{
		Enabled:       cfg.Classifier.Enabled,
		ConfidenceMin: cfg.Classifier.ConfidenceMin,
		Location:      location,
		Timeout:       cfg.Classifier.Timeout,
		RatePerMinute: cfg.Classifier.RatePerMinute,
		MaxTokens:     cfg.LLM.MaxTokens,
	}, slog.Default())

	buffer := debounce.New(debounce.Config{Window: cfg.Debounce.Window}, cls, slog.Default())

	processor := intake.NewProcessor(intake.Deps{
		Queue:           stores.IntakeQueue(),
		Events:          stores.IntakeEvents(),
		Classifications: stores.Classifications(),
		Users:           services.Users(),
		Tx:              services.TxRunner(),
	}, intake.Config{
		ClaimantID: "server-" + cfg.Pipeline.RedisConsumer,
		Lease:      cfg.Intake.ClaimLease,
		Location:   location,
	}, slog.Default())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, httprouter.Dependencies{
		Services:  services,
		Buffer:    buffer,
		Processor: processor,
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	// Buffered conversations are flushed now rather than lost; each flush
	// may wait on the model, so this gets a longer budget than the server.
	drainCtx, drainCancel := context.WithTimeout(ctx, 2*time.Minute)
	defer drainCancel()
	slog.InfoContext(drainCtx, "draining debounce buffer", "pending", buffer.Pending())
	if err := buffer.Shutdown(drainCtx); err != nil {
		slog.ErrorContext(drainCtx, "debounce drain incomplete", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "shutdown complete")
}

func setupRouter(cfg config.Config, deps httprouter.Dependencies) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, deps, httprouter.RouterConfig{
		ServiceName:        cfg.ServiceName,
		AdminAPIKey:        cfg.AdminAPIKey,
		DefaultMaxMessages: cfg.Intake.BatchSize,
	})

	return router
}

const banner = `
 ___ _  _ _____ _   _  _____    ___ ___ _____   _____ ___ 
|_ _| \| |_   _/_\ | |/ / __|  / __| __| _ \ \ / / __| _ \
 | || .' | | |/ _ \| ' <| _|   \__ \ _||   /\ V /| _||   /
|___|_|\_| |_/_/ \_\_|\_\___|  |___/___|_|_\ \_/ |___|_|_\
`
