package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/autoposter/configs"
	"github.com/maheshrc27/autoposter/internal/api/handlers"
	"github.com/maheshrc27/autoposter/internal/api/middleware"
	job "github.com/maheshrc27/autoposter/internal/jobs"
	"github.com/maheshrc27/autoposter/internal/queue"
	"github.com/maheshrc27/autoposter/internal/repository"
	"github.com/maheshrc27/autoposter/internal/scheduler"
	"github.com/maheshrc27/autoposter/internal/service"
	"github.com/maheshrc27/autoposter/pkg/article"
	"github.com/maheshrc27/autoposter/pkg/images"
	"github.com/maheshrc27/autoposter/pkg/llm"
	"github.com/maheshrc27/autoposter/pkg/search"
	"github.com/maheshrc27/autoposter/pkg/telegram"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})

	scenarioRepo := repository.NewScenarioRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	publishedRepo := repository.NewPublishedPostRepository(db)
	moderationRepo := repository.NewModerationRepository(db)
	triggerRepo := repository.NewTriggerRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	promoRepo := repository.NewPromoRepository(db)

	searcher, imageFinder, err := newSearchProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create search client: %v", err)
	}

	generator := llm.NewGenerator(newLLMClient(cfg), llm.Options{
		Timeout:        cfg.LLM.Timeout,
		TitleMaxLength: cfg.Pipeline.TitleMaxLength,
		BodyMaxLength:  cfg.Pipeline.BodyMaxLength,
	})

	fetcher := article.NewFetcher(article.Options{
		Timeout:     cfg.Fetch.Timeout,
		MaxAttempts: cfg.Fetch.MaxAttempts,
		BaseDelay:   cfg.Fetch.BaseDelay,
		MaxDelay:    cfg.Fetch.MaxDelay,
		MaxChars:    cfg.Fetch.MaxChars,
	})

	var mirror images.Mirror
	if cfg.Pipeline.MirrorImages {
		s3Client, err := service.NewR2Client(ctx, cfg.R2)
		if err != nil {
			log.Fatalf("Failed to create R2 client: %v", err)
		}
		mirror = service.NewR2Service(cfg.R2, s3Client, cfg.Search.ImageTimeout)
	}
	imageResolver := images.NewResolver(imageFinder, mirror, cfg.Search.ImageTimeout)

	bot, err := telegram.NewBot(telegram.Options{
		AppID:     cfg.Telegram.AppID,
		AppHash:   cfg.Telegram.AppHash,
		BotToken:  cfg.Telegram.BotToken,
		SecretKey: []byte(cfg.SecretKey),
	}, sessionRepo)
	if err != nil {
		log.Fatalf("Failed to create telegram bot: %v", err)
	}

	botCtx, stopBot := context.WithCancel(ctx)
	botDone := make(chan struct{})
	ready := make(chan struct{})
	go func() {
		defer close(botDone)
		if err := bot.Run(botCtx, ready); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Telegram bot stopped: %v", err)
		}
	}()

	select {
	case <-ready:
	case <-time.After(time.Minute):
		log.Fatalf("Telegram bot did not connect in time")
	}

	quotaService := service.NewQuotaService(subscriptionRepo, promoRepo, cfg.Pipeline.InitialGenerations)
	dedupService := service.NewDedupService(publishedRepo)
	moderationService := service.NewModerationService(moderationRepo, dedupService, bot)

	dispatcher := queue.NewAsynqDispatcher(client, cfg.Pipeline.JobTimeout)
	sched := scheduler.New(triggerRepo, scenarioRepo, dispatcher, scheduler.Options{
		MinRunInterval:  cfg.Pipeline.MinRunInterval,
		DefaultTimezone: cfg.Pipeline.DefaultTimezone,
		DispatchTimeout: 10 * time.Second,
	})
	channelService := service.NewChannelService(channelRepo, bot, generator, cfg.Pipeline.DefaultLanguage)
	scenarioService := service.NewScenarioService(scenarioRepo, channelRepo, sched, dispatcher, cfg.Pipeline.DefaultTimezone)

	scenarioJob := job.NewScenarioJob(job.ScenarioJobDeps{
		Scenarios:  scenarioRepo,
		Channels:   channelRepo,
		Quota:      quotaService,
		Dedup:      dedupService,
		Moderation: moderationService,
		Searcher:   searcher,
		Writer:     generator,
		Fetcher:    fetcher,
		Images:     imageResolver,
		Delivery:   bot,
		Locker:     job.NewRedisRunLocker(rdb),
	}, job.ScenarioJobOptions{
		DefaultLanguage: cfg.Pipeline.DefaultLanguage,
		Recency:         cfg.Search.Recency,
		ResultsPerRun:   cfg.Search.ResultsPerRun,
		VideoDomains:    cfg.Search.VideoDomains,
		LockTTL:         cfg.Pipeline.LockTTL,
		DeliveryTimeout: cfg.Pipeline.DeliveryTimeout,
	})

	moderation := handlers.NewModerationHandler(moderationService)
	bot.OnModeration(moderation.HandleCallback)

	// cron jobs
	cleanupJob := job.NewModerationCleanupJob(moderationService, cfg.Pipeline.ModerationTTL)
	if err := sched.Every("@every 1h", cleanupJob.PurgeExpired); err != nil {
		log.Fatalf("Failed to register cleanup job: %v", err)
	}
	if err := sched.Restore(ctx); err != nil {
		log.Fatalf("Failed to restore scenario triggers: %v", err)
	}
	sched.Start()

	// queue
	queueW := queue.NewQueue(scenarioJob)
	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency:     cfg.Concurrency,
		Queues:          map[string]int{queue.ScenarioQueueName: 1},
		ShutdownTimeout: cfg.Pipeline.JobTimeout,
	})
	log.Println("Starting the Asynq server...")
	if err := server.Start(queueW.Mux()); err != nil {
		log.Fatalf("Could not start Asynq server: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	health := handlers.NewHealthHandler(db)
	app.Get("/health", health.Health)

	credits := handlers.NewCreditsHandler(quotaService)
	auth := handlers.NewAuthHandler(service.NewAuthService(cfg.SecretKey, cfg.TokenTTL, quotaService))
	admin := app.Group("/admin", authMiddleware.AdminMiddleware())
	admin.Post("/users/:id/credits", credits.TopUp)
	admin.Post("/users/:id/token", auth.IssueToken)

	promos := handlers.NewPromoHandler(service.NewPromoService(promoRepo))
	admin.Post("/promo-codes", promos.CreatePromo)
	admin.Get("/promo-codes", promos.ListPromos)
	admin.Put("/promo-codes/:code", promos.SetPromoStatus)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	scenarios := handlers.NewScenarioHandler(scenarioService)
	api.Post("/scenarios", scenarios.CreateScenario)
	api.Get("/scenarios/:id", scenarios.GetScenario)
	api.Put("/scenarios/:id", scenarios.UpdateScenario)
	api.Delete("/scenarios/:id", scenarios.DeleteScenario)
	api.Post("/scenarios/:id/run", scenarios.RunScenario)
	api.Post("/scenarios/:id/pause", scenarios.PauseScenario)
	api.Post("/scenarios/:id/resume", scenarios.ResumeScenario)
	api.Put("/scenarios/:id/times", scenarios.UpdateRunTimes)
	api.Get("/channels/:id/scenarios", scenarios.ListChannelScenarios)

	channels := handlers.NewChannelHandler(channelService)
	api.Get("/channels/:id", channels.GetProfile)
	api.Put("/channels/:id", channels.SaveProfile)

	api.Post("/moderation/:id/approve", moderation.Approve)
	api.Post("/moderation/:id/discard", moderation.Discard)

	api.Get("/credits", credits.Balance)
	api.Post("/credits/redeem", credits.Redeem)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://localhost:%s", cfg.Port)

	gracefulShutdown(func() {
		if err := app.Shutdown(); err != nil {
			log.Printf("Failed to shut down server: %v", err)
		}

		<-sched.Stop().Done()
		server.Shutdown()

		stopBot()
		<-botDone

		client.Close()
		rdb.Close()
		closeDB(db)
	})
}

func newSearchProvider(ctx context.Context, cfg *config.Config) (search.Searcher, search.ImageFinder, error) {
	switch cfg.Search.Provider {
	case "google":
		c, err := search.NewGoogleClient(ctx, cfg.Search.GoogleKey, cfg.Search.GoogleCX)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	default:
		c := search.NewSerperClient(cfg.Search.SerperKey, cfg.Search.Timeout)
		return c, c, nil
	}
}

func newLLMClient(cfg *config.Config) llm.Client {
	if cfg.LLM.Provider == "anthropic" {
		return llm.NewAnthropicClient(cfg.LLM.AnthropicKey)
	}
	return llm.NewOpenAIClient(cfg.LLM.OpenAIKey)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

// gracefulShutdown blocks until SIGINT/SIGTERM and then runs stop, which
// tears components down in reverse start order.
func gracefulShutdown(stop func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	stop()
	log.Println("Server shutdown complete.")
}
