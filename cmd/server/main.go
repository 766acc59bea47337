package main

import (
	"database/sql"
	"fmt"
	"log"
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
	config "github.com/maheshrc27/postloop/configs"
	"github.com/maheshrc27/postloop/internal/api/handlers"
	"github.com/maheshrc27/postloop/internal/api/middleware"
	job "github.com/maheshrc27/postloop/internal/jobs"
	"github.com/maheshrc27/postloop/internal/notify"
	"github.com/maheshrc27/postloop/internal/queue"
	"github.com/maheshrc27/postloop/internal/repository"
	"github.com/maheshrc27/postloop/internal/scheduler"
	"github.com/maheshrc27/postloop/internal/selector"
	"github.com/maheshrc27/postloop/internal/service"
	"github.com/maheshrc27/postloop/internal/state"
	"github.com/maheshrc27/postloop/internal/status"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", cfg.Timezone, err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
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

	accountRepo := repository.NewAccountRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	mirror := state.NewR2Mirror(*cfg)
	pusher := queue.NewPusher(client)
	store := state.NewStore(cfg.StateDir, mirror, pusher)
	tracker := status.NewTracker(cfg.StateDir)

	telegram := notify.NewTelegram(cfg.Telegram)
	sel := selector.NewSelector(store, selector.NewHTTPProber())
	igService := service.NewInstagramService(*cfg)
	publishService := service.NewPublishService(igService, sel, tracker, telegram, cfg.FirstComment)

	sched := scheduler.New(accountRepo, settingsRepo, publishService, loc)
	tokenWatchJob := job.NewTokenWatchJob(*cfg, accountRepo, telegram)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg)
	app.Post("/login", auth.Login)
	app.Post("/logout", auth.Logout)

	app.Get("/keep-alive", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "alive"})
	})

	api := app.Group("/")
	api.Use(authMiddleware.AuthMiddleware())

	publish := handlers.NewPublishHandler(accountRepo, publishService, tracker)
	api.Post("/run/:idx", publish.RunNow)
	api.Post("/publish/:idx", publish.Publish)
	api.Get("/status", publish.AllStatus)
	api.Get("/status/:idx", publish.Status)

	preview := handlers.NewPreviewHandler(accountRepo, sel)
	api.Get("/preview/:idx", preview.Preview)

	schedule := handlers.NewScheduleHandler(sched, settingsRepo)
	api.Get("/trigger-schedule", schedule.TriggerSchedule)
	api.Get("/schedule/settings", schedule.GetSettings)
	api.Post("/schedule/settings", schedule.SaveSettings)

	account := handlers.NewAccountHandler(accountRepo, tracker)
	api.Get("/accounts", account.List)
	api.Post("/accounts", account.Create)
	api.Post("/accounts/:id", account.Update)

	notification := handlers.NewNotificationHandler(telegram)
	api.Get("/notifications/status", notification.Status)
	api.Post("/notifications/test", notification.Test)

	c := cron.New()
	c.AddFunc("@every 00h00m30s", func() { sched.Tick() })
	c.AddFunc("@every 06h00m00s", tokenWatchJob.CheckTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		worker := queue.NewWorker(store, mirror)
		mux.HandleFunc(queue.TaskTypeStateSync, worker.HandleStateSyncTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
