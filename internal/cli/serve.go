package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"line-quiz-bot/internal/app"
	"line-quiz-bot/internal/config"
	"line-quiz-bot/internal/infra/memory"
	pgstore "line-quiz-bot/internal/infra/postgres"
	redissession "line-quiz-bot/internal/infra/redis"
	s3store "line-quiz-bot/internal/infra/s3"
	sheetstore "line-quiz-bot/internal/infra/sheets"
	"line-quiz-bot/internal/line"
	"line-quiz-bot/internal/logging"
	"line-quiz-bot/internal/quiz"
	transport "line-quiz-bot/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the bot server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := logging.New()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	gateway, err := line.NewClient(line.Config{
		ChannelAccessToken: cfg.Line.ChannelAccessToken,
		APIEndpoint:        cfg.Line.APIEndpoint,
		DataEndpoint:       cfg.Line.DataEndpoint,
	})
	if err != nil {
		return err
	}

	// Record store precedence: sheets (production system of record), then
	// postgres, then in-memory for local runs.
	var records app.RecordStore = memory.NewRecordStore()
	switch {
	case cfg.Sheets.SpreadsheetID != "":
		records, err = sheetstore.NewRecordStore(ctx, sheetstore.Config{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			SheetName:       cfg.Sheets.SheetName,
			CredentialsFile: cfg.Sheets.CredentialsFile,
			HeaderRows:      cfg.Sheets.HeaderRows,
		})
		if err != nil {
			return err
		}
		logger.Info("record store: google sheets", "spreadsheet", cfg.Sheets.SpreadsheetID)
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		records = pgstore.NewRecordStore(pool)
		logger.Info("record store: postgres")
	default:
		logger.Warn("record store: in-memory (completions lost on restart)")
	}

	var sessions app.SessionRepository = memory.NewSessionStore()
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		sessions = redissession.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, time.Hour))
		logger.Info("session store: redis-marked", "addr", cfg.Redis.Addr)
	}

	var blobs app.BlobStore
	if cfg.S3.Bucket != "" {
		blobs, err = s3store.NewBlobStore(ctx, s3store.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicURLBase:   cfg.S3.PublicURLBase,
		})
		if err != nil {
			return err
		}
		logger.Info("blob store: s3", "bucket", cfg.S3.Bucket)
	}

	engine := quiz.NewEngine(cfg.Quiz)
	book := app.NewBookkeeper(records)
	feed := app.NewCompletionFeed()
	dispatcher := app.NewDispatcher(engine, sessions, book, gateway, blobs, feed, logger)

	webhook := transport.NewWebhookHandler(cfg.Line.ChannelSecret, dispatcher, logger)
	feedHandler := transport.NewFeedHandler(feed, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/callback", webhook.ServeCallback)
	mux.HandleFunc("/feed", feedHandler.ServeFeed)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz bot", "port", finalPort, "questions", engine.QuestionCount())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
