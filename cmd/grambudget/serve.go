package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grambudget/grambudget/internal/handlers"
	"github.com/grambudget/grambudget/internal/services"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat and news HTTP server",
	Long: `Serves POST /api/chat, streaming assistant replies as Server-Sent Events, and
GET /api/news, the dashboard headlines cached on disk.

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := newLogger(os.Stderr, cfg.logLevel())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llm, err := cfg.LLM.llm(ctx, cfg.SystemPrompt, logger)
	if err != nil {
		return err
	}

	boltDB, err := services.NewBoltDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer boltDB.Close()

	var fetcher services.NewsFetcher
	if cfg.News.APIKey != "" {
		fetcher = services.NewGNews(cfg.News.APIKey, cfg.News.Endpoint, logger)
	} else {
		logger.Warn("GNEWS_API_KEY is not set, serving fallback news")
	}
	news := services.NewNewsCache(fetcher, boltDB, cfg.News.TTL, logger)

	m, err := handlers.NewMain(llm, news, handlers.Config{ChatTimeout: cfg.ChatTimeout}, logger)
	if err != nil {
		return err
	}

	var chat http.Handler = http.HandlerFunc(m.HandleChat)
	if cfg.RateLimit.PerMinute > 0 {
		chat = handlers.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, cfg.RateLimit.TrustProxy).Limit(chat)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/chat", chat)
	mux.HandleFunc("/api/news", m.HandleNews)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           m.LogRequests(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return news.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Start shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String("err", err.Error()))
			}
		}
		return nil
	})

	return g.Wait()
}
