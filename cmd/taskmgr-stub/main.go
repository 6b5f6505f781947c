// Package main runs the in-memory task API for local development.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"taskmgr/internal/apistub"
)

func main() {
	// Variables already set in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to read .env", "err", err)
		os.Exit(1)
	}

	addr := pflag.String("addr", envOr("STUB_ADDR", ":5000"), "listen address")
	secret := pflag.String("secret", os.Getenv("JWT_SECRET"), "session signing key (random when empty)")
	origins := pflag.String("origins", os.Getenv("CORS_ALLOWED_ORIGINS"), "comma-separated CORS origins (all when empty)")
	wrap := pflag.Bool("wrap", false, `answer single-task requests as {"task": ...}`)
	seed := pflag.String("seed-user", "", "create an account at startup, as name:email:password")
	debug := pflag.Bool("debug", false, "log handler diagnostics")
	pflag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var allowed []string
	if *origins != "" {
		allowed = strings.Split(*origins, ",")
	}
	srv := apistub.New(apistub.Options{
		Secret:         []byte(*secret),
		WrapTasks:      *wrap,
		AllowedOrigins: allowed,
		Logger:         logger,
	})

	if *seed != "" {
		parts := strings.SplitN(*seed, ":", 3)
		if len(parts) != 3 {
			logger.Error("invalid --seed-user, want name:email:password")
			os.Exit(1)
		}
		if err := srv.AddUser(parts[0], parts[1], parts[2]); err != nil {
			logger.Error("failed to seed user", "err", err)
			os.Exit(1)
		}
		logger.Info("seeded user", "email", parts[1])
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           handlers.LoggingHandler(os.Stdout, srv.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("task API listening", "addr", *addr, "base", apistub.BasePath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
