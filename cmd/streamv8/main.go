package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/streamv8/streamv8/internal/api"
	"github.com/streamv8/streamv8/internal/config"
	"github.com/streamv8/streamv8/internal/store"
	"github.com/streamv8/streamv8/internal/version"
	"github.com/streamv8/streamv8/internal/watcher"
)

func main() {
	ver := version.Load()
	log.Printf("StreamV8 %s starting...", ver.Version)

	cfg := config.Load()
	if cfg.Production() && cfg.SessionSecret == "streamv8-insecure-development-secret" {
		log.Fatal("SESSION_SECRET must be set in production")
	}

	st := store.New(cfg)
	srv := api.NewServer(cfg, st)

	catalogWatcher, err := watcher.New(cfg)
	if err != nil {
		log.Printf("warning: catalog watcher unavailable: %v", err)
	} else {
		catalogWatcher.Start()
		defer catalogWatcher.Stop()
	}

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d (data root %s)", cfg.Port, cfg.DataRoot)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
