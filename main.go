package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// A missing .env is normal outside development
	_ = godotenv.Load()
	InitLogger()

	addr := flag.String("addr", envOr("ARENA_ADDR", ":8080"), "HTTP listen address")
	configPath := flag.String("config", envOr("ARENA_CONFIG", ""), "Path to TOML arena config")
	dbPath := flag.String("db", envOr("ARENA_DB", ""), "Path to SQLite combat log (disabled when empty)")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	game := NewGame(cfg)

	var analytics *Analytics
	if *dbPath != "" {
		db, err := OpenDB(*dbPath)
		if err != nil {
			log.WithError(err).Fatal("open combat log")
		}
		defer db.Close()
		analytics = NewAnalytics(db)
		game.SetRecorder(analytics)
	}

	go game.Run()

	hub := NewHub(game)
	go hub.Run()

	mux := SetupRoutes(hub, analytics)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.WithFields(logrus.Fields{
			"addr": *addr,
			"cols": cfg.Cols,
			"rows": cfg.Rows,
			"bots": cfg.BotCount,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Fatal("ListenAndServe")
		}
	}()

	<-stop
	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Close()
	}
	game.Stop()
	hub.Stop()
	if analytics != nil {
		analytics.Stop()
	}
}
