package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Shyamsundamarasu/hi-there-friend-93/internal/app"
	"github.com/Shyamsundamarasu/hi-there-friend-93/internal/config"
	"github.com/Shyamsundamarasu/hi-there-friend-93/internal/logger"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		logrus.Fatalf("init logger: %v", err)
	}

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatalf("init app: %v", err)
	}
	log.WithFields(logrus.Fields{
		"scorer":  cfg.Scorer,
		"sources": cfg.SourceNames(),
	}).Info("review radar configured")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go application.Service.RunJanitor(ctx, cfg.RunRetention)

	// WriteTimeout stays zero: /analyses/{id}/events holds the connection open.
	httpServer := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     withLogging(log, withCORS(application.Server.Routes())),
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Infof("review radar API listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infof("signal received: %s, shutting down", sig)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("graceful shutdown failed: %v", err)
	}
}

func withLogging(log logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		entry := log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		})
		if r.Method == http.MethodOptions {
			entry.Debug("cors preflight")
			return
		}
		entry.Info("request")
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
