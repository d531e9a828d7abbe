package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jackrayallday/uniproj/internal/config"
	internalhttp "github.com/Jackrayallday/uniproj/internal/http"
	"github.com/Jackrayallday/uniproj/internal/ratelimit"
	"github.com/Jackrayallday/uniproj/internal/session"
	"github.com/Jackrayallday/uniproj/internal/store/jsonfile"
	"github.com/Jackrayallday/uniproj/internal/store/postgres"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := jsonfile.New(cfg.DataDir)
	if err != nil {
		log.Fatalf("data dir init failed: %v", err)
	}

	stores := internalhttp.Stores{
		Users:       files,
		ACL:         files,
		Courses:     files,
		Assignments: files,
		Grades:      files,
		Materials:   files,
	}

	// With DATABASE_URL set, accounts and permissions move to Postgres;
	// course records stay on the JSON files either way.
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db connection failed: %v", err)
		}
		defer pool.Close()
		pg := postgres.NewStore(pool)
		stores.Users = pg
		stores.ACL = pg
	}

	var sessionStore session.Store = session.NewMemoryStore()
	var limiter ratelimit.Limiter
	limiterCfg := ratelimit.Config{Window: cfg.LoginWindow, MaxAttempts: cfg.LoginMaxAttempts}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatalf("redis connection failed: %v", err)
		}
		cancel()
		defer client.Close()
		sessionStore = session.NewRedisStore(client, cfg.SessionTTL)
		limiter = ratelimit.NewRedisLimiter(client, limiterCfg)
	} else {
		memLimiter := ratelimit.NewMemoryLimiter(limiterCfg)
		defer memLimiter.Stop()
		limiter = memLimiter
	}

	sessions := session.NewManager(sessionStore, cfg.SessionTTL)
	server := internalhttp.NewServer(cfg, stores, sessions, limiter)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("uniproj listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
