// internsync-discovery-service
//
// Job discovery and ranking backend for the InternSync app:
//   - filtered, paginated job listing (GET /jobs)
//   - swipe-based discovery: next-card ranking, swipe recording,
//     history, liked jobs and stats (/swipe/*)
//   - periodic deadline sweep closing expired inventory
//
// Authentication, file storage, email/push delivery and admin CRUD are
// owned by sibling services; callers arrive with an x-user-id header
// forwarded by the Gateway.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"internsync/discovery-service/internal/config"
	"internsync/discovery-service/internal/db"
	"internsync/discovery-service/internal/discovery"
	"internsync/discovery-service/internal/listing"
	"internsync/discovery-service/internal/scheduler"
	"internsync/discovery-service/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	if err := godotenv.Load(); err != nil {
		log.Println("[discovery-service] No .env file — using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[discovery-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── MongoDB ──────────────────────────────────────────────────────────────
	log.Println("[discovery-service] Connecting to MongoDB…")
	mongoDB, err := db.NewMongoDatabase(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("[discovery-service] MongoDB: %v", err)
	}
	defer mongoDB.Client().Disconnect(context.Background())
	log.Println("[discovery-service] MongoDB connected ✓")

	// ── Redis (optional — exclusion-set cache) ───────────────────────────────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		log.Println("[discovery-service] Connecting to Redis…")
		rdb, err = db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("[discovery-service] Redis: %v", err)
		}
		defer rdb.Close()
		log.Println("[discovery-service] Redis connected ✓")
	} else {
		log.Println("[discovery-service] REDIS_URL not set — swipe caching disabled")
	}

	// ── Stores & services ────────────────────────────────────────────────────
	jobs := store.NewJobs(mongoDB)
	swipes := store.NewSwipes(mongoDB)
	users := store.NewUsers(mongoDB)
	cache := store.NewSwipeCache(rdb)

	// The swipe upsert depends on the unique (userId, jobId) index.
	if err := swipes.EnsureIndexes(ctx); err != nil {
		log.Fatalf("[discovery-service] Index bootstrap: %v", err)
	}

	discoverySvc := discovery.NewService(jobs, swipes, users, cache)
	listingSvc := listing.NewService(jobs, users)

	// ── Deadline sweeper ─────────────────────────────────────────────────────
	sweeper := scheduler.New(jobs, cfg.SweepIntervalHours)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatalf("[discovery-service] Scheduler: %v", err)
	}
	defer sweeper.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	discovery.NewHandler(discoverySvc).RegisterRoutes(mux)
	listing.NewHandler(listingSvc).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[discovery-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[discovery-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[discovery-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[discovery-service] Shutdown error: %v", err)
	}
	log.Println("[discovery-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "discovery-service",
		"version": version,
	})
}
