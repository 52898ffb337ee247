package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"kanboard/internal/handlers"
	"kanboard/internal/store"
)

func main() {
	// Configuration
	port := getEnv("PORT", "8081")
	dbPath := getEnv("DB_PATH", "./data/kanboard.db")
	redisURL := getEnv("REDIS_URL", "")
	cacheTTL := getEnv("CACHE_TTL", "5m")

	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Initialize store
	sqlite, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer sqlite.Close()

	var s store.Store = sqlite
	if redisURL != "" {
		rc, ttl, err := connectRedis(redisURL, cacheTTL)
		if err != nil {
			log.Fatalf("Failed to initialize cache: %v", err)
		}
		defer rc.Close()
		s = store.NewCache(sqlite, rc, ttl)
		log.WithField("ttl", ttl).Info("redis listing cache enabled")
	}

	// Initialize handlers
	h := handlers.New(s, log.StandardLogger())

	// Start server
	addr := fmt.Sprintf(":%s", port)
	log.Infof("Starting server on http://localhost%s", addr)
	if err := http.ListenAndServe(addr, h.Routes()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func connectRedis(url, ttlValue string) (*redis.Client, time.Duration, error) {
	ttl, err := time.ParseDuration(ttlValue)
	if err != nil || ttl < 0 {
		return nil, 0, fmt.Errorf("invalid CACHE_TTL %q", ttlValue)
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	rc := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		rc.Close()
		return nil, 0, fmt.Errorf("failed to reach redis: %w", err)
	}

	return rc, ttl, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
