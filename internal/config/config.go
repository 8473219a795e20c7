// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the discovery service.
type Config struct {
	Port               string
	MongoURI           string
	MongoDatabase      string
	RedisURL           string // optional — exclusion-set caching is disabled when empty
	SweepIntervalHours int    // how often the deadline sweeper fires
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}

	dbName := os.Getenv("MONGO_DATABASE")
	if dbName == "" {
		dbName = "internsync"
	}

	interval := 6
	if s := os.Getenv("SWEEP_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SWEEP_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	port := os.Getenv("DISCOVERY_PORT")
	if port == "" {
		port = "8081"
	}

	return &Config{
		Port:               port,
		MongoURI:           mongoURI,
		MongoDatabase:      dbName,
		RedisURL:           os.Getenv("REDIS_URL"),
		SweepIntervalHours: interval,
	}, nil
}
