package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	Store struct {
		Backend string // "postgres" or "memory"
	}
	Kafka struct {
		Broker string
		Topic  string
	}
	API struct {
		Port     string
		BasePath string
	}
	Logging struct {
		Dir   string
		Level string
	}
	Dispatch struct {
		QueueSize  int
		MaxWorkers int
	}
	Uploads struct {
		Dir string
	}
	Reconcile struct {
		IntervalSeconds int
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.DB.DSN = os.Getenv("DB_DSN")
	cfg.Store.Backend = os.Getenv("STORE_BACKEND")

	// Kafka settings (optional; empty broker disables publishing)
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = os.Getenv("KAFKA_TOPIC")

	// API settings
	cfg.API.Port = os.Getenv("API_PORT")
	cfg.API.BasePath = os.Getenv("API_BASE_PATH")

	// Logging settings
	cfg.Logging.Dir = os.Getenv("LOG_DIR")
	cfg.Logging.Level = os.Getenv("LOG_LEVEL")

	// Dispatch worker settings
	if qs, err := strconv.Atoi(os.Getenv("QUEUE_SIZE")); err == nil {
		cfg.Dispatch.QueueSize = qs
	}
	if mw, err := strconv.Atoi(os.Getenv("MAX_WORKERS")); err == nil {
		cfg.Dispatch.MaxWorkers = mw
	}

	cfg.Uploads.Dir = os.Getenv("UPLOAD_DIR")

	if ri, err := strconv.Atoi(os.Getenv("RECONCILE_INTERVAL_SECONDS")); err == nil {
		cfg.Reconcile.IntervalSeconds = ri
	}

	// Apply defaults
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "postgres"
	}
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if cfg.API.BasePath == "" {
		cfg.API.BasePath = "/api/v0"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Dispatch.QueueSize == 0 {
		cfg.Dispatch.QueueSize = 500
	}
	if cfg.Dispatch.MaxWorkers == 0 {
		cfg.Dispatch.MaxWorkers = 10
	}
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = "uploads"
	}
	if cfg.Reconcile.IntervalSeconds == 0 {
		cfg.Reconcile.IntervalSeconds = 300
	}
	if cfg.Kafka.Broker != "" && cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "responder_assignment"
	}

	// Validate required settings
	switch cfg.Store.Backend {
	case "postgres":
		if cfg.DB.DSN == "" {
			return Config{}, fmt.Errorf("missing required configurations: [DB_DSN]")
		}
	case "memory":
		// no DSN needed
	default:
		return Config{}, fmt.Errorf("invalid STORE_BACKEND %q (want postgres or memory)", cfg.Store.Backend)
	}

	return cfg, nil
}
