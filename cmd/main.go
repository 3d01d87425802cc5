package main

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"sos-dispatch/internal/alerts"
	"sos-dispatch/internal/api"
	"sos-dispatch/internal/config"
	"sos-dispatch/internal/db"
	"sos-dispatch/internal/logging"
	"sos-dispatch/internal/models"
	"sos-dispatch/internal/notify"
	"sos-dispatch/internal/store"
	"sos-dispatch/internal/store/memstore"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// Build the partition stores in lifecycle order
	var (
		pending, accepted, completed, canceled store.Partition
		directory                              store.ResponderDirectory
	)
	switch cfg.Store.Backend {
	case "postgres":
		dbConn, err := db.New(cfg.DB.DSN)
		if err != nil {
			logger.Errorf("Failed to connect to database: %v", err)
			log.Fatalf("Database connection failed: %v", err)
		}
		defer dbConn.Close()
		if err := dbConn.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Schema bootstrap failed: %v", err)
		}
		targets := map[models.Stage]*store.Partition{
			models.StagePending:   &pending,
			models.StageAccepted:  &accepted,
			models.StageCompleted: &completed,
			models.StageCanceled:  &canceled,
		}
		for _, stage := range models.Stages {
			p, err := db.NewAlertPartition(dbConn, stage)
			if err != nil {
				log.Fatalf("Partition wiring failed: %v", err)
			}
			*targets[stage] = p
		}
		directory = db.NewResponderDirectory(dbConn)
	case "memory":
		logger.Warnf("Using in-memory stores, data is not persisted")
		pending = memstore.NewPartition(models.StagePending)
		accepted = memstore.NewPartition(models.StageAccepted)
		completed = memstore.NewPartition(models.StageCompleted)
		canceled = memstore.NewPartition(models.StageCanceled)
		directory = memstore.NewDirectory()
	}

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		log.Fatalf("Failed to create upload dir: %v", err)
	}

	// Initialize the assignment-event dispatcher
	var publisher notify.Publisher
	if cfg.Kafka.Broker != "" {
		publisher = notify.NewKafkaPublisher(cfg.Kafka.Broker, cfg.Kafka.Topic)
		logger.Infof("Kafka publisher initialized with topic: %s", cfg.Kafka.Topic)
	} else {
		logger.Warnf("No Kafka broker configured, assignment events will be logged only")
	}
	dispatcher := notify.NewDispatcher(publisher, logger, cfg.Dispatch.QueueSize, cfg.Dispatch.MaxWorkers)
	var wg sync.WaitGroup
	dispatcher.Start(&wg)
	defer dispatcher.Stop()

	// Initialize the dispatch engine
	svc := alerts.New(pending, accepted, completed, canceled, directory, dispatcher, logger)

	// Background reconciliation of transient cross-partition duplicates
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Reconcile.IntervalSeconds) * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := svc.Reconcile(context.Background()); err != nil {
				logger.Errorf("Reconciliation pass failed: %v", err)
			} else if n > 0 {
				logger.Infof("Reconciliation resolved %d duplicate records", n)
			}
		}
	}()

	// Start API server
	handler := api.NewHandler(svc, dispatcher.Hub(), logger, cfg.Uploads.Dir)
	router := api.NewRouter(handler, cfg)
	logger.Infof("Starting API server on %s", cfg.API.Port)
	if err := router.Run(cfg.API.Port); err != nil {
		logger.Errorf("API server failed: %v", err)
	}
}
