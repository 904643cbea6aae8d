package main

import (
	"log"

	"github.com/hibiken/asynq"

	"postpilot/internal/config"
	"postpilot/internal/logger"
	"postpilot/internal/platform"
	"postpilot/internal/queue"
	"postpilot/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Connect to Redis (the durable store)
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	kv := store.NewRedisKV(rdb, cfg.StoreNamespace)
	connections := store.NewConnectionStore(kv)
	schedule := store.NewScheduleStore(kv)
	history := store.NewHistoryStore(kv)
	gateway := platform.NewFacebookClient(cfg.GraphAPIURL)

	processor := queue.NewTaskProcessor(schedule, connections, history, gateway)

	// Redis options for Asynq
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 5,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskPublishScheduled, processor.HandlePublishScheduled)

	log.Println("Worker starting...")
	if err := server.Run(mux); err != nil {
		log.Fatal("Worker failed:", err)
	}
}
