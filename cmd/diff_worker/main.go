package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/scriptgraph/internal/app"
	"github.com/yungbote/scriptgraph/internal/jobs"
	"github.com/yungbote/scriptgraph/internal/platform/neo4jdb"
	"github.com/yungbote/scriptgraph/internal/realtime/bus"
	"github.com/yungbote/scriptgraph/internal/textdiff"
)

func main() {
	os.Exit(run())
}

func run() int {
	var concurrency int
	flag.IntVar(&concurrency, "concurrency", 0, "consumer goroutines; overrides DIFF_WORKER_CONCURRENCY")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, "diff_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		return 1
	}
	defer application.Close(context.Background())
	log := application.Log

	store, err := neo4jdb.New(ctx, log, application.Cfg.Neo4j)
	if err != nil {
		log.Error("neo4j connect failed", "error", err)
		return 1
	}
	defer store.Close(context.Background())

	stream, err := bus.NewRedisStream(ctx, log, application.Cfg.RedisAddr)
	if err != nil {
		log.Error("redis connect failed", "redis_addr", application.Cfg.RedisAddr, "error", err)
		return 1
	}
	defer stream.Close()

	cfg := jobs.WorkerConfigFromEnv()
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	worker := jobs.NewWorker(log, stream, store, textdiff.HTMLDiffer{}, cfg)

	log.Info("diff worker started", "concurrency", cfg.Concurrency)
	if err := worker.Run(ctx); err != nil {
		log.Error("diff worker stopped", "error", err)
		return 1
	}
	log.Info("diff worker stopped")
	return 0
}
