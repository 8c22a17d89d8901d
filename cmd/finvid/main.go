// finvid runs one daily batch: fetch indicators, render the panel, narrate,
// compose the videos, upload. Made for cron — exits 0 when another run holds
// the lock, non-zero on any stage failure.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finanzashoy/finvid/internal/config"
	"github.com/finanzashoy/finvid/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	log.Println("Starting finvid batch run...")

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	// Prune old run logs before anything else touches the log dir.
	pipeline.CleanupOldLogs(cfg.LogDir(), cfg.LogRetentionDays)

	// SIGINT/SIGTERM cancel the context; the running stage's subprocess is
	// killed and the failure propagates out through the normal error path,
	// so the lock release still runs.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(
		pipeline.NewRunLock(cfg.LockPath()),
		cfg.LogDir(),
		cfg.StatePath(),
		time.Duration(cfg.UploadRetryCooldown)*time.Second,
		pipeline.DefaultStages(cfg),
	)

	if err := p.Run(ctx, "cli"); err != nil {
		if errors.Is(err, pipeline.ErrLockHeld) {
			log.Println("Another run is active, nothing to do")
			return 0
		}
		log.Printf("Run failed: %v", err)
		return 1
	}

	log.Println("Run finished")
	return 0
}
