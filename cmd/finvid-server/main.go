// finvid-server exposes the batch run over HTTP for hosts without cron: an
// external scheduler pings /run inside the morning window and the pipeline
// runs in the background. The run lock still provides mutual exclusion
// against a concurrent cli run.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/finanzashoy/finvid/internal/api"
	"github.com/finanzashoy/finvid/internal/config"
	"github.com/finanzashoy/finvid/internal/pipeline"
)

func main() {
	log.Println("Starting finvid trigger server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	p := pipeline.New(
		pipeline.NewRunLock(cfg.LockPath()),
		cfg.LogDir(),
		cfg.StatePath(),
		time.Duration(cfg.UploadRetryCooldown)*time.Second,
		pipeline.DefaultStages(cfg),
	)

	// One background run at a time within this process. The flock covers
	// cross-process contention; this guard just avoids piling up goroutines
	// that would immediately skip on the held lock.
	var mu sync.Mutex
	running := false
	trigger := func(startedBy string) bool {
		mu.Lock()
		defer mu.Unlock()
		if running {
			return false
		}
		running = true
		go func() {
			defer func() {
				mu.Lock()
				running = false
				mu.Unlock()
			}()
			// Rotation runs at the start of every invocation, like the
			// cron binary does before its run.
			pipeline.CleanupOldLogs(cfg.LogDir(), cfg.LogRetentionDays)
			if err := p.Run(context.Background(), startedBy); err != nil {
				log.Printf("Run failed: %v", err)
			}
		}()
		return true
	}

	handler := api.NewHandler(api.HandlerConfig{
		Timezone:         cfg.Timezone,
		RunHour:          cfg.RunHour,
		RunWindowMinutes: cfg.RunWindowMinutes,
		AllowForce:       cfg.AllowForce,
		StatePath:        cfg.StatePath(),
	}, trigger, p.Status)

	router := api.NewRouter(handler, api.RouterConfig{
		RunToken:           cfg.RunToken,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.RunToken != "" {
		log.Println("Run token authentication enabled")
	} else {
		log.Println("WARNING: No RUN_TOKEN set — /run is unprotected (dev mode)")
	}

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Trigger server listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
