package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ai-notecopilot/internal/bootstrap"
	"ai-notecopilot/internal/config"
	"ai-notecopilot/internal/server"
	"ai-notecopilot/internal/tracer"
	"ai-notecopilot/pkg/rag/cache"

	"golang.org/x/sync/errgroup"
)

const mainModule = "Main"

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Fatalf("Unable to bootstrap copilot: %v", err)
	}
	defer container.Close()

	shutdownTracer := tracer.InitTracer(container.Logger)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Drop records older than COPILOT_TTL_DAYS before serving
	if ttl, ok := cache.MaxAge(cfg.Copilot.TTLDays); ok {
		removed, err := container.CopilotService.Sweep(ctx, ttl)
		if err != nil {
			container.Logger.Warn(mainModule, "Startup sweep failed", map[string]interface{}{"error": err.Error()})
		} else {
			container.Logger.Info(mainModule, "Startup sweep finished", map[string]interface{}{
				"removed":  removed,
				"ttl_days": cfg.Copilot.TTLDays,
			})
		}
	}

	// 4. Run the hub and the server until a signal arrives
	srv := server.New(cfg, container)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		container.WebSocketHub.Run(gctx)
		return nil
	})
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		container.Logger.Error(mainModule, "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
