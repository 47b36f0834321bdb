package main

import (
	"context"
	"flag"
	"os"
	"time"

	"ai-notecopilot/internal/bootstrap"
	"ai-notecopilot/internal/config"
	"ai-notecopilot/internal/pkg/logger"
	recordredis "ai-notecopilot/internal/repository/redis"
	"ai-notecopilot/pkg/rag/cache"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
)

func main() {
	clearAll := flag.Bool("clear", false, "drop every document record")
	ttlDays := flag.Int("ttl-days", -1, "drop records older than this many days, 0 drops all (default COPILOT_TTL_DAYS)")
	flag.Parse()

	cfg := config.Load()
	if *ttlDays < 0 {
		*ttlDays = cfg.Copilot.TTLDays
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		client, err := recordredis.NewClient(cfg.App.RedisURL)
		if err != nil {
			color.Red("Invalid REDIS_URL: %v", err)
			os.Exit(1)
		}
		defer client.Close()
		rdb = client
	}

	records, closeRecords, err := bootstrap.OpenRecordStore(cfg, rdb)
	if err != nil {
		color.Red("Failed to open %s record store: %v", cfg.Copilot.RecordStore, err)
		os.Exit(1)
	}
	defer closeRecords()

	// Sweeping never embeds, so no provider is needed
	documents := cache.New(records, nil, logger.NewNopLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	color.Cyan("Record store: %s", cfg.Copilot.RecordStore)

	if *clearAll {
		if err := documents.ClearAll(ctx); err != nil {
			color.Red("Clear failed: %v", err)
			os.Exit(1)
		}
		color.Green("Local vector store cleared successfully")
		return
	}

	ttl, ok := cache.MaxAge(*ttlDays)
	if !ok {
		color.Yellow("TTL sweep disabled (COPILOT_TTL_DAYS < 0), nothing to do")
		return
	}
	removed, err := documents.EvictOlderThan(ctx, ttl)
	if err != nil {
		color.Red("Sweep failed after removing %d records: %v", removed, err)
		os.Exit(1)
	}
	color.Green("Removed %d records older than %d days", removed, *ttlDays)
}
