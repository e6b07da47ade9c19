// Spins up the mango cache server, speaking RESP on the configured address.

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nobletooth/mango/pkg/cache"
	"github.com/nobletooth/mango/pkg/config"
	"github.com/nobletooth/mango/pkg/port"
	"github.com/nobletooth/mango/pkg/processor"
	"github.com/nobletooth/mango/pkg/utils"
)

var (
	printVersion  = flag.Bool("print_version", false, "Print the version and exit.")
	cacheCapacity = flag.Int("cache_capacity", 1024, "Maximum number of entries the cache holds.")
	cacheShards   = flag.Int("cache_shards", 1, "Number of cache shards; 1 runs a single engine.")
	logEvents     = flag.Bool("log_cache_events", false, "Log every cache lifecycle event.")
)

// newCacheLayer builds the configured cache: one engine, or a sharded group of them.
// Either way the returned event bus carries every lifecycle event.
func newCacheLayer() (cache.Layer, *cache.EventBus, error) {
	if *cacheShards > 1 {
		sharded, err := cache.NewSharded(*cacheCapacity, *cacheShards)
		if err != nil {
			return nil, nil, err
		}
		return sharded, sharded.Events(), nil
	}
	engine, err := cache.New(*cacheCapacity)
	if err != nil {
		return nil, nil, err
	}
	return engine, engine.Events(), nil
}

func main() {
	config.InitFlags()
	utils.InitLogging()

	if *printVersion {
		slog.Info("Mango build info.", "version", utils.Version, "commit", utils.Commit, "build", utils.BuildTime)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, os.Kill)

	go func() { // Listen for OS interrupts in the background.
		sig := <-signals
		slog.Info("Received termination signal, cancelling server context.", "signal", sig)
		cancel()
	}()

	cacheLayer, events, err := newCacheLayer()
	if err != nil {
		slog.Error("Failed to build the cache.", "err", err)
		os.Exit(1)
	}
	if *logEvents {
		// Keep this subscriber cheap: it runs under the engine lock.
		events.Subscribe(func(event cache.CacheEvent) {
			slog.Info("Cache event.", "id", event.ID.String(), "type", event.Type,
				"key", event.Key, "reason", event.Reason)
		})
	}

	proc, err := processor.New(cacheLayer)
	if err != nil {
		slog.Error("Failed to build the processor.", "err", err)
		os.Exit(1)
	}
	if err := port.RunServer(ctx, proc); err != nil {
		slog.Error("Mango server stopped.", "err", err)
		os.Exit(1)
	}
}
