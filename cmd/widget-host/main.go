package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"lockscreen-todo/config"
	"lockscreen-todo/storage"
	"lockscreen-todo/timeline"
)

func main() {
	preview := flag.Bool("preview", false, "print the placeholder timeline without reading the store")
	provision := flag.Bool("provision", false, "provision the shared namespace before refreshing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	// stdout carries the timeline
	log.SetOutput(os.Stderr)
	logger := log.StandardLogger()

	var tl timeline.Timeline
	if *preview {
		tl = timeline.NewProvider(nil, cfg.Store.Namespace, cfg.Store.Key, timeline.WithLogger(logger)).PlaceholderTimeline()
	} else {
		tl, err = refresh(context.Background(), cfg, logger, *provision)
		if err != nil {
			log.Fatal(err)
		}
	}

	out, err := sonic.ConfigStd.MarshalIndent(tl, "", "  ")
	if err != nil {
		log.Fatalf("encode timeline: %v", err)
	}
	fmt.Println(string(out))
}

// refresh runs one cycle against the configured store and closes it before
// returning.
func refresh(ctx context.Context, cfg config.Config, logger *log.Logger, provision bool) (timeline.Timeline, error) {
	var store storage.Store
	ps, err := storage.Open(cfg.Store, logger)
	if err != nil {
		logger.WithError(err).Warn("store unavailable, refreshing without it")
	} else {
		defer func() {
			if cerr := ps.Close(); cerr != nil {
				logger.WithError(cerr).Debug("store close failed")
			}
		}()
		if provision {
			if err := ps.Provision(ctx, cfg.Store.Namespace); err != nil {
				return timeline.Timeline{}, fmt.Errorf("provision %s: %w", cfg.Store.Namespace, err)
			}
		}
		store = ps
	}
	p := timeline.NewProvider(store, cfg.Store.Namespace, cfg.Store.Key,
		timeline.WithScheduler(timeline.FixedInterval(cfg.RefreshInterval)),
		timeline.WithLogger(logger))
	return p.Timeline(ctx), nil
}
