package main

import (
	"context"

	log "github.com/sirupsen/logrus"

	"lockscreen-todo/config"
	"lockscreen-todo/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.WithField("backend", cfg.Store.Backend).Info("storage init starting")

	store, err := storage.Open(cfg.Store, log.StandardLogger())
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	err = store.Provision(context.Background(), cfg.Store.Namespace)
	if cerr := store.Close(); cerr != nil {
		log.WithError(cerr).Debug("store close failed")
	}
	if err != nil {
		log.Fatalf("provision %s: %v", cfg.Store.Namespace, err)
	}

	log.WithField("namespace", cfg.Store.Namespace).Info("storage init complete")
}
