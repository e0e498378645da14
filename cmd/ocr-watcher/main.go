package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cargodocs/internal/config"
	"cargodocs/internal/erp"
	"cargodocs/internal/logging"
	"cargodocs/internal/notify"
	"cargodocs/internal/pipeline"
	"cargodocs/internal/storage"
	"cargodocs/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if err := os.MkdirAll(cfg.StagingDir, 0o755); err != nil {
		must(err)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	log := logging.Component("ocr-watcher")
	engine := pipeline.NewEngine(cfg, erp.NewClient(cfg, &http.Client{}), notify.LogMailer{}, db)

	w := watcher.New(cfg.StagingDir, time.Duration(cfg.WatchIntervalSec)*time.Second, func(ctx context.Context) {
		if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("обработка")
		}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		must(err)
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
