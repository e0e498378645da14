// Package watcher triggers the reconciliation pass when the staging
// directory changes, with a periodic sweep as a safety net.
package watcher

import (
	"context"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"cargodocs/internal/logging"
)

// eventDelay lets the upstream collaborator finish writing a folder before
// a filesystem event triggers processing.
const eventDelay = 3 * time.Second

var ignoredSuffixes = []string{".tmp", ".part", "~"}

type Watcher struct {
	dir      string
	interval time.Duration
	callback func(context.Context)
	log      *logrus.Entry
}

func New(dir string, interval time.Duration, callback func(context.Context)) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &Watcher{
		dir:      dir,
		interval: interval,
		callback: callback,
		log:      logging.Component("watcher"),
	}
}

// Run blocks until ctx is canceled. The callback runs on this goroutine, so
// overlapping passes cannot happen.
func (w *Watcher) Run(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(w.dir); err != nil {
		return err
	}
	w.log.Infof("мониторинг директории: %s", w.dir)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// A disarmed timer for debouncing filesystem events.
	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !relevantEvent(event) {
				continue
			}
			w.log.Debugf("обнаружено изменение: %s (%s)", event.Name, event.Op)
			debounce.Reset(eventDelay)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("наблюдатель")

		case <-debounce.C:
			w.runCallback(ctx)
			ticker.Reset(w.interval)

		case <-ticker.C:
			w.runCallback(ctx)
		}
	}
}

func (w *Watcher) runCallback(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Errorf("ошибка обработки: %v", r)
		}
	}()
	w.callback(ctx)
}

func relevantEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Remove != 0 {
		return false
	}
	for _, suffix := range ignoredSuffixes {
		if strings.HasSuffix(event.Name, suffix) {
			return false
		}
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}
