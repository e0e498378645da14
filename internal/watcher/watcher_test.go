package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestRelevantEvent(t *testing.T) {
	cases := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"create", fsnotify.Event{Name: "/x/batch", Op: fsnotify.Create}, true},
		{"write", fsnotify.Event{Name: "/x/doc.pdf", Op: fsnotify.Write}, true},
		{"remove", fsnotify.Event{Name: "/x/doc.pdf", Op: fsnotify.Remove}, false},
		{"chmod only", fsnotify.Event{Name: "/x/doc.pdf", Op: fsnotify.Chmod}, false},
		{"temp file", fsnotify.Event{Name: "/x/doc.tmp", Op: fsnotify.Create}, false},
		{"partial download", fsnotify.Event{Name: "/x/doc.part", Op: fsnotify.Write}, false},
		{"editor backup", fsnotify.Event{Name: "/x/doc~", Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := relevantEvent(tc.event); got != tc.want {
				t.Errorf("relevantEvent(%v) = %v, want %v", tc.event, got, tc.want)
			}
		})
	}
}

func TestWatcherPeriodicTick(t *testing.T) {
	var calls atomic.Int32
	w := New(t.TempDir(), 30*time.Millisecond, func(context.Context) {
		calls.Add(1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := w.Run(ctx); err != context.DeadlineExceeded {
		t.Fatalf("unexpected run error: %v", err)
	}
	if calls.Load() == 0 {
		t.Fatal("callback never fired on the periodic ticker")
	}
}

func TestWatcherRunsOnFilesystemEvent(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w := New(dir, time.Hour, func(context.Context) {
		calls.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("callback never fired after a filesystem event")
		case <-time.After(20 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
