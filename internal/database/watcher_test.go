package database

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_DetectsDocumentChange(t *testing.T) {
	dir := t.TempDir()

	indexFile := filepath.Join(dir, "index.yaml")
	if err := os.WriteFile(indexFile, []byte("schema:\n  version: 1\n"), 0644); err != nil {
		t.Fatalf("failed to create index file: %v", err)
	}

	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(indexFile, []byte("schema:\n  version: 2\n"), 0644); err != nil {
		t.Fatalf("failed to update index file: %v", err)
	}

	select {
	case change := <-w.Changes:
		if change.File != indexFile {
			t.Errorf("expected change for %q, got %q", indexFile, change.File)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestWatcher_StopReturnsWithUnconsumedChanges(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Queue far more changes than the Changes buffer holds, with no
	// consumer reading them.
	for i := 0; i < 40; i++ {
		name := filepath.Join(dir, fmt.Sprintf("suite-%d.yaml", i))
		if err := os.WriteFile(name, []byte("description: x\n"), 0644); err != nil {
			t.Fatalf("failed to create file: %v", err)
		}
	}
	time.Sleep(300 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return with unconsumed changes queued")
	}
}

func TestWatcher_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	select {
	case change := <-w.Changes:
		t.Errorf("unexpected change event: %+v", change)
	case <-time.After(300 * time.Millisecond):
		// Expected: nothing for files outside the database document set.
	}
}
