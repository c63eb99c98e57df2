// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestDedupePaths(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{"no duplicates", []string{"a", "b"}, []string{"a", "b"}},
		{"keeps first occurrence order", []string{"a", "b", "a", "c", "b"}, []string{"a", "b", "c"}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dedupePaths(tt.paths); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("dedupePaths(%v) = %v, want %v", tt.paths, got, tt.want)
			}
		})
	}
}

func TestWatcher_Relevant(t *testing.T) {
	w := &Watcher{}
	tests := []struct {
		path string
		want bool
	}{
		{"/etc/assess/scoring.yaml", true},
		{"/etc/assess/questions/autonomy.yaml", true},
		{"/etc/assess/scoring.yaml.swp", false},
		{"/etc/assess/.scoring.yaml.lock", false},
		{"/etc/assess/notes.txt", false},
	}

	for _, tt := range tests {
		if got := w.relevant(tt.path); got != tt.want {
			t.Errorf("relevant(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDefaultWatcherOptions(t *testing.T) {
	opts := DefaultWatcherOptions()
	if opts.DebounceWindow != 200*time.Millisecond {
		t.Errorf("DebounceWindow = %v, want 200ms", opts.DebounceWindow)
	}
	if opts.BufferSize != 64 {
		t.Errorf("BufferSize = %d, want 64", opts.BufferSize)
	}
}

func TestWatcher_TriggersOnYamlWrite(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, QuestionsDirName), 0o755); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var batches [][]string
	triggered := make(chan struct{}, 8)

	w, err := NewWatcher(dir, func(changed []string) {
		mu.Lock()
		batches = append(batches, changed)
		mu.Unlock()
		triggered <- struct{}{}
	}, &WatcherOptions{DebounceWindow: 50 * time.Millisecond, BufferSize: 16})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !w.IsWatching() {
		t.Error("IsWatching() = false after Start")
	}

	// An irrelevant file must not fire the handler on its own.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ScoringFileName), []byte(validScoring), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, QuestionsDirName, "autonomy.yaml"), []byte(validAutonomyQuestions), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-triggered:
	case <-time.After(5 * time.Second):
		t.Fatal("handler not called within 5s of yaml writes")
	}

	// Allow any trailing debounce windows to drain before inspecting.
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	var all []string
	for _, batch := range batches {
		all = append(all, batch...)
	}
	sawYaml := false
	for _, path := range all {
		if filepath.Ext(path) != ".yaml" {
			t.Errorf("handler received non-yaml path %q", path)
		}
		sawYaml = true
	}
	if !sawYaml {
		t.Error("handler received no yaml paths")
	}
}

func TestWatcher_DebounceBatchesBurst(t *testing.T) {
	// Drives debounceLoop directly so the batching behavior is tested
	// without filesystem event timing in the way.
	batches := make(chan []string, 8)
	w := &Watcher{
		handler:  func(changed []string) { batches <- changed },
		debounce: 150 * time.Millisecond,
		changes:  make(chan string, 16),
		done:     make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.debounceLoop(ctx)

	// A burst of edits inside the window resets the timer each time; the
	// whole burst must land in one handler call, never split by a timer
	// tick left over from an earlier reset.
	paths := []string{"scoring.yaml", "recommendations.yaml", "scoring.yaml", "questions/autonomy.yaml"}
	for _, path := range paths {
		w.changes <- path
		time.Sleep(30 * time.Millisecond)
	}

	select {
	case got := <-batches:
		want := []string{"scoring.yaml", "recommendations.yaml", "questions/autonomy.yaml"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("first batch = %v, want %v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called after burst settled")
	}

	select {
	case got := <-batches:
		t.Fatalf("burst split into a second batch %v", got)
	case <-time.After(400 * time.Millisecond):
	}

	// The loop keeps working after a flush: a second burst gets its own
	// single batch.
	w.changes <- "scoring.yaml"
	select {
	case got := <-batches:
		if !reflect.DeepEqual(got, []string{"scoring.yaml"}) {
			t.Errorf("second batch = %v, want [scoring.yaml]", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called for second burst")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	w.Stop()
	w.Stop()
	if w.IsWatching() {
		t.Error("IsWatching() = true after Stop")
	}
}
