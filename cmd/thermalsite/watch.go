// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/maruel/go-thermal/site"
)

// stopReason is why serving stopped.
type stopReason int

const (
	stopInterrupted stopReason = iota
	// stopRebuilt means another run replaced the site being served.
	stopRebuilt
	// stopReplaced means the executable was rebuilt.
	stopReplaced
)

func (r stopReason) String() string {
	switch r {
	case stopInterrupted:
		return "interrupted"
	case stopRebuilt:
		return "site rebuilt"
	case stopReplaced:
		return "executable replaced"
	default:
		return fmt.Sprintf("stopReason(%d)", int(r))
	}
}

// siteWatcher reports when the served site or the executable changes.
type siteWatcher struct {
	root string
	db   string
	exe  string
	mod0 time.Time
	w    *fsnotify.Watcher
}

// newSiteWatcher starts watching the site at root. Changes that happen after
// it returns are reported by wait.
func newSiteWatcher(root string) (*siteWatcher, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(exe)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	s := &siteWatcher{
		root: root,
		db:   filepath.Join(root, filepath.FromSlash(site.DataDir), "db.json"),
		exe:  exe,
		mod0: fi.ModTime(),
		w:    w,
	}
	for _, p := range []string{exe, root, filepath.Dir(s.db)} {
		if err := w.Add(p); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
	}
	return s, nil
}

func (s *siteWatcher) Close() error {
	return s.w.Close()
}

// wait blocks until ctx is canceled or a change is seen.
func (s *siteWatcher) wait(ctx context.Context) (stopReason, error) {
	for {
		select {
		case <-ctx.Done():
			return stopInterrupted, nil
		case err := <-s.w.Errors:
			return stopInterrupted, err
		case ev := <-s.w.Events:
			if r, ok := s.classify(ev); ok {
				log.Printf("%s: %s", ev.Name, ev.Op)
				return r, nil
			}
		}
	}
}

// classify returns the reason matching ev, if any.
func (s *siteWatcher) classify(ev fsnotify.Event) (stopReason, bool) {
	switch ev.Name {
	case s.exe:
		if fi, err := os.Stat(s.exe); err != nil || !fi.ModTime().Equal(s.mod0) {
			return stopReplaced, true
		}
	case s.root:
		if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			return stopRebuilt, true
		}
	case s.db:
		if ev.Op&^fsnotify.Chmod != 0 {
			return stopRebuilt, true
		}
	}
	return 0, false
}
