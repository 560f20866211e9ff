// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package form

import (
	"context"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/rigup/internal/settings"
)

// =============================================================================
// CACHE WATCHER
// =============================================================================

// cacheWatcher notices external rewrites of the settings cache so the
// form can reload them live. It watches the parent directory rather than
// the file: saves rename a temp file into place, which would silently
// detach a watch on the file itself.
type cacheWatcher struct {
	watcher *fsnotify.Watcher
	notify  chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	base    string
}

// newCacheWatcher starts watching the cache file's directory.
func newCacheWatcher() (*cacheWatcher, error) {
	path, err := settings.CachePath()
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	cw := &cacheWatcher{
		watcher: w,
		notify:  make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		base:    filepath.Base(path),
	}

	go cw.processEvents()
	return cw, nil
}

// processEvents filters directory events down to cache rewrites. Bursts
// within the debounce window coalesce into a single notification; the
// buffered channel absorbs notifications the UI has not collected yet.
func (cw *cacheWatcher) processEvents() {
	// Panic recovery keeps a watcher bug from taking down the TUI; live
	// reload just stops.
	defer func() {
		if r := recover(); r != nil {
			_ = r
		}
	}()

	const debounce = 300 * time.Millisecond
	var last time.Time

	for {
		select {
		case <-cw.ctx.Done():
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != cw.base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if time.Since(last) < debounce {
				continue
			}
			last = time.Now()

			select {
			case cw.notify <- struct{}{}:
			default:
			}

		case _, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors degrade live reload, nothing else.
		}
	}
}

// Close stops the event goroutine and releases the inotify handle.
func (cw *cacheWatcher) Close() error {
	cw.cancel()
	return cw.watcher.Close()
}

// waitCacheChange blocks until the watcher reports a rewrite, then hands
// the UI a cacheChangedMsg. Re-armed from Update after every delivery.
func (m *Model) waitCacheChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	ch := m.watcher.notify
	done := m.watcher.ctx.Done()
	return func() tea.Msg {
		select {
		case <-done:
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			return cacheChangedMsg{}
		}
	}
}
