package main

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/scopekit/acquire/internal/cliconfig"
)

// watchDebounce coalesces editor write bursts (truncate, write, rename)
// into one rerun.
const watchDebounce = 200 * time.Millisecond

// watchAndRun runs the spec, then reruns it whenever the spec file changes.
// A change during an active run cancels that run first. Failed runs do not
// exit watch mode; the next edit gets a fresh attempt.
func watchAndRun(ctx context.Context, cfg cliconfig.Config, log zerolog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: most editors replace the file by
	// rename, which drops a watch on the file itself.
	specName := filepath.Base(cfg.SpecPath)
	if err := watcher.Add(filepath.Dir(cfg.SpecPath)); err != nil {
		return err
	}

	reload := make(chan struct{}, 1)
	var mu sync.Mutex
	var debounce *time.Timer
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if debounce != nil {
			debounce.Stop()
		}
		debounce = time.AfterFunc(watchDebounce, func() {
			select {
			case reload <- struct{}{}:
			default:
			}
		})
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != specName {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				trigger()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("spec watcher error")
			}
		}
	}()

	for {
		runCtx, cancelRun := context.WithCancel(ctx)
		errCh := make(chan error, 1)
		go func() {
			errCh <- runOnce(runCtx, cfg, log)
		}()

		select {
		case <-ctx.Done():
			cancelRun()
			<-errCh
			return nil
		case <-reload:
			log.Info().Str("spec", cfg.SpecPath).Msg("spec changed, restarting run")
			cancelRun()
			<-errCh
			continue
		case err := <-errCh:
			cancelRun()
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("run failed, waiting for spec changes")
			}
		}

		// Idle until the next edit.
		select {
		case <-ctx.Done():
			return nil
		case <-reload:
			log.Info().Str("spec", cfg.SpecPath).Msg("spec changed, starting run")
		}
	}
}
