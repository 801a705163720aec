package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watch watches path for writes and pushes freshly reloaded, validated
// Config values down the returned channel. The channel is closed when
// stop is closed or the watcher's event channel closes; if the watcher
// cannot be started, Watch returns an error and no channel. Malformed
// reloads are skipped (the last good Config keeps being used by the
// caller) rather than sent, so a `listen`-mode receiver never adopts a
// half-written config file.
func Watch(path string, stop <-chan struct{}) (<-chan Config, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: new watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}

	out := make(chan Config)
	go func() {
		defer watcher.Close()
		defer close(out)
		for {
			select {
			case <-stop:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					continue
				}
				select {
				case out <- cfg:
				case <-stop:
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}
