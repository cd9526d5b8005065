package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/communeos/bridgenet/pkg/logging"
)

// Watch reloads the config file whenever it changes and hands the result to
// onReload. Only tunable thresholds take effect at runtime; server and
// source settings need a restart. Reload failures keep the previous config.
func Watch(ctx context.Context, path string, log logging.Logger, onReload func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return err
	}

	log = log.With(logging.Component("config"))

	go func() {
		defer watcher.Close()

		// Editors often emit several events per save; coalesce them.
		var pending <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				pending = time.After(250 * time.Millisecond)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watch error", logging.Error(err))

			case <-pending:
				pending = nil
				cfg, err := Load(path)
				if err != nil {
					log.Error("config reload failed, keeping previous", logging.Error(err))
					continue
				}
				log.Info("config reloaded", logging.String("path", path))
				onReload(cfg)
			}
		}
	}()

	return nil
}
