package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Watch starts an fsnotify watcher on path, reloading and swapping the
// Store's config on every Write or Create event until stop is closed. Decode
// failures are logged and skipped, keeping the last-good config active.
func (s *Store) Watch(path string, stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "config: create watcher")
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "config: watch %s", path)
	}

	log := logrus.WithField("prefix", "config")

	go func() {
		defer watcher.Close()
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
					log.WithError(err).Warn("config reload failed, keeping previous config")
					continue
				}
				s.set(cfg)
				log.Info("config reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("config watcher error")
			}
		}
	}()
	return nil
}
