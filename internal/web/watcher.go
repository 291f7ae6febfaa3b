package web

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher pushes a refresh event to connected shells when the template
// directory changes on disk, so templates dropped in out of band show up
// without a restart.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func (s *Server) WatchTemplates() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(s.blobs.Root(), "templates")
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{watcher: fsWatcher, done: make(chan struct{})}
	go w.run(s)
	slog.Info("watching templates", "dir", dir)
	return w, nil
}

func (w *Watcher) run(s *Server) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".html" {
				continue
			}
			slog.Debug("template changed", "path", event.Name, "op", event.Op.String())
			s.events.broadcast("templates", []byte(filepath.Base(event.Name)))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("template watcher error", "err", err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
