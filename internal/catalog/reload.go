package catalog

import (
	"context"
	"path/filepath"

	"github.com/rizwanabrish101/shayari/internal/watcher"
)

// WatchFile re-imports the dataset at path whenever events reports that it
// was added or modified. Invalid files are logged and the current catalog is
// kept. It blocks until ctx is done or events is closed.
func (s *Service) WatchFile(ctx context.Context, path string, events <-chan watcher.Event) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Path) != abs {
				continue
			}

			switch ev.Type {
			case watcher.EventAdded, watcher.EventModified:
				s.logger.Info("catalog file changed, reloading", "path", ev.Path, "event", ev.Type)
				if _, err := s.ImportFile(ctx, ev.Path); err != nil {
					s.logger.Error("catalog reload failed, keeping current catalog", "path", ev.Path, "error", err)
				}
			case watcher.EventRemoved:
				s.logger.Warn("catalog file removed, keeping current catalog", "path", ev.Path)
			}
		}
	}
}
