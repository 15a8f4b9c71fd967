package pool

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

type watcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

// Watch starts invalidating cached documents when files under the pool
// change. It is stopped by Close.
func (d *Dir) Watch() error {
	if d.watcher != nil {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range []string{d.padstackDir(), d.packageDir()} {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(root, func(path string, e fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if e.IsDir() {
				return fw.Add(path)
			}
			return nil
		})
		if err != nil {
			fw.Close()
			return err
		}
	}

	w := &watcher{fw: fw, done: make(chan struct{})}
	d.watcher = w
	go d.watchLoop(w)
	return nil
}

func (d *Dir) watchLoop(w *watcher) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					_ = w.fw.Add(event.Name)
					continue
				}
			}
			if !isDocument(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				d.Invalidate(event.Name)
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Debug("pool: watch error", "err", err)
		}
	}
}

func (w *watcher) stop() error {
	err := w.fw.Close()
	<-w.done
	return err
}
