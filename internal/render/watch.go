package render

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

const reloadDebounce = 200 * time.Millisecond

type watcher struct {
	fsw  *fsnotify.Watcher
	wg   sync.WaitGroup
	once sync.Once
}

// watch calls reload shortly after any template under dir changes. Bursts of
// events collapse into one reload.
func watch(dir string, reload func() error) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create template watcher: %w", err)
	}

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &watcher{fsw: fsw}
	w.wg.Add(1)
	go w.loop(reload)

	log.Info().Str("dir", dir).Msg("Watching templates for changes")
	return w, nil
}

func (w *watcher) loop(reload func() error) {
	defer w.wg.Done()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".html") {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Template changed")
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				if err := reload(); err != nil {
					log.Error().Err(err).Msg("Failed to reload templates")
					return
				}
				log.Info().Msg("Templates reloaded")
			})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Template watcher error")
		}
	}
}

func (w *watcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}
