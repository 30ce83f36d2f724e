package server

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the event bursts editors and atomic-save tools
// produce for a single logical change.
const reloadDebounce = 200 * time.Millisecond

// ruleWatcher reloads the rule set when either rule file changes. The site
// root directory is watched rather than the files themselves so that
// rename-based saves and late file creation are seen.
type ruleWatcher struct {
	server  *Server
	watcher *fsnotify.Watcher
	files   map[string]bool
}

func newRuleWatcher(s *Server) (*ruleWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(s.cfg.Root); err != nil {
		_ = w.Close()
		return nil, err
	}
	return &ruleWatcher{
		server:  s,
		watcher: w,
		files: map[string]bool{
			s.cfg.HeadersFile:   true,
			s.cfg.RedirectsFile: true,
		},
	}, nil
}

func (rw *ruleWatcher) run(ctx context.Context) {
	defer func() { _ = rw.watcher.Close() }()

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if !rw.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				timerC = timer.C
			} else {
				timer.Reset(reloadDebounce)
			}
		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			rw.server.log.Warn("rule watcher error", "error", err)
		case <-timerC:
			timer = nil
			timerC = nil
			if err := rw.server.Reload(); err != nil {
				rw.server.log.Error("rule reload failed, keeping previous rules", "error", err)
			} else {
				rw.server.log.Info("rules reloaded")
			}
		}
	}
}

func (rw *ruleWatcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return rw.files[filepath.Base(event.Name)]
}
