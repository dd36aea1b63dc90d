package prefs

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups bursts of filesystem events (temp file, rename,
// WAL checkpoint) into one reload.
const DefaultDebounce = 50 * time.Millisecond

// snapshotFunc loads every stored key and value.
type snapshotFunc func() (map[string]string, error)

// watchFiles reports key changes in files whose base names are in names.
// The parent directory is watched rather than the files so that atomic
// replaces are seen. After each debounced burst of events the storage is
// reloaded through load and compared with the previous snapshot.
//
// fn and onError run on the watch goroutine. The returned stop waits for
// that goroutine to exit, except when it is called from fn or onError.
func watchFiles(dir string, names []string, load snapshotFunc, fn func(key, value string), onError func(error)) (func(), error) {
	last, err := load()
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("prefs: watch: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("prefs: watch %s: %w", dir, err)
	}

	targets := make(map[string]struct{}, len(names))
	for _, n := range names {
		targets[n] = struct{}{}
	}
	if onError == nil {
		onError = func(error) {}
	}

	done := make(chan struct{})
	finished := make(chan struct{})
	var inCallback atomic.Bool
	report := func(key, value string) {
		inCallback.Store(true)
		defer inCallback.Store(false)
		fn(key, value)
	}
	reportErr := func(err error) {
		inCallback.Store(true)
		defer inCallback.Store(false)
		onError(err)
	}
	go func() {
		defer close(finished)
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-done:
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if _, ok := targets[filepath.Base(ev.Name)]; !ok {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(DefaultDebounce)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(DefaultDebounce)
				}
				timerC = timer.C
			case <-timerC:
				timerC = nil
				next, err := load()
				if err != nil {
					reportErr(err)
					continue
				}
				for _, ch := range diffSnapshots(last, next) {
					select {
					case <-done:
						return
					default:
					}
					report(ch.key, ch.value)
				}
				last = next
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				reportErr(err)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			fsw.Close()
			if !inCallback.Load() {
				<-finished
			}
		})
	}, nil
}

type change struct {
	key, value string
}

// diffSnapshots lists keys whose value differs between old and next,
// in key order. Removed keys carry an empty value.
func diffSnapshots(old, next map[string]string) []change {
	var changes []change
	for k, v := range next {
		if ov, ok := old[k]; !ok || ov != v {
			changes = append(changes, change{key: k, value: v})
		}
	}
	for k := range old {
		if _, ok := next[k]; !ok {
			changes = append(changes, change{key: k})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].key < changes[j].key })
	return changes
}
