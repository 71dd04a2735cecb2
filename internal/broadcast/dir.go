package broadcast

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/triage-queue-sync/internal/clock"
	"github.com/MKhiriev/triage-queue-sync/internal/logger"
	"github.com/MKhiriev/triage-queue-sync/internal/utils"
	"github.com/fsnotify/fsnotify"
)

const frameExt = ".msg"

// DirTransport is a device-wide channel backed by a spool directory. Every
// message is one file, written under a temporary name and renamed into
// place so that readers never see a partial frame. File names start with the
// publish time in nanoseconds, so a directory listing is in publish order.
type DirTransport struct {
	dir       string
	retention time.Duration
	clock     clock.Clock
	logger    *logger.Logger

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	own     map[string]struct{}
	seen    map[string]struct{}
	handler func([]byte)

	wg        sync.WaitGroup
	closeOnce sync.Once
	done      chan struct{}
}

// OpenDir opens the channel name under root, creating the directory if
// needed. Messages already in the directory are not replayed.
func OpenDir(root, name string, retention time.Duration, clk clock.Clock, log *logger.Logger) (*DirTransport, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid broadcast channel name %q", name)
	}
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create broadcast dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create broadcast watcher: %w", err)
	}
	if err = watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch broadcast dir: %w", err)
	}

	t := &DirTransport{
		dir:       dir,
		retention: retention,
		clock:     clk,
		logger:    log,
		watcher:   watcher,
		own:       make(map[string]struct{}),
		seen:      make(map[string]struct{}),
		done:      make(chan struct{}),
	}

	names, err := t.list()
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	for _, n := range names {
		t.seen[n] = struct{}{}
	}

	t.wg.Add(1)
	go t.watch()
	return t, nil
}

// DirOpener returns an Opener for OpenDir.
func DirOpener(root, name string, retention time.Duration, clk clock.Clock, log *logger.Logger) Opener {
	return func() (Transport, error) {
		return OpenDir(root, name, retention, clk, log)
	}
}

// Dir returns the spool directory.
func (t *DirTransport) Dir() string { return t.dir }

func (t *DirTransport) Publish(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-t.done:
		return ErrTransportClosed
	default:
	}

	now := t.clock.Now()
	name := fmt.Sprintf("%020d-%s%s", now.UnixNano(), utils.ShortID(), frameExt)
	tmp := filepath.Join(t.dir, "."+name+".tmp")

	if err := os.WriteFile(tmp, frame, 0o600); err != nil {
		return fmt.Errorf("write broadcast frame: %w", err)
	}

	t.mu.Lock()
	t.own[name] = struct{}{}
	t.mu.Unlock()

	if err := os.Rename(tmp, filepath.Join(t.dir, name)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish broadcast frame: %w", err)
	}

	t.prune(now)
	return nil
}

func (t *DirTransport) Subscribe(handler func([]byte)) {
	t.mu.Lock()
	t.handler = handler
	t.mu.Unlock()
}

// Close stops watching. It is safe to call more than once.
func (t *DirTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.watcher.Close()
		t.wg.Wait()
	})
	return err
}

func (t *DirTransport) watch() {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case ev, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) {
				t.drain()
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			t.logger.Warn().Err(err).Str("dir", t.dir).Msg("broadcast watcher error")
			// events may have been dropped
			t.drain()
		}
	}
}

// drain delivers every unseen frame in publish order.
func (t *DirTransport) drain() {
	names, err := t.list()
	if err != nil {
		t.logger.Warn().Err(err).Str("dir", t.dir).Msg("failed to list broadcast dir")
		return
	}
	t.forgetMissing(names)

	for _, name := range names {
		t.mu.Lock()
		_, mine := t.own[name]
		_, seen := t.seen[name]
		t.seen[name] = struct{}{}
		handler := t.handler
		t.mu.Unlock()

		if mine || seen || handler == nil {
			continue
		}

		frame, err := os.ReadFile(filepath.Join(t.dir, name))
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				t.logger.Warn().Err(err).Str("file", name).Msg("failed to read broadcast frame")
			}
			continue
		}
		handler(frame)
	}
}

// forgetMissing drops bookkeeping for frames a peer has pruned. Only names
// that were seen in an earlier listing are dropped: an own frame that is not
// renamed into place yet is absent but not gone.
func (t *DirTransport) forgetMissing(names []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name := range t.seen {
		if _, found := slices.BinarySearch(names, name); !found {
			delete(t.seen, name)
			delete(t.own, name)
		}
	}
}

func (t *DirTransport) list() ([]string, error) {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return nil, fmt.Errorf("read broadcast dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), frameExt) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

// prune removes frames older than the retention window, whoever wrote them.
func (t *DirTransport) prune(now time.Time) {
	if t.retention <= 0 {
		return
	}
	names, err := t.list()
	if err != nil {
		return
	}
	cutoff := now.Add(-t.retention).UnixNano()

	for _, name := range names {
		ts, ok := frameTime(name)
		if !ok || ts >= cutoff {
			continue
		}
		if err := os.Remove(filepath.Join(t.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			t.logger.Debug().Err(err).Str("file", name).Msg("failed to prune broadcast frame")
			continue
		}
		t.mu.Lock()
		delete(t.own, name)
		delete(t.seen, name)
		t.mu.Unlock()
	}
}

func frameTime(name string) (int64, bool) {
	prefix, _, ok := strings.Cut(name, "-")
	if !ok {
		return 0, false
	}
	ts, err := strconv.ParseInt(prefix, 10, 64)
	return ts, err == nil
}
