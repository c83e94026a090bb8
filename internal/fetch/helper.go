package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/shlex"
)

// ErrHelperRunning means another process on this host holds the helper lock.
var ErrHelperRunning = errors.New("fetch helper already running")

const helperStopGrace = 3 * time.Second

type HelperOptions struct {
	Command  string
	BaseURL  string
	Settle   time.Duration
	LockPath string
}

// Helper runs an optional local fetch service process. Only one helper per
// host runs at a time; the lock file enforces that.
type Helper struct {
	opts   HelperOptions
	client *Client

	mu   sync.Mutex
	cmd  *exec.Cmd
	lock *flock.Flock
	done chan struct{}
}

func NewHelper(opts HelperOptions, client *Client) *Helper {
	return &Helper{opts: opts, client: client}
}

// Start spawns the helper, waits for it to settle and registers its base URL
// with the client.
func (h *Helper) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cmd != nil {
		return nil
	}

	args, err := shlex.Split(h.opts.Command)
	if err != nil {
		return fmt.Errorf("parse helper command: %w", err)
	}
	if len(args) == 0 {
		return fmt.Errorf("fetch helper command is empty")
	}

	if h.opts.LockPath != "" {
		if err := os.MkdirAll(filepath.Dir(h.opts.LockPath), 0o755); err != nil {
			return fmt.Errorf("create lock dir: %w", err)
		}
		lock := flock.New(h.opts.LockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("lock %s: %w", h.opts.LockPath, err)
		}
		if !locked {
			return ErrHelperRunning
		}
		h.lock = lock
	}

	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		h.releaseLock()
		return fmt.Errorf("start fetch helper: %w", err)
	}
	h.cmd = cmd
	h.done = make(chan struct{})
	go func(done chan struct{}) {
		err := cmd.Wait()
		slog.Debug("Fetch helper exited", "pid", cmd.Process.Pid, "error", err)
		close(done)
	}(h.done)

	slog.Info("Fetch helper started", "command", h.opts.Command, "pid", cmd.Process.Pid)

	if h.opts.Settle > 0 {
		timer := time.NewTimer(h.opts.Settle)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			h.stopLocked()
			return ctx.Err()
		case <-h.done:
			h.stopLocked()
			return fmt.Errorf("fetch helper exited during startup")
		case <-timer.C:
		}
	}

	if h.opts.BaseURL != "" && h.client != nil {
		h.client.AddService(h.opts.BaseURL)
	}
	return nil
}

// Running reports whether the helper process is alive.
func (h *Helper) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cmd == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Stop terminates the helper and releases the host lock. Safe to call twice.
func (h *Helper) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
}

func (h *Helper) stopLocked() {
	if h.cmd == nil {
		return
	}

	select {
	case <-h.done:
	default:
		_ = h.cmd.Process.Signal(os.Interrupt)
		select {
		case <-h.done:
		case <-time.After(helperStopGrace):
			_ = h.cmd.Process.Kill()
			<-h.done
		}
	}

	slog.Info("Fetch helper stopped")
	h.cmd = nil
	h.releaseLock()
}

func (h *Helper) releaseLock() {
	if h.lock == nil {
		return
	}
	if err := h.lock.Unlock(); err != nil {
		slog.Warn("Failed to release fetch helper lock", "path", h.opts.LockPath, "error", err)
	}
	h.lock = nil
}
