package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"cuadrilla/internal/attendance"
	"cuadrilla/internal/config"
	"cuadrilla/internal/logging"
)

// Daemon owns the attendance store and HTTP API, and enforces single-instance
// execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *attendance.Store
	logPath string

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running   atomic.Bool
	runID     string
	startedAt time.Time
	cancel    context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	RunID        string
	StartedAt    time.Time
	DatabasePath string
	LockFilePath string
	LogPath      string
	Sites        int
	AuthRequired bool
}

// New constructs a daemon around an open store.
func New(cfg *config.Config, store *attendance.Store, logger *slog.Logger, logPath string) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		logPath:  logPath,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and begins serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cuadrilla daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.runID = uuid.NewString()
	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("cuadrilla daemon started",
		logging.String("lock", d.lockPath),
		logging.String("run_id", d.runID),
		logging.String("database", d.store.Path()),
	)
	return nil
}

// Stop stops serving and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if no daemon is running"),
			logging.String(logging.FieldImpact, "the next daemon start may report an existing instance"),
		)
	}
	d.running.Store(false)
	d.logger.Info("cuadrilla daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the API listener address once started.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Handler exposes the API routes, mainly for in-process tests.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		RunID:        d.runID,
		StartedAt:    d.startedAt,
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		LogPath:      d.logPath,
		AuthRequired: d.cfg.Paths.APIToken != "",
	}
	if sites, err := d.store.ListSites(ctx); err == nil {
		status.Sites = len(sites)
	} else {
		d.logger.Debug("status site count unavailable", logging.Error(err))
	}
	return status
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (attendance.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}
