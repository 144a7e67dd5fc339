package submission

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"cuadrilla/internal/attendance"
	"cuadrilla/internal/dictation"
	"cuadrilla/internal/logging"
)

const (
	DefaultFlushDelay = 250 * time.Millisecond
	DefaultRetryDelay = 2 * time.Second
)

// ErrClosed is returned by operations on a closed queue.
var ErrClosed = errors.New("submission queue closed")

// Sender delivers one batch of pairs for a site. A nil error confirms that
// every pair in the batch was accepted for processing.
type Sender interface {
	SendBatch(ctx context.Context, siteID int64, pairs []dictation.Pair) error
}

// Timer is the subset of *time.Timer the queue relies on.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option customizes a Queue.
type Option func(*Queue)

// WithFlushDelay sets the quiet period before a batch is sent.
func WithFlushDelay(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.delay = d
		}
	}
}

// WithRetryDelay sets how long to wait after a failed send.
func WithRetryDelay(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.retryDelay = d
		}
	}
}

// WithAfterFunc replaces the timer factory, letting tests fire timers by hand.
func WithAfterFunc(fn AfterFunc) Option {
	return func(q *Queue) {
		if fn != nil {
			q.afterFunc = fn
		}
	}
}

// WithLogger attaches a logger for flush diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logging.NewComponentLogger(logger, "submission")
		}
	}
}

type entry struct {
	status attendance.Status
	seq    uint64
}

// Queue debounces and batches pairs for one dictation session.
type Queue struct {
	mu         sync.Mutex
	sender     Sender
	siteID     int64
	pending    map[string]entry
	seq        uint64
	timer      Timer
	timerSeq   uint64
	inFlight   bool
	flightDone chan struct{}
	generation uint64
	closed     bool

	delay      time.Duration
	retryDelay time.Duration
	afterFunc  AfterFunc
	logger     *slog.Logger
}

// New returns a queue sending batches for siteID through sender.
func New(sender Sender, siteID int64, opts ...Option) *Queue {
	q := &Queue{
		sender:     sender,
		siteID:     siteID,
		pending:    make(map[string]entry),
		delay:      DefaultFlushDelay,
		retryDelay: DefaultRetryDelay,
		afterFunc:  realAfterFunc,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// SiteID reports the site the queue currently submits for.
func (q *Queue) SiteID() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.siteID
}

// Enqueue records pairs, overwriting any pending status for the same
// document, and restarts the idle timer.
func (q *Queue) Enqueue(pairs ...dictation.Pair) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	added := 0
	for _, p := range pairs {
		if p.DocumentID == "" || !p.Status.Valid() {
			continue
		}
		q.seq++
		if existing, ok := q.pending[p.DocumentID]; ok {
			q.pending[p.DocumentID] = entry{status: p.Status, seq: existing.seq}
		} else {
			q.pending[p.DocumentID] = entry{status: p.Status, seq: q.seq}
		}
		added++
	}
	if added == 0 {
		return nil
	}
	q.armLocked(q.delay)
	return nil
}

// Pending returns a copy of the unsent pairs in first-enqueued order.
func (q *Queue) Pending() []dictation.Pair {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// SwitchSite discards every unsent entry and directs future batches to siteID.
// A flush still in flight for the previous site cannot touch the new state.
func (q *Queue) SwitchSite(siteID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stopTimerLocked()
	dropped := len(q.pending)
	q.pending = make(map[string]entry)
	q.generation++
	q.siteID = siteID
	q.logger.Info("site switched",
		logging.SiteID(siteID),
		logging.Int("dropped", dropped),
	)
}

// Flush sends the pending entries now, unless a flush is already in flight.
// It returns the number of pairs confirmed by the sender.
func (q *Queue) Flush(ctx context.Context) (int, error) {
	q.mu.Lock()
	q.stopTimerLocked()
	q.mu.Unlock()
	return q.flush(ctx)
}

// Drain flushes until nothing is pending, waiting for in-flight sends. It
// stops at the first failed send and returns its error.
func (q *Queue) Drain(ctx context.Context) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrClosed
		}
		q.stopTimerLocked()
		if q.inFlight {
			done := q.flightDone
			q.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		empty := len(q.pending) == 0
		q.mu.Unlock()
		if empty {
			return nil
		}
		if _, err := q.flush(ctx); err != nil {
			return err
		}
	}
}

// Close stops the timer. Pending entries are kept for inspection but no
// longer sent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.stopTimerLocked()
}

func (q *Queue) flush(ctx context.Context) (int, error) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0, ErrClosed
	}
	if q.inFlight || len(q.pending) == 0 {
		q.mu.Unlock()
		return 0, nil
	}
	batch := q.snapshotLocked()
	generation := q.generation
	siteID := q.siteID
	q.inFlight = true
	q.flightDone = make(chan struct{})
	q.mu.Unlock()

	err := q.sender.SendBatch(ctx, siteID, batch)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.inFlight = false
	close(q.flightDone)

	stale := generation != q.generation
	if err == nil && !stale {
		for _, p := range batch {
			if cur, ok := q.pending[p.DocumentID]; ok && cur.status == p.Status {
				delete(q.pending, p.DocumentID)
			}
		}
	}

	if err != nil {
		logging.WarnWithContext(q.logger, "batch submission failed; entries kept for retry", "submission_failed",
			logging.SiteID(siteID),
			logging.Int("batch_size", len(batch)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that cuadrillad is running and reachable"),
			logging.String(logging.FieldImpact, "attendance stays queued until the retry succeeds"),
		)
	} else {
		q.logger.Debug("batch submitted",
			logging.SiteID(siteID),
			logging.Int("batch_size", len(batch)),
			logging.Bool("stale", stale),
		)
	}

	if !q.closed && len(q.pending) > 0 && q.timer == nil {
		delay := q.delay
		if err != nil && !stale {
			delay = q.retryDelay
		}
		q.armLocked(delay)
	}
	if err != nil {
		return 0, err
	}
	if stale {
		return 0, nil
	}
	return len(batch), nil
}

func (q *Queue) armLocked(d time.Duration) {
	q.stopTimerLocked()
	q.timerSeq++
	seq := q.timerSeq
	q.timer = q.afterFunc(d, func() { q.fire(seq) })
}

func (q *Queue) stopTimerLocked() {
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

// fire runs when a timer expires. Timers replaced or stopped after firing
// began are ignored.
func (q *Queue) fire(seq uint64) {
	q.mu.Lock()
	if seq != q.timerSeq || q.timer == nil {
		q.mu.Unlock()
		return
	}
	q.timer = nil
	q.mu.Unlock()
	_, _ = q.flush(context.Background())
}

func (q *Queue) snapshotLocked() []dictation.Pair {
	type ordered struct {
		id string
		entry
	}
	items := make([]ordered, 0, len(q.pending))
	for id, e := range q.pending {
		items = append(items, ordered{id: id, entry: e})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].seq < items[j].seq })
	pairs := make([]dictation.Pair, len(items))
	for i, it := range items {
		pairs[i] = dictation.Pair{DocumentID: it.id, Status: it.status}
	}
	return pairs
}
