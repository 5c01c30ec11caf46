package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-addons/internal/finders"
)

// Recorder defaults.
const (
	// defaultQueueSize buffers records between finder drain loops and the
	// database writer.
	defaultQueueSize = 256

	// defaultRetention is how long unseen services are kept.
	defaultRetention = 30 * 24 * time.Hour

	// defaultPurgeInterval is how often retention is enforced.
	defaultPurgeInterval = time.Hour

	// writeTimeout bounds one database write.
	writeTimeout = 5 * time.Second
)

// RecorderConfig tunes the inventory recorder.
// Zero values select the defaults above.
type RecorderConfig struct {
	QueueSize     int
	Retention     time.Duration
	PurgeInterval time.Duration
}

// Recorder persists finder observations into the inventory repository.
//
// It implements finders.Observer. Finder drain loops must never block on
// the database, so ObserveService is a non-blocking enqueue onto an
// internal buffer; a single background writer performs the actual
// upserts. When the buffer is full the observation is dropped — the
// inventory is a best-effort archive, the authoritative match-state
// lives in the finders.
type Recorder struct {
	repo   Repository
	cfg    RecorderConfig
	logger Logger

	queue   chan Record
	dropped atomic.Int64

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Logger defines the logging interface used by the inventory package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NewRecorder creates an inventory recorder over the given repository.
func NewRecorder(repo Repository, cfg RecorderConfig) *Recorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	if cfg.PurgeInterval <= 0 {
		cfg.PurgeInterval = defaultPurgeInterval
	}
	return &Recorder{
		repo:   repo,
		cfg:    cfg,
		logger: noopLogger{},
		queue:  make(chan Record, cfg.QueueSize),
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// ObserveService implements finders.Observer. Never blocks.
func (r *Recorder) ObserveService(kind string, record finders.ServiceRecord) {
	entry := Record{
		Finder:      kind,
		Key:         record.Key,
		ServiceType: record.ServiceType,
		Properties:  record.Properties,
		FirstSeen:   record.FirstSeen,
		LastSeen:    record.LastSeen,
	}

	select {
	case r.queue <- entry:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns the number of observations discarded due to backlog.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Start launches the background writer and the retention purge loop.
func (r *Recorder) Start(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if r.running {
		return finders.ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	go r.writeLoop(loopCtx)
	return nil
}

// Stop terminates the writer after flushing queued records. Idempotent.
func (r *Recorder) Stop() {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if !r.running {
		return
	}
	r.cancel()
	<-r.done
	r.running = false
}

// writeLoop is the single consumer of the record queue.
func (r *Recorder) writeLoop(ctx context.Context) {
	defer close(r.done)

	purge := time.NewTicker(r.cfg.PurgeInterval)
	defer purge.Stop()

	for {
		select {
		case <-ctx.Done():
			r.flush()
			return
		case record := <-r.queue:
			r.write(record)
		case <-purge.C:
			r.purge()
		}
	}
}

// flush drains remaining queued records during shutdown.
func (r *Recorder) flush() {
	for {
		select {
		case record := <-r.queue:
			r.write(record)
		default:
			return
		}
	}
}

// write upserts one record with a bounded timeout.
func (r *Recorder) write(record Record) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.Upsert(ctx, &record); err != nil {
		r.logger.Warn("inventory write failed",
			"finder", record.Finder,
			"key", record.Key,
			"error", err,
		)
	}
}

// purge enforces the retention window.
func (r *Recorder) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	removed, err := r.repo.DeleteOlderThan(ctx, time.Now().Add(-r.cfg.Retention))
	if err != nil {
		r.logger.Warn("inventory purge failed", "error", err)
		return
	}
	if removed > 0 {
		r.logger.Info("inventory purged", "removed", removed)
	}
}
