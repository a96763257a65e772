package audit

import (
	"context"
	"sync"
	"time"

	"github.com/tomcamp/tomcamp-core/internal/infrastructure/logging"
)

const (
	recorderBuffer = 256
	writeTimeout   = 5 * time.Second
)

// Recorder writes audit entries asynchronously so request handlers never
// wait on the audit table. Entries are dropped (and logged) when the buffer
// is full.
type Recorder struct {
	repo    Repository
	logger  *logging.Logger
	entries chan Entry
	done    chan struct{}

	// mu guards closed and the send on entries against Close.
	mu     sync.RWMutex
	closed bool
}

// NewRecorder starts a recorder draining into repo.
func NewRecorder(repo Repository, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Recorder{
		repo:    repo,
		logger:  logger.With("component", "audit"),
		entries: make(chan Entry, recorderBuffer),
		done:    make(chan struct{}),
	}
	go r.drain()
	return r
}

// Record enqueues an entry. It never blocks. Entries recorded after Close
// are dropped.
func (r *Recorder) Record(e Entry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logger.Warn("audit recorder closed, entry dropped", "action", e.Action, "entity_type", e.EntityType)
		return
	}
	select {
	case r.entries <- e:
	default:
		r.logger.Warn("audit buffer full, entry dropped", "action", e.Action, "entity_type", e.EntityType)
	}
}

// Close stops accepting entries and waits for the buffer to drain.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.entries)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) drain() {
	defer close(r.done)
	for e := range r.entries {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.repo.Create(ctx, &e); err != nil {
			r.logger.Error("writing audit entry", "error", err, "action", e.Action)
		}
		cancel()
	}
}
