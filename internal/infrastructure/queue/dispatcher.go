package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/accessgate/access-system/internal/core/domain"
	"github.com/accessgate/access-system/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// AuditDispatcher routes audit events to a fixed set of workers using
// consistent hashing on the identity id, guaranteeing per-identity event
// ordering in the trail.
type AuditDispatcher struct {
	workers []chan domain.AuditEvent
	repo    ports.AuditRepository
	log     zerolog.Logger

	// depth reports the buffered event count of a worker after each enqueue
	// and dequeue. Gauges are wired in from the outside.
	depth func(workerID string, n int)
}

// NewAuditDispatcher creates an AuditDispatcher with numWorkers sharded
// workers. If numWorkers <= 0, defaultWorkers is used.
func NewAuditDispatcher(numWorkers int, repo ports.AuditRepository, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AuditDispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		repo:    repo,
		log:     log,
		depth:   func(string, int) {},
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// OnDepthChange registers a callback invoked with a worker's id and buffered
// event count whenever that count changes.
func (d *AuditDispatcher) OnDepthChange(fn func(workerID string, n int)) {
	if fn != nil {
		d.depth = fn
	}
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *AuditDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record sends an event to the worker responsible for its identity. When the
// worker's buffer is full the event is dropped with a warning rather than
// blocking the login path.
func (d *AuditDispatcher) Record(event domain.AuditEvent) {
	idx := d.shardIndex(event.IdentityID)
	select {
	case d.workers[idx] <- event:
		d.depth(strconv.Itoa(idx), len(d.workers[idx]))
	default:
		d.log.Warn().
			Str("identity_id", event.IdentityID).
			Str("action", string(event.Action)).
			Msg("audit queue full, event dropped")
	}
}

// shardIndex maps an identity id deterministically to a worker index.
func (d *AuditDispatcher) shardIndex(identityID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identityID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			d.depth(label, len(ch))
			if err := d.repo.Insert(ctx, &event); err != nil {
				d.log.Error().Err(err).
					Str("identity_id", event.IdentityID).
					Str("action", string(event.Action)).
					Int("worker_id", id).
					Msg("audit event write failed")
			}
		}
	}
}
