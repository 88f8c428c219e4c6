package engine

import (
	"context"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-lessons/internal/logger"
	"github.com/mind-engage/mindengage-lessons/internal/metrics"
	"github.com/mind-engage/mindengage-lessons/internal/slide"
)

type EffectKind string

const (
	EffectProgress   EffectKind = "progress"
	EffectSubmission EffectKind = "submission"
)

// Effect is a sync call produced by a local transition. The transition has
// already been applied when the effect is emitted.
type Effect struct {
	Kind    EffectKind
	Session Session

	Progress   []bool           // EffectProgress: full snapshot, not a diff
	Submission slide.Submission // EffectSubmission: optimistic placeholder
}

// EffectSink receives effects from the engine. Dispatch is called with the
// engine lock held and must not block.
type EffectSink interface {
	Dispatch(Effect)
}

// ResultHandler is how the dispatcher talks back to the engine.
type ResultHandler interface {
	IsCurrent(Session) bool
	SubmissionPosted(Session, slide.Submission)
}

// Dispatcher executes effects in FIFO order on a single goroutine.
// Failures are logged and counted, never retried.
type Dispatcher struct {
	client  SyncClient
	handler ResultHandler
	log     *logger.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Effect
	wg     sync.WaitGroup
}

func NewDispatcher(client SyncClient, h ResultHandler, log *logger.Logger, queueSize int, timeout time.Duration) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		client:  client,
		handler: h,
		log:     log.With("component", "sync-dispatcher"),
		timeout: timeout,
		queue:   make(chan Effect, queueSize),
	}
}

func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
}

func (d *Dispatcher) Dispatch(eff Effect) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.SyncDropped.Inc()
		d.log.Warn("dispatcher closed, effect dropped", "kind", eff.Kind, "view_id", eff.Session.ViewID)
		return
	}
	select {
	case d.queue <- eff:
	default:
		// A later progress snapshot supersedes a dropped one.
		metrics.SyncDropped.Inc()
		d.log.Warn("sync queue full, effect dropped", "kind", eff.Kind, "view_id", eff.Session.ViewID)
	}
}

// Close stops accepting effects and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for eff := range d.queue {
		d.execute(eff)
	}
}

func (d *Dispatcher) execute(eff Effect) {
	start := time.Now()
	kind := string(eff.Kind)
	if d.handler != nil && !d.handler.IsCurrent(eff.Session) {
		metrics.ObserveEffect(kind, "stale", start)
		d.log.Debug("stale effect skipped", "kind", kind, "view_id", eff.Session.ViewID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var err error
	switch eff.Kind {
	case EffectProgress:
		err = d.client.PostProgress(ctx, eff.Session.ViewID, eff.Progress)
	case EffectSubmission:
		var posted slide.Submission
		posted, err = d.client.PostSubmission(ctx, eff.Session.ViewID, eff.Submission)
		if err == nil && d.handler != nil {
			d.handler.SubmissionPosted(eff.Session, posted)
		}
	default:
		d.log.Warn("unknown effect kind", "kind", kind)
		return
	}
	if err != nil {
		metrics.ObserveEffect(kind, "error", start)
		d.log.Warn("sync failed", "kind", kind, "view_id", eff.Session.ViewID, "error", err)
		return
	}
	metrics.ObserveEffect(kind, "ok", start)
}
