package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/rs/zerolog"
)

// ChangeEvent describes one committed revision for side-effect handlers.
type ChangeEvent struct {
	Ref        domain.DocumentRef
	FieldName  string
	RevisionID string
	ActorID    string
	NewHTML    string
	OldHTML    string
}

// SideEffect is one fire-and-continue task triggered after a revision
// commits. Handlers must be idempotent or safely re-runnable: the dispatcher
// retries once on failure.
type SideEffect interface {
	Name() string
	Run(ctx context.Context, ev ChangeEvent) error
}

type task struct {
	effect SideEffect
	event  ChangeEvent
}

// SideEffectDispatcher runs side effects on a bounded worker pool. Failure
// of one task is logged and never propagates to the mutating client, and
// never rolls back the committed revision.
type SideEffectDispatcher struct {
	tasks   chan task
	wg      sync.WaitGroup
	log     zerolog.Logger
	timeout time.Duration

	// OnFailure, when set, observes the name of every effect that failed
	// after its retry. Wired to metrics at startup.
	OnFailure func(effect string)

	closeOnce sync.Once
}

// NewSideEffectDispatcher creates a dispatcher with the given worker count
// and queue depth.
func NewSideEffectDispatcher(workers, depth int, log zerolog.Logger) *SideEffectDispatcher {
	if workers < 1 {
		workers = 1
	}
	d := &SideEffectDispatcher{
		tasks:   make(chan task, depth),
		log:     log.With().Str("component", "side_effects").Logger(),
		timeout: 30 * time.Second,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Dispatch enqueues every effect, in order, for one change event. It blocks
// only when the queue is full.
func (d *SideEffectDispatcher) Dispatch(effects []SideEffect, ev ChangeEvent) {
	for _, e := range effects {
		d.tasks <- task{effect: e, event: ev}
	}
}

// Close stops accepting tasks and waits for in-flight ones.
func (d *SideEffectDispatcher) Close() {
	d.closeOnce.Do(func() { close(d.tasks) })
	d.wg.Wait()
}

func (d *SideEffectDispatcher) worker() {
	defer d.wg.Done()
	for t := range d.tasks {
		if err := d.runOne(t); err != nil {
			// One retry; handlers are idempotent.
			if err = d.runOne(t); err != nil {
				d.log.Error().
					Err(err).
					Str("effect", t.effect.Name()).
					Str("document", t.event.Ref.String()).
					Str("field", t.event.FieldName).
					Msg("side effect failed after retry")
				if d.OnFailure != nil {
					d.OnFailure(t.effect.Name())
				}
			}
		}
	}
}

func (d *SideEffectDispatcher) runOne(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in side effect %s: %v", t.effect.Name(), r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	return t.effect.Run(ctx, t.event)
}
