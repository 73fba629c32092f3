package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/rs/zerolog"
)

// countingEffect fails a configurable number of times before succeeding.
type countingEffect struct {
	name     string
	failures int32
	runs     int32
	panics   bool
}

func (e *countingEffect) Name() string { return e.name }

func (e *countingEffect) Run(_ context.Context, _ ChangeEvent) error {
	n := atomic.AddInt32(&e.runs, 1)
	if e.panics {
		panic("effect exploded")
	}
	if n <= atomic.LoadInt32(&e.failures) {
		return errors.New("transient failure")
	}
	return nil
}

func testEvent() ChangeEvent {
	return ChangeEvent{Ref: domain.DocumentRef{Kind: domain.KindPosts, ID: "p1"}, RevisionID: "r1"}
}

func TestDispatcher_RunsEffects(t *testing.T) {
	d := NewSideEffectDispatcher(2, 8, zerolog.Nop())
	a := &countingEffect{name: "a"}
	b := &countingEffect{name: "b"}

	d.Dispatch([]SideEffect{a, b}, testEvent())
	d.Close()

	if atomic.LoadInt32(&a.runs) != 1 || atomic.LoadInt32(&b.runs) != 1 {
		t.Errorf("runs = %d, %d; want 1, 1", a.runs, b.runs)
	}
}

func TestDispatcher_RetriesOnce(t *testing.T) {
	d := NewSideEffectDispatcher(1, 8, zerolog.Nop())
	e := &countingEffect{name: "flaky", failures: 1}

	d.Dispatch([]SideEffect{e}, testEvent())
	d.Close()

	if atomic.LoadInt32(&e.runs) != 2 {
		t.Errorf("runs = %d, want 2 (initial + one retry)", e.runs)
	}
}

func TestDispatcher_ReportsExhaustedFailure(t *testing.T) {
	d := NewSideEffectDispatcher(1, 8, zerolog.Nop())

	var mu sync.Mutex
	var failed []string
	d.OnFailure = func(name string) {
		mu.Lock()
		failed = append(failed, name)
		mu.Unlock()
	}

	e := &countingEffect{name: "broken", failures: 99}
	d.Dispatch([]SideEffect{e}, testEvent())
	d.Close()

	if atomic.LoadInt32(&e.runs) != 2 {
		t.Errorf("runs = %d, want 2", e.runs)
	}
	if len(failed) != 1 || failed[0] != "broken" {
		t.Errorf("failure hook saw %v, want [broken]", failed)
	}
}

func TestDispatcher_SurvivesPanickingEffect(t *testing.T) {
	d := NewSideEffectDispatcher(1, 8, zerolog.Nop())
	bad := &countingEffect{name: "bad", panics: true}
	good := &countingEffect{name: "good"}

	d.Dispatch([]SideEffect{bad, good}, testEvent())
	d.Close()

	if atomic.LoadInt32(&good.runs) != 1 {
		t.Errorf("worker must survive a panicking effect; good runs = %d", good.runs)
	}
}

func TestDispatcher_CloseIsIdempotent(t *testing.T) {
	d := NewSideEffectDispatcher(1, 1, zerolog.Nop())
	d.Close()
	d.Close()
}
