package state

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Emitter stamps ops with a Lamport counter and the local site ID and fans
// them out to subscribers.
type Emitter struct {
	site    string
	lamport atomic.Uint64

	mu   sync.RWMutex
	subs map[int]func(Op)
	next int
}

func NewEmitter() *Emitter {
	return &Emitter{
		site: uuid.NewString(),
		subs: make(map[int]func(Op)),
	}
}

// Site returns the ID stamped on every emitted op.
func (e *Emitter) Site() string { return e.site }

// Subscribe registers fn and returns a function that removes it.
func (e *Emitter) Subscribe(fn func(Op)) (cancel func()) {
	e.mu.Lock()
	id := e.next
	e.next++
	e.subs[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *Emitter) Emit(op Op) Op {
	op.Lamport = e.lamport.Add(1)
	op.Site = e.site

	e.mu.RLock()
	subs := make([]func(Op), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.RUnlock()

	for _, fn := range subs {
		fn(op)
	}
	return op
}
