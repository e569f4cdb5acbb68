// Package engine serializes every state change of a board through one goroutine.
//
// Use cases, push handlers and REST completions never touch the stores
// directly. They submit closures to Loop.Mutate, which applies them one at a
// time and then publishes an immutable Snapshot for readers.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/store"
)

// ErrAlreadyRunning is returned when Run is called on a loop that was started before.
var ErrAlreadyRunning = errors.New("engine loop already running")

const queueSize = 64

// Stores groups the state containers owned by the loop.
type Stores struct {
	Tasks    *store.TaskStore
	Presence *store.PresenceStore
	Activity *store.ActivityStore
	Editing  *store.EditingStore
}

// NewStores creates empty stores.
func NewStores(dedupeComments bool) *Stores {
	return &Stores{
		Tasks:    store.NewTaskStore(dedupeComments),
		Presence: store.NewPresenceStore(),
		Activity: store.NewActivityStore(),
		Editing:  store.NewEditingStore(),
	}
}

// Snapshot is a consistent, read-only view of all stores after one mutation.
// Fields are ordered to minimize memory padding.
type Snapshot struct {
	Editing  map[string]string
	Tasks    store.TaskSnapshot
	Activity store.ActivitySnapshot
	Presence []domain.PresenceEntry
	Version  uint64
}

// Board projects the task snapshot into status columns.
func (s *Snapshot) Board() domain.Board {
	return domain.BuildBoard(s.Tasks.ProjectID, s.Tasks.Tasks)
}

type op struct {
	fn   func(*Stores)
	done chan struct{}
}

// Loop is the single writer of a Stores value.
type Loop struct {
	stores   *Stores
	queue    chan op
	stopped  chan struct{}
	subs     map[chan struct{}]struct{}
	snapshot atomic.Pointer[Snapshot]
	mu       sync.Mutex
	started  atomic.Bool
	version  uint64
}

// New creates a loop owning stores. Call Run to start applying mutations.
func New(stores *Stores) *Loop {
	l := &Loop{
		stores:  stores,
		queue:   make(chan op, queueSize),
		stopped: make(chan struct{}),
		subs:    make(map[chan struct{}]struct{}),
	}
	l.publish()
	return l
}

// Run applies queued mutations until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if l.started.Swap(true) {
		return ErrAlreadyRunning
	}
	defer close(l.stopped)

	for {
		select {
		case <-ctx.Done():
			return nil
		case o := <-l.queue:
			o.fn(l.stores)
			l.publish()
			close(o.done)
		}
	}
}

// Mutate applies fn on the loop goroutine and waits until the resulting
// snapshot is published. fn must not block and must not call Mutate.
//
// If ctx is cancelled after fn was queued, fn still runs; Mutate returns ctx.Err().
// Returns domain.ErrLoopStopped if the loop has exited.
func (l *Loop) Mutate(ctx context.Context, fn func(*Stores)) error {
	o := op{fn: fn, done: make(chan struct{})}

	select {
	case l.queue <- o:
	case <-l.stopped:
		return domain.ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-o.done:
		return nil
	case <-l.stopped:
		// Run may have applied fn just before exiting.
		select {
		case <-o.done:
			return nil
		default:
			return domain.ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the latest published snapshot. Safe for concurrent use.
func (l *Loop) Snapshot() *Snapshot {
	return l.snapshot.Load()
}

// Subscribe returns a channel that receives a signal after snapshots are
// published, and a function to unsubscribe. Signals coalesce: a slow reader
// sees one pending signal and should read Snapshot again.
func (l *Loop) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()

	return ch, func() {
		l.mu.Lock()
		delete(l.subs, ch)
		l.mu.Unlock()
	}
}

// Stopped is closed when Run returns.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}

func (l *Loop) publish() {
	l.version++
	l.snapshot.Store(&Snapshot{
		Editing:  l.stores.Editing.Snapshot(),
		Tasks:    l.stores.Tasks.Snapshot(),
		Activity: l.stores.Activity.Snapshot(),
		Presence: l.stores.Presence.Entries(),
		Version:  l.version,
	})

	l.mu.Lock()
	for ch := range l.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	l.mu.Unlock()
}
