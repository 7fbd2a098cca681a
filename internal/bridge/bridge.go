// Package bridge makes one logical queue state visible across independent
// instances. On every local commit it saves the snapshot to the durable
// slot and publishes it on the change bus; on an envelope from another
// instance it adopts the snapshot wholesale. Convergence is last writer
// wins: concurrent edits are not merged, the envelope processed last
// overwrites. Single physical office, low write concurrency.
package bridge

import (
	"encoding/json"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/k333333v-jpg/martinez-walker-checkin/internal/pubsub"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/queue"
	"github.com/k333333v-jpg/martinez-walker-checkin/internal/store"
)

type envelope struct {
	Origin   string           `json:"origin"`
	Revision int64            `json:"revision"`
	SavedAt  time.Time        `json:"saved_at"`
	State    queue.QueueState `json:"state"`
}

type Bridge struct {
	queue    *queue.Store
	slot     store.SnapshotStore
	bus      pubsub.Bus
	origin   string
	revision int64
	cancel   func()
}

func New(qs *queue.Store, slot store.SnapshotStore, bus pubsub.Bus) *Bridge {
	return &Bridge{
		queue:  qs,
		slot:   slot,
		bus:    bus,
		origin: uuid.NewString(),
	}
}

// Start hydrates the queue from the slot, then wires commit persistence
// and the external-change subscription. An absent or corrupt slot falls
// back to the queue's empty initial state.
func (b *Bridge) Start() {
	data, err := b.slot.Load()
	switch {
	case errors.Is(err, store.ErrNoSnapshot):
		// Fresh install; nothing to hydrate.
	case err != nil:
		log.Printf("bridge load error, starting empty: %v", err)
	default:
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("bridge snapshot corrupt, starting empty: %v", err)
			break
		}
		b.hydrate(env)
	}

	b.queue.OnCommit(b.persist)
	b.cancel = b.bus.Subscribe(b.onExternalChange)
}

// Close drops the external-change subscription. Commits keep persisting
// until process exit.
func (b *Bridge) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *Bridge) hydrate(env envelope) {
	state := env.State
	// The snapshot may predate a roster change; make sure every current
	// preparer has a slot.
	for _, p := range b.queue.Preparers() {
		if _, ok := state.PreparerSlots[p]; !ok {
			if state.PreparerSlots == nil {
				state.PreparerSlots = make(map[string]string)
			}
			state.PreparerSlots[p] = ""
		}
	}
	b.queue.ReplaceState(state)
	atomic.StoreInt64(&b.revision, env.Revision)
}

func (b *Bridge) persist(snapshot queue.QueueState) {
	env := envelope{
		Origin:   b.origin,
		Revision: atomic.AddInt64(&b.revision, 1),
		SavedAt:  time.Now().UTC(),
		State:    snapshot,
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("bridge encode error: %v", err)
		return
	}
	// A failed save is logged and swallowed; in-memory state stays
	// authoritative for this instance.
	if err := b.slot.Save(data); err != nil {
		log.Printf("bridge save error: %v", err)
	}
	b.bus.Publish(data)
}

func (b *Bridge) onExternalChange(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("bridge external snapshot corrupt, ignored: %v", err)
		return
	}
	if env.Origin == b.origin {
		return
	}
	b.hydrate(env)
}
