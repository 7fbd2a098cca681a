package pubsub

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/k333333v-jpg/martinez-walker-checkin/internal/store"
)

// SlotWatcher is a Bus for instances that share nothing but the durable
// slot. Publish is a no-op: the bridge's save to the shared slot is the
// publication. Run polls the slot and fans out whenever its bytes change;
// own writes come back too and are filtered upstream by envelope origin.
type SlotWatcher struct {
	slot     store.SnapshotStore
	interval time.Duration

	mu     sync.Mutex
	subs   map[int]func([]byte)
	nextID int
	last   []byte
	primed bool

	running int32
}

func NewSlotWatcher(slot store.SnapshotStore, interval time.Duration) *SlotWatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &SlotWatcher{
		slot:     slot,
		interval: interval,
		subs:     make(map[int]func([]byte)),
	}
}

func (w *SlotWatcher) Publish(data []byte) {
	// The saved slot is the channel; remember the bytes so the poll loop
	// does not replay our own write.
	w.mu.Lock()
	w.last = append([]byte(nil), data...)
	w.primed = true
	w.mu.Unlock()
}

func (w *SlotWatcher) Subscribe(fn func(data []byte)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
}

// Run polls until ctx is done. A slow fan-out never overlaps the next tick.
func (w *SlotWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !atomic.CompareAndSwapInt32(&w.running, 0, 1) {
				continue
			}
			w.poll()
			atomic.StoreInt32(&w.running, 0)
		}
	}
}

func (w *SlotWatcher) poll() {
	data, err := w.slot.Load()
	if err != nil {
		if !errors.Is(err, store.ErrNoSnapshot) {
			log.Printf("slot watcher load error: %v", err)
		}
		return
	}

	w.mu.Lock()
	if !w.primed {
		// First observation; the bridge already loaded it at cold start.
		w.last = data
		w.primed = true
		w.mu.Unlock()
		return
	}
	if bytes.Equal(w.last, data) {
		w.mu.Unlock()
		return
	}
	w.last = data
	handlers := make([]func([]byte), 0, len(w.subs))
	for _, fn := range w.subs {
		handlers = append(handlers, fn)
	}
	w.mu.Unlock()

	for _, fn := range handlers {
		fn(data)
	}
}
