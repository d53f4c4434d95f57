package store

import (
	"sync"

	"github.com/Flyrell/logbook/internal/attendance"
)

// hub fans out in-process change notifications for stores without a native
// push channel.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]subscription
}

type subscription struct {
	uid  string
	keys map[string]bool
	fn   SnapshotFunc
}

func (h *hub) add(uid string, keys []string, fn SnapshotFunc) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]subscription)
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}

	id := h.next
	h.next++
	h.subs[id] = subscription{uid: uid, keys: set, fn: fn}

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// publish calls every matching subscriber outside the lock with the subset
// of changed entries it asked for.
func (h *hub) publish(uid string, changed attendance.Snapshot) {
	if len(changed) == 0 {
		return
	}

	h.mu.Lock()
	subs := make([]subscription, 0, len(h.subs))
	for _, s := range h.subs {
		if s.uid == uid {
			subs = append(subs, s)
		}
	}
	h.mu.Unlock()

	for _, s := range subs {
		view := attendance.Snapshot{}
		for k, e := range changed {
			if s.keys[k] {
				view[k] = e
			}
		}
		if len(view) > 0 {
			s.fn(view)
		}
	}
}
