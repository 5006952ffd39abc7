// Package identity carries "current user changed" signals from client devices and
// reads linked sign-in methods from Firebase Auth.
package identity

import (
	"context"
	"sort"
	"sync"
)

// Change is one identity change on one device. An empty UserID means signed out.
// Seq increases monotonically across all devices.
type Change struct {
	Seq      uint64 `json:"seq"`
	DeviceID string `json:"deviceId"`
	UserID   string `json:"userId,omitempty"`
}

// SignedOut reports whether the change is a sign-out.
func (c Change) SignedOut() bool { return c.UserID == "" }

// Listener is called for every published change.
type Listener func(ctx context.Context, c Change)

// Feed is the identity-change stream. Publish delivers synchronously to every
// listener in subscription order, so changes reach listeners in publish order per caller.
type Feed struct {
	mu        sync.Mutex
	seq       uint64
	nextID    int
	listeners map[int]Listener
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{listeners: make(map[int]Listener)}
}

// OnAuthStateChanged subscribes fn and returns a function that removes it.
func (f *Feed) OnAuthStateChanged(fn Listener) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

// Publish stamps and delivers a change, returning it.
func (f *Feed) Publish(ctx context.Context, deviceID, userID string) Change {
	f.mu.Lock()
	f.seq++
	c := Change{Seq: f.seq, DeviceID: deviceID, UserID: userID}
	ids := make([]int, 0, len(f.listeners))
	for id := range f.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, f.listeners[id])
	}
	f.mu.Unlock()

	for _, l := range listeners {
		l(ctx, c)
	}
	return c
}
