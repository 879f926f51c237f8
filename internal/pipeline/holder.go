package pipeline

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/couchcryptid/buoy-placefile/internal/domain"
)

// Holder publishes the current snapshot to readers. A swap replaces the
// whole snapshot, so a render never sees a catalog from one refresh paired
// with observations from another.
type Holder struct {
	snap atomic.Pointer[domain.Snapshot]
}

// Load returns the current snapshot, or false before the first Store.
func (h *Holder) Load() (domain.Snapshot, bool) {
	s := h.snap.Load()
	if s == nil {
		return domain.Snapshot{}, false
	}
	return *s, true
}

// Store makes snap the current snapshot.
func (h *Holder) Store(snap domain.Snapshot) {
	h.snap.Store(&snap)
}

// CheckReadiness returns nil once a snapshot is available.
func (h *Holder) CheckReadiness(_ context.Context) error {
	if h.snap.Load() == nil {
		return errors.New("no snapshot loaded yet")
	}
	return nil
}
