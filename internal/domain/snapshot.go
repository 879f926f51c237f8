package domain

import (
	"errors"
	"time"
)

// ErrNoSnapshot is returned when no snapshot has been persisted yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Names of the raw feeds a snapshot is built from.
const (
	FeedCatalog    = "catalog"
	FeedConditions = "conditions"
)

// Snapshot is the pair of derived maps produced by one refresh cycle. It is
// replaced wholesale on the next cycle and never patched.
type Snapshot struct {
	Generation   string       `json:"generation"`
	RefreshedAt  time.Time    `json:"refreshed_at"`
	Catalog      Catalog      `json:"catalog"`
	Observations Observations `json:"observations"`
}

// NewSnapshot stamps a catalog and observation set with the refresh time.
func NewSnapshot(refreshedAt time.Time, cat Catalog, obs Observations) Snapshot {
	refreshedAt = refreshedAt.UTC()
	return Snapshot{
		Generation:   refreshedAt.Format(time.RFC3339Nano),
		RefreshedAt:  refreshedAt,
		Catalog:      cat,
		Observations: obs,
	}
}
