// Package state persists when each task document was last visited. The
// rollover engine compares that date with today to decide what to reset.
package state

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a document has never been visited.
var ErrNotFound = errors.New("state: no visit recorded")

// Visit is the persisted record for one document.
type Visit struct {
	Document  string    `json:"document"`   // absolute path of the task file
	LastVisit time.Time `json:"last_visit"` // when rollover last ran for it
}

// Store abstracts visit persistence for testability.
type Store interface {
	Load(document string) (Visit, error)
	Save(v Visit) error
	Close() error
}

// Open returns the store for the named backend: "json", "bolt" or "memory".
func Open(backend, path string) (Store, error) {
	switch backend {
	case "json":
		return NewFileStore(path), nil
	case "bolt":
		s, err := OpenBoltStore(path)
		if err != nil {
			return nil, fmt.Errorf("state: open bolt store: %w", err)
		}
		return s, nil
	case "memory":
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("state: unknown backend %q", backend)
	}
}
