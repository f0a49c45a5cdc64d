package journal

import (
	"fmt"
	"time"
)

// State is the lifecycle position of a trash item
type State uint8

const (
	Active State = iota
	Restored
	Purged
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Restored:
		return "restored"
	case Purged:
		return "purged"
	}
	return "unknown"
}

// canTransition lists the only legal moves: Active to Restored or Purged
func canTransition(from, to State) bool {
	return from == Active && (to == Restored || to == Purged)
}

// ItemKind records why an item ended up in the trash
type ItemKind uint8

const (
	// Deleted items were removed by the user
	Deleted ItemKind = iota
	// Replaced items were moved aside so a move or copy could take their place
	Replaced
)

func (k ItemKind) String() string {
	if k == Replaced {
		return "replaced"
	}
	return "deleted"
}

// Item is a value snapshot of one trashed path. The journal owns the live
// state; use Journal.Item to refresh it.
type Item struct {
	ID        uint64
	Kind      ItemKind
	Original  string
	TrashPath string
	TrashedAt time.Time
	State     State
}

func (i Item) String() string {
	return fmt.Sprintf("#%d %s %s (%s)", i.ID, i.Kind, i.Original, i.State)
}

// record is the live item guarded by the journal mutex
type record struct {
	Item
	busy bool
	// stranded items hold the only complete copy after a failed move
	stranded bool
}
