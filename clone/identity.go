package clone

import (
	"github.com/syssam/graphclone/storage"
)

// IdentityMap records, per entity type, the identifiers already handled by
// one clone operation and the clones created for them. Identifiers are
// compared by storage.Key.
//
// Once an original identifier is visited it is never cloned again in the
// same operation; later references resolve to its clone through CloneOf.
type IdentityMap struct {
	visited         map[string]map[string]struct{}
	originalToClone map[string]map[string]any
	clonesByID      map[string]map[string]*storage.Record
}

// NewIdentityMap returns an empty identity map.
func NewIdentityMap() *IdentityMap {
	return &IdentityMap{
		visited:         make(map[string]map[string]struct{}),
		originalToClone: make(map[string]map[string]any),
		clonesByID:      make(map[string]map[string]*storage.Record),
	}
}

// Visit marks the given identifiers of typ as visited.
func (m *IdentityMap) Visit(typ string, ids ...any) {
	set, ok := m.visited[typ]
	if !ok {
		set = make(map[string]struct{})
		m.visited[typ] = set
	}
	for _, id := range ids {
		set[storage.Key(id)] = struct{}{}
	}
}

// Visited reports if the identifier of typ was visited, either as an
// original or as a clone.
func (m *IdentityMap) Visited(typ string, id any) bool {
	_, ok := m.visited[typ][storage.Key(id)]
	return ok
}

// Register records clone as the copy of the original identifier. Both
// identifiers become visited.
func (m *IdentityMap) Register(typ string, originalID any, clone *storage.Record) {
	m.Visit(typ, originalID, clone.ID)
	if m.originalToClone[typ] == nil {
		m.originalToClone[typ] = make(map[string]any)
		m.clonesByID[typ] = make(map[string]*storage.Record)
	}
	m.originalToClone[typ][storage.Key(originalID)] = clone.ID
	m.clonesByID[typ][storage.Key(clone.ID)] = clone
}

// CloneID returns the identifier of the clone of an original record.
func (m *IdentityMap) CloneID(typ string, originalID any) (any, bool) {
	id, ok := m.originalToClone[typ][storage.Key(originalID)]
	return id, ok
}

// CloneOf returns the in-memory clone of an original record.
func (m *IdentityMap) CloneOf(typ string, originalID any) (*storage.Record, bool) {
	id, ok := m.CloneID(typ, originalID)
	if !ok {
		return nil, false
	}
	r, ok := m.clonesByID[typ][storage.Key(id)]
	return r, ok
}

// Len returns the number of clones registered for typ.
func (m *IdentityMap) Len(typ string) int {
	return len(m.originalToClone[typ])
}
