package clone

import (
	"context"
	"strings"

	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/storage"
)

// Op is the operation of a mutation.
type Op uint

// Mutation operations.
const (
	OpCreate Op = 1 << iota // a clone record is created.
	OpUpdate                // fields of a clone are patched.
	OpAttach                // members are linked through a junction table.
)

// Is reports whether o matches the given operation mask.
func (o Op) Is(op Op) bool { return o&op != 0 }

// String returns the operation name, e.g. "create" or "create|update".
func (o Op) String() string {
	var ops []string
	for _, op := range []Op{OpCreate, OpUpdate, OpAttach} {
		if o.Is(op) {
			ops = append(ops, opNames[op])
		}
	}
	if len(ops) == 0 {
		return "unknown"
	}
	return strings.Join(ops, "|")
}

var opNames = map[Op]string{
	OpCreate: "create",
	OpUpdate: "update",
	OpAttach: "attach",
}

// Mutation describes one write performed by a clone operation. Hooks may
// change Record before it is created; policies may reject the write.
type Mutation struct {
	Op       Op
	Type     *graph.Type
	Relation *graph.Relation // nil for the root record.
	Original *storage.Record // record being copied; the original owner for OpAttach.
	Record   *storage.Record // record being written; the owner clone for OpAttach.
	Fields   []string        // updated fields (OpUpdate).
	Members  []any           // linked member ids (OpAttach).
}

// Field returns the value of a field of the written record.
func (m *Mutation) Field(name string) (any, bool) {
	if m.Record == nil {
		return nil, false
	}
	v, ok := m.Record.Fields[name]
	return v, ok
}

// Hook runs before a clone record of its type is created.
type Hook func(context.Context, *Mutation) error

// Policy decides whether a mutation is allowed. A non-nil error rejects it.
type Policy interface {
	EvalMutation(context.Context, *Mutation) error
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(context.Context, *Mutation) error

// EvalMutation returns f(ctx, m).
func (f PolicyFunc) EvalMutation(ctx context.Context, m *Mutation) error {
	return f(ctx, m)
}
