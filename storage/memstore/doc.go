// Package memstore provides an in-memory storage.Store.
//
// Records are kept per type in insertion order, which is also the order
// Related returns them in. Integer identifiers are generated from a per-type
// sequence, UUID identifiers with uuid.New. Transactions work on a private
// copy of the state and publish it on Commit.
//
// Fault injection makes the store fail chosen operations, which is how the
// clone engine's rollback behavior is tested:
//
//	s := memstore.New(g, memstore.WithFault(
//	    memstore.FailOn(memstore.OpCreate, "Child", 2, errors.New("disk full")),
//	))
package memstore
