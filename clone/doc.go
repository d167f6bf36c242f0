// Package clone duplicates a record together with a configured part of
// its relation graph.
//
// A Cloner walks the relations of the root's type. Every relation named by
// the Config is handed to the cloner of its kind, which copies records,
// rewires foreign keys and recurses with the nested Config:
//
//   - one-to-one: the single dependent is copied onto the new owner;
//   - one-to-many: every dependent is copied onto the new owner, and clones
//     made earlier that still reference the original owner are patched;
//   - many-to-many: members are copied (or, for shared relations, reused)
//     and linked to the new owner in one Attach call.
//
// An IdentityMap scoped to the call records which records were visited
// and what they were copied to, so every record is copied at most once
// and cyclic graphs terminate.
//
//	c := clone.New(g, store,
//	    clone.WithLogger(logger),
//	    clone.WithHooks("Conference", regenerateCode),
//	)
//	root, err := c.Clone(ctx, "Conference", 1, clone.Config{
//	    "attendees": {},
//	    "modules":   {"attendees": {}},
//	})
//
// When the store implements storage.Transactor the whole call runs in one
// transaction, so a failed clone leaves no record behind.
package clone
