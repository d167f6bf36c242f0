// Rules return Allow, Deny or Skip decisions; a MutationPolicy evaluates
// them in order until one allows or denies. A policy whose rules all skip
// allows the write.
//
//	policy := privacy.MutationPolicy{
//	    privacy.DenyIfNoViewer(),
//	    privacy.DenyTypeRule("Invoice"),
//	    privacy.OnOperation(privacy.HasRole("admin"), clone.OpAttach),
//	    privacy.TenantRule("tenant_id"),
//	}
//	c := clone.New(g, store, clone.WithPolicy(policy))
//
//	ctx = privacy.WithViewer(ctx, &privacy.SimpleViewer{
//	    UserID:   "42",
//	    Roles:    []string{"admin"},
//	    TenantID: "acme",
//	})
//	root, err := c.Clone(ctx, "Conference", 1, nil)
//
// A denied write aborts the clone with a graphclone.PrivacyError wrapping
// the decision, and the clone's transaction is rolled back.
//
// Single rules return the Allow sentinel as an error; pass them to the
// clone engine inside a MutationPolicy, which turns Allow into nil.
package privacy
