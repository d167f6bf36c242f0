// Package mixin provides reusable field sets for entity types.
//
// A mixin adds fields and edges to every type it is applied to:
//
//	schema.Entity("Conference").
//	    Mixin(mixin.Time{}, mixin.Tenant{}).
//	    Fields(field.String("title"))
//
// Mixins with fields that must not be copied verbatim (timestamps,
// soft-delete markers) also provide clone hooks:
//
//	c := clone.New(g, store,
//	    clone.WithHooks("Conference", mixin.Hooks(mixin.Time{}, mixin.SoftDelete{})...),
//	)
//
// Schema documents refer to the built-in mixins by their Registry name:
//
//	- name: Conference
//	  mixins: [time, tenant]
package mixin
