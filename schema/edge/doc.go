// Package edge provides fluent builders for declaring relations between entities.
//
// Every edge is declared on the owner side and its kind is fixed by the
// declaration, never inspected at clone time:
//
//	// O2M (reverse foreign key): Child.root_id points at Root.
//	edge.To("children", "Child").Field("root_id")
//
//	// O2O: at most one Profile per User.
//	edge.To("profile", "Profile").Field("user_id").Unique()
//
//	// M2M over an auto-managed junction table.
//	edge.To("settings", "Settings").Through("conference_settings", "conference_id", "settings_id")
//
//	// M2M over an explicit junction entity. Not cloned as M2M.
//	edge.To("attendees", "User").ThroughEntity("ConferenceAttendee")
//
// # Clone policies
//
// Shared marks a many-to-many edge whose members are linked to the clone
// rather than duplicated. Fresh and Inherit describe how a one-to-one
// dependent is rebuilt from its new owner:
//
//	edge.To("schedule", "ScheduleModule").
//	    Field("module_ptr_id").
//	    Unique().
//	    Fresh().
//	    Inherit("conference_id", "conference_id").
//	    Inherit("title", "title")
package edge
