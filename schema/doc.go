// Package schema provides the building blocks for declaring entity types.
//
//   - [field]: field builders for entity columns
//   - [edge]: edge builders for entity relations
//   - [load]: YAML schema documents
//
// An entity declaration names the type, its fields and the relations it
// owns, plus an optional default clone configuration:
//
//	schema.Entity("Conference").
//	    Fields(
//	        field.Int("client_id"),
//	        field.String("title"),
//	        field.String("code"),
//	    ).
//	    Edges(
//	        edge.To("attendees", "Attendee").Field("conference_id"),
//	        edge.To("modules", "Module").Field("conference_id"),
//	        edge.To("settings", "Settings").ManyToMany(),
//	    ).
//	    CloneDefaults(map[string]any{
//	        "attendees": map[string]any{},
//	        "modules":   map[string]any{"module_attendees": map[string]any{}},
//	    })
//
// Declarations are resolved and validated once by graph.New.
package schema
