package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/graphclone/graph"
	"github.com/syssam/graphclone/schema/field"
)

// ValidationError represents a problem of the tables derived from a graph.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found.\n")
	}
	return sb.String()
}

func (r *ValidationResult) addError(table, column, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{Table: table, Column: column, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) addWarning(table, column, format string, args ...any) {
	r.Warnings = append(r.Warnings, &ValidationError{Table: table, Column: column, Message: fmt.Sprintf(format, args...)})
}

// Validate checks that the tables of g can hold the records the clone
// engine writes:
//
//   - foreign-key columns have the type of the referenced id,
//   - junction tables do not collide with entity tables, and relations
//     sharing a junction table agree on its columns,
//   - self-referencing foreign keys are optional, so tree roots can exist.
func Validate(g *graph.Graph) *ValidationResult {
	r := &ValidationResult{}
	entities := make(map[string]string, len(g.Types))
	for _, t := range g.Types {
		if other, ok := entities[t.Table]; ok {
			r.addError(t.Table, "", "table used by %s and %s", other, t.Name)
			continue
		}
		entities[t.Table] = t.Name
	}
	junctions := make(map[string]*graph.Relation)
	for _, t := range g.Types {
		for _, rel := range t.Relations {
			switch {
			case rel.Kind == graph.O2O || rel.Kind == graph.O2M:
				fk, _ := rel.Target.Field(rel.Column)
				if !compatible(fk.Type, rel.Owner.ID.Type) {
					r.addError(rel.Target.Table, rel.Column, "%s column references %s id of type %s", fk.Type, rel.Owner.Name, rel.Owner.ID.Type)
				}
				if rel.Owner == rel.Target && !fk.Optional {
					r.addWarning(rel.Target.Table, rel.Column, "self-referencing foreign key of %s is not optional", rel)
				}
			case rel.AutoManaged():
				j := rel.Junction
				if owner, ok := entities[j.Table]; ok {
					r.addError(j.Table, "", "junction table of %s collides with the table of %s", rel, owner)
					continue
				}
				prev, ok := junctions[j.Table]
				if !ok {
					junctions[j.Table] = rel
					continue
				}
				if !sameJunction(prev, rel) {
					r.addError(j.Table, "", "junction table of %s does not match the one of %s", rel, prev)
				}
			}
		}
	}
	return r
}

// compatible reports if a foreign-key column of type fk can hold an id of type id.
func compatible(fk, id field.Type) bool {
	if fk == id {
		return true
	}
	// UUIDs are commonly stored as text.
	return fk == field.TypeString && id == field.TypeUUID
}

// sameJunction reports if two relations use the junction table the same
// way, either in the same direction or as each other's inverse.
func sameJunction(a, b *graph.Relation) bool {
	ja, jb := a.Junction, b.Junction
	if a.Owner == b.Owner && a.Target == b.Target {
		return ja.OwnerColumn == jb.OwnerColumn && ja.MemberColumn == jb.MemberColumn
	}
	if a.Owner == b.Target && a.Target == b.Owner {
		return ja.OwnerColumn == jb.MemberColumn && ja.MemberColumn == jb.OwnerColumn
	}
	return false
}
