// Package field provides fluent builders for declaring entity fields.
//
// Field names are column names. The clone engine copies every declared field
// of a record when it duplicates it, so a field only needs declaring when the
// store must read or write it:
//
//	field.String("title")
//	field.Int("conference_id")          // foreign key to an integer keyed type
//	field.UUID("schedule_id").Optional() // nullable foreign key to a UUID keyed type
//	field.Time("created")
//
// Supported types are bool, int (int64), float (float64), string, time,
// uuid and bytes.
package field
