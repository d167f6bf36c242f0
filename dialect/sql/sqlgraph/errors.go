package sqlgraph

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/syssam/graphclone"
)

// Constraint kinds reported by ConstraintKind.
const (
	UniqueConstraint     = "unique"
	ForeignKeyConstraint = "foreign key"
	CheckConstraint      = "check"
)

// constraint describes how each driver reports one kind of violation.
type constraint struct {
	kind     string
	sqlstate string   // PostgreSQL class 23 code
	mysql    []uint16 // MySQL error numbers
	messages []string // fallback substrings, SQLite reports text only
}

var constraints = []constraint{
	{
		kind:     UniqueConstraint,
		sqlstate: "23505",
		mysql:    []uint16{1062},
		messages: []string{"Error 1062", "violates unique constraint", "UNIQUE constraint failed"},
	},
	{
		kind:     ForeignKeyConstraint,
		sqlstate: "23503",
		mysql:    []uint16{1451, 1452},
		messages: []string{"Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"},
	},
	{
		kind:     CheckConstraint,
		sqlstate: "23514",
		mysql:    []uint16{3819},
		messages: []string{"Error 3819", "violates check constraint", "CHECK constraint failed"},
	},
}

// sqlStateError is implemented by drivers exposing SQLSTATE codes (pgx and others).
type sqlStateError interface {
	SQLState() string
}

// ConstraintKind classifies err as a unique, foreign-key or check
// violation. It returns false for any other error.
func ConstraintKind(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var (
		state  string
		number uint16
	)
	var pqErr *pq.Error
	var myErr *mysql.MySQLError
	switch {
	case errors.As(err, &pqErr):
		state = string(pqErr.Code)
	case errors.As(err, &myErr):
		number = myErr.Number
	default:
		if e, ok := asError[sqlStateError](err); ok {
			state = e.SQLState()
		}
	}
	msg := err.Error()
	for _, c := range constraints {
		if state != "" && state == c.sqlstate {
			return c.kind, true
		}
		for _, n := range c.mysql {
			if number == n {
				return c.kind, true
			}
		}
		if containsAny(msg, c.messages...) {
			return c.kind, true
		}
	}
	return "", false
}

// IsConstraintError returns true if the error resulted from a database
// constraint violation, or was already translated into one.
func IsConstraintError(err error) bool {
	if graphclone.IsConstraintError(err) {
		return true
	}
	_, ok := ConstraintKind(err)
	return ok
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
func IsUniqueConstraintError(err error) bool {
	kind, _ := ConstraintKind(err)
	return kind == UniqueConstraint
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	kind, _ := ConstraintKind(err)
	return kind == ForeignKeyConstraint
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	kind, _ := ConstraintKind(err)
	return kind == CheckConstraint
}

// WrapConstraint translates a driver constraint violation into a
// graphclone.ConstraintError. Other errors are returned unchanged.
func WrapConstraint(err error) error {
	if err == nil || graphclone.IsConstraintError(err) {
		return err
	}
	kind, ok := ConstraintKind(err)
	if !ok {
		return err
	}
	return graphclone.NewConstraintError(kind+": "+err.Error(), err)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
