package field

import (
	"fmt"
	"strings"
)

// A Type represents a field type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeTime
	TypeUUID
	TypeBytes
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeInt:     "int",
	TypeFloat:   "float",
	TypeString:  "string",
	TypeTime:    "time",
	TypeUUID:    "uuid",
	TypeBytes:   "bytes",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type is a known field type.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// ParseType returns the Type with the given name. Names are matched
// case-insensitively and accept a few common aliases ("int64", "text", "uuid").
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bool", "boolean":
		return TypeBool, nil
	case "int", "int64", "integer":
		return TypeInt, nil
	case "float", "float64", "double":
		return TypeFloat, nil
	case "string", "text":
		return TypeString, nil
	case "time", "timestamp", "datetime":
		return TypeTime, nil
	case "uuid":
		return TypeUUID, nil
	case "bytes", "blob":
		return TypeBytes, nil
	}
	return TypeInvalid, fmt.Errorf("field: unknown type %q", s)
}

// A Descriptor for field configuration.
type Descriptor struct {
	Name     string // field name, also used as the column name.
	Type     Type   // field type.
	Optional bool   // nullable column.
	Comment  string // field comment.
}

// Builder for fields.
type Builder struct {
	desc *Descriptor
}

// Bool returns a new bool field.
func Bool(name string) *Builder { return newBuilder(name, TypeBool) }

// Int returns a new int64 field. Foreign-key columns of integer keyed
// types are declared with Int.
func Int(name string) *Builder { return newBuilder(name, TypeInt) }

// Float returns a new float64 field.
func Float(name string) *Builder { return newBuilder(name, TypeFloat) }

// String returns a new string field.
func String(name string) *Builder { return newBuilder(name, TypeString) }

// Time returns a new time.Time field.
func Time(name string) *Builder { return newBuilder(name, TypeTime) }

// UUID returns a new uuid.UUID field.
func UUID(name string) *Builder { return newBuilder(name, TypeUUID) }

// Bytes returns a new []byte field.
func Bytes(name string) *Builder { return newBuilder(name, TypeBytes) }

// New returns a field of the given type.
func New(name string, t Type) *Builder { return newBuilder(name, t) }

func newBuilder(name string, t Type) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Type: t}}
}

// Optional indicates that this field may hold NULL.
func (b *Builder) Optional() *Builder {
	b.desc.Optional = true
	return b
}

// Comment sets the comment of the field.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
