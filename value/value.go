// Package value defines the tree a TOML document decodes into and a dump
// encodes from.
//
// Value is a closed union: only the types in this package implement it.
// Code that consumes a tree switches on the concrete type and treats the
// default branch as a programming error.
package value

import (
	"fmt"

	"github.com/KimNorgaard/go-rtoml/datetime"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	Invalid Kind = iota
	KindNull
	KindString
	KindInteger
	KindFloat
	KindBoolean
	KindOffsetDateTime
	KindLocalDateTime
	KindLocalDate
	KindLocalTime
	KindArray
	KindTable
)

var kindNames = [...]string{
	Invalid:            "invalid",
	KindNull:           "null",
	KindString:         "string",
	KindInteger:        "integer",
	KindFloat:          "float",
	KindBoolean:        "boolean",
	KindOffsetDateTime: "offset date-time",
	KindLocalDateTime:  "local date-time",
	KindLocalDate:      "local date",
	KindLocalTime:      "local time",
	KindArray:          "array",
	KindTable:          "table",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is any node of a TOML tree.
type Value interface {
	Kind() Kind
	valueNode()
}

// Null marks a value with no TOML representation. It never comes out of a
// parse unless a none sentinel was configured, and a dump either omits it
// or replaces it with the configured none value.
type Null struct{}

type String string

type Integer int64

type Float float64

type Boolean bool

type OffsetDateTime struct{ datetime.OffsetDateTime }

type LocalDateTime struct{ datetime.LocalDateTime }

type LocalDate struct{ datetime.Date }

type LocalTime struct{ datetime.Time }

// Array is an ordered sequence of values. Elements may mix kinds.
type Array []Value

func (Null) Kind() Kind           { return KindNull }
func (String) Kind() Kind         { return KindString }
func (Integer) Kind() Kind        { return KindInteger }
func (Float) Kind() Kind          { return KindFloat }
func (Boolean) Kind() Kind        { return KindBoolean }
func (OffsetDateTime) Kind() Kind { return KindOffsetDateTime }
func (LocalDateTime) Kind() Kind  { return KindLocalDateTime }
func (LocalDate) Kind() Kind      { return KindLocalDate }
func (LocalTime) Kind() Kind      { return KindLocalTime }
func (Array) Kind() Kind          { return KindArray }
func (*Table) Kind() Kind         { return KindTable }

func (Null) valueNode()           {}
func (String) valueNode()         {}
func (Integer) valueNode()        {}
func (Float) valueNode()          {}
func (Boolean) valueNode()        {}
func (OffsetDateTime) valueNode() {}
func (LocalDateTime) valueNode()  {}
func (LocalDate) valueNode()      {}
func (LocalTime) valueNode()      {}
func (Array) valueNode()          {}
func (*Table) valueNode()         {}

// FromTemporal wraps a parsed temporal literal in the matching Value.
func FromTemporal(t datetime.Temporal) (Value, error) {
	switch t := t.(type) {
	case datetime.OffsetDateTime:
		return OffsetDateTime{t}, nil
	case datetime.LocalDateTime:
		return LocalDateTime{t}, nil
	case datetime.Date:
		return LocalDate{t}, nil
	case datetime.Time:
		return LocalTime{t}, nil
	default:
		return nil, fmt.Errorf("value: unknown temporal type %T", t)
	}
}
