package rtoml

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Categories of failure, matched with errors.Is.
var (
	ErrParsing       = errors.New("rtoml: parsing error")
	ErrSerialization = errors.New("rtoml: serialization error")
	ErrEncoding      = errors.New("rtoml: encoding error")
	ErrType          = errors.New("rtoml: type error")
)

// A ParsingError reports input that is not a valid TOML document. Line and
// Column are 1-based; Column counts bytes.
type ParsingError struct {
	Message string
	Line    int
	Column  int
	// Err is the underlying cause, such as a *DuplicateKeyError or a
	// *TemporalError. It may be nil.
	Err error
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("rtoml: parsing error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func (e *ParsingError) Unwrap() error { return e.Err }

func (e *ParsingError) Is(target error) bool { return target == ErrParsing }

// A DuplicateKeyError reports a key or table defined more than once.
type DuplicateKeyError struct {
	// TablePath is the path of the table holding Key; empty for the root.
	TablePath []string
	Key       string
	Line      int
	Column    int
}

func (e *DuplicateKeyError) Error() string {
	if len(e.TablePath) == 0 {
		return fmt.Sprintf("duplicate key %s", quoteKey(e.Key))
	}
	return fmt.Sprintf("duplicate key %s in table `%s`", quoteKey(e.Key), formatPath(e.TablePath))
}

// A TemporalError reports a date or time literal that is malformed or names
// a moment that does not exist, such as February 30.
type TemporalError struct {
	Literal string
	Reason  string
	Line    int
	Column  int
}

func (e *TemporalError) Error() string {
	return fmt.Sprintf("invalid date-time %q: %s", e.Literal, e.Reason)
}

// A SerializationError reports a value that cannot be written as TOML.
type SerializationError struct {
	Message string
	Err     error
}

func (e *SerializationError) Error() string {
	if e.Err != nil {
		return "rtoml: " + e.Message + ": " + e.Err.Error()
	}
	return "rtoml: " + e.Message
}

func (e *SerializationError) Unwrap() error { return e.Err }

func (e *SerializationError) Is(target error) bool { return target == ErrSerialization }

// An UnsupportedTypeError is returned when a Go value of a type with no
// TOML mapping is encountered.
type UnsupportedTypeError struct {
	Type reflect.Type
	// Key is set when the type was used as a map key.
	Key bool
}

func (e *UnsupportedTypeError) Error() string {
	if e.Key {
		return e.Type.String() + " is not serializable as a TOML key"
	}
	return e.Type.String() + " is not serializable to TOML"
}

// An EncodingError reports byte content that is not valid UTF-8.
type EncodingError struct {
	// Offset of the first invalid byte.
	Offset int
	// Length of the invalid sequence starting at Offset.
	Length int
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid UTF-8 at byte offset %d (length %d)", e.Offset, e.Length)
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

// A TypeError reports an argument of the wrong type at the API boundary.
type TypeError struct {
	Message string
}

func (e *TypeError) Error() string { return "rtoml: " + e.Message }

func (e *TypeError) Is(target error) bool { return target == ErrType }

// A MarshalerError represents an error from a TOMLValue or MarshalText
// method called while encoding.
type MarshalerError struct {
	Type reflect.Type
	Err  error
}

func (e *MarshalerError) Error() string {
	return "error calling marshaler for type " + e.Type.String() + ": " + e.Err.Error()
}

func (e *MarshalerError) Unwrap() error { return e.Err }

// An UnmarshalerError represents an error from an UnmarshalTOMLValue or
// UnmarshalText method called while decoding into a Go value.
type UnmarshalerError struct {
	Type reflect.Type
	Err  error
}

func (e *UnmarshalerError) Error() string {
	return "rtoml: error calling unmarshaler for type " + e.Type.String() + ": " + e.Err.Error()
}

func (e *UnmarshalerError) Unwrap() error { return e.Err }

func formatPath(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = formatKey(p)
	}
	return strings.Join(parts, ".")
}

func quoteKey(k string) string {
	return "`" + formatKey(k) + "`"
}
