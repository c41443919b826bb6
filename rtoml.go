package rtoml

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KimNorgaard/go-rtoml/value"
)

// Loads parses a TOML document held in a string.
func Loads(s string, opts ...Option) (*value.Table, error) {
	return Parse([]byte(s), opts...)
}

// Parse parses a TOML document into an ordered tree.
func Parse(data []byte, opts ...Option) (*value.Table, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return parseDocument(data, o)
}

// Load reads r to EOF and parses it as a TOML document.
func Load(r io.Reader, opts ...Option) (*value.Table, error) {
	return NewDecoder(r, opts...).Table()
}

// LoadFile reads and parses the TOML document at path.
func LoadFile(path string, opts ...Option) (*value.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rtoml: %w", err)
	}
	return Parse(data, opts...)
}

// Dumps returns the TOML text for v.
func Dumps(v any, opts ...Option) (string, error) {
	var sb strings.Builder
	if err := NewEncoder(&sb, opts...).Encode(v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Dump writes the TOML text for v to w and returns the number of bytes
// written. Nothing is written when v cannot be serialized.
func Dump(v any, w io.Writer, opts ...Option) (int, error) {
	if w == nil {
		return 0, &TypeError{Message: "Dump(nil writer)"}
	}
	return NewEncoder(w, opts...).encode(v)
}

// DumpFile writes the TOML text for v to the file at path, creating or
// truncating it, and returns the number of bytes written. The file is left
// untouched when v cannot be serialized.
func DumpFile(v any, path string, opts ...Option) (int, error) {
	o, err := newOptions(opts)
	if err != nil {
		return 0, err
	}
	b, err := encodeValue(v, o)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return 0, fmt.Errorf("rtoml: %w", err)
	}
	return len(b), nil
}

// Marshal returns the TOML encoding of v.
func Marshal(v any, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	e := NewEncoder(&buf, opts...)
	if err := e.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses the TOML-encoded data and stores the result in the
// value pointed to by v.
func Unmarshal(data []byte, v any, opts ...Option) error {
	return NewDecoder(bytes.NewReader(data), opts...).Decode(v)
}
