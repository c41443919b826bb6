// Package tomltest converts between value trees and the tagged JSON form
// used by the toml-test conformance suite.
//
// In that form every scalar is an object with a "type" and a string
// "value", arrays are JSON arrays and tables are JSON objects.
package tomltest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/KimNorgaard/go-rtoml/datetime"
	"github.com/KimNorgaard/go-rtoml/value"
)

// Tagged type names.
const (
	TypeString        = "string"
	TypeInteger       = "integer"
	TypeFloat         = "float"
	TypeBool          = "bool"
	TypeDatetime      = "datetime"
	TypeDatetimeLocal = "datetime-local"
	TypeDateLocal     = "date-local"
	TypeTimeLocal     = "time-local"
)

// Marshal returns the tagged JSON for t. Object members keep the order of
// the table.
func Marshal(t *value.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, v value.Value) error {
	switch x := v.(type) {
	case *value.Table:
		buf.WriteByte('{')
		i := 0
		for k, e := range x.All() {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			if err := writeJSON(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeNode(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case value.Array:
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case value.Null:
		buf.WriteString("null")
		return nil
	}

	typ, text, err := tag(v)
	if err != nil {
		return err
	}
	return writeJSON(buf, struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{typ, text})
}

func writeJSON(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func tag(v value.Value) (string, string, error) {
	switch x := v.(type) {
	case value.String:
		return TypeString, string(x), nil
	case value.Integer:
		return TypeInteger, strconv.FormatInt(int64(x), 10), nil
	case value.Float:
		f := float64(x)
		switch {
		case math.IsNaN(f):
			return TypeFloat, "nan", nil
		case math.IsInf(f, 1):
			return TypeFloat, "inf", nil
		case math.IsInf(f, -1):
			return TypeFloat, "-inf", nil
		}
		return TypeFloat, strconv.FormatFloat(f, 'g', -1, 64), nil
	case value.Boolean:
		return TypeBool, strconv.FormatBool(bool(x)), nil
	case value.OffsetDateTime:
		return TypeDatetime, x.String(), nil
	case value.LocalDateTime:
		return TypeDatetimeLocal, x.String(), nil
	case value.LocalDate:
		return TypeDateLocal, x.String(), nil
	case value.LocalTime:
		return TypeTimeLocal, x.String(), nil
	default:
		return "", "", fmt.Errorf("tomltest: cannot tag %T", v)
	}
}

// Unmarshal reads tagged JSON and rebuilds the tree. The top level must
// be an object.
func Unmarshal(data []byte) (*value.Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	n, err := readNode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("tomltest: trailing data after document")
	}
	v, err := n.toValue()
	if err != nil {
		return nil, err
	}
	t, ok := v.(*value.Table)
	if !ok {
		return nil, fmt.Errorf("tomltest: top-level value must be a table, got %s", v.Kind())
	}
	return t, nil
}

// node is a JSON value with object member order preserved, which
// encoding/json does not keep when decoding into maps.
type node struct {
	members []member
	elems   []*node
	str     *string
	object  bool
	array   bool
}

type member struct {
	key string
	val *node
}

func readNode(dec *json.Decoder) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("tomltest: %w", err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			n := &node{object: true}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("tomltest: %w", err)
				}
				key, _ := kt.(string)
				val, err := readNode(dec)
				if err != nil {
					return nil, err
				}
				n.members = append(n.members, member{key, val})
			}
			_, err := dec.Token()
			return n, err
		case '[':
			n := &node{array: true}
			for dec.More() {
				e, err := readNode(dec)
				if err != nil {
					return nil, err
				}
				n.elems = append(n.elems, e)
			}
			_, err := dec.Token()
			return n, err
		}
	case string:
		return &node{str: &t}, nil
	}
	return nil, fmt.Errorf("tomltest: unexpected JSON token %v", tok)
}

// tagged reports the type and value of n when it is a tagged scalar.
func (n *node) tagged() (string, string, bool) {
	if !n.object || len(n.members) != 2 {
		return "", "", false
	}
	var typ, val *string
	for _, m := range n.members {
		switch m.key {
		case "type":
			typ = m.val.str
		case "value":
			val = m.val.str
		}
	}
	if typ == nil || val == nil {
		return "", "", false
	}
	return *typ, *val, true
}

func (n *node) toValue() (value.Value, error) {
	if typ, text, ok := n.tagged(); ok {
		return untag(typ, text)
	}
	switch {
	case n.object:
		t := &value.Table{}
		for _, m := range n.members {
			v, err := m.val.toValue()
			if err != nil {
				return nil, err
			}
			t.Set(m.key, v)
		}
		return t, nil
	case n.array:
		arr := value.Array{}
		for _, e := range n.elems {
			v, err := e.toValue()
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	default:
		return nil, errors.New("tomltest: bare JSON string outside a tagged value")
	}
}

func untag(typ, text string) (value.Value, error) {
	switch typ {
	case TypeString:
		return value.String(text), nil
	case TypeInteger:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tomltest: %w", err)
		}
		return value.Integer(i), nil
	case TypeFloat:
		switch strings.TrimPrefix(text, "+") {
		case "inf":
			return value.Float(math.Inf(1)), nil
		case "-inf":
			return value.Float(math.Inf(-1)), nil
		case "nan", "-nan":
			return value.Float(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("tomltest: %w", err)
		}
		return value.Float(f), nil
	case TypeBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("tomltest: %w", err)
		}
		return value.Boolean(b), nil
	case TypeDatetime, TypeDatetimeLocal, TypeDateLocal, TypeTimeLocal:
		t, err := datetime.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("tomltest: %w", err)
		}
		v, err := value.FromTemporal(t)
		if err != nil {
			return nil, err
		}
		if want := kinds[typ]; v.Kind() != want {
			return nil, fmt.Errorf("tomltest: %q is a %s, not a %s", text, v.Kind(), want)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("tomltest: unknown type %q", typ)
	}
}

var kinds = map[string]value.Kind{
	TypeDatetime:      value.KindOffsetDateTime,
	TypeDatetimeLocal: value.KindLocalDateTime,
	TypeDateLocal:     value.KindLocalDate,
	TypeTimeLocal:     value.KindLocalTime,
}
