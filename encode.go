package rtoml

import (
	"bytes"
	"encoding"
	"errors"
	"io"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/KimNorgaard/go-rtoml/datetime"
	"github.com/KimNorgaard/go-rtoml/value"
)

// Valuer is the interface implemented by types that convert themselves
// into a TOML tree node. A nil result is treated as value.Null.
type Valuer interface {
	TOMLValue() (value.Value, error)
}

// Encoder writes TOML documents to an output stream.
type Encoder struct {
	w    io.Writer
	opts []Option
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{w: w, opts: opts}
}

// Encode writes the TOML encoding of v to the stream. Nothing is written
// when v cannot be encoded.
func (e *Encoder) Encode(v any) error {
	_, err := e.encode(v)
	return err
}

func (e *Encoder) encode(v any) (int, error) {
	o, err := newOptions(e.opts)
	if err != nil {
		return 0, err
	}
	b, err := encodeValue(v, o)
	if err != nil {
		return 0, err
	}
	return e.w.Write(b)
}

// encodeValue converts v to a tree and renders it. The output is built in
// memory so that a failure leaves no partial document behind.
func encodeValue(v any, o *options) ([]byte, error) {
	es := &encodeState{opts: o, fields: fieldCache{}}
	node, err := es.marshalValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := newFormatter(&buf, o).format(node); err != nil {
		var se *SerializationError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &SerializationError{Message: "cannot serialize value", Err: err}
	}
	return buf.Bytes(), nil
}

// encodeState converts Go values into a value tree.
type encodeState struct {
	opts   *options
	depth  int
	path   []string
	fields fieldCache
}

var (
	valueType         = reflect.TypeFor[value.Value]()
	valuerType        = reflect.TypeFor[Valuer]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	timeType          = reflect.TypeFor[time.Time]()
)

// fail wraps cause with the key path being converted.
func (e *encodeState) fail(cause error) error {
	where := "value"
	if len(e.path) > 0 {
		where = "key `" + formatPath(e.path) + "`"
	}
	return &SerializationError{Message: "cannot serialize " + where, Err: cause}
}

func (e *encodeState) marshalValue(v reflect.Value) (value.Value, error) {
	// Handle nil interfaces explicitly to avoid panics.
	if !v.IsValid() || (v.Kind() == reflect.Interface && v.IsNil()) {
		return value.Null{}, nil
	}

	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.opts.maxDepth {
		return nil, e.fail(errors.New("exceeded max depth (cyclic structure?)"))
	}

	if v.Kind() == reflect.Pointer && v.IsNil() {
		return value.Null{}, nil
	}
	if node, ok, err := e.marshalCustom(v); ok {
		return node, err
	}

	// Follow pointers and interfaces to find the concrete value.
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return value.Null{}, nil
		}
		v = v.Elem()
		if node, ok, err := e.marshalCustom(v); ok {
			return node, err
		}
	}

	switch v.Kind() {
	case reflect.String:
		s := v.String()
		if off, n := invalidUTF8String(s); off >= 0 {
			return nil, e.fail(&EncodingError{Offset: off, Length: n})
		}
		return value.String(s), nil
	case reflect.Bool:
		return value.Boolean(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Integer(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, e.fail(errors.New("unsigned integer overflows a TOML integer"))
		}
		return value.Integer(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return value.Float(v.Float()), nil
	case reflect.Slice:
		if v.IsNil() {
			return value.Null{}, nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return e.marshalBytes(v.Bytes())
		}
		return e.marshalArray(v)
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return e.marshalBytes(b)
		}
		return e.marshalArray(v)
	case reflect.Map:
		if v.IsNil() {
			return value.Null{}, nil
		}
		return e.marshalMap(v)
	case reflect.Struct:
		return e.marshalStruct(v)
	default:
		return nil, e.fail(&UnsupportedTypeError{Type: v.Type()})
	}
}

// marshalCustom handles the types that bypass the kind-based walk: tree
// nodes, Valuers, time values and text marshalers. Both the value and a
// pointer to it are checked so that pointer receivers are honored.
func (e *encodeState) marshalCustom(v reflect.Value) (value.Value, bool, error) {
	t := v.Type()
	switch {
	case t.Implements(valueType):
		if v.Kind() == reflect.Interface {
			return nil, false, nil
		}
		node := v.Interface().(value.Value)
		return node, true, nil
	case t.Implements(valuerType):
		return e.callValuer(v)
	case v.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(valuerType):
		return e.callValuer(addressable(v).Addr())
	}

	switch x := v.Interface().(type) {
	case time.Time:
		return value.OffsetDateTime{OffsetDateTime: datetime.FromTime(x)}, true, nil
	case datetime.OffsetDateTime:
		return value.OffsetDateTime{OffsetDateTime: x}, true, nil
	case datetime.LocalDateTime:
		return value.LocalDateTime{LocalDateTime: x}, true, nil
	case datetime.Date:
		return value.LocalDate{Date: x}, true, nil
	case datetime.Time:
		return value.LocalTime{Time: x}, true, nil
	}

	// Pointers are followed first so that *time.Time and friends reach the
	// cases above.
	switch {
	case v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer:
	case t.Implements(textMarshalerType):
		return e.callTextMarshaler(v)
	case reflect.PointerTo(t).Implements(textMarshalerType):
		return e.callTextMarshaler(addressable(v).Addr())
	}
	return nil, false, nil
}

func (e *encodeState) callTextMarshaler(v reflect.Value) (value.Value, bool, error) {
	text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
	if err != nil {
		return nil, true, e.fail(&MarshalerError{Type: v.Type(), Err: err})
	}
	node, err := e.marshalBytes(text)
	return node, true, err
}

func (e *encodeState) callValuer(v reflect.Value) (value.Value, bool, error) {
	if v.Kind() == reflect.Interface {
		return nil, false, nil
	}
	node, err := v.Interface().(Valuer).TOMLValue()
	if err != nil {
		return nil, true, e.fail(&MarshalerError{Type: v.Type(), Err: err})
	}
	if node == nil {
		return value.Null{}, true, nil
	}
	return node, true, nil
}

// addressable returns v itself when it can be addressed, or a pointer to a
// copy of it otherwise, so that pointer-receiver methods can be reached.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	pv := reflect.New(v.Type())
	pv.Elem().Set(v)
	return pv.Elem()
}

// marshalBytes decodes b as UTF-8 text.
func (e *encodeState) marshalBytes(b []byte) (value.Value, error) {
	if off := invalidUTF8(b); off >= 0 {
		_, n := utf8.DecodeRune(b[off:])
		return nil, e.fail(&EncodingError{Offset: off, Length: n})
	}
	return value.String(b), nil
}

func (e *encodeState) marshalArray(v reflect.Value) (value.Value, error) {
	arr := make(value.Array, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		elem, err := e.marshalValue(v.Index(i))
		if err != nil {
			return nil, err
		}
		arr = append(arr, elem)
	}
	return arr, nil
}

// marshalMap converts a map into a table. Go maps have no order, so keys
// are sorted to keep the output stable.
func (e *encodeState) marshalMap(v reflect.Value) (value.Value, error) {
	type pair struct {
		key string
		val reflect.Value
	}
	pairs := make([]pair, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, ok, err := e.mapKey(iter.Key())
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		pairs = append(pairs, pair{key: key, val: iter.Value()})
	}
	slices.SortStableFunc(pairs, func(a, b pair) int { return strings.Compare(a.key, b.key) })
	for i := 1; i < len(pairs); i++ {
		if pairs[i].key == pairs[i-1].key {
			e.path = append(e.path, pairs[i].key)
			err := e.fail(errors.New("several map keys map to the same table key"))
			e.path = e.path[:len(e.path)-1]
			return nil, err
		}
	}

	t := &value.Table{}
	for _, p := range pairs {
		e.path = append(e.path, p.key)
		node, err := e.marshalValue(p.val)
		e.path = e.path[:len(e.path)-1]
		if err != nil {
			return nil, err
		}
		t.Set(p.key, node)
	}
	return t, nil
}

// mapKey turns a map key into a table key. A nil key stands for the null
// key: it takes the none value when one is set and is dropped otherwise.
func (e *encodeState) mapKey(k reflect.Value) (string, bool, error) {
	for k.Kind() == reflect.Interface || k.Kind() == reflect.Pointer {
		if k.IsNil() {
			if e.opts.noneValue == nil {
				return "", false, nil
			}
			return *e.opts.noneValue, true, nil
		}
		if k.Type().Implements(textMarshalerType) {
			break
		}
		k = k.Elem()
	}

	switch {
	case k.Kind() == reflect.String:
		return k.String(), true, nil
	case k.Type().Implements(textMarshalerType):
		text, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", false, e.fail(&MarshalerError{Type: k.Type(), Err: err})
		}
		return string(text), true, nil
	case k.Kind() == reflect.Bool:
		if k.Bool() {
			return "true", true, nil
		}
		return "false", true, nil
	default:
		return "", false, e.fail(&UnsupportedTypeError{Type: k.Type(), Key: true})
	}
}

func (e *encodeState) marshalStruct(v reflect.Value) (value.Value, error) {
	t := &value.Table{}
	for _, f := range e.fields.fields(v.Type()) {
		fv, ok := fieldByIndex(v, f.idx)
		if !ok {
			continue
		}
		if f.omitEmpty && isEmptyValue(fv) {
			continue
		}
		e.path = append(e.path, f.name)
		node, err := e.marshalValue(fv)
		e.path = e.path[:len(e.path)-1]
		if err != nil {
			return nil, err
		}
		t.Set(f.name, node)
	}
	return t, nil
}

// fieldByIndex is reflect.Value.FieldByIndex without the panic on nil
// embedded pointers; such fields are reported as absent.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// isEmptyValue reports whether the value v is empty.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	case reflect.Struct:
		if v.Type() == timeType {
			return v.Interface().(time.Time).IsZero()
		}
	}
	return false
}

// invalidUTF8String is invalidUTF8 for strings; it also returns the length
// of the bad sequence.
func invalidUTF8String(s string) (int, int) {
	for i := 0; i < len(s); {
		if s[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return i, 1
		}
		i += size
	}
	return -1, 0
}
