package rtoml

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/KimNorgaard/go-rtoml/datetime"
	"github.com/KimNorgaard/go-rtoml/value"
)

// Unmarshaler is the interface implemented by types that can decode a
// tree node into themselves.
type Unmarshaler interface {
	UnmarshalTOMLValue(value.Value) error
}

var (
	offsetDateTimeType = reflect.TypeFor[datetime.OffsetDateTime]()
	localDateTimeType  = reflect.TypeFor[datetime.LocalDateTime]()
	localDateType      = reflect.TypeFor[datetime.Date]()
	localTimeType      = reflect.TypeFor[datetime.Time]()
)

func checkTarget(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, &TypeError{Message: fmt.Sprintf("Unmarshal(non-pointer %T or nil)", v)}
	}
	return rv, nil
}

// unmarshalState maps a value tree onto Go values.
type unmarshalState struct {
	depth  int
	fields fieldCache
}

func newUnmarshalState(o *options) *unmarshalState {
	return &unmarshalState{depth: o.maxDepth, fields: fieldCache{}}
}

func mismatch(what string, t reflect.Type) error {
	return &TypeError{Message: fmt.Sprintf("cannot unmarshal %s into Go value of type %s", what, t)}
}

func (us *unmarshalState) mapValue(v value.Value, rv reflect.Value) error { //nolint:gocyclo,funlen
	us.depth--
	if us.depth < 0 {
		return &TypeError{Message: "reached max recursion depth"}
	}
	defer func() { us.depth++ }()

	if v == nil {
		v = value.Null{}
	}

	// Tree types take the node as is.
	if rv.Type() == valueType || rv.Type() == reflect.TypeOf(v) {
		rv.Set(reflect.ValueOf(v))
		return nil
	}

	if _, isNull := v.(value.Null); isNull {
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	}

	// Attempt to use a custom unmarshaler if available.
	handled, err := us.tryCustomUnmarshal(v, rv)
	if err != nil || handled {
		return err
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
		if handled, err := us.tryCustomUnmarshal(v, rv); err != nil || handled {
			return err
		}
	}

	if rv.Kind() == reflect.Interface {
		return us.mapInterface(v, rv)
	}
	if !rv.CanSet() {
		return &TypeError{Message: fmt.Sprintf("cannot set value of type %s", rv.Type())}
	}

	switch node := v.(type) {
	case value.String:
		return us.mapString(node, rv)
	case value.Integer:
		return us.mapInt(node, rv)
	case value.Float:
		return us.mapFloat(node, rv)
	case value.Boolean:
		if rv.Kind() != reflect.Bool {
			return mismatch("boolean", rv.Type())
		}
		rv.SetBool(bool(node))
		return nil
	case value.OffsetDateTime, value.LocalDateTime, value.LocalDate, value.LocalTime:
		return us.mapTemporal(node, rv)
	case value.Array:
		switch rv.Kind() {
		case reflect.Slice:
			return us.mapSlice(node, rv)
		case reflect.Array:
			return us.mapArray(node, rv)
		default:
			return mismatch("array", rv.Type())
		}
	case *value.Table:
		switch rv.Kind() {
		case reflect.Struct:
			return us.mapStruct(node, rv)
		case reflect.Map:
			return us.mapMap(node, rv)
		default:
			return mismatch("table", rv.Type())
		}
	default:
		return &TypeError{Message: fmt.Sprintf("mapping for node type %T not implemented", node)}
	}
}

// tryCustomUnmarshal attempts to use a custom unmarshaler (Unmarshaler or
// encoding.TextUnmarshaler) on the given reflect.Value. It returns true if
// a custom unmarshaler was found and used, in which case the caller should
// not proceed with default unmarshaling.
func (us *unmarshalState) tryCustomUnmarshal(v value.Value, rv reflect.Value) (bool, error) {
	if !rv.CanAddr() {
		return false, nil
	}
	pv := rv.Addr()
	if !pv.CanInterface() {
		return false, nil
	}

	if u, ok := pv.Interface().(Unmarshaler); ok {
		if err := u.UnmarshalTOMLValue(v); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	if u, ok := pv.Interface().(encoding.TextUnmarshaler); ok {
		s, isString := v.(value.String)
		if !isString {
			// TextUnmarshaler can only be used on string values.
			return false, nil
		}
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	return false, nil
}

func (us *unmarshalState) mapString(s value.String, rv reflect.Value) error {
	switch {
	case rv.Kind() == reflect.String:
		rv.SetString(string(s))
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		rv.SetBytes([]byte(s))
	default:
		return mismatch("string", rv.Type())
	}
	return nil
}

func (us *unmarshalState) mapInt(i value.Integer, rv reflect.Value) error {
	n := int64(i)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.OverflowInt(n) {
			return &TypeError{Message: fmt.Sprintf("integer value %d overflows Go value of type %s", n, rv.Type())}
		}
		rv.SetInt(n)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if n < 0 || rv.OverflowUint(uint64(n)) {
			return &TypeError{Message: fmt.Sprintf("integer value %d overflows Go value of type %s", n, rv.Type())}
		}
		rv.SetUint(uint64(n))
		return nil
	default:
		return mismatch("integer", rv.Type())
	}
}

func (us *unmarshalState) mapFloat(f value.Float, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		x := float64(f)
		if !math.IsInf(x, 0) && rv.OverflowFloat(x) {
			return &TypeError{Message: fmt.Sprintf("float value %g overflows Go value of type %s", x, rv.Type())}
		}
		rv.SetFloat(x)
		return nil
	default:
		return mismatch("float", rv.Type())
	}
}

// mapTemporal stores a date or time node. time.Time accepts every kind
// that names a day; local kinds are placed in time.Local.
func (us *unmarshalState) mapTemporal(v value.Value, rv reflect.Value) error {
	t := rv.Type()
	switch node := v.(type) {
	case value.OffsetDateTime:
		switch t {
		case timeType:
			rv.Set(reflect.ValueOf(node.AsTime()))
			return nil
		case offsetDateTimeType:
			rv.Set(reflect.ValueOf(node.OffsetDateTime))
			return nil
		}
	case value.LocalDateTime:
		switch t {
		case timeType:
			rv.Set(reflect.ValueOf(node.In(time.Local)))
			return nil
		case localDateTimeType:
			rv.Set(reflect.ValueOf(node.LocalDateTime))
			return nil
		}
	case value.LocalDate:
		switch t {
		case timeType:
			rv.Set(reflect.ValueOf(node.In(time.Local)))
			return nil
		case localDateType:
			rv.Set(reflect.ValueOf(node.Date))
			return nil
		}
	case value.LocalTime:
		if t == localTimeType {
			rv.Set(reflect.ValueOf(node.Time))
			return nil
		}
	}
	return mismatch(v.Kind().String(), t)
}

func (us *unmarshalState) mapSlice(a value.Array, rv reflect.Value) error {
	newSlice := reflect.MakeSlice(rv.Type(), len(a), len(a))
	for i, elem := range a {
		if err := us.mapValue(elem, newSlice.Index(i)); err != nil {
			return err
		}
	}
	rv.Set(newSlice)
	return nil
}

func (us *unmarshalState) mapArray(a value.Array, rv reflect.Value) error {
	if rv.Len() != len(a) {
		return &TypeError{Message: fmt.Sprintf("cannot unmarshal array of length %d into Go array of length %d", len(a), rv.Len())}
	}
	for i, elem := range a {
		if err := us.mapValue(elem, rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (us *unmarshalState) mapMap(t *value.Table, rv reflect.Value) error {
	mapType := rv.Type()
	if mapType.Key().Kind() != reflect.String {
		return &TypeError{Message: fmt.Sprintf("cannot unmarshal table into map with non-string key type %s", mapType.Key())}
	}
	if rv.IsNil() {
		rv.Set(reflect.MakeMapWithSize(mapType, t.Len()))
	} else {
		rv.Clear()
	}
	elemType := mapType.Elem()
	for k, v := range t.All() {
		newVal := reflect.New(elemType).Elem()
		if err := us.mapValue(v, newVal); err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(k).Convert(mapType.Key()), newVal)
	}
	return nil
}

func (us *unmarshalState) mapStruct(t *value.Table, rv reflect.Value) error {
	fields := us.fields.fields(rv.Type())
	for k, v := range t.All() {
		target := findField(fields, k)
		if target == nil {
			continue
		}
		fieldVal, ok := settableField(rv, target.idx)
		if !ok {
			continue
		}
		if err := us.mapValue(v, fieldVal); err != nil {
			return err
		}
	}
	return nil
}

// settableField walks index from rv, allocating nil embedded pointers on
// the way. It reports false when a pointer cannot be allocated.
func settableField(rv reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				if !rv.CanSet() {
					return reflect.Value{}, false
				}
				rv.Set(reflect.New(rv.Type().Elem()))
			}
			rv = rv.Elem()
		}
		rv = rv.Field(x)
	}
	return rv, rv.CanSet()
}

func (us *unmarshalState) mapInterface(v value.Value, rv reflect.Value) error {
	if rv.NumMethod() != 0 {
		return &TypeError{Message: fmt.Sprintf("cannot unmarshal into non-empty interface %s", rv.Type())}
	}
	var concrete reflect.Value
	switch node := v.(type) {
	case value.String:
		var s string
		concrete = reflect.ValueOf(&s).Elem()
	case value.Integer:
		var i int64
		concrete = reflect.ValueOf(&i).Elem()
	case value.Float:
		var f float64
		concrete = reflect.ValueOf(&f).Elem()
	case value.Boolean:
		var b bool
		concrete = reflect.ValueOf(&b).Elem()
	case value.OffsetDateTime:
		var t time.Time
		concrete = reflect.ValueOf(&t).Elem()
	case value.LocalDateTime:
		var dt datetime.LocalDateTime
		concrete = reflect.ValueOf(&dt).Elem()
	case value.LocalDate:
		var d datetime.Date
		concrete = reflect.ValueOf(&d).Elem()
	case value.LocalTime:
		var t datetime.Time
		concrete = reflect.ValueOf(&t).Elem()
	case value.Array:
		var a []any
		concrete = reflect.ValueOf(&a).Elem()
	case *value.Table:
		var m map[string]any
		concrete = reflect.ValueOf(&m).Elem()
	default:
		return &TypeError{Message: fmt.Sprintf("cannot determine concrete type for interface{} for node %T", node)}
	}
	if err := us.mapValue(v, concrete); err != nil {
		return err
	}
	rv.Set(concrete)
	return nil
}
