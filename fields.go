package rtoml

import (
	"reflect"
	"strings"
)

// field represents a struct field mapped to a table key.
type field struct {
	name      string
	idx       []int
	tagged    bool
	omitEmpty bool
}

// typeFields returns the fields of struct type t in declaration order.
// Fields of embedded structs are promoted unless the embedding field has a
// tag name. When several fields share a name, the shallowest wins and a
// tagged field beats an untagged one at the same depth.
// It skips unexported fields and fields tagged with `toml:"-"`.
func typeFields(t reflect.Type) []field {
	var all []field
	visited := map[reflect.Type]bool{}

	var walk func(t reflect.Type, idx []int)
	walk = func(t reflect.Type, idx []int) {
		if visited[t] {
			return
		}
		visited[t] = true
		defer delete(visited, t)

		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag := sf.Tag.Get("toml")
			if tag == "-" {
				continue
			}
			name, opts, _ := strings.Cut(tag, ",")
			index := append(append([]int(nil), idx...), i)

			if sf.Anonymous && name == "" {
				ft := sf.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					// Recurse into embedded structs.
					walk(ft, index)
					continue
				}
			}
			if !sf.IsExported() {
				continue
			}

			f := field{idx: index, name: sf.Name}
			if name != "" {
				f.name = name
				f.tagged = true
			}
			for opts != "" {
				var opt string
				opt, opts, _ = strings.Cut(opts, ",")
				if opt == "omitempty" {
					f.omitEmpty = true
				}
			}
			all = append(all, f)
		}
	}
	walk(t, nil)

	best := make(map[string]int, len(all))
	for i, f := range all {
		j, ok := best[f.name]
		if !ok {
			best[f.name] = i
			continue
		}
		g := all[j]
		if len(f.idx) < len(g.idx) || (len(f.idx) == len(g.idx) && f.tagged && !g.tagged) {
			best[f.name] = i
		}
	}
	fields := make([]field, 0, len(best))
	for i, f := range all {
		if best[f.name] == i {
			fields = append(fields, f)
		}
	}
	return fields
}

// fieldCache holds the field lists computed during one call; it is not
// shared between calls.
type fieldCache map[reflect.Type][]field

func (c fieldCache) fields(t reflect.Type) []field {
	if f, ok := c[t]; ok {
		return f
	}
	f := typeFields(t)
	c[t] = f
	return f
}

// findField finds the field for key. It first attempts a case-sensitive
// match, then falls back to a case-insensitive one.
func findField(fields []field, key string) *field {
	for i := range fields {
		if fields[i].name == key {
			return &fields[i]
		}
	}
	for i := range fields {
		if strings.EqualFold(fields[i].name, key) {
			return &fields[i]
		}
	}
	return nil
}
