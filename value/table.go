package value

import "iter"

// Entry is a single key/value pair of a Table.
type Entry struct {
	Key   string
	Value Value
}

// Table is a mapping from string keys to values that remembers the order
// in which keys were first inserted.
//
// The zero value is an empty table ready to use.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable returns a table holding entries in the given order. A key that
// repeats replaces the earlier value but keeps the earlier position.
func NewTable(entries ...Entry) *Table {
	t := &Table{}
	for _, e := range entries {
		t.Set(e.Key, e.Value)
	}
	return t
}

// Len returns the number of keys in t.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Get returns the value stored under key.
func (t *Table) Get(key string) (Value, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.index[key]
	if !ok {
		return nil, false
	}
	return t.entries[i].Value, true
}

// Has reports whether key is present.
func (t *Table) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

// Set stores v under key. A new key goes to the end; an existing key keeps
// its position.
func (t *Table) Set(key string, v Value) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, ok := t.index[key]; ok {
		t.entries[i].Value = v
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, Entry{Key: key, Value: v})
}

// Lookup follows a path of keys through nested tables. Arrays of tables
// are entered through their last element, the same way a TOML header
// would address them.
func (t *Table) Lookup(path ...string) (Value, bool) {
	var cur Value = t
	for _, key := range path {
		switch c := cur.(type) {
		case *Table:
			v, ok := c.Get(key)
			if !ok {
				return nil, false
			}
			cur = v
		case Array:
			last, ok := lastTable(c)
			if !ok {
				return nil, false
			}
			v, ok := last.Get(key)
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

func lastTable(a Array) (*Table, bool) {
	if len(a) == 0 {
		return nil, false
	}
	t, ok := a[len(a)-1].(*Table)
	return t, ok
}

// Keys returns the keys of t in insertion order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, t.Len())
	for k := range t.All() {
		keys = append(keys, k)
	}
	return keys
}

// Entries returns a copy of the key/value pairs in insertion order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// All iterates over the entries of t in insertion order.
func (t *Table) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if t == nil {
			return
		}
		for _, e := range t.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}
