/*
Package rtoml reads and writes TOML documents while keeping the order of
keys as they appear in the source.

Documents decode into a tree of value.Value nodes whose tables remember
insertion order. Dumping walks either such a tree or an arbitrary Go value
and writes the entries back in that order, simple entries first and nested
tables after them.

	t, err := rtoml.Loads("b = 1\na = 2\n")
	if err != nil {
		// handle error
	}
	fmt.Println(t.Keys()) // [b a]

TOML has no null. Two options bridge that gap. NoneSentinel turns a chosen
string into value.Null while loading:

	t, _ := rtoml.Loads(`x = "null"`, rtoml.NoneSentinel("null"))

NoneValue does the reverse while dumping. Without it, Null table entries
and array elements are left out of the output:

	s, _ := rtoml.Dumps(map[string]any{"key": nil, "foo": "bar"})
	// s == "foo = \"bar\"\n"

	s, _ = rtoml.Dumps(map[string]any{"x": nil}, rtoml.NoneValue("null"))
	// s == "x = \"null\"\n"

Pretty selects a multi-line layout. Arrays get one element per line, and
strings are written as literal strings when they need no escaping.

Dates and times keep their offsets and up to microsecond precision. They
decode into the types of the datetime package; an offset date-time can be
converted to a time.Time.

Marshal and Unmarshal map documents onto Go structs, maps and slices using
`toml` struct tags, in the manner of encoding/json.

Failures are reported as *ParsingError, *SerializationError or *TypeError.
Each matches its category sentinel with errors.Is, and invalid UTF-8 also
matches ErrEncoding.
*/
package rtoml
