package rtoml

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/KimNorgaard/go-rtoml/value"
)

// formatter writes a value tree to an output stream as TOML.
type formatter struct {
	w      io.Writer
	indent string
	depth  int
	// inline counts the enclosing inline tables; their content must stay
	// on one line.
	inline int
	// n counts the bytes written so far.
	n    int
	opts *options
}

const (
	tripleQuote   = `"""`
	tripleLiteral = `'''`
)

// newFormatter returns a new formatter that writes to w.
func newFormatter(w io.Writer, opts *options) *formatter {
	return &formatter{w: w, indent: strings.Repeat(" ", opts.indent), opts: opts}
}

// format writes v. A table is written as a document; anything else is
// written bare, without a trailing newline.
func (f *formatter) format(v value.Value) error {
	if t, ok := v.(*value.Table); ok {
		return f.writeTable(nil, t, false)
	}
	r, ok := f.resolve(v)
	if !ok {
		return nil
	}
	return f.writeValue(r)
}

func (f *formatter) write(s string) error {
	n, err := io.WriteString(f.w, s)
	f.n += n
	return err
}

func (f *formatter) writeIndent() error {
	if f.indent == "" {
		return nil
	}
	for i := 0; i < f.depth; i++ {
		if err := f.write(f.indent); err != nil {
			return err
		}
	}
	return nil
}

// resolve applies the none value policy. Null becomes the none value
// string when one is set; otherwise it reports false and the caller drops
// the entry.
func (f *formatter) resolve(v value.Value) (value.Value, bool) {
	switch v.(type) {
	case nil, value.Null:
		if f.opts.noneValue == nil {
			return nil, false
		}
		return value.String(*f.opts.noneValue), true
	}
	return v, true
}

// tables returns the elements of a, with Nulls dropped or substituted,
// when every remaining element is a table. Such an array is written as an
// array of tables.
func (f *formatter) tables(a value.Array) ([]*value.Table, bool) {
	var out []*value.Table
	for _, e := range a {
		r, ok := f.resolve(e)
		if !ok {
			continue
		}
		t, ok := r.(*value.Table)
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, len(out) > 0
}

type section struct {
	key   string
	value value.Value
}

// writeTable writes the body of t, preceded by its header unless t is the
// root. Plain entries come first so that they stay inside t; sub-tables
// and arrays of tables follow as their own sections.
func (f *formatter) writeTable(path []string, t *value.Table, element bool) error {
	var simple, nested []section
	for k, v := range t.All() {
		r, ok := f.resolve(v)
		if !ok {
			continue
		}
		switch x := r.(type) {
		case *value.Table:
			nested = append(nested, section{k, x})
		case value.Array:
			if _, ok := f.tables(x); ok {
				nested = append(nested, section{k, x})
			} else {
				simple = append(simple, section{k, x})
			}
		default:
			simple = append(simple, section{k, x})
		}
	}

	if len(path) > 0 {
		switch {
		case element:
			if err := f.writeHeader("[[", path, "]]"); err != nil {
				return err
			}
		case len(simple) > 0 || len(nested) == 0:
			if err := f.writeHeader("[", path, "]"); err != nil {
				return err
			}
		}
	}

	for _, s := range simple {
		if err := f.writeKey(s.key); err != nil {
			return err
		}
		if err := f.write(" = "); err != nil {
			return err
		}
		if err := f.writeValue(s.value); err != nil {
			return err
		}
		if err := f.write("\n"); err != nil {
			return err
		}
	}

	for _, s := range nested {
		sub := appendPath(path, s.key)
		switch x := s.value.(type) {
		case *value.Table:
			if err := f.writeTable(sub, x, false); err != nil {
				return err
			}
		case value.Array:
			elems, _ := f.tables(x)
			for _, e := range elems {
				if err := f.writeTable(sub, e, true); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// writeHeader writes a table header. Every header but the first line of
// the document is preceded by a blank line.
func (f *formatter) writeHeader(open string, path []string, close string) error {
	for _, k := range path {
		if err := checkKey(k); err != nil {
			return err
		}
	}
	if f.n > 0 {
		if err := f.write("\n"); err != nil {
			return err
		}
	}
	return f.write(open + formatPath(path) + close + "\n")
}

func (f *formatter) writeKey(k string) error {
	if err := checkKey(k); err != nil {
		return err
	}
	return f.write(formatKey(k))
}

func checkKey(k string) error {
	if off, n := invalidUTF8String(k); off >= 0 {
		return &EncodingError{Offset: off, Length: n}
	}
	return nil
}

func (f *formatter) writeValue(v value.Value) error {
	switch x := v.(type) {
	case value.String:
		return f.writeString(string(x))
	case value.Integer:
		return f.write(strconv.FormatInt(int64(x), 10))
	case value.Float:
		return f.write(formatFloat(float64(x)))
	case value.Boolean:
		return f.write(strconv.FormatBool(bool(x)))
	case value.OffsetDateTime:
		if err := x.Validate(); err != nil {
			return err
		}
		return f.write(x.String())
	case value.LocalDateTime:
		if err := x.Validate(); err != nil {
			return err
		}
		return f.write(x.String())
	case value.LocalDate:
		if err := x.Validate(); err != nil {
			return err
		}
		return f.write(x.String())
	case value.LocalTime:
		if err := x.Validate(); err != nil {
			return err
		}
		return f.write(x.String())
	case value.Array:
		return f.writeArray(x)
	case *value.Table:
		return f.writeInlineTable(x)
	default:
		return fmt.Errorf("unsupported node type for formatting: %T", v)
	}
}

func (f *formatter) writeArray(arr value.Array) error {
	elems := make([]value.Value, 0, len(arr))
	for _, e := range arr {
		if r, ok := f.resolve(e); ok {
			elems = append(elems, r)
		}
	}

	if err := f.write("["); err != nil {
		return err
	}
	if len(elems) > 0 {
		if f.opts.pretty && f.inline == 0 {
			if err := f.writePrettyArray(elems); err != nil {
				return err
			}
		} else if err := f.writeCompactArray(elems); err != nil {
			return err
		}
	}
	return f.write("]")
}

func (f *formatter) writePrettyArray(elems []value.Value) error {
	f.depth++
	for _, elem := range elems {
		if err := f.write("\n"); err != nil {
			return err
		}
		if err := f.writeIndent(); err != nil {
			return err
		}
		if err := f.writeValue(elem); err != nil {
			return err
		}
		if err := f.write(","); err != nil {
			return err
		}
	}
	f.depth--
	if err := f.write("\n"); err != nil {
		return err
	}
	return f.writeIndent()
}

func (f *formatter) writeCompactArray(elems []value.Value) error {
	for i, elem := range elems {
		if i > 0 {
			if err := f.write(", "); err != nil {
				return err
			}
		}
		if err := f.writeValue(elem); err != nil {
			return err
		}
	}
	return nil
}

func (f *formatter) writeInlineTable(t *value.Table) error {
	f.inline++
	defer func() { f.inline-- }()

	n := 0
	for k, v := range t.All() {
		r, ok := f.resolve(v)
		if !ok {
			continue
		}
		sep := ", "
		if n == 0 {
			sep = "{ "
		}
		if err := f.write(sep); err != nil {
			return err
		}
		if err := f.writeKey(k); err != nil {
			return err
		}
		if err := f.write(" = "); err != nil {
			return err
		}
		if err := f.writeValue(r); err != nil {
			return err
		}
		n++
	}
	if n == 0 {
		return f.write("{}")
	}
	return f.write(" }")
}

// writeString picks the string form. Compact output always uses basic
// strings. Pretty output prefers the literal forms, which need no escapes.
func (f *formatter) writeString(s string) error {
	if off, n := invalidUTF8String(s); off >= 0 {
		return &EncodingError{Offset: off, Length: n}
	}
	if !f.opts.pretty {
		return f.write(quoteBasic(s))
	}

	multiline := strings.ContainsRune(s, '\n')
	switch {
	case !multiline && literalSafe(s, false):
		return f.write("'" + s + "'")
	case !multiline || f.inline > 0:
		return f.write(quoteBasic(s))
	case literalSafe(s, true) && !strings.Contains(s, tripleLiteral) && !strings.HasSuffix(s, "'"):
		// The newline after the opening delimiter is dropped by readers.
		return f.write(tripleLiteral + "\n" + s + tripleLiteral)
	default:
		return f.write(tripleQuote + "\n" + escapeString(s, true) + tripleQuote)
	}
}

// literalSafe reports whether s can appear verbatim between single quotes:
// no apostrophes and no control characters other than tab, plus newline
// when multiline is set.
func literalSafe(s string, multiline bool) bool {
	for _, r := range s {
		switch {
		case r == '\'' && !multiline:
			return false
		case r == '\t':
		case r == '\n' && multiline:
		case r < 0x20 || r == 0x7f:
			return false
		}
	}
	return true
}

func quoteBasic(s string) string {
	return `"` + escapeString(s, false) + `"`
}

// escapeString escapes s for a basic string. With multiline set, newlines
// are kept as is.
func escapeString(s string, multiline bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			if multiline {
				b.WriteByte('\n')
			} else {
				b.WriteString(`\n`)
			}
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatKey returns k as a bare key when it only holds A-Za-z0-9_- and as
// a quoted key otherwise.
func formatKey(k string) string {
	if k == "" {
		return `""`
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		if !isLetter(c) && !isDigit(c) && c != '_' && c != '-' {
			return quoteBasic(k)
		}
	}
	return k
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.Trunc(f) == f:
		return strconv.FormatFloat(f, 'f', 1, 64)
	default:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
}
