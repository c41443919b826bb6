package rtoml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2/unstable"

	"github.com/KimNorgaard/go-rtoml/datetime"
	"github.com/KimNorgaard/go-rtoml/value"
)

// Decoder reads and decodes a TOML document from an input stream.
type Decoder struct {
	r    io.Reader
	opts []Option
}

// NewDecoder returns a new decoder that reads from r.
//
// The decoder reads r to EOF before parsing. It is the caller's
// responsibility to close r if required.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	return &Decoder{r: r, opts: opts}
}

// Table reads the whole input and decodes it into a tree.
func (d *Decoder) Table() (*value.Table, error) {
	o, err := newOptions(d.opts)
	if err != nil {
		return nil, err
	}
	data, err := d.read()
	if err != nil {
		return nil, err
	}
	return parseDocument(data, o)
}

// Decode reads the whole input and stores the document in the value
// pointed to by v. See Unmarshal for the mapping rules.
func (d *Decoder) Decode(v any) error {
	o, err := newOptions(d.opts)
	if err != nil {
		return err
	}
	rv, err := checkTarget(v)
	if err != nil {
		return err
	}
	data, err := d.read()
	if err != nil {
		return err
	}
	t, err := parseDocument(data, o)
	if err != nil {
		return err
	}
	return newUnmarshalState(o).mapValue(t, rv.Elem())
}

func (d *Decoder) read() ([]byte, error) {
	if d.r == nil {
		return nil, &TypeError{Message: "Decode(nil reader)"}
	}
	data, err := io.ReadAll(d.r)
	if err != nil {
		return nil, fmt.Errorf("rtoml: reading input: %w", err)
	}
	return data, nil
}

// tableKind records how a table came into existence. TOML only lets a
// table be extended or reopened in ways that depend on it.
type tableKind uint8

const (
	implicitTable tableKind = iota // parent of a deeper [header], not yet defined
	headerTable                    // defined by a [header]
	dottedTable                    // defined by a dotted key
	inlineTable                    // an inline table literal, closed for good
	elementTable                   // an element of an array of tables
)

type tableMeta struct {
	kind tableKind
	// arrays holds the keys of arrays built by [[header]]s; every other
	// array in the table is a static literal.
	arrays map[string]bool
}

// decodeState turns the expressions produced by the grammar engine into a
// value tree.
type decodeState struct {
	p    unstable.Parser
	opts *options

	root        *value.Table
	current     *value.Table
	currentPath []string
	meta        map[*value.Table]*tableMeta
}

func parseDocument(data []byte, o *options) (*value.Table, error) {
	if off := invalidUTF8(data); off >= 0 {
		line, col := lineColumn(data, off)
		_, size := utf8.DecodeRune(data[off:])
		return nil, &ParsingError{
			Message: fmt.Sprintf("invalid UTF-8 byte at offset %d", off),
			Line:    line,
			Column:  col,
			Err:     &EncodingError{Offset: off, Length: size},
		}
	}

	d := &decodeState{
		opts: o,
		root: &value.Table{},
		meta: make(map[*value.Table]*tableMeta),
	}
	d.meta[d.root] = &tableMeta{kind: headerTable}
	d.current = d.root
	d.p.Reset(data)

	for d.p.NextExpression() {
		expr := d.p.Expression()
		var err error
		switch expr.Kind {
		case unstable.KeyValue:
			err = d.keyValue(d.current, d.currentPath, expr, 0)
		case unstable.Table:
			err = d.table(expr)
		case unstable.ArrayTable:
			err = d.arrayTable(expr)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := d.p.Error(); err != nil {
		return nil, d.parserError(err)
	}
	return d.root, nil
}

func (d *decodeState) info(t *value.Table) *tableMeta {
	m, ok := d.meta[t]
	if !ok {
		m = &tableMeta{kind: implicitTable}
		d.meta[t] = m
	}
	return m
}

func (d *decodeState) newTable(kind tableKind) *value.Table {
	t := &value.Table{}
	d.meta[t] = &tableMeta{kind: kind}
	return t
}

// table handles a [a.b.c] header.
func (d *decodeState) table(expr *unstable.Node) error {
	keys, nodes := keyParts(expr)
	parent, parentPath, err := d.walkHeader(keys[:len(keys)-1], nodes)
	if err != nil {
		return err
	}

	last := keys[len(keys)-1]
	existing, ok := parent.Get(last)
	switch {
	case !ok:
		t := d.newTable(headerTable)
		parent.Set(last, t)
		d.current = t
	case d.isKind(existing, implicitTable):
		t := existing.(*value.Table)
		d.info(t).kind = headerTable
		d.current = t
	default:
		return d.duplicate(parentPath, last, nodes[len(nodes)-1])
	}
	d.currentPath = keys
	return nil
}

// arrayTable handles a [[a.b.c]] header.
func (d *decodeState) arrayTable(expr *unstable.Node) error {
	keys, nodes := keyParts(expr)
	parent, parentPath, err := d.walkHeader(keys[:len(keys)-1], nodes)
	if err != nil {
		return err
	}

	last := keys[len(keys)-1]
	m := d.info(parent)
	elem := d.newTable(elementTable)
	existing, ok := parent.Get(last)
	switch {
	case !ok:
		if m.arrays == nil {
			m.arrays = make(map[string]bool)
		}
		m.arrays[last] = true
		parent.Set(last, value.Array{elem})
	case m.arrays[last]:
		parent.Set(last, append(existing.(value.Array), elem))
	default:
		return d.duplicate(parentPath, last, nodes[len(nodes)-1])
	}
	d.current = elem
	d.currentPath = keys
	return nil
}

// walkHeader follows the leading keys of a header from the root, creating
// implicit tables where nothing exists yet.
func (d *decodeState) walkHeader(keys []string, nodes []*unstable.Node) (*value.Table, []string, error) {
	t := d.root
	for i, key := range keys {
		existing, ok := t.Get(key)
		if !ok {
			next := d.newTable(implicitTable)
			t.Set(key, next)
			t = next
			continue
		}
		switch e := existing.(type) {
		case *value.Table:
			if d.info(e).kind == inlineTable {
				return nil, nil, d.duplicate(keys[:i], key, nodes[i])
			}
			t = e
		case value.Array:
			if !d.info(t).arrays[key] {
				return nil, nil, d.duplicate(keys[:i], key, nodes[i])
			}
			t = e[len(e)-1].(*value.Table)
		default:
			return nil, nil, d.duplicate(keys[:i], key, nodes[i])
		}
	}
	return t, keys, nil
}

// keyValue stores a (possibly dotted) key/value expression into t, whose
// own path is tablePath.
func (d *decodeState) keyValue(t *value.Table, tablePath []string, kv *unstable.Node, depth int) error {
	keys, nodes := keyParts(kv)
	path := tablePath
	for i, key := range keys[:len(keys)-1] {
		existing, ok := t.Get(key)
		switch {
		case !ok:
			next := d.newTable(dottedTable)
			t.Set(key, next)
			t = next
		case d.isKind(existing, dottedTable):
			t = existing.(*value.Table)
		default:
			return d.duplicate(path, key, nodes[i])
		}
		path = appendPath(path, key)
	}

	last := keys[len(keys)-1]
	if t.Has(last) {
		return d.duplicate(path, last, nodes[len(nodes)-1])
	}
	v, err := d.decodeValue(kv.Value(), appendPath(path, last), depth)
	if err != nil {
		return err
	}
	t.Set(last, v)
	return nil
}

func (d *decodeState) decodeValue(n *unstable.Node, path []string, depth int) (value.Value, error) {
	if depth >= d.opts.maxDepth {
		return nil, d.errorAt(n, "exceeded max nesting depth", nil)
	}
	switch n.Kind {
	case unstable.String:
		s := string(n.Data)
		if d.opts.noneSentinel != nil && s == *d.opts.noneSentinel {
			return value.Null{}, nil
		}
		return value.String(s), nil
	case unstable.Bool:
		return value.Boolean(n.Data[0] == 't'), nil
	case unstable.Integer:
		i, err := parseInteger(n.Data)
		if err != nil {
			return nil, d.errorAt(n, err.Error(), nil)
		}
		return value.Integer(i), nil
	case unstable.Float:
		f, err := parseFloat(n.Data)
		if err != nil {
			return nil, d.errorAt(n, err.Error(), nil)
		}
		return value.Float(f), nil
	case unstable.LocalDate, unstable.LocalTime, unstable.LocalDateTime, unstable.DateTime:
		return d.decodeTemporal(n)
	case unstable.Array:
		arr := value.Array{}
		it := n.Children()
		for it.Next() {
			child := it.Node()
			if child.Kind == unstable.Comment {
				continue
			}
			v, err := d.decodeValue(child, path, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case unstable.InlineTable:
		t := d.newTable(inlineTable)
		it := n.Children()
		for it.Next() {
			if err := d.keyValue(t, path, it.Node(), depth+1); err != nil {
				return nil, err
			}
		}
		return t, nil
	default:
		return nil, d.errorAt(n, fmt.Sprintf("unexpected %s node", n.Kind), nil)
	}
}

func (d *decodeState) decodeTemporal(n *unstable.Node) (value.Value, error) {
	lit := string(n.Data)
	t, err := datetime.Parse(lit)
	if err != nil {
		line, col := d.position(n)
		te := &TemporalError{Literal: lit, Reason: err.Error(), Line: line, Column: col}
		if de, ok := err.(*datetime.Error); ok {
			te.Reason = de.Reason
		}
		return nil, &ParsingError{Message: te.Error(), Line: line, Column: col, Err: te}
	}
	return value.FromTemporal(t)
}

func (d *decodeState) isKind(v value.Value, kind tableKind) bool {
	t, ok := v.(*value.Table)
	return ok && d.info(t).kind == kind
}

// keyParts returns the decoded segments of a key and the nodes they came
// from, for error positions.
func keyParts(n *unstable.Node) ([]string, []*unstable.Node) {
	var keys []string
	var nodes []*unstable.Node
	it := n.Key()
	for it.Next() {
		k := it.Node()
		keys = append(keys, string(k.Data))
		nodes = append(nodes, k)
	}
	return keys, nodes
}

func appendPath(path []string, key string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, key)
}

func (d *decodeState) duplicate(path []string, key string, n *unstable.Node) error {
	line, col := d.position(n)
	dup := &DuplicateKeyError{
		TablePath: append([]string(nil), path...),
		Key:       key,
		Line:      line,
		Column:    col,
	}
	return &ParsingError{Message: dup.Error(), Line: line, Column: col, Err: dup}
}

func (d *decodeState) errorAt(n *unstable.Node, msg string, cause error) error {
	line, col := d.position(n)
	return &ParsingError{Message: msg, Line: line, Column: col, Err: cause}
}

// position returns the 1-based line and column where n starts. Nodes
// without a raw range (dates, booleans) are located through their data,
// which points into the input for those kinds.
func (d *decodeState) position(n *unstable.Node) (int, int) {
	if n.Raw.Length > 0 {
		s := d.p.Shape(n.Raw)
		return s.Start.Line, s.Start.Column
	}
	return d.locate(n.Data)
}

// locate finds b in the input. Range panics when b is not part of the
// input; such a slice gets no position.
func (d *decodeState) locate(b []byte) (line, col int) {
	defer func() {
		if recover() != nil {
			line, col = 0, 0
		}
	}()
	if b == nil {
		return lineColumn(d.p.Data(), len(d.p.Data()))
	}
	s := d.p.Shape(d.p.Range(b))
	return s.Start.Line, s.Start.Column
}

// quotedHint covers the engine errors raised when a value starts with a
// letter but is not one of the bare keywords.
var quotedHint = []string{
	"incomplete number",
	"expected 'true'",
	"expected 'false'",
	"expected 'inf'",
	"expected 'nan'",
}

func (d *decodeState) parserError(err error) error {
	var perr *unstable.ParserError
	if !errors.As(err, &perr) {
		return &ParsingError{Message: err.Error(), Err: err}
	}
	line, col := d.locate(perr.Highlight)
	msg := perr.Message
	if len(perr.Highlight) > 0 && isLetter(perr.Highlight[0]) {
		for _, m := range quotedHint {
			if strings.HasPrefix(msg, m) {
				msg = "invalid TOML value, did you mean to use a quoted string?"
				break
			}
		}
	}
	return &ParsingError{Message: msg, Line: line, Column: col, Err: err}
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// invalidUTF8 returns the offset of the first byte of data that is not
// part of a valid UTF-8 sequence, or -1.
func invalidUTF8(data []byte) int {
	for i := 0; i < len(data); {
		if data[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

func lineColumn(data []byte, offset int) (int, int) {
	lead := data[:offset]
	return bytes.Count(lead, []byte{'\n'}) + 1, len(lead) - bytes.LastIndexByte(lead, '\n')
}
