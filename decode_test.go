package rtoml_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KimNorgaard/go-rtoml"
	"github.com/KimNorgaard/go-rtoml/datetime"
	"github.com/KimNorgaard/go-rtoml/internal/testutil"
	"github.com/KimNorgaard/go-rtoml/value"
)

func TestLoads_KeyOrder(t *testing.T) {
	tree, err := rtoml.Loads("b = 1\na = 2\n")
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, tree.Keys())

	tree, err = rtoml.Loads("[z]\n[y]\nk = 1\n[x]\n")
	require.NoError(t, err)
	require.Equal(t, []string{"z", "y", "x"}, tree.Keys())
}

func TestLoads_Values(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected value.Value
	}{
		{"string", `v = "hi"`, value.String("hi")},
		{"literal string", `v = 'C:\x'`, value.String(`C:\x`)},
		{"integer", "v = -42", value.Integer(-42)},
		{"hex", "v = 0xff", value.Integer(255)},
		{"max int", "v = 9223372036854775807", value.Integer(math.MaxInt64)},
		{"min int", "v = -9223372036854775808", value.Integer(math.MinInt64)},
		{"float", "v = 6.5e-1", value.Float(0.65)},
		{"inf", "v = -inf", value.Float(math.Inf(-1))},
		{"bool", "v = true", value.Boolean(true)},
		{"array", `v = [1, "a", [true]]`, value.Array{value.Integer(1), value.String("a"), value.Array{value.Boolean(true)}}},
		{"array with comments", "v = [\n  1, # one\n  # nothing\n  2,\n]", value.Array{value.Integer(1), value.Integer(2)}},
		{"empty array", "v = []", value.Array{}},
		{"inline table", "v = { b = 1, a = 2 }", value.NewTable(
			value.Entry{Key: "b", Value: value.Integer(1)},
			value.Entry{Key: "a", Value: value.Integer(2)},
		)},
		{"local date", "v = 2021-02-28", value.LocalDate{Date: datetime.Date{Year: 2021, Month: 2, Day: 28}}},
		{"leap day", "v = 2024-02-29", value.LocalDate{Date: datetime.Date{Year: 2024, Month: 2, Day: 29}}},
		{"local time", "v = 12:00:59.023456", value.LocalTime{Time: datetime.Time{Hour: 12, Second: 59, Microsecond: 23456}}},
		{"microseconds", "v = 1979-05-27T07:32:00.123456", value.LocalDateTime{LocalDateTime: datetime.LocalDateTime{
			Date: datetime.Date{Year: 1979, Month: 5, Day: 27},
			Time: datetime.Time{Hour: 7, Minute: 32, Microsecond: 123456},
		}}},
		{"offset", "v = 1979-05-27T07:32:00+05:15", value.OffsetDateTime{OffsetDateTime: datetime.OffsetDateTime{
			Date:   datetime.Date{Year: 1979, Month: 5, Day: 27},
			Time:   datetime.Time{Hour: 7, Minute: 32},
			Offset: 5*60 + 15,
		}}},
		{"zulu", "v = 1979-05-27T07:32:00z", value.OffsetDateTime{OffsetDateTime: datetime.OffsetDateTime{
			Date: datetime.Date{Year: 1979, Month: 5, Day: 27},
			Time: datetime.Time{Hour: 7, Minute: 32},
		}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tree, err := rtoml.Loads(tc.input)
			require.NoError(t, err)
			v, ok := tree.Get("v")
			require.True(t, ok)
			require.True(t, value.Equal(tc.expected, v), "got %#v", v)
		})
	}
}

func TestLoads_NaN(t *testing.T) {
	tree, err := rtoml.Loads("a = nan\nb = -nan")
	require.NoError(t, err)
	for _, k := range []string{"a", "b"} {
		v, _ := tree.Get(k)
		require.True(t, math.IsNaN(float64(v.(value.Float))))
	}
}

func TestLoads_Keys(t *testing.T) {
	tree, err := rtoml.Loads(`"" = "bar"`)
	require.NoError(t, err)
	v, ok := tree.Get("")
	require.True(t, ok)
	require.Equal(t, value.String("bar"), v)

	tree, err = rtoml.Loads(`[ j . "ʞ" . 'l' ]`)
	require.NoError(t, err)
	v, ok = tree.Lookup("j", "ʞ", "l")
	require.True(t, ok)
	require.Equal(t, 0, v.(*value.Table).Len())

	tree, err = rtoml.Loads("site.\"google.com\" = true")
	require.NoError(t, err)
	v, ok = tree.Lookup("site", "google.com")
	require.True(t, ok)
	require.Equal(t, value.Boolean(true), v)
}

func TestLoads_NoneSentinel(t *testing.T) {
	tree, err := rtoml.Loads(`x = ""`, rtoml.NoneSentinel(""))
	require.NoError(t, err)
	v, _ := tree.Get("x")
	require.Equal(t, value.Null{}, v)

	tree, err = rtoml.Loads(`a = ["null", "x", { b = "null" }]`, rtoml.NoneSentinel("null"))
	require.NoError(t, err)
	v, _ = tree.Get("a")
	require.True(t, value.Equal(value.Array{
		value.Null{},
		value.String("x"),
		value.NewTable(value.Entry{Key: "b", Value: value.Null{}}),
	}, v))

	// Without the option the string stays a string.
	tree, err = rtoml.Loads(`x = ""`)
	require.NoError(t, err)
	v, _ = tree.Get("x")
	require.Equal(t, value.String(""), v)
}

func TestLoads_Tables(t *testing.T) {
	doc := `
[a.b.c]
x = 1

[a]
y = 2

[[a.list]]
n = 1

[[a.list]]
n = 2

[a.list.sub]
z = 3

[dotted]
p.q = 1
p.r = 2
`
	tree, err := rtoml.Loads(doc)
	require.NoError(t, err)

	require.Equal(t, []string{"a", "dotted"}, tree.Keys())
	a, _ := tree.Get("a")
	require.Equal(t, []string{"b", "y", "list"}, a.(*value.Table).Keys())

	list, _ := tree.Lookup("a", "list")
	require.Len(t, list, 2)

	// Lookup steps into the last element of an array of tables.
	z, ok := tree.Lookup("a", "list", "sub", "z")
	require.True(t, ok)
	require.Equal(t, value.Integer(3), z)

	r, ok := tree.Lookup("dotted", "p", "r")
	require.True(t, ok)
	require.Equal(t, value.Integer(2), r)
}

func TestLoads_DottedTableExtendedByHeader(t *testing.T) {
	tree, err := rtoml.Loads("[fruit]\napple.color = \"red\"\n\n[fruit.apple.texture]\nsmooth = true\n")
	require.NoError(t, err)
	v, ok := tree.Lookup("fruit", "apple", "texture", "smooth")
	require.True(t, ok)
	require.Equal(t, value.Boolean(true), v)
}

func TestLoads_DuplicateKeys(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		tablePath []string
		key       string
		line      int
		column    int
	}{
		{"plain key", "a = 1\na = 2", nil, "a", 2, 1},
		{"key in table", "[t]\nb = 1\nb = 2", []string{"t"}, "b", 3, 1},
		{"table twice", "[t]\n[t]", nil, "t", 2, 2},
		{"table over key", "t = 1\n[t]", nil, "t", 2, 2},
		{"key over table", "[t.u]\n[t]\nu = 1", []string{"t"}, "u", 3, 1},
		{"dotted over table", "[t.u]\n[t]\nu.v = 1", []string{"t"}, "u", 3, 1},
		{"header into inline table", "t = {}\n[t.u]", nil, "t", 2, 2},
		{"extend inline table", "t = { a = 1 }\nt.b = 2", nil, "t", 2, 1},
		{"header over dotted table", "a.b = 1\n[a]", nil, "a", 2, 2},
		{"array of tables over static array", "a = []\n[[a]]", nil, "a", 2, 3},
		{"table over array of tables", "[[a]]\n[a]", nil, "a", 2, 2},
		{"header through static array", "a = [{}]\n[a.b]", nil, "a", 2, 2},
		{"inline duplicate", "t = { a = 1, a = 2 }", []string{"t"}, "a", 1, 14},
		{"quoted duplicate", "\"a\" = 1\n'a' = 2", nil, "a", 2, 1},
		{"dotted into array table element", "[[a]]\nb.c = 1\n[a.b]", []string{"a"}, "b", 3, 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rtoml.Loads(tc.input)
			require.Error(t, err)
			require.ErrorIs(t, err, rtoml.ErrParsing)

			var dup *rtoml.DuplicateKeyError
			require.ErrorAs(t, err, &dup)
			require.Equal(t, tc.tablePath, nilIfEmpty(dup.TablePath))
			require.Equal(t, tc.key, dup.Key)
			require.Equal(t, tc.line, dup.Line)
			require.Equal(t, tc.column, dup.Column)

			var perr *rtoml.ParsingError
			require.ErrorAs(t, err, &perr)
			require.Equal(t, tc.line, perr.Line)
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestLoads_TemporalErrors(t *testing.T) {
	testCases := []struct {
		input  string
		reason string
	}{
		{"d = 2021-02-30", "day is out of range for month"},
		{"d = 2023-02-29", "day is out of range for month"},
		{"d = 2021-13-01", "month must be in 1..12"},
		{"d = 1979-05-27T24:00:00", "hour must be in 0..23"},
		{"d = 07:60:00", "minute must be in 0..59"},
		{"d = 1979-05-27T07:32:00+24:00", "offset hour must be in 0..23"},
		{"d = 1979-05-27T07:32:00.", "expected digits after decimal point"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			_, err := rtoml.Loads(tc.input)
			require.ErrorIs(t, err, rtoml.ErrParsing)
			var te *rtoml.TemporalError
			require.ErrorAs(t, err, &te)
			require.Equal(t, tc.reason, te.Reason)
			require.Equal(t, strings.TrimPrefix(tc.input, "d = "), te.Literal)
			require.Equal(t, 1, te.Line)
			require.Equal(t, 5, te.Column)
		})
	}
}

func TestLoads_RadixWithoutDigits(t *testing.T) {
	testCases := []struct {
		input string
		msg   string
	}{
		{"a = 0x", "hexadecimal integer has no digits"},
		{"a = 0o", "octal integer has no digits"},
		{"a = 0b", "binary integer has no digits"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			_, err := rtoml.Loads(tc.input)
			require.EqualError(t, err, "rtoml: parsing error at line 1, column 5: "+tc.msg)
		})
	}
}

func TestLoads_SyntaxErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"missing value", "a = "},
		{"leading zero", "a = 012"},
		{"leading zero float", "a = 01.5"},
		{"bad underscore", "a = 1__0"},
		{"trailing underscore", "a = 10_"},
		{"dot without digits", "a = 1."},
		{"leading dot", "a = .5"},
		{"exponent dot", "a = 1e.5"},
		{"integer overflow", "a = 9223372036854775808"},
		{"unterminated string", `a = "abc`},
		{"unterminated table", "[a"},
		{"bare key with space", "a b = 1"},
		{"no newline between pairs", "a = 1 b = 2"},
		{"local time with offset", "a = 07:32:00Z"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := rtoml.Loads(tc.input)
			require.Error(t, err)
			require.ErrorIs(t, err, rtoml.ErrParsing)
			var perr *rtoml.ParsingError
			require.ErrorAs(t, err, &perr)
			require.Equal(t, 1, perr.Line)
			require.Positive(t, perr.Column)
		})
	}
}

func TestLoads_QuotedStringHint(t *testing.T) {
	_, err := rtoml.Loads("x = 1\ny = bar")
	var perr *rtoml.ParsingError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "invalid TOML value, did you mean to use a quoted string?", perr.Message)
	require.Equal(t, 2, perr.Line)
	require.Equal(t, 5, perr.Column)
	require.EqualError(t, err, "rtoml: parsing error at line 2, column 5: invalid TOML value, did you mean to use a quoted string?")
}

func TestLoads_InvalidUTF8(t *testing.T) {
	_, err := rtoml.Parse([]byte("a = \"x\xffy\""))
	require.ErrorIs(t, err, rtoml.ErrParsing)
	require.ErrorIs(t, err, rtoml.ErrEncoding)

	var encErr *rtoml.EncodingError
	require.ErrorAs(t, err, &encErr)
	require.Equal(t, 6, encErr.Offset)
}

func TestLoads_MaxDepth(t *testing.T) {
	deep := "a = " + strings.Repeat("[", 20) + strings.Repeat("]", 20)
	_, err := rtoml.Loads(deep, rtoml.MaxDepth(10))
	require.ErrorIs(t, err, rtoml.ErrParsing)
	require.ErrorContains(t, err, "exceeded max nesting depth")

	_, err = rtoml.Loads(deep, rtoml.MaxDepth(30))
	require.NoError(t, err)
}

func TestDecoder_NilReader(t *testing.T) {
	_, err := rtoml.NewDecoder(nil).Table()
	require.ErrorIs(t, err, rtoml.ErrType)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLoad_ReaderError(t *testing.T) {
	_, err := rtoml.Load(failingReader{})
	require.ErrorContains(t, err, "disk on fire")
}

func TestLoad_Fixtures(t *testing.T) {
	names, err := testutil.Documents()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			data, err := testutil.ReadTestData(name)
			require.NoError(t, err)
			_, err = rtoml.Load(bytes.NewReader(data))
			require.NoError(t, err)
		})
	}
}

func BenchmarkDecode(b *testing.B) {
	input, err := testutil.ReadTestData("config.toml")
	require.NoError(b, err)

	b.ReportAllocs()
	b.SetBytes(int64(len(input)))
	b.ResetTimer()

	for b.Loop() {
		if _, err := rtoml.Parse(input); err != nil {
			b.Fatalf("Parse failed during benchmark: %v", err)
		}
	}
}
