package rtoml

import "fmt"

// Option configures a single load or dump call.
type Option func(*options) error

type options struct {
	noneSentinel *string
	noneValue    *string
	pretty       bool
	indent       int
	maxDepth     int
}

const (
	defaultIndent   = 4
	defaultMaxDepth = 1000
)

func newOptions(opts []Option) (*options, error) {
	o := &options{
		indent:   defaultIndent,
		maxDepth: defaultMaxDepth,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// NoneSentinel makes the decoder turn every string value equal to s into
// value.Null. Without it, strings are always decoded as strings.
func NoneSentinel(s string) Option {
	return func(o *options) error {
		o.noneSentinel = &s
		return nil
	}
}

// NoneValue makes the encoder write Null values, and nil map keys, as the
// string s. Without it, table entries and array elements holding Null are
// left out of the output.
func NoneValue(s string) Option {
	return func(o *options) error {
		o.noneValue = &s
		return nil
	}
}

// Pretty selects the multi-line layout: arrays are written one element per
// line and strings prefer the literal forms that need no escaping.
func Pretty() Option {
	return func(o *options) error {
		o.pretty = true
		return nil
	}
}

// Indent sets the number of spaces used per nesting level of a pretty
// array. It has no effect on compact output.
func Indent(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return &TypeError{Message: fmt.Sprintf("indent must not be negative, got %d", n)}
		}
		o.indent = n
		return nil
	}
}

// MaxDepth limits how deeply nested a structure may be when converting Go
// values to a tree or a tree to Go values.
//
// The depth n must be a positive integer.
func MaxDepth(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return &TypeError{Message: "max depth must be a positive integer"}
		}
		o.maxDepth = n
		return nil
	}
}
