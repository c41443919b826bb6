package datetime

import "fmt"

// Error describes a temporal literal that is malformed or names a date or
// time that does not exist.
type Error struct {
	Literal string
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("datetime: %s in %q", e.Reason, e.Literal)
}

func newError(lit, reason string) *Error {
	return &Error{Literal: lit, Reason: reason}
}

// Parse reads any of the four temporal forms. The result is a Date, a Time,
// a LocalDateTime or an OffsetDateTime depending on which parts are present.
func Parse(s string) (Temporal, error) {
	sc := &scanner{src: s}
	if len(s) > 2 && s[2] == ':' {
		t, err := sc.time()
		if err != nil {
			return nil, err
		}
		if err := sc.end(); err != nil {
			return nil, err
		}
		return t, nil
	}

	d, err := sc.date()
	if err != nil {
		return nil, err
	}
	if sc.done() {
		return d, nil
	}
	if !sc.acceptAny("Tt ") {
		return nil, sc.fail("expected T or a space between date and time")
	}
	t, err := sc.time()
	if err != nil {
		return nil, err
	}
	if sc.done() {
		return LocalDateTime{Date: d, Time: t}, nil
	}

	off, err := sc.offset()
	if err != nil {
		return nil, err
	}
	if err := sc.end(); err != nil {
		return nil, err
	}
	dt := OffsetDateTime{Date: d, Time: t, Offset: off}
	if err := dt.Validate(); err != nil {
		return nil, withLiteral(err, s)
	}
	return dt, nil
}

// ParseDate reads a local date such as 1979-05-27.
func ParseDate(s string) (Date, error) {
	v, err := Parse(s)
	if err != nil {
		return Date{}, err
	}
	d, ok := v.(Date)
	if !ok {
		return Date{}, newError(s, "not a local date")
	}
	return d, nil
}

// ParseTime reads a local time such as 07:32:00.999999.
func ParseTime(s string) (Time, error) {
	v, err := Parse(s)
	if err != nil {
		return Time{}, err
	}
	t, ok := v.(Time)
	if !ok {
		return Time{}, newError(s, "not a local time")
	}
	return t, nil
}

// ParseLocalDateTime reads a date-time without an offset.
func ParseLocalDateTime(s string) (LocalDateTime, error) {
	v, err := Parse(s)
	if err != nil {
		return LocalDateTime{}, err
	}
	dt, ok := v.(LocalDateTime)
	if !ok {
		return LocalDateTime{}, newError(s, "not a local date-time")
	}
	return dt, nil
}

// ParseOffsetDateTime reads a date-time that ends in Z or a ±HH:MM offset.
func ParseOffsetDateTime(s string) (OffsetDateTime, error) {
	v, err := Parse(s)
	if err != nil {
		return OffsetDateTime{}, err
	}
	dt, ok := v.(OffsetDateTime)
	if !ok {
		return OffsetDateTime{}, newError(s, "not an offset date-time")
	}
	return dt, nil
}

func withLiteral(err error, lit string) error {
	if e, ok := err.(*Error); ok {
		return newError(lit, e.Reason)
	}
	return err
}

// scanner walks a temporal literal byte by byte.
type scanner struct {
	src string
	pos int
}

func (sc *scanner) done() bool { return sc.pos >= len(sc.src) }

func (sc *scanner) fail(reason string) *Error {
	return newError(sc.src, reason)
}

func (sc *scanner) end() error {
	if !sc.done() {
		return sc.fail("unexpected trailing characters")
	}
	return nil
}

func (sc *scanner) accept(c byte) bool {
	if sc.pos < len(sc.src) && sc.src[sc.pos] == c {
		sc.pos++
		return true
	}
	return false
}

func (sc *scanner) acceptAny(set string) bool {
	for i := 0; i < len(set); i++ {
		if sc.accept(set[i]) {
			return true
		}
	}
	return false
}

// digits reads exactly n decimal digits.
func (sc *scanner) digits(n int) (int, bool) {
	if sc.pos+n > len(sc.src) {
		return 0, false
	}
	v := 0
	for i := 0; i < n; i++ {
		c := sc.src[sc.pos+i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	sc.pos += n
	return v, true
}

// date reads YYYY-MM-DD and validates it against the calendar.
func (sc *scanner) date() (Date, error) {
	var d Date
	var ok bool
	if d.Year, ok = sc.digits(4); !ok {
		return d, sc.fail("malformed year")
	}
	if !sc.accept('-') {
		return d, sc.fail("expected - after year")
	}
	if d.Month, ok = sc.digits(2); !ok {
		return d, sc.fail("malformed month")
	}
	if !sc.accept('-') {
		return d, sc.fail("expected - after month")
	}
	if d.Day, ok = sc.digits(2); !ok {
		return d, sc.fail("malformed day")
	}
	if err := d.Validate(); err != nil {
		return d, withLiteral(err, sc.src)
	}
	return d, nil
}

// time reads HH:MM:SS with an optional fraction. Digits past the sixth
// fractional digit are dropped.
func (sc *scanner) time() (Time, error) {
	var t Time
	var ok bool
	if t.Hour, ok = sc.digits(2); !ok {
		return t, sc.fail("malformed hour")
	}
	if !sc.accept(':') {
		return t, sc.fail("expected : after hour")
	}
	if t.Minute, ok = sc.digits(2); !ok {
		return t, sc.fail("malformed minute")
	}
	if !sc.accept(':') {
		return t, sc.fail("expected : after minute")
	}
	if t.Second, ok = sc.digits(2); !ok {
		return t, sc.fail("malformed second")
	}
	if sc.accept('.') {
		n := 0
		for ; sc.pos < len(sc.src) && sc.src[sc.pos] >= '0' && sc.src[sc.pos] <= '9'; sc.pos++ {
			if n < 6 {
				t.Microsecond = t.Microsecond*10 + int(sc.src[sc.pos]-'0')
			}
			n++
		}
		if n == 0 {
			return t, sc.fail("expected digits after decimal point")
		}
		for ; n < 6; n++ {
			t.Microsecond *= 10
		}
	}
	if err := t.Validate(); err != nil {
		return t, withLiteral(err, sc.src)
	}
	return t, nil
}

// offset reads Z, z or ±HH:MM and returns minutes east of UTC.
func (sc *scanner) offset() (int, error) {
	if sc.acceptAny("Zz") {
		return 0, nil
	}
	sign := 1
	switch {
	case sc.accept('+'):
	case sc.accept('-'):
		sign = -1
	default:
		return 0, sc.fail("malformed offset")
	}
	h, ok := sc.digits(2)
	if !ok {
		return 0, sc.fail("malformed offset hour")
	}
	if !sc.accept(':') {
		return 0, sc.fail("expected : in offset")
	}
	m, ok := sc.digits(2)
	if !ok {
		return 0, sc.fail("malformed offset minute")
	}
	if h > 23 {
		return 0, sc.fail("offset hour must be in 0..23")
	}
	if m > 59 {
		return 0, sc.fail("offset minute must be in 0..59")
	}
	return sign * (h*60 + m), nil
}
