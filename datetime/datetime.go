// Package datetime implements the four TOML temporal forms: offset
// date-time, local date-time, local date and local time.
//
// Values carry microsecond precision. Parsing accepts any number of
// fractional digits and truncates the rest; formatting writes only as many
// fractional digits as the microsecond count needs, so a parsed value always
// formats back to a literal that parses to the same value.
package datetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Temporal is implemented by the four temporal types of this package.
type Temporal interface {
	fmt.Stringer
	temporal()
}

// Date is a calendar date without a time or an offset.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Time is a wall clock time without a date or an offset.
type Time struct {
	Hour        int
	Minute      int
	Second      int
	Microsecond int
}

// LocalDateTime is a date and a time without an offset.
type LocalDateTime struct {
	Date
	Time
}

// OffsetDateTime is a date and a time at a fixed offset from UTC.
type OffsetDateTime struct {
	Date
	Time
	// Offset is the number of minutes east of UTC. Zero is written as Z.
	Offset int
}

func (Date) temporal()           {}
func (Time) temporal()           {}
func (LocalDateTime) temporal()  {}
func (OffsetDateTime) temporal() {}

// Validate reports whether d names a day that exists in the proleptic
// Gregorian calendar.
func (d Date) Validate() error {
	lit := d.String()
	switch {
	case d.Year < 0 || d.Year > 9999:
		return newError(lit, "year is out of range")
	case d.Month < 1 || d.Month > 12:
		return newError(lit, "month must be in 1..12")
	case d.Day < 1 || d.Day > daysIn(d.Month, d.Year):
		return newError(lit, "day is out of range for month")
	}
	return nil
}

// Validate reports whether t is a valid time of day.
func (t Time) Validate() error {
	lit := t.String()
	switch {
	case t.Hour < 0 || t.Hour > 23:
		return newError(lit, "hour must be in 0..23")
	case t.Minute < 0 || t.Minute > 59:
		return newError(lit, "minute must be in 0..59")
	case t.Second < 0 || t.Second > 59:
		return newError(lit, "second must be in 0..59")
	case t.Microsecond < 0 || t.Microsecond > 999999:
		return newError(lit, "microsecond must be in 0..999999")
	}
	return nil
}

// Validate checks both the date and the time parts.
func (dt LocalDateTime) Validate() error {
	if err := dt.Date.Validate(); err != nil {
		return err
	}
	return dt.Time.Validate()
}

// Validate checks the date, the time and the offset.
func (dt OffsetDateTime) Validate() error {
	if err := dt.Date.Validate(); err != nil {
		return err
	}
	if err := dt.Time.Validate(); err != nil {
		return err
	}
	if dt.Offset <= -24*60 || dt.Offset >= 24*60 {
		return newError(dt.String(), "offset must be within 23:59 of UTC")
	}
	return nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (t Time) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Microsecond != 0 {
		frac := strconv.Itoa(t.Microsecond + 1000000)[1:]
		b.WriteByte('.')
		b.WriteString(strings.TrimRight(frac, "0"))
	}
	return b.String()
}

func (dt LocalDateTime) String() string {
	return dt.Date.String() + "T" + dt.Time.String()
}

func (dt OffsetDateTime) String() string {
	return dt.Date.String() + "T" + dt.Time.String() + formatOffset(dt.Offset)
}

func formatOffset(minutes int) string {
	if minutes == 0 {
		return "Z"
	}
	sign := byte('+')
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("%c%02d:%02d", sign, minutes/60, minutes%60)
}

// Location returns the fixed zone described by the offset. A zero offset
// is reported as time.UTC.
func (dt OffsetDateTime) Location() *time.Location {
	if dt.Offset == 0 {
		return time.UTC
	}
	return time.FixedZone("", dt.Offset*60)
}

// AsTime returns the instant dt denotes, in its own fixed zone.
func (dt OffsetDateTime) AsTime() time.Time {
	return time.Date(dt.Year, time.Month(dt.Month), dt.Day,
		dt.Hour, dt.Minute, dt.Second, dt.Microsecond*1000, dt.Location())
}

// In interprets dt as a wall clock reading in loc.
func (dt LocalDateTime) In(loc *time.Location) time.Time {
	return time.Date(dt.Year, time.Month(dt.Month), dt.Day,
		dt.Hour, dt.Minute, dt.Second, dt.Microsecond*1000, loc)
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

// FromTime converts t to an OffsetDateTime, keeping its zone offset and
// truncating it to whole microseconds. Offsets with a seconds component
// lose the seconds.
func FromTime(t time.Time) OffsetDateTime {
	_, offset := t.Zone()
	return OffsetDateTime{
		Date:   DateOf(t),
		Time:   TimeOf(t),
		Offset: offset / 60,
	}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// TimeOf returns the wall clock time of t in t's location.
func TimeOf(t time.Time) Time {
	return Time{
		Hour:        t.Hour(),
		Minute:      t.Minute(),
		Second:      t.Second(),
		Microsecond: t.Nanosecond() / 1000,
	}
}

func daysIn(month, year int) int {
	switch month {
	case 2:
		if isLeap(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
