// Package nullable provides optional scalar types that decode leniently from
// form-style JSON (numbers, numeric strings, "" and null) and read and write
// PostgreSQL columns through pgx's pgtype scanner and valuer interfaces.
package nullable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

var null = []byte("null")

// rawScalar returns the textual value of a JSON number or string, or "" for
// null and empty strings.
func rawScalar(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	return string(data), nil
}

// Int is an optional integer.
type Int struct {
	Int64 int64
	Valid bool
}

// IntOf returns a valid Int holding v.
func IntOf(v int64) Int { return Int{Int64: v, Valid: true} }

func (n Int) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return null, nil
	}
	return []byte(strconv.FormatInt(n.Int64, 10)), nil
}

func (n *Int) UnmarshalJSON(data []byte) error {
	s, err := rawScalar(data)
	if err != nil {
		return err
	}
	if s == "" {
		*n = Int{}
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return fmt.Errorf("invalid integer %q", s)
		}
		v = int64(f)
	}
	*n = IntOf(v)
	return nil
}

func (n *Int) ScanInt64(v pgtype.Int8) error {
	*n = Int{Int64: v.Int64, Valid: v.Valid}
	return nil
}

func (n Int) Int64Value() (pgtype.Int8, error) {
	return pgtype.Int8{Int64: n.Int64, Valid: n.Valid}, nil
}

// Float is an optional floating point number.
type Float struct {
	Float64 float64
	Valid   bool
}

// FloatOf returns a valid Float holding v.
func FloatOf(v float64) Float { return Float{Float64: v, Valid: true} }

// Positive reports whether the value is present and greater than zero.
func (n Float) Positive() bool { return n.Valid && n.Float64 > 0 }

func (n Float) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return null, nil
	}
	return []byte(strconv.FormatFloat(n.Float64, 'f', -1, 64)), nil
}

func (n *Float) UnmarshalJSON(data []byte) error {
	s, err := rawScalar(data)
	if err != nil {
		return err
	}
	if s == "" {
		*n = Float{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*n = FloatOf(v)
	return nil
}

func (n *Float) ScanFloat64(v pgtype.Float8) error {
	*n = Float{Float64: v.Float64, Valid: v.Valid}
	return nil
}

func (n Float) Float64Value() (pgtype.Float8, error) {
	return pgtype.Float8{Float64: n.Float64, Valid: n.Valid}, nil
}

// DateLayout is the wire format of Date.
const DateLayout = "2006-01-02"

// Date is an optional calendar date. It accepts "2006-01-02" or an RFC 3339
// timestamp, of which only the date part is kept.
type Date struct {
	Time  time.Time
	Valid bool
}

// DateOf returns a valid Date for the calendar day of t.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// ParseDate parses s as a Date; "" yields an invalid Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
}

func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return null, nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := rawScalar(data)
	if err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *Date) ScanDate(v pgtype.Date) error {
	if !v.Valid || v.InfinityModifier != pgtype.Finite {
		*d = Date{}
		return nil
	}
	*d = DateOf(v.Time)
	return nil
}

func (d Date) DateValue() (pgtype.Date, error) {
	return pgtype.Date{Time: d.Time, Valid: d.Valid, InfinityModifier: pgtype.Finite}, nil
}
