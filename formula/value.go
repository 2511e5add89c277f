package formula

import (
	"math"
	"strconv"
	"strings"

	"github.com/javajack/xlgrid/cell"
)

// Kind is the type of a scalar formula value.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindBool
)

// Value is a scalar produced by evaluation. The zero Value is empty.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
}

// Number wraps a float as a Value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Text wraps a string as a Value.
func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// Boolean wraps a bool as a Value.
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// String renders the value the way a cell displays it.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return cell.FormatNumber(v.Num)
	case KindText:
		return v.Str
	case KindBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// Native returns the value as nil, float64, string or bool.
func (v Value) Native() any {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindText:
		return v.Str
	case KindBool:
		return v.Bool
	default:
		return nil
	}
}

// AsNumber coerces a value in arithmetic context: numeric text parses,
// booleans are 1 or 0 and empty is 0.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindEmpty:
		return 0, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case KindText:
		return parseNumber(v.Str)
	}
	return 0, false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// fromJSON converts a decoded JSON property into a scalar Value.
func fromJSON(v any) (Value, bool) {
	switch x := v.(type) {
	case nil:
		return Value{}, true
	case float64:
		return Number(x), true
	case string:
		return Text(x), true
	case bool:
		return Boolean(x), true
	}
	return Value{}, false
}

// Result is the outcome of evaluating one cell: a value, or a tagged error.
type Result struct {
	Value Value
	Err   *Error
}

// OK reports whether evaluation succeeded.
func (r Result) OK() bool { return r.Err == nil }

// String renders the value, or the error code on failure.
func (r Result) String() string {
	if r.Err != nil {
		return r.Err.Kind.Code()
	}
	return r.Value.String()
}
