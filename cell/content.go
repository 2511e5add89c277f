package cell

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Kind tags the shape of a cell's raw content.
type Kind int

const (
	Empty Kind = iota
	Text
	Number
	Object
	Formula
)

// String returns a human-readable name for the Kind.
func (k Kind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case Text:
		return "Text"
	case Number:
		return "Number"
	case Object:
		return "Object"
	case Formula:
		return "Formula"
	default:
		return "Unknown"
	}
}

// Content is the raw content of one cell, classified when it is written.
type Content struct {
	Kind Kind
	Text string         // Text, Formula (with leading '='), Object (JSON source)
	Num  float64        // Number
	Obj  map[string]any // Object
}

// Parse classifies raw cell text.
func Parse(s string) Content {
	switch {
	case s == "":
		return Content{}
	case s[0] == '=':
		return Content{Kind: Formula, Text: s}
	case s[0] == '{':
		var obj map[string]any
		if err := json.Unmarshal([]byte(s), &obj); err == nil && obj != nil {
			return Content{Kind: Object, Text: s, Obj: obj}
		}
	}
	return Content{Kind: Text, Text: s}
}

// NumberOf wraps a number as cell content.
func NumberOf(f float64) Content {
	return Content{Kind: Number, Num: f}
}

// Classify converts an arbitrary Go value into cell content. Strings are
// parsed, numbers stay numeric, and maps or structs are stored as JSON objects.
func Classify(v any) Content {
	switch x := v.(type) {
	case nil:
		return Content{}
	case Content:
		return x
	case string:
		return Parse(x)
	case float64:
		return NumberOf(x)
	case float32:
		return NumberOf(float64(x))
	case int:
		return NumberOf(float64(x))
	case int8:
		return NumberOf(float64(x))
	case int16:
		return NumberOf(float64(x))
	case int32:
		return NumberOf(float64(x))
	case int64:
		return NumberOf(float64(x))
	case uint:
		return NumberOf(float64(x))
	case uint8:
		return NumberOf(float64(x))
	case uint16:
		return NumberOf(float64(x))
	case uint32:
		return NumberOf(float64(x))
	case uint64:
		return NumberOf(float64(x))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return NumberOf(f)
		}
		return Parse(x.String())
	case fmt.Stringer:
		return Parse(x.String())
	}

	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Struct:
		b, err := json.Marshal(v)
		if err == nil {
			return Parse(string(b))
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Parse(fmt.Sprintf("%v", v))
	}
	return Parse(string(b))
}

// Raw returns the canonical text of the content as it would be typed into
// the cell.
func (c Content) Raw() string {
	switch c.Kind {
	case Empty:
		return ""
	case Number:
		return FormatNumber(c.Num)
	default:
		return c.Text
	}
}

// FormulaBody returns the formula text after the leading '='.
func (c Content) FormulaBody() string {
	if c.Kind != Formula {
		return ""
	}
	return strings.TrimPrefix(c.Text, "=")
}

// Value returns the content as a plain Go value: nil, string, float64,
// or map[string]any.
func (c Content) Value() any {
	switch c.Kind {
	case Empty:
		return nil
	case Number:
		return c.Num
	case Object:
		return c.Obj
	default:
		return c.Text
	}
}

// ReadOnly reports whether an object cell marks itself as not editable
// through a true "readOnly" or "disabled" property.
func (c Content) ReadOnly() bool {
	if c.Kind != Object {
		return false
	}
	for _, key := range []string{"readOnly", "disabled"} {
		if b, ok := c.Obj[key].(bool); ok && b {
			return true
		}
	}
	return false
}

// FormatNumber renders a float in its shortest decimal form.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
