package tsl

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the runtime type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindDateTime
	KindList
)

var kindNames = map[Kind]string{
	KindNull:     "null",
	KindBool:     "boolean",
	KindNumber:   "number",
	KindString:   "string",
	KindDateTime: "datetime",
	KindList:     "list",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is the tagged runtime value shared by literals, context lookups, and
// evaluation results. A Value is immutable once constructed.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	t    time.Time
	list []Value
}

// Null is the Value of kind KindNull.
var Null = Value{kind: KindNull}

// True and False are the two boolean Values.
var (
	True  = Value{kind: KindBool, b: true}
	False = Value{kind: KindBool, b: false}
)

// NewBool returns a boolean Value.
func NewBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// NewNumber returns a number Value.
func NewNumber(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// NewString returns a string Value.
func NewString(s string) Value {
	return Value{kind: KindString, str: s}
}

// NewDateTime returns a datetime Value.
func NewDateTime(t time.Time) Value {
	return Value{kind: KindDateTime, t: t}
}

// NewList returns a list Value. The elements slice is copied so later
// mutation of the argument cannot reach the Value.
func NewList(elements ...Value) Value {
	list := make([]Value, len(elements))
	copy(list, elements)
	return Value{kind: KindList, list: list}
}

// Kind returns the runtime type of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload; it is only meaningful for KindBool.
func (v Value) Bool() bool { return v.b }

// Number returns the numeric payload; it is only meaningful for KindNumber.
func (v Value) Number() float64 { return v.num }

// Text returns the string payload; it is only meaningful for KindString.
func (v Value) Text() string { return v.str }

// Time returns the datetime payload; it is only meaningful for KindDateTime.
func (v Value) Time() time.Time { return v.t }

// List returns a copy of the list payload; it is only meaningful for KindList.
func (v Value) List() []Value {
	out := make([]Value, len(v.list))
	copy(out, v.list)
	return out
}

// Len returns the element count for lists and the rune count for strings.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindString:
		return len([]rune(v.str))
	default:
		return 0
	}
}

// Equal reports whether two values are equal under TSL `=` semantics.
// Values of different kinds are not comparable; a comparison involving null
// is never equal. The boolean result is only meaningful when comparable is
// true.
func (v Value) Equal(other Value) (equal bool, comparable bool) {
	if v.kind == KindNull || other.kind == KindNull {
		// SQL-like null semantics: equality against null is always false;
		// only IS NULL observes nullness.
		return false, true
	}
	if v.kind != other.kind {
		return false, false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b, true
	case KindNumber:
		return v.num == other.num, true
	case KindString:
		return v.str == other.str, true
	case KindDateTime:
		return v.t.Equal(other.t), true
	case KindList:
		if len(v.list) != len(other.list) {
			return false, true
		}
		for i := range v.list {
			eq, ok := v.list[i].Equal(other.list[i])
			if !ok {
				return false, false
			}
			if !eq {
				return false, true
			}
		}
		return true, true
	}
	return false, false
}

// Compare orders two values under TSL `<` semantics: numbers numerically,
// strings lexicographically, datetimes chronologically. Booleans, nulls, and
// lists have no order. The result is only meaningful when comparable is true.
func (v Value) Compare(other Value) (cmp int, comparable bool) {
	if v.kind != other.kind {
		return 0, false
	}
	switch v.kind {
	case KindNumber:
		switch {
		case v.num < other.num:
			return -1, true
		case v.num > other.num:
			return 1, true
		default:
			return 0, true
		}
	case KindString:
		return strings.Compare(v.str, other.str), true
	case KindDateTime:
		switch {
		case v.t.Before(other.t):
			return -1, true
		case v.t.After(other.t):
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

// String renders the value as TSL literal text.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		escaped := strings.ReplaceAll(v.str, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, "'", `\'`)
		return "'" + escaped + "'"
	case KindDateTime:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 && v.t.Nanosecond() == 0 && v.t.Location() == time.UTC {
			return v.t.Format("2006-01-02")
		}
		return v.t.Format(time.RFC3339)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("unknown(%d)", int(v.kind))
}

// Interface returns the value as a plain Go value: nil, bool, float64,
// string, time.Time, or []interface{}. Hosts use it to hand results to
// encoding or storage layers.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindDateTime:
		return v.t
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	}
	return nil
}

// FromInterface converts a plain Go value into a Value. Numeric Go types map
// to KindNumber, time.Time to KindDateTime, slices to KindList. Unsupported
// types fail so hosts notice bad context data instead of silently filtering
// wrong.
func FromInterface(raw interface{}) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null, nil
	case bool:
		return NewBool(v), nil
	case float64:
		return NewNumber(v), nil
	case float32:
		return NewNumber(float64(v)), nil
	case int:
		return NewNumber(float64(v)), nil
	case int32:
		return NewNumber(float64(v)), nil
	case int64:
		return NewNumber(float64(v)), nil
	case uint:
		return NewNumber(float64(v)), nil
	case uint64:
		return NewNumber(float64(v)), nil
	case string:
		return NewString(v), nil
	case time.Time:
		return NewDateTime(v), nil
	case Value:
		return v, nil
	case []Value:
		return NewList(v...), nil
	case []interface{}:
		list := make([]Value, len(v))
		for i, e := range v {
			elem, err := FromInterface(e)
			if err != nil {
				return Null, err
			}
			list[i] = elem
		}
		return Value{kind: KindList, list: list}, nil
	case []string:
		list := make([]Value, len(v))
		for i, e := range v {
			list[i] = NewString(e)
		}
		return Value{kind: KindList, list: list}, nil
	case []float64:
		list := make([]Value, len(v))
		for i, e := range v {
			list[i] = NewNumber(e)
		}
		return Value{kind: KindList, list: list}, nil
	case []bool:
		list := make([]Value, len(v))
		for i, e := range v {
			list[i] = NewBool(e)
		}
		return Value{kind: KindList, list: list}, nil
	}
	return Null, fmt.Errorf("tsl: cannot convert %T to a value", raw)
}
