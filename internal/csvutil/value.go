package csvutil

import (
	"database/sql/driver"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/go-faster/jx"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single cell before serialization. Scalars are written as their
// text; lists and maps are flattened into one compact JSON field.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	list []Value
	obj  *Record
}

// Null returns the empty value. It serializes as an empty cell.
func Null() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Int(i int64) Value { return Value{kind: KindInt, num: i} }

func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Map wraps an ordered record as a nested value. A nil record is an empty map.
func Map(r *Record) Value {
	if r == nil {
		r = NewRecord()
	}
	return Value{kind: KindMap, obj: r}
}

// Of converts a loosely typed Go value into a Value. Maps with string keys are
// ordered by key since Go maps carry no order of their own.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case []byte:
		return String(string(x)), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return String(strconv.FormatUint(x, 10)), nil
		}
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case time.Time:
		return String(x.Format(time.RFC3339Nano)), nil
	case []string:
		items := make([]Value, len(x))
		for i, s := range x {
			items[i] = String(s)
		}
		return List(items...), nil
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			iv, err := Of(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = iv
		}
		return List(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rec := NewRecord()
		for _, k := range keys {
			iv, err := Of(x[k])
			if err != nil {
				return Value{}, err
			}
			rec.Set(k, iv)
		}
		return Map(rec), nil
	case *Record:
		return Map(x), nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return Value{}, err
		}
		return Of(dv)
	case fmt.Stringer:
		return String(x.String()), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsStructured reports whether the value is a list or a map.
func (v Value) IsStructured() bool { return v.kind == KindList || v.kind == KindMap }

// Items returns the elements of a list value.
func (v Value) Items() []Value { return v.list }

// Fields returns the record behind a map value.
func (v Value) Fields() *Record { return v.obj }

// String flattens the value into the text of a single CSV field.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.num == 1)
	default:
		var e jx.Encoder
		v.encode(&e)
		return e.String()
	}
}

// MarshalJSON encodes the value keeping map field order.
func (v Value) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	v.encode(&e)
	return e.Bytes(), nil
}

func (v Value) encode(e *jx.Encoder) {
	switch v.kind {
	case KindNull:
		e.Null()
	case KindString:
		e.Str(v.str)
	case KindInt:
		e.Int64(v.num)
	case KindFloat:
		// JSON has no NaN or infinities.
		if math.IsNaN(v.flt) || math.IsInf(v.flt, 0) {
			e.Null()
			return
		}
		e.Float64(v.flt)
	case KindBool:
		e.Bool(v.num == 1)
	case KindList:
		e.ArrStart()
		for _, item := range v.list {
			item.encode(e)
		}
		e.ArrEnd()
	case KindMap:
		v.obj.encode(e)
	}
}
