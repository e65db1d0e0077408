package merge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Type enumerates the value shapes of the configuration tree.
type Type uint

const (
	// TypeNull marks an explicit null. Inside an overlay object a null
	// deletes the key it is mapped to.
	TypeNull Type = iota
	// TypeBool is a boolean scalar.
	TypeBool
	// TypeInteger is a signed integer scalar.
	TypeInteger
	// TypeFloat is a floating point scalar.
	TypeFloat
	// TypeString is a text scalar.
	TypeString
	// TypeArray is an ordered sequence of values.
	TypeArray
	// TypeObject is an ordered mapping of string keys to values.
	TypeObject
)

func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Field is one key of an object. Objects remember the order their
// fields were written in, so configuration files survive a decode,
// merge and encode round trip without being shuffled.
type Field struct {
	Key   string
	Value *Value
}

// Value is one node of a decoded configuration tree. It is a tagged
// union: exactly the accessors matching Type() yield meaningful data.
// Values are not mutated by any operation in this package.
type Value struct {
	typ    Type
	boolV  bool
	intV   int64
	floatV float64
	strV   string
	items  []*Value
	fields []Field
}

// Null returns the explicit null value.
func Null() *Value {
	return &Value{typ: TypeNull}
}

// Bool returns a boolean scalar.
func Bool(b bool) *Value {
	return &Value{typ: TypeBool, boolV: b}
}

// Integer returns an integer scalar.
func Integer(i int64) *Value {
	return &Value{typ: TypeInteger, intV: i}
}

// Float returns a floating point scalar.
func Float(f float64) *Value {
	return &Value{typ: TypeFloat, floatV: f}
}

// String returns a text scalar.
func String(s string) *Value {
	return &Value{typ: TypeString, strV: s}
}

// Array returns a sequence over the given items.
func Array(items ...*Value) *Value {
	return &Value{typ: TypeArray, items: items}
}

// Object returns a mapping over the given fields, keeping their order.
func Object(fields ...Field) *Value {
	return &Value{typ: TypeObject, fields: fields}
}

// Type reports the shape of the value. A nil value reads as null.
func (v *Value) Type() Type {
	if v == nil {
		return TypeNull
	}
	return v.typ
}

// IsNull reports whether the value is an explicit or implicit null.
func (v *Value) IsNull() bool {
	return v.Type() == TypeNull
}

// AsBool yields the boolean payload.
func (v *Value) AsBool() (bool, bool) {
	if v.Type() != TypeBool {
		return false, false
	}
	return v.boolV, true
}

// AsInteger yields the integer payload.
func (v *Value) AsInteger() (int64, bool) {
	if v.Type() != TypeInteger {
		return 0, false
	}
	return v.intV, true
}

// AsFloat yields the float payload.
func (v *Value) AsFloat() (float64, bool) {
	if v.Type() != TypeFloat {
		return 0, false
	}
	return v.floatV, true
}

// AsString yields the string payload.
func (v *Value) AsString() (string, bool) {
	if v.Type() != TypeString {
		return "", false
	}
	return v.strV, true
}

// Items yields the elements of an array. Callers must not mutate the
// returned slice.
func (v *Value) Items() []*Value {
	if v.Type() != TypeArray {
		return nil
	}
	return v.items
}

// Fields yields the fields of an object in their recorded order.
// Callers must not mutate the returned slice.
func (v *Value) Fields() []Field {
	if v.Type() != TypeObject {
		return nil
	}
	return v.fields
}

// Get finds the value mapped to a key of an object.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Type() != TypeObject {
		return nil, false
	}
	for _, field := range v.fields {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// Len reports the number of items or fields of a container, and 0 for
// scalars.
func (v *Value) Len() int {
	switch v.Type() {
	case TypeArray:
		return len(v.items)
	case TypeObject:
		return len(v.fields)
	default:
		return 0
	}
}

// Clone returns a deep copy sharing no nodes with the receiver.
func (v *Value) Clone() *Value {
	if v == nil {
		return Null()
	}
	switch v.typ {
	case TypeArray:
		items := make([]*Value, len(v.items))
		for i, item := range v.items {
			items[i] = item.Clone()
		}
		return &Value{typ: TypeArray, items: items}
	case TypeObject:
		fields := make([]Field, len(v.fields))
		for i, field := range v.fields {
			fields[i] = Field{Key: field.Key, Value: field.Value.Clone()}
		}
		return &Value{typ: TypeObject, fields: fields}
	default:
		clone := *v
		return &clone
	}
}

// Equal reports deep structural equality. Object comparison ignores
// field order: two objects holding the same keys and values are equal
// however their fields are arranged.
func (v *Value) Equal(other *Value) bool {
	if v.Type() != other.Type() {
		return false
	}
	switch v.Type() {
	case TypeNull:
		return true
	case TypeBool:
		return v.boolV == other.boolV
	case TypeInteger:
		return v.intV == other.intV
	case TypeFloat:
		return v.floatV == other.floatV
	case TypeString:
		return v.strV == other.strV
	case TypeArray:
		if len(v.items) != len(other.items) {
			return false
		}
		for i, item := range v.items {
			if !item.Equal(other.items[i]) {
				return false
			}
		}
		return true
	case TypeObject:
		if len(v.fields) != len(other.fields) {
			return false
		}
		for _, field := range v.fields {
			found, ok := other.Get(field.Key)
			if !ok || !field.Value.Equal(found) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders a compact JSON-like form, useful in logs and test
// failure messages. It is not a serialization: use the codec package to
// write configuration files.
func (v *Value) String() string {
	var sb strings.Builder
	v.render(&sb)
	return sb.String()
}

func (v *Value) render(sb *strings.Builder) {
	switch v.Type() {
	case TypeNull:
		sb.WriteString("null")
	case TypeBool:
		sb.WriteString(strconv.FormatBool(v.boolV))
	case TypeInteger:
		sb.WriteString(strconv.FormatInt(v.intV, 10))
	case TypeFloat:
		sb.WriteString(strconv.FormatFloat(v.floatV, 'g', -1, 64))
	case TypeString:
		sb.WriteString(strconv.Quote(v.strV))
	case TypeArray:
		sb.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.render(sb)
		}
		sb.WriteByte(']')
	case TypeObject:
		sb.WriteByte('{')
		for i, field := range v.fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(field.Key))
			sb.WriteByte(':')
			field.Value.render(sb)
		}
		sb.WriteByte('}')
	}
}

// SortedKeys returns the keys of an object in lexical order, for
// deterministic iteration where file order does not matter.
func (v *Value) SortedKeys() []string {
	fields := v.Fields()
	keys := make([]string, 0, len(fields))
	for _, field := range fields {
		keys = append(keys, field.Key)
	}
	sort.Strings(keys)
	return keys
}

// GoString aids debugging with %#v.
func (v *Value) GoString() string {
	return fmt.Sprintf("merge.Value(%s)", v.String())
}
