package codec

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/strataconf/strata/pkg/merge"
)

// jsonEncodeConfig renders with two space indent and without HTML
// escaping, matching what people write by hand.
var jsonEncodeConfig = jsoniter.Config{IndentionStep: 2, EscapeHTML: false}.Froze()

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Extensions() []string { return []string{".json"} }

// Decode parses JSON through the streaming iterator rather than a map,
// so object key order survives.
func (jsonCodec) Decode(data []byte) (*merge.Value, error) {
	iter := jsoniter.ParseBytes(jsoniter.ConfigDefault, data)
	value := decodeJSON(iter)
	if iter.Error != nil && iter.Error != io.EOF {
		return nil, ErrMalformed.Wrap(iter.Error)
	}
	if what := iter.WhatIsNext(); what != jsoniter.InvalidValue {
		return nil, ErrMalformed.WrapMessage("trailing data after JSON value")
	}
	return value, nil
}

func decodeJSON(iter *jsoniter.Iterator) *merge.Value {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return merge.Null()
	case jsoniter.BoolValue:
		return merge.Bool(iter.ReadBool())
	case jsoniter.NumberValue:
		number := iter.ReadNumber()
		if i, err := number.Int64(); err == nil {
			return merge.Integer(i)
		}
		f, err := number.Float64()
		if err != nil {
			iter.ReportError("decode", err.Error())
			return merge.Null()
		}
		return merge.Float(f)
	case jsoniter.StringValue:
		return merge.String(iter.ReadString())
	case jsoniter.ArrayValue:
		var items []*merge.Value
		for iter.ReadArray() {
			items = append(items, decodeJSON(iter))
		}
		return merge.Array(items...)
	case jsoniter.ObjectValue:
		var fields []merge.Field
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			fields = append(fields, merge.Field{Key: key, Value: decodeJSON(it)})
			return true
		})
		return merge.Object(fields...)
	default:
		iter.ReportError("decode", "invalid JSON value")
		return merge.Null()
	}
}

func (jsonCodec) Encode(value *merge.Value) ([]byte, error) {
	stream := jsonEncodeConfig.BorrowStream(nil)
	defer jsonEncodeConfig.ReturnStream(stream)

	encodeJSON(stream, value)
	if stream.Error != nil {
		return nil, ErrCannotEncode.Wrap(stream.Error)
	}
	out := make([]byte, len(stream.Buffer()), len(stream.Buffer())+1)
	copy(out, stream.Buffer())
	return append(out, '\n'), nil
}

func encodeJSON(stream *jsoniter.Stream, value *merge.Value) {
	switch value.Type() {
	case merge.TypeNull:
		stream.WriteNil()
	case merge.TypeBool:
		b, _ := value.AsBool()
		stream.WriteBool(b)
	case merge.TypeInteger:
		i, _ := value.AsInteger()
		stream.WriteInt64(i)
	case merge.TypeFloat:
		f, _ := value.AsFloat()
		stream.WriteFloat64(f)
	case merge.TypeString:
		s, _ := value.AsString()
		stream.WriteString(s)
	case merge.TypeArray:
		stream.WriteArrayStart()
		for i, item := range value.Items() {
			if i > 0 {
				stream.WriteMore()
			}
			encodeJSON(stream, item)
		}
		stream.WriteArrayEnd()
	case merge.TypeObject:
		stream.WriteObjectStart()
		for i, field := range value.Fields() {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(field.Key)
			encodeJSON(stream, field.Value)
		}
		stream.WriteObjectEnd()
	}
}
