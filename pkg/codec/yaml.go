package codec

import (
	"math"
	"time"

	"github.com/spf13/cast"
	yaml "gopkg.in/yaml.v2"

	"github.com/strataconf/strata/pkg/merge"
)

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Extensions() []string { return []string{".yaml", ".yml"} }

func (yamlCodec) Decode(data []byte) (*merge.Value, error) {
	var node yamlNode
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, ErrMalformed.Wrap(err)
	}
	if node.value == nil {
		// empty document
		return merge.Null(), nil
	}
	return node.value, nil
}

// yamlNode decodes one YAML node into a merge value. Mappings are
// decoded twice: once into a MapSlice for the key order the file was
// written in, once into a map of nodes for recursively converted
// values.
type yamlNode struct {
	value *merge.Value
}

func (y *yamlNode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var probe interface{}
	if err := unmarshal(&probe); err != nil {
		return err
	}
	switch probe.(type) {
	case nil:
		y.value = merge.Null()
		return nil

	case map[interface{}]interface{}:
		var orderedKeys yaml.MapSlice
		if err := unmarshal(&orderedKeys); err != nil {
			return err
		}
		var values map[interface{}]yamlNode
		if err := unmarshal(&values); err != nil {
			return err
		}
		fields := make([]merge.Field, 0, len(orderedKeys))
		seen := make(map[string]int, len(orderedKeys))
		for _, item := range orderedKeys {
			key, err := cast.ToStringE(item.Key)
			if err != nil {
				return ErrMalformed.WrapMessage("mapping key %v is not usable as a string", item.Key)
			}
			value := values[item.Key].value
			if at, dup := seen[key]; dup {
				// last occurrence of a duplicated key wins
				fields[at].Value = value
				continue
			}
			seen[key] = len(fields)
			fields = append(fields, merge.Field{Key: key, Value: value})
		}
		y.value = merge.Object(fields...)
		return nil

	case []interface{}:
		var seq []yamlNode
		if err := unmarshal(&seq); err != nil {
			return err
		}
		items := make([]*merge.Value, len(seq))
		for i := range seq {
			items[i] = seq[i].value
		}
		y.value = merge.Array(items...)
		return nil

	default:
		value, err := yamlScalar(probe)
		if err != nil {
			return err
		}
		y.value = value
		return nil
	}
}

func yamlScalar(scalar interface{}) (*merge.Value, error) {
	switch s := scalar.(type) {
	case bool:
		return merge.Bool(s), nil
	case int:
		return merge.Integer(int64(s)), nil
	case int64:
		return merge.Integer(s), nil
	case uint64:
		if s > math.MaxInt64 {
			return merge.Float(float64(s)), nil
		}
		return merge.Integer(int64(s)), nil
	case float64:
		return merge.Float(s), nil
	case string:
		return merge.String(s), nil
	case time.Time:
		return merge.String(s.Format(time.RFC3339)), nil
	default:
		return nil, ErrMalformed.WrapMessage("unsupported YAML scalar of type %T", scalar)
	}
}

func (yamlCodec) Encode(value *merge.Value) ([]byte, error) {
	encodable, err := yamlEncodable(value)
	if err != nil {
		return nil, err
	}
	b, err := yaml.Marshal(encodable)
	if err != nil {
		return nil, ErrCannotEncode.Wrap(err)
	}
	return b, nil
}

func yamlEncodable(value *merge.Value) (interface{}, error) {
	switch value.Type() {
	case merge.TypeNull:
		return nil, nil
	case merge.TypeBool:
		b, _ := value.AsBool()
		return b, nil
	case merge.TypeInteger:
		i, _ := value.AsInteger()
		return i, nil
	case merge.TypeFloat:
		f, _ := value.AsFloat()
		return f, nil
	case merge.TypeString:
		s, _ := value.AsString()
		return s, nil
	case merge.TypeArray:
		items := make([]interface{}, 0, value.Len())
		for _, item := range value.Items() {
			encodable, err := yamlEncodable(item)
			if err != nil {
				return nil, err
			}
			items = append(items, encodable)
		}
		return items, nil
	case merge.TypeObject:
		fields := make(yaml.MapSlice, 0, value.Len())
		for _, field := range value.Fields() {
			encodable, err := yamlEncodable(field.Value)
			if err != nil {
				return nil, err
			}
			fields = append(fields, yaml.MapItem{Key: field.Key, Value: encodable})
		}
		return fields, nil
	default:
		return nil, ErrCannotEncode.WrapMessage("unknown value type %v", value.Type())
	}
}
