package codec

import (
	"fmt"
	"math"
	"sort"
	"time"

	toml "github.com/pelletier/go-toml"

	"github.com/strataconf/strata/pkg/merge"
)

type tomlCodec struct{}

func (tomlCodec) Name() string { return "toml" }

func (tomlCodec) Extensions() []string { return []string{".toml"} }

func (tomlCodec) Decode(data []byte) (*merge.Value, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, ErrMalformed.Wrap(err)
	}
	return tomlTreeValue(tree)
}

// tomlTreeValue converts a table, walking keys in the order they appear
// in the file rather than map order.
func tomlTreeValue(tree *toml.Tree) (*merge.Value, error) {
	keys := tree.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		pi := tree.GetPositionPath([]string{keys[i]})
		pj := tree.GetPositionPath([]string{keys[j]})
		if pi.Line != pj.Line {
			return pi.Line < pj.Line
		}
		return pi.Col < pj.Col
	})

	fields := make([]merge.Field, 0, len(keys))
	for _, key := range keys {
		value, err := tomlValue(tree.GetPath([]string{key}))
		if err != nil {
			return nil, err
		}
		fields = append(fields, merge.Field{Key: key, Value: value})
	}
	return merge.Object(fields...), nil
}

func tomlValue(raw interface{}) (*merge.Value, error) {
	switch r := raw.(type) {
	case *toml.Tree:
		return tomlTreeValue(r)
	case []*toml.Tree:
		items := make([]*merge.Value, 0, len(r))
		for _, sub := range r {
			value, err := tomlTreeValue(sub)
			if err != nil {
				return nil, err
			}
			items = append(items, value)
		}
		return merge.Array(items...), nil
	case []interface{}:
		items := make([]*merge.Value, 0, len(r))
		for _, sub := range r {
			value, err := tomlValue(sub)
			if err != nil {
				return nil, err
			}
			items = append(items, value)
		}
		return merge.Array(items...), nil
	case bool:
		return merge.Bool(r), nil
	case int64:
		return merge.Integer(r), nil
	case uint64:
		if r > math.MaxInt64 {
			return merge.Float(float64(r)), nil
		}
		return merge.Integer(int64(r)), nil
	case float64:
		return merge.Float(r), nil
	case string:
		return merge.String(r), nil
	case time.Time:
		return merge.String(r.Format(time.RFC3339)), nil
	case toml.LocalDate:
		return merge.String(r.String()), nil
	case toml.LocalTime:
		return merge.String(r.String()), nil
	case toml.LocalDateTime:
		return merge.String(r.String()), nil
	default:
		return nil, ErrMalformed.WrapMessage("unsupported TOML value of type %T", raw)
	}
}

func (tomlCodec) Encode(value *merge.Value) ([]byte, error) {
	if value.Type() != merge.TypeObject {
		return nil, ErrCannotEncode.WrapMessage("TOML documents must be tables, got %s", value.Type())
	}
	tree, err := tomlEncodableTree(value, "")
	if err != nil {
		return nil, err
	}
	rendered, err := tree.ToTomlString()
	if err != nil {
		return nil, ErrCannotEncode.Wrap(err)
	}
	return []byte(rendered), nil
}

func tomlEncodableTree(value *merge.Value, at string) (*toml.Tree, error) {
	tree, err := toml.TreeFromMap(map[string]interface{}{})
	if err != nil {
		return nil, ErrCannotEncode.Wrap(err)
	}
	for _, field := range value.Fields() {
		encodable, err := tomlEncodable(field.Value, joinKeyPath(at, field.Key))
		if err != nil {
			return nil, err
		}
		tree.SetPath([]string{field.Key}, encodable)
	}
	return tree, nil
}

func tomlEncodable(value *merge.Value, at string) (interface{}, error) {
	switch value.Type() {
	case merge.TypeNull:
		return nil, ErrCannotEncode.WrapMessage("TOML cannot represent null at %q", at)
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
		tables := 0
		for _, item := range value.Items() {
			if item.Type() == merge.TypeObject {
				tables++
			}
		}
		if tables > 0 && tables != value.Len() {
			return nil, ErrCannotEncode.WrapMessage("TOML arrays cannot mix tables and values at %q", at)
		}
		if tables > 0 {
			trees := make([]*toml.Tree, 0, value.Len())
			for i, item := range value.Items() {
				sub, err := tomlEncodableTree(item, fmt.Sprintf("%s[%d]", at, i))
				if err != nil {
					return nil, err
				}
				trees = append(trees, sub)
			}
			return trees, nil
		}
		items := make([]interface{}, 0, value.Len())
		for i, item := range value.Items() {
			encodable, err := tomlEncodable(item, fmt.Sprintf("%s[%d]", at, i))
			if err != nil {
				return nil, err
			}
			items = append(items, encodable)
		}
		return items, nil
	case merge.TypeObject:
		return tomlEncodableTree(value, at)
	default:
		return nil, ErrCannotEncode.WrapMessage("unknown value type %v at %q", value.Type(), at)
	}
}

func joinKeyPath(at, key string) string {
	if at == "" {
		return key
	}
	return at + "." + key
}
