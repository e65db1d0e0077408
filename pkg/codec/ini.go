package codec

import (
	"bytes"
	"strconv"

	ini "github.com/go-ini/ini"
	"github.com/spf13/cast"

	"github.com/strataconf/strata/pkg/merge"
)

type iniCodec struct{}

func (iniCodec) Name() string { return "ini" }

func (iniCodec) Extensions() []string { return []string{".ini", ".cfg"} }

// Decode maps the default section onto root keys and every named
// section onto a nested object, in file order. Values are plain text in
// INI, so scalars are normalized: something that reads as a number or a
// boolean becomes one.
func (iniCodec) Decode(data []byte) (*merge.Value, error) {
	file, err := ini.Load(data)
	if err != nil {
		return nil, ErrMalformed.Wrap(err)
	}

	var fields []merge.Field
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			for _, key := range section.Keys() {
				fields = append(fields, merge.Field{Key: key.Name(), Value: normalizeScalar(key.String())})
			}
			continue
		}
		sectionFields := make([]merge.Field, 0, len(section.Keys()))
		for _, key := range section.Keys() {
			sectionFields = append(sectionFields, merge.Field{Key: key.Name(), Value: normalizeScalar(key.String())})
		}
		fields = append(fields, merge.Field{Key: section.Name(), Value: merge.Object(sectionFields...)})
	}
	return merge.Object(fields...), nil
}

// normalizeScalar promotes INI text to the narrowest scalar it parses
// as, trying integer, float, then boolean.
func normalizeScalar(raw string) *merge.Value {
	if raw == "" {
		return merge.String(raw)
	}
	if i, err := cast.ToInt64E(raw); err == nil {
		return merge.Integer(i)
	}
	if f, err := cast.ToFloat64E(raw); err == nil {
		return merge.Float(f)
	}
	if b, err := cast.ToBoolE(raw); err == nil {
		return merge.Bool(b)
	}
	return merge.String(raw)
}

func (iniCodec) Encode(value *merge.Value) ([]byte, error) {
	if value.Type() != merge.TypeObject {
		return nil, ErrCannotEncode.WrapMessage("INI documents must be objects, got %s", value.Type())
	}

	file := ini.Empty()
	for _, field := range value.Fields() {
		if field.Value.Type() == merge.TypeObject {
			section, err := file.NewSection(field.Key)
			if err != nil {
				return nil, ErrCannotEncode.Wrap(err)
			}
			for _, sub := range field.Value.Fields() {
				rendered, err := renderINIScalar(sub.Value, field.Key+"."+sub.Key)
				if err != nil {
					return nil, err
				}
				if _, err := section.NewKey(sub.Key, rendered); err != nil {
					return nil, ErrCannotEncode.Wrap(err)
				}
			}
			continue
		}
		rendered, err := renderINIScalar(field.Value, field.Key)
		if err != nil {
			return nil, err
		}
		if _, err := file.Section(ini.DefaultSection).NewKey(field.Key, rendered); err != nil {
			return nil, ErrCannotEncode.Wrap(err)
		}
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, ErrCannotEncode.Wrap(err)
	}
	return buf.Bytes(), nil
}

func renderINIScalar(value *merge.Value, at string) (string, error) {
	switch value.Type() {
	case merge.TypeBool:
		b, _ := value.AsBool()
		return strconv.FormatBool(b), nil
	case merge.TypeInteger:
		i, _ := value.AsInteger()
		return strconv.FormatInt(i, 10), nil
	case merge.TypeFloat:
		f, _ := value.AsFloat()
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case merge.TypeString:
		s, _ := value.AsString()
		return s, nil
	default:
		return "", ErrCannotEncode.WrapMessage("INI can only hold scalars, got %s at %q", value.Type(), at)
	}
}
