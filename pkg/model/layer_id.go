package model

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// LayerID identifies a single layer. It is a structured value: the kind
// selects which of the name fields are meaningful, and the names are
// kept as separate fields rather than being glued into a single string.
//
// The canonical encoding produced by String is "kind" for the global
// layer and "kind:field=value,..." otherwise, with values escaped so
// that names containing separators survive a round trip through
// ParseLayerID unaltered.
type LayerID struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Mode    string `json:"mode,omitempty" yaml:"mode,omitempty"`
	Scope   string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Project string `json:"project,omitempty" yaml:"project,omitempty"`
	_       struct{}
}

// GlobalLayer returns the identifier of the global defaults layer.
func GlobalLayer() LayerID {
	return LayerID{Kind: KindGlobal}
}

// ModeLayer returns the identifier of the defaults layer for a mode.
func ModeLayer(mode string) LayerID {
	return LayerID{Kind: KindMode, Mode: mode}
}

// GlobalScopeLayer returns the identifier of the global overrides for a scope.
func GlobalScopeLayer(scope string) LayerID {
	return LayerID{Kind: KindGlobalScope, Scope: scope}
}

// ModeScopeLayer returns the identifier of the mode overrides for a scope.
func ModeScopeLayer(mode, scope string) LayerID {
	return LayerID{Kind: KindModeScope, Mode: mode, Scope: scope}
}

// ProjectLayer returns the identifier of the base layer for a project.
func ProjectLayer(project string) LayerID {
	return LayerID{Kind: KindProject, Project: project}
}

// ModeProjectLayer returns the identifier of the mode overrides for a project.
func ModeProjectLayer(mode, project string) LayerID {
	return LayerID{Kind: KindModeProject, Mode: mode, Project: project}
}

// ProjectScopeLayer returns the identifier of the project overrides for a scope.
func ProjectScopeLayer(project, scope string) LayerID {
	return LayerID{Kind: KindProjectScope, Project: project, Scope: scope}
}

// ModeProjectScopeLayer returns the identifier of the most specific
// shared layer, qualified by mode, project and scope.
func ModeProjectScopeLayer(mode, project, scope string) LayerID {
	return LayerID{Kind: KindModeProjectScope, Mode: mode, Project: project, Scope: scope}
}

// LocalLayer returns the identifier of the machine-local overlay for a project.
func LocalLayer(project string) LayerID {
	return LayerID{Kind: KindLocal, Project: project}
}

// Precedence reports the merge rank of the identified layer.
func (id LayerID) Precedence() int {
	return id.Kind.Precedence()
}

// Validate checks that exactly the fields required by the kind are set.
func (id LayerID) Validate() error {
	if id.Kind == KindInvalid || id.Kind.Precedence() < 0 {
		return ErrInvalidKind
	}
	cause := ""
	switch {
	case id.Kind.HasMode() && id.Mode == "":
		cause = "mode name is empty"
	case !id.Kind.HasMode() && id.Mode != "":
		cause = "mode name is not allowed"
	case id.Kind.HasScope() && id.Scope == "":
		cause = "scope name is empty"
	case !id.Kind.HasScope() && id.Scope != "":
		cause = "scope name is not allowed"
	case id.Kind.HasProject() && id.Project == "":
		cause = "project name is empty"
	case !id.Kind.HasProject() && id.Project != "":
		cause = "project name is not allowed"
	}
	if cause != "" {
		return ErrInvalidLayerID.WrapMessage("layer %q: %s", id.Kind, cause)
	}
	for _, field := range []struct{ name, value string }{
		{"mode", id.Mode},
		{"scope", id.Scope},
		{"project", id.Project},
	} {
		if err := validateName(field.name, field.value); err != nil {
			return err
		}
	}
	return nil
}

func validateName(field, value string) error {
	if value == "" {
		return nil
	}
	if strings.TrimSpace(value) != value {
		return ErrInvalidLayerID.WrapMessage("%s name %q has leading or trailing whitespace", field, value)
	}
	for _, r := range value {
		if r < 0x20 || r == 0x7f {
			return ErrInvalidLayerID.WrapMessage("%s name %q contains a control character", field, value)
		}
	}
	return nil
}

// String yields the canonical encoding of the identifier, e.g.
// "mode-scope:mode=vim,scope=work". Field values are query-escaped so
// names containing "," "=" or "/" remain unambiguous.
func (id LayerID) String() string {
	fields := make([]string, 0, 3)
	if id.Kind.HasMode() {
		fields = append(fields, "mode="+url.QueryEscape(id.Mode))
	}
	if id.Kind.HasProject() {
		fields = append(fields, "project="+url.QueryEscape(id.Project))
	}
	if id.Kind.HasScope() {
		fields = append(fields, "scope="+url.QueryEscape(id.Scope))
	}
	if len(fields) == 0 {
		return id.Kind.String()
	}
	return id.Kind.String() + ":" + strings.Join(fields, ",")
}

// ParseLayerID decodes the canonical encoding produced by String.
func ParseLayerID(s string) (LayerID, error) {
	name, rest := s, ""
	if i := strings.IndexByte(s, ':'); i >= 0 {
		name, rest = s[:i], s[i+1:]
	}
	kind := KindFromName(name)
	if kind == KindInvalid {
		return LayerID{}, ErrInvalidLayerID.WrapMessage("unknown layer kind in %q", s)
	}
	id := LayerID{Kind: kind}
	if rest != "" {
		for _, field := range strings.Split(rest, ",") {
			eq := strings.IndexByte(field, '=')
			if eq < 0 {
				return LayerID{}, ErrInvalidLayerID.WrapMessage("malformed field %q in %q", field, s)
			}
			value, err := url.QueryUnescape(field[eq+1:])
			if err != nil {
				return LayerID{}, ErrInvalidLayerID.WrapMessage("malformed value in %q", s)
			}
			switch field[:eq] {
			case "mode":
				id.Mode = value
			case "project":
				id.Project = value
			case "scope":
				id.Scope = value
			default:
				return LayerID{}, ErrInvalidLayerID.WrapMessage("unknown field %q in %q", field[:eq], s)
			}
		}
	}
	if err := id.Validate(); err != nil {
		return LayerID{}, err
	}
	return id, nil
}

// MarshalYAML implements yaml.Marshaler using the canonical encoding.
func (id LayerID) MarshalYAML() (interface{}, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return id.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (id *LayerID) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseLayerID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalJSON implements json.Marshaler using the canonical encoding.
func (id LayerID) MarshalJSON() ([]byte, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("%q", id.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *LayerID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) < 2 || trimmed[0] != '"' || trimmed[len(trimmed)-1] != '"' {
		return ErrInvalidLayerID.WrapMessage("layer id must be a JSON string, got %s", trimmed)
	}
	parsed, err := ParseLayerID(trimmed[1 : len(trimmed)-1])
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// SortLayers orders identifiers by ascending precedence. Identifiers of
// equal precedence keep a stable order by their canonical encoding.
func SortLayers(ids []LayerID) {
	sort.SliceStable(ids, func(i, j int) bool {
		pi, pj := ids[i].Precedence(), ids[j].Precedence()
		if pi != pj {
			return pi < pj
		}
		return ids[i].String() < ids[j].String()
	})
}
