/*
 * Copyright © 2019 One Concern
 *
 */

package model

import (
	"gopkg.in/yaml.v2"
)

const ContextVersion = 1.0

// ProjectContext describes the situation a workspace is used in: the
// project it belongs to, the tool mode being run and the active scope.
// The context selects which layers participate in a merge but carries
// no configuration values of its own.
type ProjectContext struct {
	Project string  `json:"project" yaml:"project"`                   // Project is the name of the enclosing project
	Mode    string  `json:"mode,omitempty" yaml:"mode,omitempty"`     // Mode is the active tool mode, if any
	Scope   string  `json:"scope,omitempty" yaml:"scope,omitempty"`   // Scope is the active scope, if any
	Version float64 `json:"version,omitempty" yaml:"version,omitempty"` // Version of the context schema
	_       struct{}
}

// GetPathToContext returns the path to the context descriptor inside a
// workspace directory.
func GetPathToContext(workspaceDir string) string {
	return workspaceDir + "/" + "context.yaml"
}

// UnmarshalContext decodes a context descriptor.
func UnmarshalContext(b []byte) (*ProjectContext, error) {
	if b == nil {
		return nil, ErrInvalidContext.WrapMessage("received nil entry to unmarshal")
	}
	var c ProjectContext
	err := yaml.Unmarshal(b, &c)
	return &c, err
}

// MarshalContext encodes a context descriptor.
func MarshalContext(c *ProjectContext) ([]byte, error) {
	b, err := yaml.Marshal(c)
	return b, err
}

// ValidateContext checks a context for internal consistency.
func ValidateContext(context ProjectContext) error {
	var cause string
	switch {
	case context.Project == "":
		cause = "Project is empty"
	case context.Version > ContextVersion:
		cause = "Version higher than supported version"
	}
	if cause != "" {
		return ErrInvalidContext.WrapMessage("validation failed, cause = %s", cause)
	}
	for _, field := range []struct{ name, value string }{
		{"project", context.Project},
		{"mode", context.Mode},
		{"scope", context.Scope},
	} {
		if err := validateName(field.name, field.value); err != nil {
			return ErrInvalidContext.Wrap(err)
		}
	}
	return nil
}

// ResolveActiveChain expands a context into the identifiers of every
// layer it selects, in ascending precedence order. Layers whose
// qualifiers are absent from the context are skipped, so the chain for
// a bare project is just global, project, local.
func ResolveActiveChain(context ProjectContext) ([]LayerID, error) {
	if err := ValidateContext(context); err != nil {
		return nil, err
	}
	chain := []LayerID{GlobalLayer()}
	if context.Mode != "" {
		chain = append(chain, ModeLayer(context.Mode))
	}
	if context.Scope != "" {
		chain = append(chain, GlobalScopeLayer(context.Scope))
	}
	if context.Mode != "" && context.Scope != "" {
		chain = append(chain, ModeScopeLayer(context.Mode, context.Scope))
	}
	chain = append(chain, ProjectLayer(context.Project))
	if context.Mode != "" {
		chain = append(chain, ModeProjectLayer(context.Mode, context.Project))
	}
	if context.Scope != "" {
		chain = append(chain, ProjectScopeLayer(context.Project, context.Scope))
	}
	if context.Mode != "" && context.Scope != "" {
		chain = append(chain, ModeProjectScopeLayer(context.Mode, context.Project, context.Scope))
	}
	chain = append(chain, LocalLayer(context.Project))
	return chain, nil
}
