package stage

import (
	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/stage/status"
)

// Selector captures the layer-targeting flags of a staging operation.
// Mode and Project are qualifiers resolved against the active context;
// Scope carries a scope name directly.
type Selector struct {
	Global  bool
	Local   bool
	Mode    bool
	Project bool
	Scope   string
	_       struct{}
}

// RouteToLayer maps a selector to exactly one concrete layer, validated
// against the fixed compatibility table. Invalid combinations fail, they
// never fall back to a default target.
func RouteToLayer(sel Selector, context model.ProjectContext) (model.LayerID, error) {
	switch {
	case sel.Local && (sel.Global || sel.Mode || sel.Project || sel.Scope != ""):
		return model.LayerID{}, status.ErrInvalidSelector.WrapMessage("local excludes every other selector")
	case sel.Global && sel.Mode:
		return model.LayerID{}, status.ErrInvalidSelector.WrapMessage("global excludes the mode selector")
	case sel.Global && sel.Project:
		return model.LayerID{}, status.ErrInvalidSelector.WrapMessage("global excludes the project selector")
	case sel.Project && !sel.Mode:
		return model.LayerID{}, status.ErrInvalidSelector.WrapMessage("the project selector is only valid together with the mode selector")
	}

	if sel.Local {
		project, err := activeProject(context)
		if err != nil {
			return model.LayerID{}, err
		}
		return model.LocalLayer(project), nil
	}

	if sel.Global {
		if sel.Scope != "" {
			return model.GlobalScopeLayer(sel.Scope), nil
		}
		return model.GlobalLayer(), nil
	}

	if sel.Mode {
		mode, err := activeMode(context)
		if err != nil {
			return model.LayerID{}, err
		}
		switch {
		case sel.Project && sel.Scope != "":
			project, err := activeProject(context)
			if err != nil {
				return model.LayerID{}, err
			}
			return model.ModeProjectScopeLayer(mode, project, sel.Scope), nil
		case sel.Project:
			project, err := activeProject(context)
			if err != nil {
				return model.LayerID{}, err
			}
			return model.ModeProjectLayer(mode, project), nil
		case sel.Scope != "":
			return model.ModeScopeLayer(mode, sel.Scope), nil
		default:
			return model.ModeLayer(mode), nil
		}
	}

	// no qualifier: the change belongs to the current project
	project, err := activeProject(context)
	if err != nil {
		return model.LayerID{}, err
	}
	if sel.Scope != "" {
		return model.ProjectScopeLayer(project, sel.Scope), nil
	}
	return model.ProjectLayer(project), nil
}

func activeMode(context model.ProjectContext) (string, error) {
	if context.Mode == "" {
		return "", status.ErrMissingContext.WrapMessage("no active mode: run use-mode first")
	}
	return context.Mode, nil
}

func activeProject(context model.ProjectContext) (string, error) {
	if context.Project == "" {
		return "", status.ErrMissingContext.WrapMessage("no project in the workspace context")
	}
	return context.Project, nil
}
