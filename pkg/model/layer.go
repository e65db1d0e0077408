package model

// Kind enumerates the nine layer kinds understood by strata.
//
// Kinds are ordered by precedence: merging folds layers from the lowest
// precedence (global defaults) to the highest (machine-local overlays),
// with later layers overriding earlier ones.
type Kind uint

const (
	// KindInvalid is the zero value and never names a real layer.
	KindInvalid Kind = iota

	// KindGlobal holds defaults shared by every tool and machine.
	KindGlobal

	// KindMode holds defaults for a single tool mode.
	KindMode

	// KindGlobalScope overrides globals inside a named scope.
	KindGlobalScope

	// KindModeScope overrides a mode inside a named scope.
	KindModeScope

	// KindProject holds settings for a single project.
	KindProject

	// KindModeProject overrides a mode inside a project.
	KindModeProject

	// KindProjectScope overrides a project inside a named scope.
	KindProjectScope

	// KindModeProjectScope overrides a mode inside a project and scope.
	KindModeProjectScope

	// KindLocal holds machine-local overlays for a project. Local layers
	// are never shared and always win.
	KindLocal
)

const (
	kindGlobalName           = "global"
	kindModeName             = "mode"
	kindGlobalScopeName      = "global-scope"
	kindModeScopeName        = "mode-scope"
	kindProjectName          = "project"
	kindModeProjectName      = "mode-project"
	kindProjectScopeName     = "project-scope"
	kindModeProjectScopeName = "mode-project-scope"
	kindLocalName            = "local"
)

// Kinds returns every valid kind in ascending precedence order.
func Kinds() []Kind {
	return []Kind{
		KindGlobal,
		KindMode,
		KindGlobalScope,
		KindModeScope,
		KindProject,
		KindModeProject,
		KindProjectScope,
		KindModeProjectScope,
		KindLocal,
	}
}

// Precedence reports the merge rank of the kind. Lower ranks merge
// first and are overridden by higher ranks. The ordering within each
// level is base < mode < scope < mode+scope, so a scoped layer always
// beats the equivalent mode layer.
func (k Kind) Precedence() int {
	switch k {
	case KindGlobal:
		return 0
	case KindMode:
		return 1
	case KindGlobalScope:
		return 2
	case KindModeScope:
		return 3
	case KindProject:
		return 4
	case KindModeProject:
		return 5
	case KindProjectScope:
		return 6
	case KindModeProjectScope:
		return 7
	case KindLocal:
		return 8
	default:
		return -1
	}
}

// String yields the canonical kind name.
func (k Kind) String() string {
	switch k {
	case KindGlobal:
		return kindGlobalName
	case KindMode:
		return kindModeName
	case KindGlobalScope:
		return kindGlobalScopeName
	case KindModeScope:
		return kindModeScopeName
	case KindProject:
		return kindProjectName
	case KindModeProject:
		return kindModeProjectName
	case KindProjectScope:
		return kindProjectScopeName
	case KindModeProjectScope:
		return kindModeProjectScopeName
	case KindLocal:
		return kindLocalName
	default:
		return "invalid"
	}
}

// KindFromName maps a canonical kind name back to its Kind.
// Unknown names yield KindInvalid.
func KindFromName(name string) Kind {
	switch name {
	case kindGlobalName:
		return KindGlobal
	case kindModeName:
		return KindMode
	case kindGlobalScopeName:
		return KindGlobalScope
	case kindModeScopeName:
		return KindModeScope
	case kindProjectName:
		return KindProject
	case kindModeProjectName:
		return KindModeProject
	case kindProjectScopeName:
		return KindProjectScope
	case kindModeProjectScopeName:
		return KindModeProjectScope
	case kindLocalName:
		return KindLocal
	default:
		return KindInvalid
	}
}

// HasMode indicates that identifiers of this kind carry a mode name.
func (k Kind) HasMode() bool {
	switch k {
	case KindMode, KindModeScope, KindModeProject, KindModeProjectScope:
		return true
	}
	return false
}

// HasScope indicates that identifiers of this kind carry a scope name.
func (k Kind) HasScope() bool {
	switch k {
	case KindGlobalScope, KindModeScope, KindProjectScope, KindModeProjectScope:
		return true
	}
	return false
}

// HasProject indicates that identifiers of this kind carry a project name.
func (k Kind) HasProject() bool {
	switch k {
	case KindProject, KindModeProject, KindProjectScope, KindModeProjectScope, KindLocal:
		return true
	}
	return false
}

// IsShared reports whether layers of this kind are published through
// refs and may be synchronized between machines. Local layers are not.
func (k Kind) IsShared() bool {
	return k != KindLocal && k != KindInvalid
}
