package model

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// top level prefixes inside a layer store
	refsPrefix      = "refs/"
	layersPrefix    = refsPrefix + "layers/"
	locksPrefix     = refsPrefix + "locks/"
	blobsPrefix     = "objects/blobs/"
	treesPrefix     = "objects/trees/"
	commitsPrefix   = "objects/commits/"
	stagePrefix     = "stage/"
	auditPrefix     = "audit/"
	checkoutsPrefix = "checkouts/"

	// grammar segments
	segmentGlobal      = "global"
	segmentModes       = "modes"
	segmentProjects    = "projects"
	segmentScopes      = "scopes"
	segmentLocal       = "local"
	segmentPlaceholder = "-"

	stageIndexFile = "index.yaml"
	lockFileSuffix = ".lock"
	auditFileExt   = ".yaml"
)

// layerSegments yields the path segments addressing a layer under the
// layers/ namespace. Name segments are path-escaped so that names
// containing separators cannot fork the path grammar. A kind with child
// namespaces ends in the "-" placeholder segment to keep its reference
// from colliding with the prefix of its children.
func layerSegments(id LayerID) []string {
	mode := url.PathEscape(id.Mode)
	scope := url.PathEscape(id.Scope)
	project := url.PathEscape(id.Project)
	switch id.Kind {
	case KindGlobal:
		return []string{segmentGlobal, segmentPlaceholder}
	case KindGlobalScope:
		return []string{segmentGlobal, segmentScopes, scope}
	case KindMode:
		return []string{segmentModes, mode, segmentPlaceholder}
	case KindModeScope:
		return []string{segmentModes, mode, segmentScopes, scope}
	case KindModeProject:
		return []string{segmentModes, mode, segmentProjects, project, segmentPlaceholder}
	case KindModeProjectScope:
		return []string{segmentModes, mode, segmentProjects, project, segmentScopes, scope}
	case KindProject:
		return []string{segmentProjects, project, segmentPlaceholder}
	case KindProjectScope:
		return []string{segmentProjects, project, segmentScopes, scope}
	case KindLocal:
		return []string{segmentLocal, project}
	default:
		return nil
	}
}

// GetRefPathToLayer returns the store key of the reference for a layer,
// e.g. "refs/layers/modes/vim/scopes/work".
func GetRefPathToLayer(id LayerID) string {
	return fmt.Sprint(layersPrefix, strings.Join(layerSegments(id), "/"))
}

// GetRefPathPrefixToLayers returns the store key prefix under which all
// layer references live.
func GetRefPathPrefixToLayers() string {
	return layersPrefix
}

// GetLockPathToLayer returns the store key of the advisory lock file
// guarding updates to a layer reference.
func GetLockPathToLayer(id LayerID) string {
	return fmt.Sprint(locksPrefix, strings.Join(layerSegments(id), "/"), lockFileSuffix)
}

// GetCheckoutPathToLayer returns the store key prefix under which the
// files of a layer are materialized for editing.
func GetCheckoutPathToLayer(id LayerID) string {
	return fmt.Sprint(checkoutsPrefix, strings.Join(layerSegments(id), "/"))
}

// GetCheckoutPathToFile returns the store key of one materialized file
// inside a layer checkout.
func GetCheckoutPathToFile(id LayerID, path string) string {
	return fmt.Sprint(GetCheckoutPathToLayer(id), "/", path)
}

// GetPathToBlob returns the store key of a content-addressed blob.
func GetPathToBlob(hash string) string {
	return fmt.Sprint(blobsPrefix, hash)
}

// GetPathToTree returns the store key of a tree descriptor.
func GetPathToTree(hash string) string {
	return fmt.Sprint(treesPrefix, hash)
}

// GetPathToCommit returns the store key of a commit descriptor.
func GetPathToCommit(hash string) string {
	return fmt.Sprint(commitsPrefix, hash)
}

// GetPathPrefixToCommits returns the store key prefix of all commits.
func GetPathPrefixToCommits() string {
	return commitsPrefix
}

// GetPathToStageIndex returns the store key of the staging index.
func GetPathToStageIndex() string {
	return fmt.Sprint(stagePrefix, stageIndexFile)
}

// GetPathToStagedObject returns the store key of a staged blob awaiting
// commit.
func GetPathToStagedObject(hash string) string {
	return fmt.Sprint(stagePrefix, "objects/", hash)
}

// GetPathPrefixToStagedObjects returns the store key prefix of staged blobs.
func GetPathPrefixToStagedObjects() string {
	return fmt.Sprint(stagePrefix, "objects/")
}

// GetPathToAuditEntry returns the store key of one audit record.
func GetPathToAuditEntry(token string) string {
	return fmt.Sprint(auditPrefix, token, auditFileExt)
}

// GetPathPrefixToAudit returns the store key prefix of the audit trail.
func GetPathPrefixToAudit() string {
	return auditPrefix
}

// GetPathToAuditTokenGenerator returns the store key of the object whose
// update time seeds audit tokens. The key carries no descriptor extension
// so listings of audit records skip it.
func GetPathToAuditTokenGenerator() string {
	return fmt.Sprint(auditPrefix, ".generator")
}

// IsAuditEntryPath tells a record key apart from other keys under the
// audit prefix and yields the token for record keys.
func IsAuditEntryPath(pth string) (string, bool) {
	if !strings.HasPrefix(pth, auditPrefix) || !strings.HasSuffix(pth, auditFileExt) {
		return "", false
	}
	token := strings.TrimSuffix(strings.TrimPrefix(pth, auditPrefix), auditFileExt)
	if token == "" || strings.Contains(token, "/") {
		return "", false
	}
	return token, true
}

// GetReferencePathComponents parses a store key produced by
// GetRefPathToLayer back into a layer identifier.
func GetReferencePathComponents(refPath string) (LayerID, error) {
	if !strings.HasPrefix(refPath, layersPrefix) {
		return LayerID{}, ErrNotLayerPath.WrapMessage("expect path under %q: %s", layersPrefix, refPath)
	}
	return layerFromSegments(strings.Split(strings.TrimPrefix(refPath, layersPrefix), "/"), refPath)
}

// GetStoragePathComponents parses a checkout store key prefix produced
// by GetCheckoutPathToLayer back into a layer identifier.
func GetStoragePathComponents(storagePath string) (LayerID, error) {
	if !strings.HasPrefix(storagePath, checkoutsPrefix) {
		return LayerID{}, ErrNotLayerPath.WrapMessage("expect path under %q: %s", checkoutsPrefix, storagePath)
	}
	return layerFromSegments(strings.Split(strings.TrimPrefix(storagePath, checkoutsPrefix), "/"), storagePath)
}

func layerFromSegments(cs []string, fullPath string) (LayerID, error) {
	const (
		terminalPos2 = 2 // as in: global/-, local/{project}
		terminalPos3 = 3 // as in: global/scopes/{scope}, modes/{mode}/-
		terminalPos4 = 4 // as in: modes/{mode}/scopes/{scope}
		terminalPos5 = 5 // as in: modes/{mode}/projects/{project}/-
		terminalPos6 = 6 // as in: modes/{mode}/projects/{project}/scopes/{scope}
	)
	unescape := func(segment string) (string, error) {
		name, err := url.PathUnescape(segment)
		if err != nil {
			return "", ErrNotLayerPath.WrapMessage("malformed name segment %q, path: %s", segment, fullPath)
		}
		return name, nil
	}
	var id LayerID

	switch cs[0] { // we always have at least 1 element
	case segmentGlobal:
		switch {
		case len(cs) == terminalPos2 && cs[1] == segmentPlaceholder:
			id = GlobalLayer()
		case len(cs) == terminalPos3 && cs[1] == segmentScopes:
			scope, err := unescape(cs[2])
			if err != nil {
				return LayerID{}, err
			}
			id = GlobalScopeLayer(scope)
		default:
			return LayerID{}, ErrNotLayerPath.WrapMessage("expect global layer path to end in %q or address a scope. components: %v, path: %s",
				segmentPlaceholder, cs, fullPath)
		}

	case segmentModes:
		if len(cs) < terminalPos3 {
			return LayerID{}, ErrNotLayerPath.WrapMessage("expect mode layer path to have at least %d parts: %s", terminalPos3, fullPath)
		}
		mode, err := unescape(cs[1])
		if err != nil {
			return LayerID{}, err
		}
		switch {
		case len(cs) == terminalPos3 && cs[2] == segmentPlaceholder:
			id = ModeLayer(mode)
		case len(cs) == terminalPos4 && cs[2] == segmentScopes:
			scope, err := unescape(cs[3])
			if err != nil {
				return LayerID{}, err
			}
			id = ModeScopeLayer(mode, scope)
		case len(cs) >= terminalPos5 && cs[2] == segmentProjects:
			project, err := unescape(cs[3])
			if err != nil {
				return LayerID{}, err
			}
			switch {
			case len(cs) == terminalPos5 && cs[4] == segmentPlaceholder:
				id = ModeProjectLayer(mode, project)
			case len(cs) == terminalPos6 && cs[4] == segmentScopes:
				scope, err := unescape(cs[5])
				if err != nil {
					return LayerID{}, err
				}
				id = ModeProjectScopeLayer(mode, project, scope)
			default:
				return LayerID{}, ErrNotLayerPath.WrapMessage("expect mode project layer path to end in %q or address a scope. components: %v, path: %s",
					segmentPlaceholder, cs, fullPath)
			}
		default:
			return LayerID{}, ErrNotLayerPath.WrapMessage("expect mode layer path to end in %q or address a scope or project. components: %v, path: %s",
				segmentPlaceholder, cs, fullPath)
		}

	case segmentProjects:
		if len(cs) < terminalPos3 {
			return LayerID{}, ErrNotLayerPath.WrapMessage("expect project layer path to have at least %d parts: %s", terminalPos3, fullPath)
		}
		project, err := unescape(cs[1])
		if err != nil {
			return LayerID{}, err
		}
		switch {
		case len(cs) == terminalPos3 && cs[2] == segmentPlaceholder:
			id = ProjectLayer(project)
		case len(cs) == terminalPos4 && cs[2] == segmentScopes:
			scope, err := unescape(cs[3])
			if err != nil {
				return LayerID{}, err
			}
			id = ProjectScopeLayer(project, scope)
		default:
			return LayerID{}, ErrNotLayerPath.WrapMessage("expect project layer path to end in %q or address a scope. components: %v, path: %s",
				segmentPlaceholder, cs, fullPath)
		}

	case segmentLocal:
		if len(cs) != terminalPos2 {
			return LayerID{}, ErrNotLayerPath.WrapMessage("expect local layer path to have %d parts: %s", terminalPos2, fullPath)
		}
		project, err := unescape(cs[1])
		if err != nil {
			return LayerID{}, err
		}
		id = LocalLayer(project)

	default:
		return LayerID{}, ErrNotLayerPath.WrapMessage("path is invalid: %v, path: %s", cs, fullPath)
	}

	if err := id.Validate(); err != nil {
		return LayerID{}, err
	}
	return id, nil
}
