// Package model describes the base objects manipulated by strata.
//
// The package exposes a model for configuration layers and their metadata.
//
// The object model for strata is composed of:
//
//  Layers:
//    A layer is a named bundle of configuration files participating in a
//    merge. There are nine kinds of layers, from global defaults to
//    machine-local overlays, each with a fixed precedence.
//
//  Blobs, trees and commits:
//    Layer history is stored as content-addressed objects. A blob holds
//    the bytes of one file, a tree snapshots a set of files, and a commit
//    records a revision of a layer pointing at a tree and its parents.
//
//  References:
//    A reference names the current commit of a layer. References follow a
//    path grammar under refs/layers/ mirroring the layer kinds.
//
//  Contexts:
//    A project context describes how a workspace is being used: project,
//    tool mode and scope. The context selects which layers merge.
//
//  Workspace metadata:
//    A record of the last apply, used to detect drift between the
//    workspace files and the layers that produced them.
package model
