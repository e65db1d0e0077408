// Package merge implements the format-agnostic deep merge at the heart
// of strata.
//
// Configuration files of every supported format decode into the same
// Value tree, so a YAML base layer can be overlaid by a JSON scope
// layer without either knowing about the other. Merging folds layers in
// ascending precedence order: objects merge key-wise, arrays of
// uniformly identified objects merge element-wise, everything else is
// replaced by the higher layer. An explicit null in an overlay object
// deletes the key it overrides.
package merge
