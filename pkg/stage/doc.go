// Package stage implements the staging area for pending configuration
// changes.
//
// A staged change binds a workspace file path to the layer that will
// receive it, resolved from command line selectors by the router. Content
// is parked as content-addressed blobs under the staging prefix and
// tracked by a single index descriptor until the commit pipeline turns
// the pending entries into immutable objects.
package stage
