// Package codec translates configuration file formats to and from the
// merge value tree.
//
// Files are routed to a codec by extension: JSON, YAML, TOML and INI
// are understood. Every codec preserves the key order found in the file
// when the format records one, and encodes deterministically, so the
// same merged tree always produces the same bytes. Paths without a
// registered codec are treated as opaque text or binary by the rest of
// the system.
package codec
