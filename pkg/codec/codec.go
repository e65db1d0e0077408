package codec

import (
	"path"
	"strings"

	"github.com/strataconf/strata/pkg/errors"
	"github.com/strataconf/strata/pkg/merge"
)

var (
	// ErrMalformed indicates input bytes that do not parse in the
	// format claimed by the file extension.
	ErrMalformed = errors.New("malformed configuration data")

	// ErrCannotEncode indicates a value tree that the target format
	// cannot represent, such as nested tables in an INI file.
	ErrCannotEncode = errors.New("value not representable in this format")
)

// A Codec decodes one configuration format into the merge value tree
// and encodes trees back. Implementations keep object key order on
// decode wherever the format records one, so merged files do not get
// shuffled behind the user's back.
type Codec interface {
	// Name is the short format name, e.g. "yaml".
	Name() string

	// Extensions lists the file extensions claimed by this codec,
	// including the leading dot.
	Extensions() []string

	// Decode parses data into a value tree.
	Decode(data []byte) (*merge.Value, error)

	// Encode renders a value tree to bytes. Encoding is deterministic:
	// equal trees yield equal bytes.
	Encode(value *merge.Value) ([]byte, error)
}

// all registered codecs, probed in order
var codecs = []Codec{
	jsonCodec{},
	yamlCodec{},
	tomlCodec{},
	iniCodec{},
}

// ForPath selects the codec responsible for a file path, judging by its
// extension.
func ForPath(filePath string) (Codec, bool) {
	ext := strings.ToLower(path.Ext(filePath))
	if ext == "" {
		return nil, false
	}
	for _, c := range codecs {
		for _, known := range c.Extensions() {
			if known == ext {
				return c, true
			}
		}
	}
	return nil, false
}

// ForFormat selects a codec by its format name.
func ForFormat(name string) (Codec, bool) {
	for _, c := range codecs {
		if c.Name() == strings.ToLower(name) {
			return c, true
		}
	}
	return nil, false
}

// IsStructuredPath reports whether a path holds structured
// configuration some codec understands. Everything else is treated as
// plain text or binary by the rest of the system.
func IsStructuredPath(filePath string) bool {
	_, ok := ForPath(filePath)
	return ok
}

// Formats lists the names of all registered codecs.
func Formats() []string {
	names := make([]string, 0, len(codecs))
	for _, c := range codecs {
		names = append(names, c.Name())
	}
	return names
}
