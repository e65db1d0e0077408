package model

import (
	"os"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// DefaultFileMode is assumed for content staged without file metadata.
const DefaultFileMode FileMode = 0644

// FileMode type to wrap os.FileMode with a lossless octal string conversion
type FileMode os.FileMode

func (f FileMode) String() string {
	return strconv.FormatUint(uint64(uint32(f)), 8)
}

// IsExecutable tells whether any execute bit is set
func (f FileMode) IsExecutable() bool {
	return os.FileMode(f).Perm()&0111 != 0
}

// ParseFileMode parses the octal string representation of a mode
func ParseFileMode(s string) (FileMode, error) {
	res, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, err
	}
	return FileMode(uint32(res)), nil
}

// MarshalJSON implements json.Marshaller
func (f FileMode) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(f.String())
}

// UnmarshalJSON implements json.Unmarshaller
func (f *FileMode) UnmarshalJSON(data []byte) error {
	var str string
	if err := jsoniter.Unmarshal(data, &str); err != nil {
		return err
	}
	res, err := ParseFileMode(str)
	if err != nil {
		return err
	}
	*f = res
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (f FileMode) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (f *FileMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var str string
	if err := unmarshal(&str); err != nil {
		return err
	}
	res, err := ParseFileMode(str)
	if err != nil {
		return err
	}
	*f = res
	return nil
}
