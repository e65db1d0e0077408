package audit

import (
	"time"

	"github.com/strataconf/strata/pkg/audit/status"
	"github.com/strataconf/strata/pkg/model"
	"gopkg.in/yaml.v2"
)

// Entry is one record in the audit trail: a single layer reference moved
// by a commit transaction, with enough context to answer who changed
// what and when.
type Entry struct {
	Token        string              `json:"token,omitempty" yaml:"token,omitempty"`
	Layer        model.LayerID       `json:"layer" yaml:"layer"`
	Commit       string              `json:"commit" yaml:"commit"`
	Parent       string              `json:"parent,omitempty" yaml:"parent,omitempty"`
	Message      string              `json:"message,omitempty" yaml:"message,omitempty"`
	Contributors []model.Contributor `json:"contributors,omitempty" yaml:"contributors,omitempty"`
	Timestamp    time.Time           `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	_            struct{}
}

// Validate asserts that an entry describes a real reference move
func (e Entry) Validate() error {
	if err := e.Layer.Validate(); err != nil {
		return status.ErrInvalidEntry.Wrap(err)
	}
	if e.Commit == "" {
		return status.ErrInvalidEntry.WrapMessage("entry for layer %v has no commit", e.Layer)
	}
	return nil
}

// Unmarshal decodes a stored audit record
func Unmarshal(b []byte) (*Entry, error) {
	if b == nil {
		return nil, status.ErrCorruptEntry.WrapMessage("received nil entry to unmarshal")
	}
	var e Entry
	if err := yaml.Unmarshal(b, &e); err != nil {
		return nil, status.ErrCorruptEntry.Wrap(err)
	}
	return &e, nil
}

// Marshal encodes an audit record for storage
func Marshal(entry *Entry) ([]byte, error) {
	return yaml.Marshal(entry)
}
