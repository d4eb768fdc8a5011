package schema

import (
	"fmt"
	"slices"
	"strings"
)

// KeySeparator separates the dataset id from the field name in a query key.
const KeySeparator = "_"

// Dataset describes a registered dataset.
type Dataset struct {
	ID   string `json:"id" yaml:"id"`
	Kind Kind   `json:"kind" yaml:"kind"`
	Rows int    `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Fields returns the field set of the dataset's kind.
func (d Dataset) Fields() FieldSet {
	fs, _ := d.Kind.Fields()
	return fs
}

// Registry resolves dataset ids to datasets.
//
// Implementations must be safe for concurrent reads; the validator never
// mutates a registry.
type Registry interface {
	Lookup(id string) (Dataset, bool)
}

// ValidateID checks that id can appear as the dataset part of a query key.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("dataset id must not be blank")
	}
	if strings.Contains(id, KeySeparator) {
		return fmt.Errorf("dataset id %q must not contain %q", id, KeySeparator)
	}
	return nil
}

// Memory is an immutable in-memory Registry.
type Memory struct {
	byID map[string]Dataset
	ids  []string
}

// NewMemory builds a registry from datasets.
// Returns an error for a blank or malformed id, an unknown kind, a negative
// row count, or a duplicate id.
func NewMemory(datasets ...Dataset) (*Memory, error) {
	m := &Memory{byID: make(map[string]Dataset, len(datasets))}
	for i, d := range datasets {
		if err := ValidateID(d.ID); err != nil {
			return nil, fmt.Errorf("datasets[%d]: %w", i, err)
		}
		if _, err := ParseKind(string(d.Kind)); err != nil {
			return nil, fmt.Errorf("datasets[%d] %q: %w", i, d.ID, err)
		}
		if d.Rows < 0 {
			return nil, fmt.Errorf("datasets[%d] %q: rows must be non-negative, got %d", i, d.ID, d.Rows)
		}
		if _, dup := m.byID[d.ID]; dup {
			return nil, fmt.Errorf("datasets[%d]: duplicate dataset id %q", i, d.ID)
		}
		m.byID[d.ID] = d
		m.ids = append(m.ids, d.ID)
	}
	slices.Sort(m.ids)
	return m, nil
}

// Lookup implements Registry.
func (m *Memory) Lookup(id string) (Dataset, bool) {
	d, ok := m.byID[id]
	return d, ok
}

// Datasets returns all datasets sorted by id.
func (m *Memory) Datasets() []Dataset {
	out := make([]Dataset, 0, len(m.ids))
	for _, id := range m.ids {
		out = append(out, m.byID[id])
	}
	return out
}

// Len returns the number of registered datasets.
func (m *Memory) Len() int {
	return len(m.ids)
}
