package validate

import (
	"log/slog"

	"github.com/roach88/insightq/internal/query"
	"github.com/roach88/insightq/internal/schema"
)

// fieldClass is the kind of field a key position accepts.
type fieldClass int

const (
	anyField fieldClass = iota
	numericField
	stringField
)

func (c fieldClass) String() string {
	switch c {
	case numericField:
		return "numeric"
	case stringField:
		return "string"
	default:
		return "known"
	}
}

// state is the per-call validation context.
type state struct {
	registry schema.Registry
	logger   *slog.Logger

	bound   bool
	dataset schema.Dataset
	fields  schema.FieldSet

	transformed bool
	produced    map[string]struct{}
	projected   []string
}

func newState(reg schema.Registry, logger *slog.Logger) *state {
	return &state{
		registry: reg,
		logger:   logger,
		produced: make(map[string]struct{}),
	}
}

// resolve binds the query to id on first use. Once bound, it only reports
// whether id is the bound dataset.
func (s *state) resolve(id string) bool {
	if s.bound {
		return id == s.dataset.ID
	}
	d, ok := s.registry.Lookup(id)
	if !ok {
		return false
	}
	fields, ok := d.Kind.Fields()
	if !ok {
		return false
	}
	s.bound = true
	s.dataset = d
	s.fields = fields
	s.logger.Debug("query bound to dataset", "dataset", d.ID, "kind", d.Kind)
	return true
}

// resolveKey checks that key names a field of the bound dataset (binding it
// if needed) and that the field belongs to class.
func (s *state) resolveKey(path string, key query.Key, class fieldClass) error {
	id, field, ok := key.Split()
	if !ok {
		return query.Errorf(query.ErrInvalidField, path, "key %q must have the form <dataset>%s<field>", key, schema.KeySeparator)
	}
	if !s.resolve(id) {
		if s.bound {
			return query.Errorf(query.ErrDatasetConflict, path, "key %q references dataset %q but the query is bound to %q", key, id, s.dataset.ID)
		}
		return query.Errorf(query.ErrUnknownDataset, path, "key %q references unknown dataset %q", key, id)
	}

	var found bool
	switch class {
	case numericField:
		found = s.fields.HasNumeric(field)
	case stringField:
		found = s.fields.HasString(field)
	case anyField:
		found = s.fields.Has(field)
	}
	if !found {
		return query.Errorf(query.ErrInvalidField, path, "%q is not a %s field of %s dataset %q", field, class, s.dataset.Kind, s.dataset.ID)
	}
	return nil
}
