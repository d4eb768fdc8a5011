package validate

import (
	"log/slog"

	"github.com/roach88/insightq/internal/query"
	"github.com/roach88/insightq/internal/schema"
)

// Validator checks query documents against a registry.
type Validator struct {
	registry schema.Registry
	logger   *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// New creates a Validator. A nil registry behaves as an empty one.
func New(reg schema.Registry, opts ...Option) *Validator {
	if reg == nil {
		reg = &schema.Memory{}
	}
	v := &Validator{
		registry: reg,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Result is an accepted query and the dataset it is bound to.
type Result struct {
	DatasetID string
	Query     *query.Query
}

// Validate parses doc and validates it. On failure the error is a
// *query.ValidationError.
func (v *Validator) Validate(doc any) (*Result, error) {
	q, err := query.Parse(doc)
	if err != nil {
		return nil, err
	}
	id, err := v.ValidateQuery(q)
	if err != nil {
		return nil, err
	}
	return &Result{DatasetID: id, Query: q}, nil
}

// ValidateQuery validates an already parsed query and returns the id of the
// dataset it is bound to.
func (v *Validator) ValidateQuery(q *query.Query) (string, error) {
	if q == nil {
		return "", query.Errorf(query.ErrQueryShape, "", "query is nil")
	}
	s := newState(v.registry, v.logger)

	if err := s.validateWhere(q.Where); err != nil {
		return "", err
	}
	if q.Transformations != nil {
		if err := s.validateTransformation(q.Transformations, query.ClauseTransformations); err != nil {
			return "", err
		}
	}
	if err := s.validateOptions(q.Options, query.ClauseOptions); err != nil {
		return "", err
	}

	if !s.bound {
		return "", query.Errorf(query.ErrQueryShape, "", "query references no dataset")
	}
	v.logger.Debug("query accepted",
		"dataset", s.dataset.ID,
		"columns", len(s.projected),
		"transformed", s.transformed,
	)
	return s.dataset.ID, nil
}

// Validate validates doc against reg with a fresh Validator and returns the
// bound dataset id.
func Validate(reg schema.Registry, doc any) (string, error) {
	res, err := New(reg).Validate(doc)
	if err != nil {
		return "", err
	}
	return res.DatasetID, nil
}
