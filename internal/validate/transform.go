package validate

import (
	"fmt"
	"strings"

	"github.com/roach88/insightq/internal/query"
	"github.com/roach88/insightq/internal/schema"
)

// validateTransformation validates GROUP then APPLY and leaves s.produced
// holding every key visible to OPTIONS.
func (s *state) validateTransformation(t *query.Transformation, path string) error {
	s.transformed = true

	if len(t.Group) == 0 {
		return query.Errorf(query.ErrTransformShape, path+".GROUP", "GROUP must have at least one key")
	}
	for i, key := range t.Group {
		if err := s.resolveKey(fmt.Sprintf("%s.GROUP[%d]", path, i), key, anyField); err != nil {
			return err
		}
		s.produced[string(key)] = struct{}{}
	}

	for i, rule := range t.Apply {
		if err := s.validateApplyRule(rule, fmt.Sprintf("%s.APPLY[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func (s *state) validateApplyRule(rule query.ApplyRule, path string) error {
	switch {
	case rule.Name == "":
		return query.Errorf(query.ErrInvalidApplyKey, path, "apply key must not be empty")
	case strings.Contains(rule.Name, schema.KeySeparator):
		return query.Errorf(query.ErrInvalidApplyKey, path, "apply key %q must not contain %q", rule.Name, schema.KeySeparator)
	}
	if _, dup := s.produced[rule.Name]; dup {
		return query.Errorf(query.ErrInvalidApplyKey, path, "duplicate apply key %q", rule.Name)
	}
	s.produced[rule.Name] = struct{}{}

	var class fieldClass
	switch rule.Op {
	case query.OpMax, query.OpMin, query.OpAvg, query.OpSum:
		class = numericField
	case query.OpCount:
		class = anyField
	default:
		return query.Errorf(query.ErrTransformShape, path, "unknown apply operator %q", rule.Op)
	}
	return s.resolveKey(path+"."+string(rule.Op), rule.Key, class)
}
