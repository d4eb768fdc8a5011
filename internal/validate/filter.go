package validate

import (
	"fmt"

	"github.com/roach88/insightq/internal/query"
)

// validateWhere accepts Empty at the root and defers everything else to
// validateFilter.
func (s *state) validateWhere(f query.Filter) error {
	if _, ok := f.(query.Empty); ok {
		return nil
	}
	return s.validateFilter(f, query.ClauseWhere)
}

// validateFilter walks the filter tree in pre-order.
func (s *state) validateFilter(f query.Filter, path string) error {
	switch f := f.(type) {
	case query.Logic:
		opPath := path + "." + string(f.Op)
		switch f.Op {
		case query.OpAnd, query.OpOr:
		default:
			return query.Errorf(query.ErrFilterShape, path, "unknown logic operator %q", f.Op)
		}
		if len(f.Children) == 0 {
			return query.Errorf(query.ErrFilterShape, opPath, "%s must have at least one filter", f.Op)
		}
		for i, child := range f.Children {
			if err := s.validateFilter(child, fmt.Sprintf("%s[%d]", opPath, i)); err != nil {
				return err
			}
		}
		return nil

	case query.Not:
		return s.validateFilter(f.Child, path+".NOT")

	case query.Compare:
		opPath := path + "." + string(f.Op)
		switch f.Op {
		case query.OpGT, query.OpLT, query.OpEQ:
		default:
			return query.Errorf(query.ErrFilterShape, path, "unknown comparison operator %q", f.Op)
		}
		return s.resolveKey(opPath, f.Key, numericField)

	case query.Match:
		opPath := path + ".IS"
		if !query.ValidPattern(f.Pattern) {
			return query.Errorf(query.ErrMisplacedPattern, opPath, "wildcard %q may only start or end the pattern %q", query.Wildcard, f.Pattern)
		}
		return s.resolveKey(opPath, f.Key, stringField)

	case query.Empty:
		return query.Errorf(query.ErrFilterShape, path, "empty filter is only allowed as the whole WHERE clause")

	default:
		return query.Errorf(query.ErrFilterShape, path, "unsupported filter node %T", f)
	}
}
