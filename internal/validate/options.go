package validate

import (
	"fmt"
	"slices"

	"github.com/roach88/insightq/internal/query"
)

func (s *state) validateOptions(o query.Options, path string) error {
	if len(o.Columns) == 0 {
		return query.Errorf(query.ErrOptionsShape, path+".COLUMNS", "COLUMNS must have at least one key")
	}
	for i, col := range o.Columns {
		colPath := fmt.Sprintf("%s.COLUMNS[%d]", path, i)
		if s.transformed {
			// Apply keys are opaque names, so columns are matched verbatim.
			if _, ok := s.produced[col]; !ok {
				return query.Errorf(query.ErrUnavailableKey, colPath, "column %q is not a GROUP key or APPLY key", col)
			}
		} else if err := s.resolveKey(colPath, query.Key(col), anyField); err != nil {
			return err
		}
		s.projected = append(s.projected, col)
	}

	if o.Order == nil {
		return nil
	}
	return s.validateOrder(o.Order, path+".ORDER")
}

func (s *state) validateOrder(o query.Order, path string) error {
	switch o := o.(type) {
	case query.OrderKey:
		return s.requireProjected(o.Key, path)

	case query.OrderSpec:
		switch o.Dir {
		case query.DirUp, query.DirDown:
		default:
			return query.Errorf(query.ErrOptionsShape, path+".dir", "dir must be %s or %s, got %q", query.DirUp, query.DirDown, o.Dir)
		}
		if len(o.Keys) == 0 {
			return query.Errorf(query.ErrOptionsShape, path+".keys", "keys must have at least one key")
		}
		for i, key := range o.Keys {
			if err := s.requireProjected(key, fmt.Sprintf("%s.keys[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	default:
		return query.Errorf(query.ErrOptionsShape, path, "unsupported order node %T", o)
	}
}

func (s *state) requireProjected(key, path string) error {
	if !slices.Contains(s.projected, key) {
		return query.Errorf(query.ErrUnavailableKey, path, "order key %q is not in COLUMNS", key)
	}
	return nil
}
