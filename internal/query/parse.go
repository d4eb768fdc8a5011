package query

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Top-level clause names.
const (
	ClauseWhere           = "WHERE"
	ClauseOptions         = "OPTIONS"
	ClauseTransformations = "TRANSFORMATIONS"
)

// Wildcard may only appear at the start or end of an IS pattern.
const Wildcard = "*"

// Parse converts an untyped document into a Query, checking shape only.
// Keys are not resolved against any dataset.
//
// Clauses are parsed in the fixed order WHERE, TRANSFORMATIONS, OPTIONS and
// the first violation is returned.
func Parse(doc any) (*Query, error) {
	root, ok := doc.(map[string]any)
	if !ok || root == nil {
		return nil, Errorf(ErrQueryShape, "", "query must be an object, got %s", describe(doc))
	}
	for _, k := range sortedKeys(root) {
		switch k {
		case ClauseWhere, ClauseOptions, ClauseTransformations:
		default:
			return nil, Errorf(ErrQueryShape, "", "unexpected top-level key %q", k)
		}
	}
	whereDoc, ok := root[ClauseWhere]
	if !ok {
		return nil, Errorf(ErrQueryShape, "", "missing %s", ClauseWhere)
	}
	optionsDoc, ok := root[ClauseOptions]
	if !ok {
		return nil, Errorf(ErrQueryShape, "", "missing %s", ClauseOptions)
	}

	q := &Query{}
	var err error
	if q.Where, err = parseWhere(whereDoc); err != nil {
		return nil, err
	}
	if transDoc, ok := root[ClauseTransformations]; ok {
		if q.Transformations, err = parseTransformation(transDoc, ClauseTransformations); err != nil {
			return nil, err
		}
	}
	if q.Options, err = parseOptions(optionsDoc, ClauseOptions); err != nil {
		return nil, err
	}
	return q, nil
}

// parseWhere handles the one place an empty object is a legal filter.
func parseWhere(v any) (Filter, error) {
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return nil, Errorf(ErrFilterShape, ClauseWhere, "WHERE must be an object, got %s", describe(v))
	}
	if len(obj) == 0 {
		return Empty{}, nil
	}
	return parseFilter(obj, ClauseWhere)
}

func parseFilter(v any, path string) (Filter, error) {
	op, body, err := singleEntry(v, path, ErrFilterShape, "filter")
	if err != nil {
		return nil, err
	}
	opPath := path + "." + op

	switch op {
	case string(OpAnd), string(OpOr):
		list, ok := body.([]any)
		if !ok {
			return nil, Errorf(ErrFilterShape, opPath, "%s must be a list, got %s", op, describe(body))
		}
		if len(list) == 0 {
			return nil, Errorf(ErrFilterShape, opPath, "%s must have at least one filter", op)
		}
		children := make([]Filter, 0, len(list))
		for i, child := range list {
			f, err := parseFilter(child, fmt.Sprintf("%s[%d]", opPath, i))
			if err != nil {
				return nil, err
			}
			children = append(children, f)
		}
		return Logic{Op: LogicOp(op), Children: children}, nil

	case "NOT":
		child, err := parseFilter(body, opPath)
		if err != nil {
			return nil, err
		}
		return Not{Child: child}, nil

	case string(OpGT), string(OpLT), string(OpEQ):
		key, val, err := singleEntry(body, opPath, ErrFilterShape, op)
		if err != nil {
			return nil, err
		}
		n, ok := toNumber(val)
		if !ok {
			return nil, Errorf(ErrFilterShape, opPath, "%s value for %q must be a number, got %s", op, key, describe(val))
		}
		return Compare{Op: CompareOp(op), Key: Key(key), Value: n}, nil

	case "IS":
		key, val, err := singleEntry(body, opPath, ErrFilterShape, op)
		if err != nil {
			return nil, err
		}
		pattern, ok := val.(string)
		if !ok {
			return nil, Errorf(ErrFilterShape, opPath, "IS value for %q must be a string, got %s", key, describe(val))
		}
		if !ValidPattern(pattern) {
			return nil, Errorf(ErrMisplacedPattern, opPath, "wildcard %q may only start or end the pattern %q", Wildcard, pattern)
		}
		return Match{Key: Key(key), Pattern: pattern}, nil

	default:
		return nil, Errorf(ErrFilterShape, path, "unknown filter operator %q", op)
	}
}

// ValidPattern reports whether every wildcard in pattern is its first or
// last character.
func ValidPattern(pattern string) bool {
	r := []rune(pattern)
	if len(r) <= 2 {
		return true
	}
	return !strings.Contains(string(r[1:len(r)-1]), Wildcard)
}

func parseTransformation(v any, path string) (*Transformation, error) {
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return nil, Errorf(ErrTransformShape, path, "TRANSFORMATIONS must be an object, got %s", describe(v))
	}
	for _, k := range sortedKeys(obj) {
		if k != "GROUP" && k != "APPLY" {
			return nil, Errorf(ErrTransformShape, path, "unexpected key %q", k)
		}
	}
	groupDoc, hasGroup := obj["GROUP"]
	applyDoc, hasApply := obj["APPLY"]
	if !hasGroup || !hasApply {
		return nil, Errorf(ErrTransformShape, path, "GROUP and APPLY are both required")
	}

	t := &Transformation{}

	groupPath := path + ".GROUP"
	group, err := stringList(groupDoc, groupPath, ErrTransformShape)
	if err != nil {
		return nil, err
	}
	if len(group) == 0 {
		return nil, Errorf(ErrTransformShape, groupPath, "GROUP must have at least one key")
	}
	for _, g := range group {
		t.Group = append(t.Group, Key(g))
	}

	applyPath := path + ".APPLY"
	rules, ok := applyDoc.([]any)
	if !ok {
		return nil, Errorf(ErrTransformShape, applyPath, "APPLY must be a list, got %s", describe(applyDoc))
	}
	for i, r := range rules {
		rule, err := parseApplyRule(r, fmt.Sprintf("%s[%d]", applyPath, i))
		if err != nil {
			return nil, err
		}
		t.Apply = append(t.Apply, rule)
	}
	return t, nil
}

func parseApplyRule(v any, path string) (ApplyRule, error) {
	name, criteria, err := singleEntry(v, path, ErrTransformShape, "apply rule")
	if err != nil {
		return ApplyRule{}, err
	}
	op, target, err := singleEntry(criteria, path, ErrTransformShape, "apply criteria")
	if err != nil {
		return ApplyRule{}, err
	}

	switch ApplyOp(op) {
	case OpMax, OpMin, OpAvg, OpSum, OpCount:
	default:
		return ApplyRule{}, Errorf(ErrTransformShape, path, "unknown apply operator %q", op)
	}
	key, ok := target.(string)
	if !ok {
		return ApplyRule{}, Errorf(ErrTransformShape, path, "%s target must be a key string, got %s", op, describe(target))
	}
	return ApplyRule{Name: name, Op: ApplyOp(op), Key: Key(key)}, nil
}

func parseOptions(v any, path string) (Options, error) {
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return Options{}, Errorf(ErrOptionsShape, path, "OPTIONS must be an object, got %s", describe(v))
	}
	for _, k := range sortedKeys(obj) {
		if k != "COLUMNS" && k != "ORDER" {
			return Options{}, Errorf(ErrOptionsShape, path, "unexpected key %q", k)
		}
	}

	columnsDoc, ok := obj["COLUMNS"]
	if !ok {
		return Options{}, Errorf(ErrOptionsShape, path, "missing COLUMNS")
	}
	columnsPath := path + ".COLUMNS"
	columns, err := stringList(columnsDoc, columnsPath, ErrOptionsShape)
	if err != nil {
		return Options{}, err
	}
	if len(columns) == 0 {
		return Options{}, Errorf(ErrOptionsShape, columnsPath, "COLUMNS must have at least one key")
	}

	opts := Options{Columns: columns}
	if orderDoc, ok := obj["ORDER"]; ok {
		if opts.Order, err = parseOrder(orderDoc, path+".ORDER"); err != nil {
			return Options{}, err
		}
	}
	return opts, nil
}

func parseOrder(v any, path string) (Order, error) {
	switch o := v.(type) {
	case string:
		return OrderKey{Key: o}, nil
	case map[string]any:
		if o == nil {
			break
		}
		dirDoc, hasDir := o["dir"]
		keysDoc, hasKeys := o["keys"]
		if len(o) != 2 || !hasDir || !hasKeys {
			return nil, Errorf(ErrOptionsShape, path, "ORDER object must have exactly dir and keys")
		}
		dir, _ := dirDoc.(string)
		if Direction(dir) != DirUp && Direction(dir) != DirDown {
			return nil, Errorf(ErrOptionsShape, path+".dir", "dir must be %s or %s, got %s", DirUp, DirDown, describe(dirDoc))
		}
		keys, err := stringList(keysDoc, path+".keys", ErrOptionsShape)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, Errorf(ErrOptionsShape, path+".keys", "keys must have at least one key")
		}
		return OrderSpec{Dir: Direction(dir), Keys: keys}, nil
	}
	return nil, Errorf(ErrOptionsShape, path, "ORDER must be a key or an object, got %s", describe(v))
}

// singleEntry unwraps an object that must have exactly one key.
func singleEntry(v any, path, code, what string) (string, any, error) {
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return "", nil, Errorf(code, path, "%s must be an object, got %s", what, describe(v))
	}
	if len(obj) != 1 {
		return "", nil, Errorf(code, path, "%s must have exactly one key, got %d", what, len(obj))
	}
	for k, val := range obj {
		return k, val, nil
	}
	panic("unreachable")
}

func stringList(v any, path, code string) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, Errorf(code, path, "must be a list, got %s", describe(v))
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, Errorf(code, fmt.Sprintf("%s[%d]", path, i), "must be a string, got %s", describe(item))
		}
		out = append(out, s)
	}
	return out, nil
}

// toNumber accepts the numeric types produced by encoding/json and yaml.v3.
// NaN and infinities are rejected.
func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case uint:
		f = float64(n)
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if _, ok := toNumber(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
