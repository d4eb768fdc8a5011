package query

import (
	"strings"

	"github.com/roach88/insightq/internal/schema"
)

// Query is a parsed query document.
type Query struct {
	Where           Filter
	Transformations *Transformation // nil when the document has no TRANSFORMATIONS
	Options         Options
}

// Key is a "<datasetId>_<field>" reference.
type Key string

// Split separates the dataset id from the field name.
// ok is false unless the key contains exactly one separator.
func (k Key) Split() (id, field string, ok bool) {
	parts := strings.Split(string(k), schema.KeySeparator)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Filter is a WHERE clause node.
type Filter interface {
	filterNode()
}

// Empty matches every row. It only appears as the whole WHERE body.
type Empty struct{}

func (Empty) filterNode() {}

// LogicOp combines child filters.
type LogicOp string

const (
	OpAnd LogicOp = "AND"
	OpOr  LogicOp = "OR"
)

// Logic is an AND or OR over at least one child.
type Logic struct {
	Op       LogicOp
	Children []Filter
}

func (Logic) filterNode() {}

// Not negates its child.
type Not struct {
	Child Filter
}

func (Not) filterNode() {}

// CompareOp is a numeric comparison operator.
type CompareOp string

const (
	OpGT CompareOp = "GT"
	OpLT CompareOp = "LT"
	OpEQ CompareOp = "EQ"
)

// Compare tests a numeric field against a number.
type Compare struct {
	Op    CompareOp
	Key   Key
	Value float64
}

func (Compare) filterNode() {}

// Match tests a string field against a pattern. The wire tag is IS.
// A "*" at either end of Pattern is a wildcard.
type Match struct {
	Key     Key
	Pattern string
}

func (Match) filterNode() {}

// Transformation groups rows and derives aggregate columns.
type Transformation struct {
	Group []Key
	Apply []ApplyRule
}

// ApplyOp is an aggregation operator.
type ApplyOp string

const (
	OpMax   ApplyOp = "MAX"
	OpMin   ApplyOp = "MIN"
	OpAvg   ApplyOp = "AVG"
	OpSum   ApplyOp = "SUM"
	OpCount ApplyOp = "COUNT"
)

// NumericOnly reports whether the operator requires a numeric field.
func (op ApplyOp) NumericOnly() bool {
	switch op {
	case OpMax, OpMin, OpAvg, OpSum:
		return true
	case OpCount:
		return false
	default:
		return false
	}
}

// ApplyRule names the result of aggregating Key with Op.
type ApplyRule struct {
	Name string
	Op   ApplyOp
	Key  Key
}

// Options selects and orders output columns.
type Options struct {
	Columns []string
	Order   Order // nil when the document has no ORDER
}

// Order is an ORDER clause.
type Order interface {
	orderNode()
}

// OrderKey sorts ascending by a single column.
type OrderKey struct {
	Key string
}

func (OrderKey) orderNode() {}

// Direction is a sort direction.
type Direction string

const (
	DirUp   Direction = "UP"
	DirDown Direction = "DOWN"
)

// OrderSpec sorts by Keys in the given direction; earlier keys take priority.
type OrderSpec struct {
	Dir  Direction
	Keys []string
}

func (OrderSpec) orderNode() {}
