package schema

import (
	"fmt"
	"slices"
)

// Kind is a dataset schema shape.
type Kind string

const (
	KindSections Kind = "sections"
	KindRooms    Kind = "rooms"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{KindSections, KindRooms}

// ParseKind converts a kind name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindSections, KindRooms:
		return k, nil
	default:
		return "", fmt.Errorf("unknown dataset kind %q: must be one of %v", s, Kinds)
	}
}

func (k Kind) String() string {
	return string(k)
}

var (
	sectionsFields = newFieldSet(
		[]string{"avg", "pass", "fail", "audit", "year"},
		[]string{"dept", "id", "instructor", "title", "uuid"},
	)
	roomsFields = newFieldSet(
		[]string{"lat", "lon", "seats"},
		[]string{"fullname", "shortname", "number", "name", "address", "type", "furniture", "href"},
	)
)

// Fields returns the field set of the kind.
// The second result is false for a Kind that is not one of Kinds.
func (k Kind) Fields() (FieldSet, bool) {
	switch k {
	case KindSections:
		return sectionsFields, true
	case KindRooms:
		return roomsFields, true
	default:
		return FieldSet{}, false
	}
}

// FieldSet holds the numeric and string field names of a dataset kind.
// The zero value has no fields.
type FieldSet struct {
	numeric map[string]struct{}
	strs    map[string]struct{}
}

func newFieldSet(numeric, strs []string) FieldSet {
	fs := FieldSet{
		numeric: make(map[string]struct{}, len(numeric)),
		strs:    make(map[string]struct{}, len(strs)),
	}
	for _, f := range numeric {
		fs.numeric[f] = struct{}{}
	}
	for _, f := range strs {
		fs.strs[f] = struct{}{}
	}
	return fs
}

// HasNumeric reports whether field is a numeric field.
func (fs FieldSet) HasNumeric(field string) bool {
	_, ok := fs.numeric[field]
	return ok
}

// HasString reports whether field is a string field.
func (fs FieldSet) HasString(field string) bool {
	_, ok := fs.strs[field]
	return ok
}

// Has reports whether field is either a numeric or a string field.
func (fs FieldSet) Has(field string) bool {
	return fs.HasNumeric(field) || fs.HasString(field)
}

// Numeric returns the numeric field names, sorted.
func (fs FieldSet) Numeric() []string {
	return sortedNames(fs.numeric)
}

// Strings returns the string field names, sorted.
func (fs FieldSet) Strings() []string {
	return sortedNames(fs.strs)
}

func sortedNames(m map[string]struct{}) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
