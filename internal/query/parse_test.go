package query

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doc decodes a JSON literal the way documents arrive from a request body.
func doc(t *testing.T, src string) any {
	t.Helper()
	d, err := Decode([]byte(src))
	require.NoError(t, err)
	return d
}

func requireCode(t *testing.T, err error, code string) *ValidationError {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidQuery), "error should match ErrInvalidQuery: %v", err)
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr), "expected *ValidationError, got %T", err)
	assert.Equal(t, code, vErr.Code, "unexpected error: %v", vErr)
	return vErr
}

func TestParse_FullQuery(t *testing.T) {
	q, err := Parse(doc(t, `{
		"WHERE": {"AND": [
			{"GT": {"sections_avg": 90}},
			{"NOT": {"IS": {"sections_dept": "cp*"}}},
			{"OR": [{"EQ": {"sections_year": 2015}}, {"LT": {"sections_pass": 10.5}}]}
		]},
		"TRANSFORMATIONS": {
			"GROUP": ["sections_dept", "sections_title"],
			"APPLY": [{"maxAvg": {"MAX": "sections_avg"}}, {"n": {"COUNT": "sections_uuid"}}]
		},
		"OPTIONS": {
			"COLUMNS": ["sections_dept", "maxAvg"],
			"ORDER": {"dir": "DOWN", "keys": ["maxAvg", "sections_dept"]}
		}
	}`))
	require.NoError(t, err)

	want := &Query{
		Where: Logic{Op: OpAnd, Children: []Filter{
			Compare{Op: OpGT, Key: "sections_avg", Value: 90},
			Not{Child: Match{Key: "sections_dept", Pattern: "cp*"}},
			Logic{Op: OpOr, Children: []Filter{
				Compare{Op: OpEQ, Key: "sections_year", Value: 2015},
				Compare{Op: OpLT, Key: "sections_pass", Value: 10.5},
			}},
		}},
		Transformations: &Transformation{
			Group: []Key{"sections_dept", "sections_title"},
			Apply: []ApplyRule{
				{Name: "maxAvg", Op: OpMax, Key: "sections_avg"},
				{Name: "n", Op: OpCount, Key: "sections_uuid"},
			},
		},
		Options: Options{
			Columns: []string{"sections_dept", "maxAvg"},
			Order:   OrderSpec{Dir: DirDown, Keys: []string{"maxAvg", "sections_dept"}},
		},
	}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_EmptyWhere(t *testing.T) {
	q, err := Parse(doc(t, `{"WHERE": {}, "OPTIONS": {"COLUMNS": ["sections_dept"]}}`))
	require.NoError(t, err)

	assert.Equal(t, Empty{}, q.Where)
	assert.Nil(t, q.Transformations)
	assert.Nil(t, q.Options.Order)
	assert.Equal(t, []string{"sections_dept"}, q.Options.Columns)
}

func TestParse_OrderKey(t *testing.T) {
	q, err := Parse(doc(t, `{"WHERE": {}, "OPTIONS": {"COLUMNS": ["sections_avg"], "ORDER": "sections_avg"}}`))
	require.NoError(t, err)
	assert.Equal(t, OrderKey{Key: "sections_avg"}, q.Options.Order)
}

func TestParse_EmptyApply(t *testing.T) {
	q, err := Parse(doc(t, `{
		"WHERE": {},
		"TRANSFORMATIONS": {"GROUP": ["rooms_type"], "APPLY": []},
		"OPTIONS": {"COLUMNS": ["rooms_type"]}
	}`))
	require.NoError(t, err)
	require.NotNil(t, q.Transformations)
	assert.Empty(t, q.Transformations.Apply)
}

func TestParse_YAMLDocument(t *testing.T) {
	q, err := Parse(doc(t, `
WHERE:
  GT:
    rooms_seats: 100
OPTIONS:
  COLUMNS: [rooms_name, rooms_seats]
  ORDER: rooms_seats
`))
	require.NoError(t, err)
	assert.Equal(t, Compare{Op: OpGT, Key: "rooms_seats", Value: 100}, q.Where)
}

func TestParse_TopLevelShape(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"not an object", `[]`},
		{"missing WHERE", `{"OPTIONS": {"COLUMNS": ["sections_avg"]}}`},
		{"missing OPTIONS", `{"WHERE": {}}`},
		{"unknown key", `{"WHERE": {}, "OPTIONS": {"COLUMNS": ["sections_avg"]}, "LIMIT": 10}`},
		{"lowercase key", `{"where": {}, "OPTIONS": {"COLUMNS": ["sections_avg"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(doc(t, tt.src))
			requireCode(t, err, ErrQueryShape)
		})
	}

	_, err := Parse(nil)
	requireCode(t, err, ErrQueryShape)
}

func TestParse_FilterShape(t *testing.T) {
	tests := []struct {
		name  string
		where string
	}{
		{"WHERE is a list", `[]`},
		{"WHERE is null", `null`},
		{"two operators", `{"GT": {"sections_avg": 1}, "LT": {"sections_avg": 2}}`},
		{"unknown operator", `{"GTE": {"sections_avg": 1}}`},
		{"AND not a list", `{"AND": {"GT": {"sections_avg": 1}}}`},
		{"AND empty", `{"AND": []}`},
		{"OR empty", `{"OR": []}`},
		{"nested empty filter", `{"AND": [{}]}`},
		{"NOT of a list", `{"NOT": [{"GT": {"sections_avg": 1}}]}`},
		{"NOT of empty", `{"NOT": {}}`},
		{"GT string value", `{"GT": {"sections_avg": "90"}}`},
		{"EQ bool value", `{"EQ": {"sections_avg": true}}`},
		{"LT two keys", `{"LT": {"sections_avg": 1, "sections_pass": 2}}`},
		{"LT no keys", `{"LT": {}}`},
		{"GT list body", `{"GT": [{"sections_avg": 1}]}`},
		{"IS number value", `{"IS": {"sections_dept": 5}}`},
		{"IS two keys", `{"IS": {"sections_dept": "a", "sections_id": "b"}}`},
		{"deep unknown operator", `{"OR": [{"AND": [{"NOT": {"XOR": []}}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(doc(t, `{"WHERE": `+tt.where+`, "OPTIONS": {"COLUMNS": ["sections_avg"]}}`))
			requireCode(t, err, ErrFilterShape)
		})
	}
}

func TestParse_ErrorPath(t *testing.T) {
	_, err := Parse(doc(t, `{
		"WHERE": {"OR": [{"GT": {"sections_avg": 1}}, {"NOT": {"IS": {"sections_dept": 7}}}]},
		"OPTIONS": {"COLUMNS": ["sections_avg"]}
	}`))
	vErr := requireCode(t, err, ErrFilterShape)
	assert.Equal(t, "WHERE.OR[1].NOT.IS", vErr.Path)
	assert.Contains(t, vErr.Error(), "must be a string")
}

func TestValidPattern(t *testing.T) {
	tests := []struct {
		pattern string
		valid   bool
	}{
		{"abc", true},
		{"*abc", true},
		{"abc*", true},
		{"*abc*", true},
		{"", true},
		{"*", true},
		{"**", true},
		{"a*b", false},
		{"***", false},
		{"*a*b*", false},
		{"ab**", false},
		{"é*ü", false},
		{"*ü", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidPattern(tt.pattern))
		})
	}
}

func TestParse_MisplacedWildcard(t *testing.T) {
	_, err := Parse(doc(t, `{"WHERE": {"IS": {"sections_dept": "c*s"}}, "OPTIONS": {"COLUMNS": ["sections_dept"]}}`))
	vErr := requireCode(t, err, ErrMisplacedPattern)
	assert.Equal(t, "WHERE.IS", vErr.Path)
}

func TestParse_TransformationShape(t *testing.T) {
	tests := []struct {
		name  string
		trans string
	}{
		{"null", `null`},
		{"list", `[]`},
		{"missing APPLY", `{"GROUP": ["sections_dept"]}`},
		{"missing GROUP", `{"APPLY": []}`},
		{"extra key", `{"GROUP": ["sections_dept"], "APPLY": [], "HAVING": {}}`},
		{"GROUP empty", `{"GROUP": [], "APPLY": []}`},
		{"GROUP not list", `{"GROUP": "sections_dept", "APPLY": []}`},
		{"GROUP non-string", `{"GROUP": [1], "APPLY": []}`},
		{"APPLY not list", `{"GROUP": ["sections_dept"], "APPLY": {}}`},
		{"rule not object", `{"GROUP": ["sections_dept"], "APPLY": ["x"]}`},
		{"rule two keys", `{"GROUP": ["sections_dept"], "APPLY": [{"a": {"MAX": "sections_avg"}, "b": {"MIN": "sections_avg"}}]}`},
		{"rule empty", `{"GROUP": ["sections_dept"], "APPLY": [{}]}`},
		{"criteria list", `{"GROUP": ["sections_dept"], "APPLY": [{"a": ["MAX", "sections_avg"]}]}`},
		{"criteria two ops", `{"GROUP": ["sections_dept"], "APPLY": [{"a": {"MAX": "sections_avg", "MIN": "sections_avg"}}]}`},
		{"unknown op", `{"GROUP": ["sections_dept"], "APPLY": [{"a": {"MEDIAN": "sections_avg"}}]}`},
		{"target not string", `{"GROUP": ["sections_dept"], "APPLY": [{"a": {"MAX": 1}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(doc(t, `{"WHERE": {}, "TRANSFORMATIONS": `+tt.trans+`, "OPTIONS": {"COLUMNS": ["sections_dept"]}}`))
			requireCode(t, err, ErrTransformShape)
		})
	}
}

func TestParse_OptionsShape(t *testing.T) {
	tests := []struct {
		name    string
		options string
	}{
		{"list", `[]`},
		{"null", `null`},
		{"missing COLUMNS", `{"ORDER": "sections_avg"}`},
		{"COLUMNS empty", `{"COLUMNS": []}`},
		{"COLUMNS string", `{"COLUMNS": "sections_avg"}`},
		{"COLUMNS non-string", `{"COLUMNS": [1]}`},
		{"extra key", `{"COLUMNS": ["sections_avg"], "LIMIT": 5}`},
		{"ORDER list", `{"COLUMNS": ["sections_avg"], "ORDER": ["sections_avg"]}`},
		{"ORDER number", `{"COLUMNS": ["sections_avg"], "ORDER": 1}`},
		{"ORDER null", `{"COLUMNS": ["sections_avg"], "ORDER": null}`},
		{"ORDER missing dir", `{"COLUMNS": ["sections_avg"], "ORDER": {"keys": ["sections_avg"]}}`},
		{"ORDER missing keys", `{"COLUMNS": ["sections_avg"], "ORDER": {"dir": "UP"}}`},
		{"ORDER extra key", `{"COLUMNS": ["sections_avg"], "ORDER": {"dir": "UP", "keys": ["sections_avg"], "limit": 1}}`},
		{"ORDER bad dir", `{"COLUMNS": ["sections_avg"], "ORDER": {"dir": "up", "keys": ["sections_avg"]}}`},
		{"ORDER empty keys", `{"COLUMNS": ["sections_avg"], "ORDER": {"dir": "UP", "keys": []}}`},
		{"ORDER keys string", `{"COLUMNS": ["sections_avg"], "ORDER": {"dir": "UP", "keys": "sections_avg"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(doc(t, `{"WHERE": {}, "OPTIONS": `+tt.options+`}`))
			requireCode(t, err, ErrOptionsShape)
		})
	}
}

func TestKey_Split(t *testing.T) {
	id, field, ok := Key("sections_avg").Split()
	require.True(t, ok)
	assert.Equal(t, "sections", id)
	assert.Equal(t, "avg", field)

	for _, k := range []Key{"sectionsavg", "my_sections_avg", "", "a_b_"} {
		_, _, ok := k.Split()
		assert.False(t, ok, "key %q", k)
	}

	id, field, ok = Key("_avg").Split()
	require.True(t, ok)
	assert.Equal(t, "", id)
	assert.Equal(t, "avg", field)
}

func TestApplyOp_NumericOnly(t *testing.T) {
	for _, op := range []ApplyOp{OpMax, OpMin, OpAvg, OpSum} {
		assert.True(t, op.NumericOnly(), string(op))
	}
	assert.False(t, OpCount.NumericOnly())
}

func TestToNumber(t *testing.T) {
	for _, v := range []any{1, int64(2), 3.5, float32(1.5), uint(4)} {
		_, ok := toNumber(v)
		assert.True(t, ok, "%T", v)
	}
	for _, v := range []any{"1", true, nil} {
		_, ok := toNumber(v)
		assert.False(t, ok, "%T", v)
	}
}

func TestDecode(t *testing.T) {
	d, err := Decode([]byte(`  {"WHERE": {}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"WHERE": map[string]any{}}, d)

	d, err = Decode([]byte("WHERE: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"WHERE": map[string]any{}}, d)

	_, err = Decode([]byte("   "))
	require.Error(t, err)

	_, err = Decode([]byte(`{"WHERE": `))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidQuery))
}

func TestValidationError_Format(t *testing.T) {
	err := Errorf(ErrUnknownDataset, "WHERE.GT", "unknown dataset %q", "courses")
	assert.Equal(t, `[E202] WHERE.GT: unknown dataset "courses"`, err.Error())

	err = Errorf(ErrQueryShape, "", "missing WHERE")
	assert.Equal(t, "[E201] missing WHERE", err.Error())
}
