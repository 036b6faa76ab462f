package condition

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func mustParse(t *testing.T, expr string) *Node {
	t.Helper()
	n, err := Parse(expr)
	require.NoError(t, err, expr)
	return n
}

func TestValidateLeaves(t *testing.T) {
	cases := []struct {
		name  string
		expr  string
		value interface{}
		want  bool
	}{
		{"in hit", `in ["Mumbai", "Delhi"]`, "Delhi", true},
		{"in miss", `in ["Mumbai", "Delhi"]`, "Pune", false},
		{"in number", `in [1, 2, 3]`, float64(2), true},
		{"startswith", `startswith "M"`, "Mumbai", true},
		{"startswith miss", `startswith "D"`, "Mumbai", false},
		{"endswith", `endswith "i"`, "Mumbai", true},
		{"length greater", `has_length_greater_than 5`, "Mumbai", true},
		{"length equal is not greater", `has_length_greater_than 6`, "Mumbai", false},
		{"length of list", `has_length_greater_than 1`, []interface{}{"a", "b"}, true},
		{"no whitespace", `has_no_whitespace`, "Mumbai", true},
		{"whitespace present", `has_no_whitespace`, "New Delhi", false},
		{"regex full match", `matches_regex "[A-Z][a-z]+"`, "Mumbai", true},
		{"regex partial is not a match", `matches_regex "[a-z]+"`, "Mumbai", false},
		{"email", `is_an_email_address`, "user@example.com", true},
		{"email with display name", `is_an_email_address`, "User <user@example.com>", false},
		{"email without domain dot", `is_an_email_address`, "user@localhost", false},
		{"not null", `is_not_null_or_empty`, "x", true},
		{"blank", `is_not_null_or_empty`, "   ", false},
		{"null", `is_not_null_or_empty`, nil, false},
		{"null startswith", `startswith "M"`, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Validate(mustParse(t, tc.expr), tc.value)
			assert.True(t, out.Configured)
			assert.Equal(t, tc.want, out.Valid)
			assert.Empty(t, out.Issues)
		})
	}
}

func TestValidateComposition(t *testing.T) {
	cases := []struct {
		name  string
		expr  string
		value interface{}
		want  bool
	}{
		{"and both true", `startswith "M" AND endswith "i"`, "Mumbai", true},
		{"and one false", `startswith "M" AND endswith "x"`, "Mumbai", false},
		{"or one true", `startswith "X" OR endswith "i"`, "Mumbai", true},
		{"or both false", `startswith "X" OR endswith "x"`, "Mumbai", false},
		{"and binds tighter", `startswith "X" AND endswith "x" OR has_no_whitespace`, "Mumbai", true},
		{"parens", `startswith "X" AND (endswith "x" OR has_no_whitespace)`, "Mumbai", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Validate(mustParse(t, tc.expr), tc.value).Valid)
		})
	}
}

func TestValidateEmptyTreeIsNotConfigured(t *testing.T) {
	for _, value := range []interface{}{nil, "", "Mumbai", []interface{}{1}} {
		empty, err := FromMap(map[string]interface{}{})
		require.NoError(t, err)
		out := Validate(empty, value)
		assert.False(t, out.Configured)

		assert.False(t, Validate(nil, value).Configured)
	}
}

func TestValidateUnknownOperatorIsAnIssue(t *testing.T) {
	out := Validate(mustParse(t, `ends_with "i" OR startswith "M"`), "Mumbai")
	assert.True(t, out.Valid)
	assert.Equal(t, []string{`unknown operator "ends_with"`}, out.Issues)

	out = Validate(mustParse(t, `ends_with "i"`), "Mumbai")
	assert.False(t, out.Valid)
	assert.Len(t, out.Issues, 1)
}

func TestUnknownOperators(t *testing.T) {
	n := mustParse(t, `größer_als 3 OR (ends_with "i" AND startswith "M")`)
	assert.Equal(t, []string{"größer_als", "ends_with"}, n.UnknownOperators())
	assert.Empty(t, mustParse(t, `startswith "M" AND endswith "i"`).UnknownOperators())

	var empty *Node
	assert.Empty(t, empty.UnknownOperators())
}

func TestTokenizeNonASCIIWords(t *testing.T) {
	tokens, err := tokenize(`naïve_1 AND été "ü"`)
	require.NoError(t, err)
	require.Len(t, tokens, 5)
	assert.Equal(t, token{tokWord, "naïve_1", 0}, tokens[0])
	assert.Equal(t, token{tokWord, "AND", 9}, tokens[1])
	assert.Equal(t, token{tokWord, "été", 13}, tokens[2])
	assert.Equal(t, token{tokString, "ü", 19}, tokens[3])

	_, err = tokenize(`startswith "M" €`)
	assert.ErrorContains(t, err, `'€'`)
}

func TestValidateBadOperand(t *testing.T) {
	out := Validate(mustParse(t, `matches_regex "("`), "x")
	assert.False(t, out.Valid)
	require.Len(t, out.Issues, 1)
	assert.Contains(t, out.Issues[0], "invalid regex")
}

func TestFromMap(t *testing.T) {
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"and": [
			{"operator": "startswith", "value": "M"},
			{"or": [
				{"operator": "endswith", "value": "i"},
				{"operator": "has_no_whitespace"}
			]}
		]
	}`), &doc))

	n, err := FromMap(doc)
	require.NoError(t, err)
	require.Len(t, n.And, 2)
	assert.Equal(t, "startswith", n.And[0].Operator)
	assert.Equal(t, "M", n.And[0].Operand)
	assert.False(t, n.And[1].Or[1].HasOperand)
	assert.Equal(t, `startswith "M" AND (endswith "i" OR has_no_whitespace)`, n.String())
	assert.True(t, Validate(n, "Mumbai").Valid)
}

func TestFromMapRejectsMalformedNodes(t *testing.T) {
	cases := []map[string]interface{}{
		{"and": []interface{}{}},
		{"or": "startswith"},
		{"and": []interface{}{map[string]interface{}{}}},
		{"operator": ""},
		{"value": "x"},
		{"operator": "in", "and": []interface{}{map[string]interface{}{"operator": "x"}}},
	}
	for _, doc := range cases {
		_, err := FromMap(doc)
		assert.Error(t, err, "%v", doc)
	}
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{
		`startswith "M`,
		`startswith "M" AND`,
		`(startswith "M"`,
		`in ["a" "b"]`,
		`AND startswith "M"`,
		`startswith "M" #`,
	} {
		_, err := Parse(expr)
		assert.Error(t, err, expr)
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, expr := range []string{
		`in ["a", "b"]`,
		`startswith "M" AND endswith "i"`,
		`has_length_greater_than 3 OR (is_not_null_or_empty AND has_no_whitespace)`,
	} {
		assert.Equal(t, expr, mustParse(t, expr).String())
	}
}

func TestUnmarshalAcceptsTextAndDocument(t *testing.T) {
	var fromYAML struct {
		Validation Node `yaml:"validation"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`
validation:
  or:
    - operator: in
      value: [Mumbai, Delhi]
    - operator: has_length_greater_than
      value: 10
`), &fromYAML))
	assert.True(t, Validate(&fromYAML.Validation, "Delhi").Valid)
	assert.False(t, Validate(&fromYAML.Validation, "Pune").Valid)

	var fromJSON struct {
		Validation Node `json:"validation"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"validation": "startswith \"M\" AND endswith \"i\""}`), &fromJSON))
	assert.True(t, Validate(&fromJSON.Validation, "Mumbai").Valid)

	var empty struct {
		Validation Node `json:"validation"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"validation": {}}`), &empty))
	assert.True(t, empty.Validation.Empty())
}
