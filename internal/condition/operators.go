package condition

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gyaneshwarpardhi/actionserver/internal/expression"
)

// Operator names accepted in leaves.
const (
	OpIn                = "in"
	OpStartsWith        = "startswith"
	OpEndsWith          = "endswith"
	OpLengthGreaterThan = "has_length_greater_than"
	OpNoWhitespace      = "has_no_whitespace"
	OpMatchesRegex      = "matches_regex"
	OpEmailAddress      = "is_an_email_address"
	OpNotNullOrEmpty    = "is_not_null_or_empty"
)

// predicate reports whether value satisfies the leaf. A non-nil error is a
// configuration problem with the leaf itself, and the leaf counts as not
// satisfied.
type predicate func(value, operand interface{}) (bool, error)

var predicates = map[string]predicate{
	OpIn:                inOp,
	OpStartsWith:        stringOp(strings.HasPrefix),
	OpEndsWith:          stringOp(strings.HasSuffix),
	OpLengthGreaterThan: lengthGreaterThan,
	OpNoWhitespace:      noWhitespace,
	OpMatchesRegex:      matchesRegex,
	OpEmailAddress:      emailAddress,
	OpNotNullOrEmpty:    notNullOrEmpty,
}

// Known reports whether name is a supported operator.
func Known(name string) bool {
	_, ok := predicates[name]
	return ok
}

// text renders a slot value for the string predicates. Absent values have no
// text form.
func text(v interface{}) (string, bool) {
	if v == nil {
		return "", false
	}
	return expression.Stringify(v), true
}

func stringOp(fn func(s, affix string) bool) predicate {
	return func(value, operand interface{}) (bool, error) {
		affix, ok := operand.(string)
		if !ok {
			return false, fmt.Errorf("operand must be a string, got %T", operand)
		}
		s, ok := text(value)
		if !ok {
			return false, nil
		}
		return fn(s, affix), nil
	}
}

func inOp(value, operand interface{}) (bool, error) {
	list, ok := operand.([]interface{})
	if !ok {
		return false, fmt.Errorf("operand must be a list, got %T", operand)
	}
	if value == nil {
		return false, nil
	}
	want := expression.Stringify(value)
	for _, item := range list {
		if expression.Stringify(item) == want {
			return true, nil
		}
	}
	return false, nil
}

func lengthGreaterThan(value, operand interface{}) (bool, error) {
	limit, ok := toFloat64(operand)
	if !ok {
		return false, fmt.Errorf("operand must be a number, got %T", operand)
	}
	var n int
	switch v := value.(type) {
	case nil:
		return false, nil
	case []interface{}:
		n = len(v)
	case map[string]interface{}:
		n = len(v)
	default:
		s, _ := text(v)
		n = utf8.RuneCountInString(s)
	}
	return float64(n) > limit, nil
}

func noWhitespace(value, _ interface{}) (bool, error) {
	s, ok := text(value)
	if !ok {
		return false, nil
	}
	return strings.IndexFunc(s, unicode.IsSpace) < 0, nil
}

func matchesRegex(value, operand interface{}) (bool, error) {
	pattern, ok := operand.(string)
	if !ok {
		return false, fmt.Errorf("operand must be a pattern, got %T", operand)
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return false, fmt.Errorf("invalid regex %q: %w", pattern, err)
	}
	s, ok := text(value)
	if !ok {
		return false, nil
	}
	return re.MatchString(s), nil
}

func emailAddress(value, _ interface{}) (bool, error) {
	s, ok := value.(string)
	if !ok {
		return false, nil
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false, nil
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], "."), nil
}

func notNullOrEmpty(value, _ interface{}) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case string:
		return strings.TrimSpace(v) != "", nil
	case []interface{}:
		return len(v) > 0, nil
	case map[string]interface{}:
		return len(v) > 0, nil
	}
	return true, nil
}

// toFloat64 coerces a numeric operand to float64.
func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
