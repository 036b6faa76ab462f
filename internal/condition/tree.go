// Package condition evaluates validation trees against a single slot value.
// Trees are authored either as documents ({"and": [...]}, {"operator": ...})
// or as text such as `startswith "M" AND (endswith "i" OR has_no_whitespace)`.
package condition

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node is one node of a validation tree. Exactly one of And, Or or Operator is
// set on a well-formed node; a node with none of them is the empty tree.
type Node struct {
	And        []*Node
	Or         []*Node
	Operator   string
	Operand    interface{}
	HasOperand bool
}

// Empty reports whether the tree means "no validation configured".
func (n *Node) Empty() bool {
	return n == nil || (len(n.And) == 0 && len(n.Or) == 0 && n.Operator == "")
}

// UnknownOperators lists the operators of the tree that Validate cannot
// evaluate, in order of appearance.
func (n *Node) UnknownOperators() []string {
	if n.Empty() {
		return nil
	}
	var out []string
	for _, c := range append(append([]*Node(nil), n.And...), n.Or...) {
		out = append(out, c.UnknownOperators()...)
	}
	if n.Operator != "" && !Known(n.Operator) {
		out = append(out, n.Operator)
	}
	return out
}

// FromMap builds a tree from its document form. An empty document yields the
// empty tree.
func FromMap(doc map[string]interface{}) (*Node, error) {
	n := &Node{}
	if len(doc) == 0 {
		return n, nil
	}
	if raw, ok := doc["and"]; ok {
		children, err := childNodes("and", raw)
		if err != nil {
			return nil, err
		}
		n.And = children
	}
	if raw, ok := doc["or"]; ok {
		children, err := childNodes("or", raw)
		if err != nil {
			return nil, err
		}
		n.Or = children
	}
	if raw, ok := doc["operator"]; ok {
		op, ok := raw.(string)
		if !ok || strings.TrimSpace(op) == "" {
			return nil, fmt.Errorf("operator must be a non-empty string, got %v", raw)
		}
		n.Operator = op
		n.Operand, n.HasOperand = doc["value"]
	}

	set := 0
	for _, b := range []bool{n.And != nil, n.Or != nil, n.Operator != ""} {
		if b {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("node must have exactly one of and, or, operator: %v", doc)
	}
	return n, nil
}

func childNodes(kind string, raw interface{}) ([]*Node, error) {
	list, ok := raw.([]interface{})
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%s requires a non-empty list of nodes", kind)
	}
	out := make([]*Node, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s[%d]: expected a node, got %T", kind, i, item)
		}
		child, err := FromMap(m)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", kind, i, err)
		}
		if child.Empty() {
			return nil, fmt.Errorf("%s[%d]: empty node", kind, i)
		}
		out = append(out, child)
	}
	return out, nil
}

// fromAny accepts either a document or the text form.
func fromAny(v interface{}) (*Node, error) {
	switch val := v.(type) {
	case nil:
		return &Node{}, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return &Node{}, nil
		}
		return Parse(val)
	case map[string]interface{}:
		return FromMap(val)
	default:
		return nil, fmt.Errorf("validation must be a document or text, got %T", v)
	}
}

// UnmarshalJSON accepts a document or a text expression.
func (n *Node) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	parsed, err := fromAny(v)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

// UnmarshalYAML accepts a mapping or a text expression.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var v interface{}
	if err := value.Decode(&v); err != nil {
		return err
	}
	parsed, err := fromAny(v)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

// String renders the tree in the text form accepted by Parse.
func (n *Node) String() string {
	if n.Empty() {
		return ""
	}
	switch {
	case len(n.And) > 0:
		return join(n.And, " AND ")
	case len(n.Or) > 0:
		return join(n.Or, " OR ")
	}
	if !n.HasOperand {
		return n.Operator
	}
	return n.Operator + " " + literal(n.Operand)
}

func join(nodes []*Node, sep string) string {
	parts := make([]string, len(nodes))
	for i, c := range nodes {
		s := c.String()
		if len(c.And) > 0 || len(c.Or) > 0 {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, sep)
}

func literal(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = literal(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}
