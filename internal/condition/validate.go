package condition

import "fmt"

// Outcome is the result of validating one value.
type Outcome struct {
	// Configured is false for the empty tree. The caller must then accept the
	// value unchanged and ignore Valid.
	Configured bool
	Valid      bool
	// Issues lists configuration problems met while evaluating, such as
	// unknown operators. They never abort evaluation.
	Issues []string
}

// Validate evaluates tree against value. and/or nodes short-circuit.
func Validate(tree *Node, value interface{}) Outcome {
	if tree.Empty() {
		return Outcome{}
	}
	out := Outcome{Configured: true}
	out.Valid = eval(tree, value, &out.Issues)
	return out
}

func eval(n *Node, value interface{}, issues *[]string) bool {
	switch {
	case len(n.And) > 0:
		for _, c := range n.And {
			if !eval(c, value, issues) {
				return false
			}
		}
		return true
	case len(n.Or) > 0:
		for _, c := range n.Or {
			if eval(c, value, issues) {
				return true
			}
		}
		return false
	}
	pred, ok := predicates[n.Operator]
	if !ok {
		*issues = append(*issues, fmt.Sprintf("unknown operator %q", n.Operator))
		return false
	}
	ok, err := pred(value, n.Operand)
	if err != nil {
		*issues = append(*issues, fmt.Sprintf("%s: %v", n.Operator, err))
		return false
	}
	return ok
}
