package condition

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// -----------------------------------------------------------------------
// Tokenizer
// -----------------------------------------------------------------------

type tokenKind int

const (
	tokWord   tokenKind = iota // operator name or AND/OR
	tokString                  // "…" or '…'
	tokNumber                  // 42 | 3.14
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

func tokenize(expr string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(expr) {
		ch := expr[i]
		r, size := utf8.DecodeRuneInString(expr[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}
		switch ch {
		case '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
			continue
		case ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
			continue
		case '[':
			tokens = append(tokens, token{tokLBracket, "[", i})
			i++
			continue
		case ']':
			tokens = append(tokens, token{tokRBracket, "]", i})
			i++
			continue
		case ',':
			tokens = append(tokens, token{tokComma, ",", i})
			i++
			continue
		}
		// String literals.
		if ch == '"' || ch == '\'' {
			j := i + 1
			for j < len(expr) && expr[j] != ch {
				if expr[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(expr) {
				return nil, fmt.Errorf("unterminated string starting at position %d", i)
			}
			tokens = append(tokens, token{tokString, unquote(expr[i : j+1]), i})
			i = j + 1
			continue
		}
		// Numbers.
		if unicode.IsDigit(rune(ch)) || (ch == '-' && i+1 < len(expr) && unicode.IsDigit(rune(expr[i+1]))) {
			j := i + 1
			for j < len(expr) && (unicode.IsDigit(rune(expr[j])) || expr[j] == '.') {
				j++
			}
			tokens = append(tokens, token{tokNumber, expr[i:j], i})
			i = j
			continue
		}
		// Words: operator names and AND/OR.
		if unicode.IsLetter(r) || r == '_' {
			j := i
			for j < len(expr) {
				wr, wsize := utf8.DecodeRuneInString(expr[j:])
				if !unicode.IsLetter(wr) && !unicode.IsDigit(wr) && wr != '_' {
					break
				}
				j += wsize
			}
			tokens = append(tokens, token{tokWord, expr[i:j], i})
			i = j
			continue
		}
		return nil, fmt.Errorf("unexpected character %q at position %d", r, i)
	}
	tokens = append(tokens, token{tokEOF, "", len(expr)})
	return tokens, nil
}

func unquote(quoted string) string {
	if quoted[0] == '"' {
		if s, err := strconv.Unquote(quoted); err == nil {
			return s
		}
	}
	inner := quoted[1 : len(quoted)-1]
	inner = strings.ReplaceAll(inner, `\"`, `"`)
	inner = strings.ReplaceAll(inner, `\'`, `'`)
	return strings.ReplaceAll(inner, `\\`, `\`)
}

// -----------------------------------------------------------------------
// Recursive-descent parser
// -----------------------------------------------------------------------

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) consume() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) keyword(word string) bool {
	t := p.peek()
	return t.kind == tokWord && strings.EqualFold(t.val, word)
}

// Parse parses the text form of a validation tree.
func Parse(expr string) (*Node, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d", p.peek().val, p.peek().pos)
	}
	return node, nil
}

// or_expr = and_expr ( "OR" and_expr )*
func (p *parser) parseOr() (*Node, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []*Node{first}
	for p.keyword("OR") {
		p.consume()
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return first, nil
	}
	return &Node{Or: children}, nil
}

// and_expr = term ( "AND" term )*
func (p *parser) parseAnd() (*Node, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	children := []*Node{first}
	for p.keyword("AND") {
		p.consume()
		next, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	if len(children) == 1 {
		return first, nil
	}
	return &Node{And: children}, nil
}

// term = "(" or_expr ")" | leaf
func (p *parser) parseTerm() (*Node, error) {
	if p.peek().kind == tokLParen {
		p.consume()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if t := p.consume(); t.kind != tokRParen {
			return nil, fmt.Errorf("expected \")\" at position %d, got %q", t.pos, t.val)
		}
		return inner, nil
	}
	return p.parseLeaf()
}

// leaf = word [ operand ]
func (p *parser) parseLeaf() (*Node, error) {
	t := p.consume()
	if t.kind != tokWord || strings.EqualFold(t.val, "AND") || strings.EqualFold(t.val, "OR") {
		return nil, fmt.Errorf("expected operator at position %d, got %q", t.pos, t.val)
	}
	n := &Node{Operator: t.val}
	switch p.peek().kind {
	case tokString, tokNumber, tokLBracket:
		v, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		n.Operand, n.HasOperand = v, true
	}
	return n, nil
}

// operand = string | number | "[" [ operand ( "," operand )* ] "]"
func (p *parser) parseOperand() (interface{}, error) {
	t := p.consume()
	switch t.kind {
	case tokString:
		return t.val, nil
	case tokNumber:
		if strings.Contains(t.val, ".") {
			f, err := strconv.ParseFloat(t.val, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", t.val)
			}
			return f, nil
		}
		n, err := strconv.ParseInt(t.val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", t.val)
		}
		return float64(n), nil
	case tokLBracket:
		list := []interface{}{}
		if p.peek().kind == tokRBracket {
			p.consume()
			return list, nil
		}
		for {
			item, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			list = append(list, item)
			next := p.consume()
			if next.kind == tokRBracket {
				return list, nil
			}
			if next.kind != tokComma {
				return nil, fmt.Errorf("expected \",\" or \"]\" at position %d, got %q", next.pos, next.val)
			}
		}
	default:
		return nil, fmt.Errorf("expected operand at position %d, got %q", t.pos, t.val)
	}
}
