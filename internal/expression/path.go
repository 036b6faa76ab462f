// Package expression extracts values from nested response documents using
// ${a.b.0} placeholders and forwards script expressions to an evaluator.
package expression

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var placeholder = regexp.MustCompile(`\$\{([^}]*)\}`)

// Resolve walks a dot-separated path through nested maps (by key) and lists
// (by integer index). It never fails: a missing key, an out-of-range index or
// a scalar in the middle of the path reports false.
func Resolve(data interface{}, path string) (interface{}, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	cur := data
	for _, seg := range strings.Split(path, ".") {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(cur interface{}, seg string) (interface{}, bool) {
	switch node := cur.(type) {
	case map[string]interface{}:
		v, ok := node[seg]
		return v, ok
	case map[interface{}]interface{}:
		if v, ok := node[seg]; ok {
			return v, true
		}
		if n, err := strconv.Atoi(seg); err == nil {
			v, ok := node[n]
			return v, ok
		}
		return nil, false
	case []interface{}:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(node) {
			return nil, false
		}
		return node[i], true
	case []string:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(node) {
			return nil, false
		}
		return node[i], true
	}
	return nil, false
}

// Decode parses a response body into the generic document the resolver walks.
// Numbers are kept in their literal form. Bodies that are not JSON are
// returned as plain strings.
func Decode(body []byte) interface{} {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil || dec.More() {
		return string(body)
	}
	return v
}
