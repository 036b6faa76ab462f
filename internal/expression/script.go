package expression

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
)

// HTTPScriptEvaluator forwards scripts to a remote evaluation service that
// answers POST {script, data} with {success, data}.
type HTTPScriptEvaluator struct {
	URL    string
	Client *http.Client
}

// EvaluateScript implements ScriptEvaluator.
func (h *HTTPScriptEvaluator) EvaluateScript(ctx context.Context, script string, data interface{}) (*ScriptResult, error) {
	body, err := json.Marshal(map[string]interface{}{"script": script, "data": data})
	if err != nil {
		return nil, fmt.Errorf("encode script request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build script request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("script evaluator: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read script response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("script evaluator returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out ScriptResult
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode script response: %w", err)
	}
	return &out, nil
}

// LocalScriptEvaluator runs scripts in-process with expr. Placeholders are
// bound as variables before compilation: `${a.b}` inside backticks is bound to
// the stringified value, a bare ${a.b} to the value itself. The whole document
// is available as the variable data.
type LocalScriptEvaluator struct{}

// EvaluateScript implements ScriptEvaluator. Unresolved placeholders and
// compile or runtime errors are reported as an unsuccessful result.
func (LocalScriptEvaluator) EvaluateScript(_ context.Context, script string, data interface{}) (*ScriptResult, error) {
	env := map[string]interface{}{"data": normalize(data)}
	program, ok := bind(script, data, env)
	if !ok {
		return &ScriptResult{Success: false}, nil
	}
	out, err := expr.Eval(program, env)
	if err != nil {
		return &ScriptResult{Success: false}, nil
	}
	return &ScriptResult{Success: true, Data: out}, nil
}

func bind(script string, data interface{}, env map[string]interface{}) (string, bool) {
	var b strings.Builder
	resolved := true
	n := 0
	for {
		loc := placeholder.FindStringSubmatchIndex(script)
		if loc == nil {
			b.WriteString(script)
			break
		}
		start, end := loc[0], loc[1]
		v, ok := Resolve(data, script[loc[2]:loc[3]])
		if !ok {
			resolved = false
		}
		name := "arg" + strconv.Itoa(n)
		n++
		quoted := start > 0 && script[start-1] == '`' && end < len(script) && script[end] == '`'
		if quoted {
			b.WriteString(script[:start-1])
			env[name] = Stringify(v)
			end++
		} else {
			b.WriteString(script[:start])
			env[name] = normalize(v)
		}
		b.WriteString(name)
		script = script[end:]
	}
	return b.String(), resolved
}

// normalize converts json.Number leaves so expr can do arithmetic on them.
func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		f, _ := val.Float64()
		return f
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	}
	return v
}
