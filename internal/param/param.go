// Package param resolves configured request parameters from the tracker, the
// bot's key vault or literal values, and produces the redacted view written to
// audit logs.
package param

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/gyaneshwarpardhi/actionserver/internal/expression"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// Source names where a parameter value comes from.
type Source string

const (
	SourceLiteral  Source = "literal"
	SourceSlot     Source = "slot"
	SourceVault    Source = "vault"
	SourceSenderID Source = "sender_id"
)

// Canonical maps the alternative spellings found in stored configs.
func (s Source) Canonical() Source {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "", "literal", "value":
		return SourceLiteral
	case "slot":
		return SourceSlot
	case "vault", "key_vault":
		return SourceVault
	case "sender_id":
		return SourceSenderID
	}
	return s
}

// Valid reports whether s names a supported source.
func (s Source) Valid() bool {
	switch s.Canonical() {
	case SourceLiteral, SourceSlot, SourceVault, SourceSenderID:
		return true
	}
	return false
}

// Descriptor configures one parameter.
type Descriptor struct {
	Key     string `yaml:"key" json:"key"`
	Source  Source `yaml:"parameter_type" json:"parameter_type"`
	Value   string `yaml:"value" json:"value"`
	Encrypt bool   `yaml:"encrypt" json:"encrypt"`
}

// Vault looks up bot-scoped secrets. found is false for an unknown key.
type Vault interface {
	Secret(ctx context.Context, bot, key string) (value string, found bool, err error)
}

// Resolved is a parameter after resolution. Value is nil when the source was
// absent.
type Resolved struct {
	Key    string
	Value  interface{}
	Logged interface{}
}

// Resolver resolves descriptors against one request.
type Resolver struct {
	tracker *tracker.Tracker
	bot     string
	vault   Vault
}

// NewResolver returns a Resolver. vault may be nil, in which case vault
// parameters resolve to nil.
func NewResolver(t *tracker.Tracker, bot string, vault Vault) *Resolver {
	return &Resolver{tracker: t, bot: bot, vault: vault}
}

// Resolve produces the value of d. Missing slots and vault keys resolve to
// nil; only a failing vault lookup or an unknown source is an error.
func (r *Resolver) Resolve(ctx context.Context, d Descriptor) (Resolved, error) {
	var v interface{}
	source := d.Source.Canonical()
	switch source {
	case SourceLiteral:
		v = d.Value
	case SourceSlot:
		v, _ = r.tracker.Slot(d.Value)
	case SourceSenderID:
		v = r.tracker.SenderID
	case SourceVault:
		if r.vault != nil {
			secret, found, err := r.vault.Secret(ctx, r.bot, d.Value)
			if err != nil {
				return Resolved{}, fmt.Errorf("resolve %q from vault: %w", d.Key, err)
			}
			if found {
				v = secret
			}
		}
	default:
		return Resolved{}, fmt.Errorf("parameter %q: unknown parameter type %q", d.Key, d.Source)
	}
	out := Resolved{Key: d.Key, Value: v, Logged: v}
	if v != nil && (d.Encrypt || source == SourceVault) {
		out.Logged = Mask(expression.Stringify(v))
	}
	return out, nil
}

// ResolveAll resolves ds in declaration order.
func (r *Resolver) ResolveAll(ctx context.Context, ds []Descriptor) (List, error) {
	out := make(List, 0, len(ds))
	for _, d := range ds {
		p, err := r.Resolve(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// String resolves d and renders the value as text. Absent values are empty.
func (r *Resolver) String(ctx context.Context, d Descriptor) (string, error) {
	p, err := r.Resolve(ctx, d)
	if err != nil || p.Value == nil {
		return "", err
	}
	return expression.Stringify(p.Value), nil
}

// Mask hides a secret for logging. Values of four characters or fewer are
// fully masked; longer values keep their last two characters.
func Mask(s string) string {
	n := utf8.RuneCountInString(s)
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	runes := []rune(s)
	return strings.Repeat("*", n-2) + string(runes[n-2:])
}

// List is an ordered set of resolved parameters.
type List []Resolved

// Values returns the outbound view.
func (l List) Values() Ordered {
	out := make(Ordered, len(l))
	for i, p := range l {
		out[i] = Pair{Key: p.Key, Value: p.Value}
	}
	return out
}

// Logged returns the redacted view.
func (l List) Logged() Ordered {
	out := make(Ordered, len(l))
	for i, p := range l {
		out[i] = Pair{Key: p.Key, Value: p.Logged}
	}
	return out
}

// Pair is one key/value entry of an Ordered object.
type Pair struct {
	Key   string
	Value interface{}
}

// Ordered is a JSON object that keeps insertion order when encoded.
type Ordered []Pair

// Text renders the i-th value as a string. Absent values are empty.
func (o Ordered) Text(i int) string {
	if o[i].Value == nil {
		return ""
	}
	return expression.Stringify(o[i].Value)
}

// Encode renders the entries as a URL-encoded form in declaration order.
func (o Ordered) Encode() string {
	var b strings.Builder
	for i, p := range o {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(o.Text(i)))
	}
	return b.String()
}

// MarshalJSON encodes the entries as an object in declaration order.
func (o Ordered) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.Value)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", p.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
