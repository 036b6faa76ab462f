// Package store reads action configuration, vault secrets and training data
// for bots. Two backends exist: a YAML file that is reloaded when it changes
// and a MySQL database.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/gyaneshwarpardhi/actionserver/internal/model"
)

// ErrNotFound is returned when an action or its configuration does not exist.
var ErrNotFound = errors.New("not found")

// Store is the read-only view of the configuration the dispatcher needs.
type Store interface {
	// Action returns the live descriptor of (bot, name).
	Action(ctx context.Context, bot, name string) (model.Descriptor, error)
	// Config returns the typed configuration of d.
	Config(ctx context.Context, d model.Descriptor) (model.Config, error)
	// Secret returns a key vault value. found is false for unknown keys.
	Secret(ctx context.Context, bot, key string) (value string, found bool, err error)
	// SlotDeclared reports whether the bot's domain declares slot.
	SlotDeclared(ctx context.Context, bot, slot string) (bool, error)
	// Examples returns the stored training examples of an intent, in order.
	Examples(ctx context.Context, bot, intent string) ([]string, error)
	// SearchExamples returns up to limit training examples similar to text,
	// best match first.
	SearchExamples(ctx context.Context, bot, text string, limit int) ([]string, error)
}

// lint logs the warnings of a configuration that loaded successfully.
func lint(d model.Descriptor, cfg model.Config) {
	l, ok := cfg.(model.Linter)
	if !ok {
		return
	}
	for _, w := range l.Warnings() {
		slog.Warn("action config warning", "bot", d.Bot, "action", d.Name, "type", d.Type, "warning", w)
	}
}

// rank orders candidates by word overlap with text and keeps the best limit.
// Candidates sharing no word with text are dropped.
func rank(text string, candidates []string, limit int) []string {
	query := words(text)
	if len(query) == 0 || limit <= 0 {
		return nil
	}
	type scored struct {
		text  string
		score float64
	}
	var hits []scored
	seen := make(map[string]bool)
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		cw := words(c)
		common := 0
		for w := range cw {
			if query[w] {
				common++
			}
		}
		if common == 0 {
			continue
		}
		union := len(query) + len(cw) - common
		hits = append(hits, scored{text: c, score: float64(common) / float64(union)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.text
	}
	return out
}

func words(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		out[w] = true
	}
	return out
}
