package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/actionserver/internal/metrics"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
)

// fileDoc is the YAML layout of an action store file:
//
//	bots:
//	  <bot id>:
//	    slots: [location, ...]
//	    secrets: {API_KEY: ...}
//	    intents: {greet: [hi, hello]}
//	    actions:
//	      - name: action_weather
//	        type: http
//	        config: {...}
type fileDoc struct {
	Bots map[string]botDoc `yaml:"bots"`
}

type botDoc struct {
	Slots   []string            `yaml:"slots"`
	Secrets map[string]string   `yaml:"secrets"`
	Intents map[string][]string `yaml:"intents"`
	Actions []actionDoc         `yaml:"actions"`
}

type actionDoc struct {
	Name   string    `yaml:"name"`
	Type   string    `yaml:"type"`
	Config yaml.Node `yaml:"config"`
}

type fileEntry struct {
	desc model.Descriptor
	cfg  model.Config
}

type fileBot struct {
	slots   map[string]bool
	secrets map[string]string
	intents map[string][]string
	actions map[string]fileEntry
}

// FileStore serves configuration from a YAML file. The file is parsed and
// validated as a whole; an invalid file never replaces a valid one.
type FileStore struct {
	path     string
	mu       sync.RWMutex
	bots     map[string]*fileBot
	onChange []func(actions int)
}

// NewFileStore creates a FileStore and performs the initial load.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	bots, err := s.load()
	if err != nil {
		return nil, err
	}
	s.bots = bots
	return s, nil
}

// OnChange registers a callback invoked after every successful reload with
// the number of actions loaded.
func (s *FileStore) OnChange(fn func(actions int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Watch starts a background goroutine that reloads the file when it changes.
// Call the returned stop function to clean up.
func (s *FileStore) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store watcher: %w", err)
	}
	if err := w.Add(s.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("store watcher add %s: %w", s.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := s.Reload(); err != nil {
						slog.Warn("action store reload skipped", "path", s.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("action store watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the file and returns the number of
// actions loaded.
func (s *FileStore) Reload() (int, error) {
	bots, err := s.load()
	if err != nil {
		metrics.StoreReloads.WithLabelValues("error").Inc()
		return 0, err
	}
	n := 0
	for _, b := range bots {
		n += len(b.actions)
	}
	s.mu.Lock()
	s.bots = bots
	callbacks := make([]func(int), len(s.onChange))
	copy(callbacks, s.onChange)
	s.mu.Unlock()
	metrics.StoreReloads.WithLabelValues("ok").Inc()
	for _, fn := range callbacks {
		fn(n)
	}
	return n, nil
}

func (s *FileStore) load() (map[string]*fileBot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read action store %s: %w", s.path, err)
	}
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse action store %s: %w", s.path, err)
	}

	var errs []string
	bots := make(map[string]*fileBot, len(doc.Bots))
	for botID, bd := range doc.Bots {
		b := &fileBot{
			slots:   make(map[string]bool, len(bd.Slots)),
			secrets: bd.Secrets,
			intents: bd.Intents,
			actions: make(map[string]fileEntry, len(bd.Actions)),
		}
		for _, slot := range bd.Slots {
			b.slots[slot] = true
		}
		seen := make(map[string]bool, len(bd.Actions))
		for i, ad := range bd.Actions {
			loc := fmt.Sprintf("bots.%s.actions[%d]", botID, i)
			if ad.Name == "" {
				errs = append(errs, loc+": name is required")
				continue
			}
			if seen[ad.Name] {
				errs = append(errs, fmt.Sprintf("%s: duplicate action %q", loc, ad.Name))
				continue
			}
			seen[ad.Name] = true
			typ, err := model.ParseActionType(ad.Type)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", loc, err))
				continue
			}
			cfg, err := model.Decode(typ, func(v interface{}) error {
				if ad.Config.Kind == 0 {
					return nil
				}
				return ad.Config.Decode(v)
			})
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s (%s): %v", loc, ad.Name, err))
				continue
			}
			desc := model.Descriptor{Name: ad.Name, Type: typ, Bot: botID}
			lint(desc, cfg)
			b.actions[ad.Name] = fileEntry{desc: desc, cfg: cfg}
		}
		bots[botID] = b
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("action store validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return bots, nil
}

func (s *FileStore) bot(id string) *fileBot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bots[id]
}

// Action implements Store.
func (s *FileStore) Action(_ context.Context, bot, name string) (model.Descriptor, error) {
	b := s.bot(bot)
	if b == nil {
		return model.Descriptor{}, ErrNotFound
	}
	e, ok := b.actions[name]
	if !ok {
		return model.Descriptor{}, ErrNotFound
	}
	return e.desc, nil
}

// Config implements Store.
func (s *FileStore) Config(_ context.Context, d model.Descriptor) (model.Config, error) {
	b := s.bot(d.Bot)
	if b == nil {
		return nil, ErrNotFound
	}
	e, ok := b.actions[d.Name]
	if !ok || e.desc.Type != d.Type {
		return nil, ErrNotFound
	}
	return e.cfg, nil
}

// Secret implements Store.
func (s *FileStore) Secret(_ context.Context, bot, key string) (string, bool, error) {
	b := s.bot(bot)
	if b == nil {
		return "", false, nil
	}
	v, ok := b.secrets[key]
	return v, ok, nil
}

// SlotDeclared implements Store.
func (s *FileStore) SlotDeclared(_ context.Context, bot, slot string) (bool, error) {
	b := s.bot(bot)
	return b != nil && b.slots[slot], nil
}

// Examples implements Store.
func (s *FileStore) Examples(_ context.Context, bot, intent string) ([]string, error) {
	b := s.bot(bot)
	if b == nil {
		return nil, nil
	}
	return b.intents[intent], nil
}

// SearchExamples implements Store.
func (s *FileStore) SearchExamples(_ context.Context, bot, text string, limit int) ([]string, error) {
	b := s.bot(bot)
	if b == nil {
		return nil, nil
	}
	var all []string
	for _, examples := range b.intents {
		all = append(all, examples...)
	}
	// Ties keep alphabetical order.
	sort.Strings(all)
	return rank(text, all, limit), nil
}
