// Package action defines the contract shared by all action strategies and
// the helpers they use to build replies.
package action

import (
	"context"
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/actionserver/internal/audit"
	"github.com/gyaneshwarpardhi/actionserver/internal/expression"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/param"
	"github.com/gyaneshwarpardhi/actionserver/internal/store"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// ErrConfigNotFound is returned by an executor whose action has no
// configuration. The dispatcher answers with an empty result and writes no
// audit record.
var ErrConfigNotFound = errors.New("action config not found")

// Executor is the interface all action strategies must satisfy.
type Executor interface {
	// Type returns the action type this executor is registered under.
	Type() model.ActionType
	// Execute runs the action. Failures of external calls never surface as
	// errors; they become the action's failure reply and a FAILURE record.
	// The only error an executor returns is ErrConfigNotFound.
	Execute(ctx context.Context, ac *Context) (*tracker.Result, error)
}

// Context carries the state of one invocation.
type Context struct {
	Request *tracker.Request
	Action  model.Descriptor
	// Config is nil when the store holds no configuration for the action.
	Config model.Config
	Record *audit.Record
	Params *param.Resolver
	Eval   *expression.Evaluator
	Store  store.Store
}

// Tracker returns the conversation snapshot of the request.
func (ac *Context) Tracker() *tracker.Tracker {
	return &ac.Request.Tracker
}

// Bot returns the id of the bot owning the action.
func (ac *Context) Bot() string {
	return ac.Action.Bot
}

// ConfigAs returns the invocation's configuration as the concrete type T.
func ConfigAs[T model.Config](ac *Context) (T, error) {
	var zero T
	if ac.Config == nil {
		return zero, ErrConfigNotFound
	}
	cfg, ok := ac.Config.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s has a %s config", ErrConfigNotFound, ac.Action.Name, ac.Config.ActionType())
	}
	return cfg, nil
}
