// Package formvalidation implements the form_validation action, which checks
// the slot a form just filled against its validation tree.
package formvalidation

import (
	"context"
	"fmt"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/condition"
	"github.com/gyaneshwarpardhi/actionserver/internal/expression"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// Executor validates requested form slots.
type Executor struct{}

// New returns an Executor.
func New() *Executor { return &Executor{} }

func (*Executor) Type() model.ActionType { return model.TypeFormValidation }

// Execute validates the requested slot. An action without any configuration
// accepts every value.
func (*Executor) Execute(ctx context.Context, ac *action.Context) (*tracker.Result, error) {
	cfg := &model.FormValidationConfig{}
	if ac.Config != nil {
		var err error
		if cfg, err = action.ConfigAs[*model.FormValidationConfig](ac); err != nil {
			return nil, err
		}
	}
	t := ac.Tracker()
	res := tracker.NewResult()

	slot := t.RequestedSlot()
	if slot == "" {
		return res, nil
	}
	value, _ := t.Slot(slot)

	v, ok := cfg.For(slot)
	if !ok {
		res.SetSlot(slot, value)
		return res, nil
	}
	declared, err := ac.Store.SlotDeclared(ctx, ac.Bot(), slot)
	if err != nil {
		ac.Record.Fail(fmt.Errorf("look up slot %q: %w", slot, err))
		return res, nil
	}
	if !declared {
		ac.Record.Trace(fmt.Sprintf("slot: %s || not declared for bot", slot))
		return res, nil
	}

	outcome := condition.Validate(v.Validation, value)
	if !outcome.Configured {
		res.SetSlot(slot, value)
		return res, nil
	}
	for _, issue := range outcome.Issues {
		ac.Record.Trace(fmt.Sprintf("slot: %s || validation issue: %s", slot, issue))
	}
	ac.Record.Trace(fmt.Sprintf("slot: %s || value: %s || validation: %s || valid: %t",
		slot, expression.Stringify(value), v.Validation, outcome.Valid))

	if !outcome.Valid {
		res.SetSlot(slot, nil)
		if v.InvalidResponse != "" {
			ac.Record.BotResponse = v.InvalidResponse
			res.Utter(v.InvalidResponse)
		}
		return res, nil
	}
	res.SetSlot(slot, value)
	if v.ValidResponse != "" {
		ac.Record.BotResponse = v.ValidResponse
		res.Utter(v.ValidResponse)
	}
	return res, nil
}
