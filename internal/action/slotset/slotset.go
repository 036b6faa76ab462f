// Package slotset implements the slot_set action.
package slotset

import (
	"context"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

// Executor writes slots from literals, from other slots or resets them.
type Executor struct{}

// New returns an Executor.
func New() *Executor { return &Executor{} }

func (*Executor) Type() model.ActionType { return model.TypeSlotSet }

// Execute emits one slot event per directive, in configuration order. A
// from_slot directive whose source slot is missing sets nil.
func (*Executor) Execute(_ context.Context, ac *action.Context) (*tracker.Result, error) {
	cfg, err := action.ConfigAs[*model.SlotSetConfig](ac)
	if err != nil {
		return nil, err
	}
	t := ac.Tracker()
	res := tracker.NewResult()
	for _, d := range cfg.SetSlots {
		switch d.Type {
		case model.FromValue:
			res.SetSlot(d.Name, d.Value)
		case model.FromSlot:
			src, _ := d.Value.(string)
			v, _ := t.Slot(src)
			res.SetSlot(d.Name, v)
		case model.ResetSlot:
			res.SetSlot(d.Name, nil)
		}
	}
	return res, nil
}
