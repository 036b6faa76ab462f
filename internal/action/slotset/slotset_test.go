package slotset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/actionserver/internal/action"
	"github.com/gyaneshwarpardhi/actionserver/internal/action/actiontest"
	"github.com/gyaneshwarpardhi/actionserver/internal/model"
	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

func TestExecute(t *testing.T) {
	tests := []struct {
		name  string
		slots map[string]interface{}
		set   []model.SlotDirective
		want  []tracker.SlotEvent
	}{
		{
			name: "from value",
			set:  []model.SlotDirective{{Name: "location", Type: model.FromValue, Value: "Mumbai"}},
			want: []tracker.SlotEvent{tracker.SetSlot("location", "Mumbai")},
		},
		{
			name: "reset slot",
			set: []model.SlotDirective{
				{Name: "location", Type: model.ResetSlot, Value: "current_location"},
				{Name: "name", Type: model.FromValue, Value: "end_user"},
				{Name: "age", Type: model.ResetSlot},
			},
			want: []tracker.SlotEvent{
				tracker.SetSlot("location", nil),
				tracker.SetSlot("name", "end_user"),
				tracker.SetSlot("age", nil),
			},
		},
		{
			name:  "from slot",
			slots: map[string]interface{}{"current_location": "Bengaluru"},
			set:   []model.SlotDirective{{Name: "location", Type: model.FromSlot, Value: "current_location"}},
			want:  []tracker.SlotEvent{tracker.SetSlot("location", "Bengaluru")},
		},
		{
			name: "from slot not present",
			set:  []model.SlotDirective{{Name: "location", Type: model.FromSlot, Value: "current_location"}},
			want: []tracker.SlotEvent{tracker.SetSlot("location", nil)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := actiontest.NewStore()
			s.Add("slot_set", &model.SlotSetConfig{SetSlots: tt.set})
			ac := actiontest.Context(actiontest.Request("slot_set", tt.slots), s, "slot_set", nil)

			res, err := New().Execute(context.Background(), ac)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Events)
			assert.Empty(t, res.Responses)
		})
	}
}

func TestExecuteWithoutConfig(t *testing.T) {
	ac := actiontest.Context(actiontest.Request("missing", nil), actiontest.NewStore(), "missing", nil)
	_, err := New().Execute(context.Background(), ac)
	assert.ErrorIs(t, err, action.ErrConfigNotFound)
}
