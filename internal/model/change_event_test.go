package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeChangeEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantOp  OpType
		wantID  int64
		wantErr bool
	}{
		{
			name:    "insert with row",
			payload: `{"op":"INSERT","id":7,"row":{"id":7,"customer_name":"Alice","product_name":"Widget","status":"pending","updated_at":"2025-05-01T10:00:00Z"}}`,
			wantOp:  OpInsert,
			wantID:  7,
		},
		{
			name:    "update",
			payload: `{"op":"UPDATE","id":7,"row":{"id":7,"customer_name":"Alice","product_name":"Widget","status":"shipped","updated_at":"2025-05-01T10:05:00Z"}}`,
			wantOp:  OpUpdate,
			wantID:  7,
		},
		{
			name:    "delete carries last state",
			payload: `{"op":"DELETE","id":7,"row":{"id":7,"customer_name":"Alice","product_name":"Widget","status":"shipped","updated_at":"2025-05-01T10:05:00Z"}}`,
			wantOp:  OpDelete,
			wantID:  7,
		},
		{
			name:    "lowercase op is normalized",
			payload: `{"op":"insert","id":3}`,
			wantOp:  OpInsert,
			wantID:  3,
		},
		{
			name:    "not json",
			payload: `nope{`,
			wantErr: true,
		},
		{
			name:    "unknown op",
			payload: `{"op":"TRUNCATE","id":1}`,
			wantErr: true,
		},
		{
			name:    "missing id",
			payload: `{"op":"UPDATE"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeChangeEvent([]byte(tt.payload))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOp, ev.Op)
			assert.Equal(t, tt.wantID, ev.ID)
		})
	}
}

func TestChangeEventDeleted(t *testing.T) {
	assert.True(t, ChangeEvent{Op: OpDelete}.Deleted())
	assert.False(t, ChangeEvent{Op: OpUpdate}.Deleted())
}

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope(ChangeEvent{Op: OpInsert, ID: 1})
	assert.Equal(t, EventOrderUpdate, env.Event)
	assert.Equal(t, int64(1), env.Payload.ID)
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, "pending", NormalizeStatus(""))
	assert.Equal(t, "pending", NormalizeStatus("   "))
	assert.Equal(t, "shipped", NormalizeStatus("shipped"))
	assert.Equal(t, "cancelled", NormalizeStatus(" cancelled "))
}

func TestOrderPatchEmpty(t *testing.T) {
	assert.True(t, OrderPatch{}.Empty())

	s := "shipped"
	assert.False(t, OrderPatch{Status: &s}.Empty())
}
