package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

type OpType string

const (
	OpInsert OpType = "INSERT"
	OpUpdate OpType = "UPDATE"
	OpDelete OpType = "DELETE"
)

func (o OpType) String() string { return string(o) }

func (o OpType) Valid() bool {
	return o == OpInsert || o == OpUpdate || o == OpDelete
}

// ChangeEvent describes one committed order mutation, decoded from the
// trigger payload on the orders_changes channel. For DELETE the row holds
// the last state before removal.
type ChangeEvent struct {
	Op  OpType `json:"op"`
	ID  int64  `json:"id"`
	Row *Order `json:"row,omitempty"`
}

// Deleted reports whether the event marks a removal.
func (e ChangeEvent) Deleted() bool { return e.Op == OpDelete }

// DecodeChangeEvent parses a raw notification payload. It rejects
// payloads that are not valid JSON, carry an unknown op, or miss the id.
func DecodeChangeEvent(payload []byte) (ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(payload, &e); err != nil {
		return ChangeEvent{}, fmt.Errorf("unmarshal change event: %w", err)
	}
	e.Op = OpType(strings.ToUpper(string(e.Op)))
	if !e.Op.Valid() {
		return ChangeEvent{}, fmt.Errorf("unknown op %q", e.Op)
	}
	if e.ID == 0 {
		return ChangeEvent{}, fmt.Errorf("change event missing id")
	}
	return e, nil
}

// Envelope is the message written to broadcast sessions.
type Envelope struct {
	Event   string      `json:"event"`
	Payload ChangeEvent `json:"payload"`
}

// EventOrderUpdate is the only event name published on the broadcast channel.
const EventOrderUpdate = "order_update"

// NewEnvelope wraps a change event for the wire.
func NewEnvelope(e ChangeEvent) Envelope {
	return Envelope{Event: EventOrderUpdate, Payload: e}
}
