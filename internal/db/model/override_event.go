package model

import "time"

const OverrideEventCollection = "override_events"

// Override audit actions
const (
	OverrideActionApply = "APPLY"
	OverrideActionClear = "CLEAR"
)

// OverrideEventDocument is an append-only audit record for every override
// mutation. Hash chains to the previous event on the same line so tampering
// with history is detectable on replay.
type OverrideEventDocument struct {
	ID           string    `bson:"_id"` // uuid
	LineID       string    `bson:"line_id"`
	Action       string    `bson:"action"`
	Amount       *string   `bson:"amount,omitempty"` // nil for CLEAR
	BeforeAmount string    `bson:"before_amount"`
	Reason       string    `bson:"reason"`
	Actor        string    `bson:"actor"`
	Timestamp    time.Time `bson:"timestamp"`
	PrevHash     string    `bson:"prev_hash"`
	Hash         string    `bson:"hash"`
}
