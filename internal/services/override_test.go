package services

import (
	"testing"
	"time"

	"github.com/introfi/commission-engine/internal/db/model"
	"github.com/introfi/commission-engine/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOverrideEventHash(t *testing.T) {
	event := &model.OverrideEventDocument{
		ID:           "event-1",
		LineID:       "line-1",
		Action:       model.OverrideActionApply,
		Amount:       testutil.Ptr("5000"),
		BeforeAmount: "4000",
		Reason:       "statement dispute",
		Actor:        "ops@example.com",
		Timestamp:    time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
		PrevHash:     "",
	}

	first := overrideEventHash(event)
	assert.Equal(t, first, overrideEventHash(event), "hash must be deterministic")

	tampered := *event
	tampered.Amount = testutil.Ptr("5001")
	assert.NotEqual(t, first, overrideEventHash(&tampered))

	chained := *event
	chained.PrevHash = first
	assert.NotEqual(t, first, overrideEventHash(&chained))
}

func TestOverrideEventHashDistinguishesClearFromApply(t *testing.T) {
	apply := &model.OverrideEventDocument{
		LineID:       "line-1",
		Action:       model.OverrideActionApply,
		BeforeAmount: "4000",
		Reason:       "adjustment",
		Actor:        "ops",
		Timestamp:    time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
	}
	clear := *apply
	clear.Action = model.OverrideActionClear

	assert.NotEqual(t, overrideEventHash(apply), overrideEventHash(&clear))
}
