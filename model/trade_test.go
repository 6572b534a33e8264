package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_EvictsOldestBeyondCapacity(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(&TradeResult{TradeID: string(rune('a' + i))})
	}

	require.Equal(t, 3, h.Len())
	all := h.All()
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].TradeID)
	assert.Equal(t, "e", all[2].TradeID)
}

func TestHistory_RecentReturnsLastN(t *testing.T) {
	h := NewHistory(10)
	for i := 0; i < 5; i++ {
		h.Append(&TradeResult{TradeID: string(rune('a' + i))})
	}

	recent := h.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "d", recent[0].TradeID)
	assert.Equal(t, "e", recent[1].TradeID)
}
