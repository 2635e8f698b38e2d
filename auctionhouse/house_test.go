package auctionhouse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartnagrale/auction-core/money"
)

type stubMetrics struct{}

func (stubMetrics) BidAccepted()       {}
func (stubMetrics) BidRejected()       {}
func (stubMetrics) ItemSettled()       {}
func (stubMetrics) SetOpenItems(int)   {}
func (stubMetrics) SetSessions(int)    {}

func TestAddItem_RejectsNonPositiveMinimumBid(t *testing.T) {
	h := New(1, 1000, newStubBank(), stubMetrics{}, 0)
	_, err := h.AddItem("Watch", money.Zero)
	assert.Error(t, err)
}

// TestRemoveItem_ForbiddenWithActiveBidder covers spec.md §8 scenario S6:
// once an item has a bidder, RemoveItem and ShutdownCheck both refuse.
func TestRemoveItem_ForbiddenWithActiveBidder(t *testing.T) {
	h := New(1, 1000, newStubBank(), stubMetrics{}, 0)
	itemID, err := h.AddItem("Watch", money.New(100))
	require.NoError(t, err)

	resp := h.PlaceBid(itemID, alice, money.New(150))
	require.True(t, resp.Success)

	assert.Error(t, h.RemoveItem(itemID))
	assert.Error(t, h.ShutdownCheck())
}

func TestRemoveItem_AllowedWithoutBidder(t *testing.T) {
	h := New(1, 1000, newStubBank(), stubMetrics{}, 0)
	itemID, err := h.AddItem("Watch", money.New(100))
	require.NoError(t, err)

	assert.NoError(t, h.RemoveItem(itemID))
	assert.NoError(t, h.ShutdownCheck())
}

func TestSnapshot_SortedByItemID(t *testing.T) {
	h := New(1, 1000, newStubBank(), stubMetrics{}, 0)
	_, err := h.AddItem("B", money.New(10))
	require.NoError(t, err)
	_, err = h.AddItem("A", money.New(10))
	require.NoError(t, err)

	items := h.Snapshot()
	require.Len(t, items, 2)
	assert.Less(t, items[0].ItemID, items[1].ItemID)
}
