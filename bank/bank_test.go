package bank

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartnagrale/auction-core/money"
	"github.com/kartnagrale/auction-core/protocol"
)

func TestRegisterAgent_SeedsHouseList(t *testing.T) {
	b := New()
	houseID, houseAccountID, err := b.RegisterAuctionHouse("10.0.0.5", 9100)
	require.NoError(t, err)

	id, houses, err := b.RegisterAgent("Alice", money.New(1000))
	require.NoError(t, err)
	assert.Equal(t, int64(1001), id) // the house's account took the first id, 1000

	require.Len(t, houses, 1)
	assert.Equal(t, houseID, houses[0].HouseID)
	assert.Equal(t, houseAccountID, houses[0].AccountID)
}

func TestBlockFunds_InsufficientFunds(t *testing.T) {
	b := New()
	id, _, err := b.RegisterAgent("Alice", money.New(100))
	require.NoError(t, err)

	require.NoError(t, b.BlockFunds(id, money.New(80)))
	err = b.BlockFunds(id, money.New(30))
	require.Error(t, err)

	snap, err := b.GetAccountInfo(id)
	require.NoError(t, err)
	assert.True(t, snap.Blocked.Equal(money.New(80)))
}

func TestUnblockFunds_ClampsToZero(t *testing.T) {
	b := New()
	id, _, err := b.RegisterAgent("Alice", money.New(100))
	require.NoError(t, err)

	require.NoError(t, b.BlockFunds(id, money.New(40)))
	require.NoError(t, b.UnblockFunds(id, money.New(999)))

	snap, err := b.GetAccountInfo(id)
	require.NoError(t, err)
	assert.True(t, snap.Blocked.IsZero())
	assert.True(t, snap.Available.Equal(money.New(100)))
}

func TestTransferFunds_MovesFromBlockedToDestinationTotal(t *testing.T) {
	b := New()
	from, _, err := b.RegisterAgent("Alice", money.New(500))
	require.NoError(t, err)
	_, to, err := b.RegisterAuctionHouse("10.0.0.5", 9100)
	require.NoError(t, err)

	require.NoError(t, b.BlockFunds(from, money.New(150)))
	require.NoError(t, b.TransferFunds(from, to, money.New(150)))

	fromSnap, err := b.GetAccountInfo(from)
	require.NoError(t, err)
	assert.True(t, fromSnap.Total.Equal(money.New(350)))
	assert.True(t, fromSnap.Blocked.IsZero())

	toSnap, err := b.GetAccountInfo(to)
	require.NoError(t, err)
	assert.True(t, toSnap.Total.Equal(money.New(150)))
}

func TestTransferFunds_RejectsUnblockedAmount(t *testing.T) {
	b := New()
	from, _, err := b.RegisterAgent("Alice", money.New(500))
	require.NoError(t, err)
	_, to, err := b.RegisterAuctionHouse("10.0.0.5", 9100)
	require.NoError(t, err)

	err = b.TransferFunds(from, to, money.New(100))
	require.Error(t, err)
}

func TestDeregister_AuctionHouseRemovesListing(t *testing.T) {
	b := New()
	houseID, accountID, err := b.RegisterAuctionHouse("10.0.0.5", 9100)
	require.NoError(t, err)
	require.Len(t, b.GetAuctionHouses(), 1)

	require.NoError(t, b.Deregister(accountID, protocol.KindAuctionHouse))
	assert.Empty(t, b.GetAuctionHouses())

	_, err = b.GetAccountInfo(accountID)
	require.Error(t, err)
	_ = houseID
}

// TestDoubleSpendPrevention exercises spec.md §8 testable property 3:
// two concurrent BlockFunds calls that would together overdraw an
// account cannot both succeed.
func TestDoubleSpendPrevention(t *testing.T) {
	b := New()
	id, _, err := b.RegisterAgent("Alice", money.New(100))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); results[0] = b.BlockFunds(id, money.New(60)) }()
	go func() { defer wg.Done(); results[1] = b.BlockFunds(id, money.New(60)) }()
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes)

	snap, err := b.GetAccountInfo(id)
	require.NoError(t, err)
	assert.True(t, snap.Available.GreaterThanOrEqual(money.Zero))
}
