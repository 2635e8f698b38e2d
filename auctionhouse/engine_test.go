package auctionhouse

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartnagrale/auction-core/money"
	"github.com/kartnagrale/auction-core/protocol"
)

// stubBank is a minimal in-memory BankFacade for engine tests (spec.md
// §9 "Cycles in ownership": the engine is testable against a stub bank
// precisely because BankFacade is a narrow interface).
type stubBank struct {
	mu      sync.Mutex
	blocked map[int64]money.Amount
	fail    map[int64]bool // accountId -> next BlockFunds call fails
}

func newStubBank() *stubBank {
	return &stubBank{blocked: make(map[int64]money.Amount), fail: make(map[int64]bool)}
}

func (s *stubBank) BlockFunds(accountID int64, amount money.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[accountID] {
		s.fail[accountID] = false
		return protocol.InsufficientFunds("stub: insufficient funds")
	}
	s.blocked[accountID] = s.blocked[accountID].Add(amount)
	return nil
}

func (s *stubBank) UnblockFunds(accountID int64, amount money.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked[accountID] = s.blocked[accountID].Sub(amount)
	return nil
}

func (s *stubBank) heldFor(accountID int64) money.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked[accountID]
}

// stubCallback records every notification/item-lifecycle call an engine
// makes through HouseCallback, without needing a real House.
type pushedNotification struct {
	accountID int64
	n         protocol.BidStatusNotification
}

type stubCallback struct {
	mu           sync.Mutex
	pushed       []pushedNotification
	broadcast    []protocol.BidStatusNotification
	withdrawnIDs []int64
	settledIDs   []int64
}

func (c *stubCallback) PushNotification(accountID int64, n protocol.BidStatusNotification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pushed = append(c.pushed, pushedNotification{accountID: accountID, n: n})
}

func (c *stubCallback) Broadcast(n protocol.BidStatusNotification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcast = append(c.broadcast, n)
}

func (c *stubCallback) ItemWithdrawn(itemID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.withdrawnIDs = append(c.withdrawnIDs, itemID)
}

func (c *stubCallback) ItemSettled(itemID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settledIDs = append(c.settledIDs, itemID)
}

const (
	alice int64 = 2000
	bob   int64 = 2001
)

func newTestEngine(bank *stubBank, cb *stubCallback) *ItemEngine {
	return newItemEngine(1, 1000, 1, "Watch", money.New(100), bank, cb, 0)
}

func TestPlaceBid_RejectsBelowMinimum(t *testing.T) {
	e := newTestEngine(newStubBank(), &stubCallback{})
	resp := e.PlaceBid(alice, money.New(50))
	assert.False(t, resp.Success)
	assert.Equal(t, string(protocol.StatusRejected), resp.Status)
}

func TestPlaceBid_RejectsEqualBid(t *testing.T) {
	bank := newStubBank()
	e := newTestEngine(bank, &stubCallback{})
	require.True(t, e.PlaceBid(alice, money.New(200)).Success)

	resp := e.PlaceBid(bob, money.New(200))
	assert.False(t, resp.Success)
}

func TestPlaceBid_OutbidUnblocksPreviousBidder(t *testing.T) {
	bank := newStubBank()
	cb := &stubCallback{}
	e := newTestEngine(bank, cb)

	require.True(t, e.PlaceBid(alice, money.New(120)).Success)
	require.True(t, e.PlaceBid(bob, money.New(150)).Success)

	assert.True(t, bank.heldFor(alice).IsZero())
	assert.True(t, bank.heldFor(bob).Equal(money.New(150)))

	require.Len(t, cb.pushed, 1)
	assert.Equal(t, alice, cb.pushed[0].accountID)
	assert.Equal(t, protocol.StatusOutbid, cb.pushed[0].n.Status)
}

func TestPlaceBid_SelfRebidDoesNotDoubleBlock(t *testing.T) {
	bank := newStubBank()
	e := newTestEngine(bank, &stubCallback{})

	require.True(t, e.PlaceBid(alice, money.New(100)).Success)
	require.True(t, e.PlaceBid(alice, money.New(150)).Success)

	assert.True(t, bank.heldFor(alice).Equal(money.New(150)))
}

func TestPlaceBid_SelfRebidBlockFailureRestoresOldHold(t *testing.T) {
	bank := newStubBank()
	e := newTestEngine(bank, &stubCallback{})

	require.True(t, e.PlaceBid(alice, money.New(100)).Success)

	bank.mu.Lock()
	bank.fail[alice] = true
	bank.mu.Unlock()

	resp := e.PlaceBid(alice, money.New(150))
	assert.False(t, resp.Success)

	view := e.View()
	assert.Equal(t, alice, view.CurrentBidder)
	assert.True(t, view.CurrentBid.Equal(money.New(100)))
	assert.True(t, bank.heldFor(alice).Equal(money.New(100)))
}

func TestConfirmWinner_RejectsNonWinner(t *testing.T) {
	e := newTestEngine(newStubBank(), &stubCallback{})
	require.True(t, e.PlaceBid(alice, money.New(150)).Success)

	// Force the item into PENDING_SETTLEMENT the way onExpiry would.
	e.mu.Lock()
	e.state = statePendingSettlement
	e.mu.Unlock()

	resp := e.ConfirmWinner(bob)
	assert.False(t, resp.Success)
}

func TestConfirmWinner_BroadcastsItemSold(t *testing.T) {
	bank := newStubBank()
	cb := &stubCallback{}
	e := newTestEngine(bank, cb)
	require.True(t, e.PlaceBid(alice, money.New(150)).Success)

	e.mu.Lock()
	e.state = statePendingSettlement
	e.mu.Unlock()

	resp := e.ConfirmWinner(alice)
	require.True(t, resp.Success)

	require.Len(t, cb.broadcast, 1)
	assert.Equal(t, protocol.StatusItemSold, cb.broadcast[0].Status)
	require.Len(t, cb.settledIDs, 1)
	assert.Equal(t, int64(1), cb.settledIDs[0])
}

func TestHasBidder(t *testing.T) {
	e := newTestEngine(newStubBank(), &stubCallback{})
	assert.False(t, e.HasBidder())
	require.True(t, e.PlaceBid(alice, money.New(150)).Success)
	assert.True(t, e.HasBidder())
}
