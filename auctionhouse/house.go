package auctionhouse

import (
	"sort"
	"sync"
	"time"

	"github.com/kartnagrale/auction-core/money"
	"github.com/kartnagrale/auction-core/protocol"
)

// Metrics is the subset of metrics a House touches.
type Metrics interface {
	BidAccepted()
	BidRejected()
	ItemSettled()
	SetOpenItems(n int)
	SetSessions(n int)
}

// House owns a catalog of items and brokers bids and notifications for
// every connected Agent (spec.md §2, §4.2-§4.4). It implements
// HouseCallback for its own item engines.
type House struct {
	houseID   int64
	accountID int64
	bank      BankFacade
	metrics   Metrics
	bidTimer  time.Duration // config.AuctionHouse.BidTimerSeconds, threaded into every item engine

	mu       sync.RWMutex // guards items + nextItemID (house-wide lock for add/remove, per spec.md §5)
	items    map[int64]*ItemEngine
	nextItemID int64

	sessions   *sessionRegistry
	spectators *SpectatorHub
}

// New builds a House. bidTimer is the self-resetting auction timer length
// (spec.md §4.2, HOUSE_BID_TIMER); 0 falls back to defaultBidTimerDuration.
func New(houseID, accountID int64, bank BankFacade, m Metrics, bidTimer time.Duration) *House {
	return &House{
		houseID:    houseID,
		accountID:  accountID,
		bank:       bank,
		metrics:    m,
		bidTimer:   bidTimer,
		items:      make(map[int64]*ItemEngine),
		nextItemID: 1,
		sessions:   newSessionRegistry(),
		spectators: NewSpectatorHub(),
	}
}

// SetSpectatorHub swaps the spectator feed, e.g. to nil in a test that
// doesn't care about the dashboard fan-out.
func (h *House) SetSpectatorHub(hub *SpectatorHub) {
	h.spectators = hub
}

// Spectators exposes the feed so cmd/auctionhouse can mount its ServeHTTP.
func (h *House) Spectators() *SpectatorHub {
	return h.spectators
}

func (h *House) publishSpectator(n protocol.BidStatusNotification) {
	if h.spectators != nil {
		h.spectators.Publish(n)
	}
}

// --- operator control plane (spec.md §4.4) ---

// AddItem allocates a new itemId and creates a fresh engine for it.
func (h *House) AddItem(description string, minimumBid money.Amount) (int64, error) {
	if description == "" {
		return 0, protocol.Validation("description is required")
	}
	if err := money.RequirePositive(minimumBid); err != nil {
		return 0, protocol.Validation("minimum bid must be positive")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextItemID
	h.nextItemID++
	h.items[id] = newItemEngine(h.houseID, h.accountID, id, description, minimumBid, h.bank, h, h.bidTimer)
	h.metrics.SetOpenItems(len(h.items))
	return id, nil
}

// RemoveItem is permitted only if the item has no bidder.
func (h *House) RemoveItem(itemID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	item, ok := h.items[itemID]
	if !ok {
		return protocol.NotFound("item %d not found", itemID)
	}
	if item.HasBidder() {
		return protocol.State("item has an active bidder")
	}
	delete(h.items, itemID)
	h.metrics.SetOpenItems(len(h.items))
	return nil
}

// Snapshot returns a copy of every item's public fields.
func (h *House) Snapshot() []protocol.ItemView {
	h.mu.RLock()
	items := make([]*ItemEngine, 0, len(h.items))
	for _, it := range h.items {
		items = append(items, it)
	}
	h.mu.RUnlock()

	views := make([]protocol.ItemView, len(items))
	for i, it := range items {
		views[i] = it.View()
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ItemID < views[j].ItemID })
	return views
}

// ShutdownCheck refuses if any item has an active bidder, satisfying the
// clean-exit invariant of spec.md §4.4. The Bank deregistration and
// listener shutdown are driven by the caller (cmd/auctionhouse) once this
// returns nil.
func (h *House) ShutdownCheck() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, it := range h.items {
		if it.HasBidder() {
			return protocol.State("cannot shut down: item %d has an active bidder", it.itemID)
		}
	}
	return nil
}

// --- wire operations (spec.md §6) ---

func (h *House) GetItems() protocol.GetItemsResponse {
	return protocol.GetItemsResponse{Success: true, Items: h.Snapshot(), Message: "ok"}
}

func (h *House) PlaceBid(itemID, agentID int64, amount money.Amount) protocol.PlaceBidResponse {
	h.mu.RLock()
	item, ok := h.items[itemID]
	h.mu.RUnlock()
	if !ok {
		return protocol.PlaceBidResponse{Success: false, Status: string(protocol.StatusRejected), Message: "Item not found", Amount: amount}
	}
	resp := item.PlaceBid(agentID, amount)
	if resp.Success {
		h.metrics.BidAccepted()
		// Agents only ever receive OUTBID/WINNER/ITEM_SOLD per the wire
		// protocol; the spectator feed additionally gets an ACCEPTED-status
		// tick on every accepted bid, since a spectator dashboard benefits
		// from the running bid-by-bid action.
		h.publishSpectator(protocol.BidStatusNotification{
			ItemID:          itemID,
			Status:          protocol.StatusAccepted,
			Message:         "New bid placed",
			FinalPrice:      amount,
			HouseAccountID:  h.accountID,
			ItemDescription: item.description,
		})
	} else {
		h.metrics.BidRejected()
	}
	return resp
}

func (h *House) ConfirmWinner(itemID, agentID int64) protocol.SuccessResponse {
	h.mu.RLock()
	item, ok := h.items[itemID]
	h.mu.RUnlock()
	if !ok {
		return protocol.SuccessResponse{Success: false, Message: "Item not found"}
	}
	resp := item.ConfirmWinner(agentID)
	if resp.Success {
		h.metrics.ItemSettled()
	}
	return resp
}

// --- HouseCallback implementation ---

func (h *House) PushNotification(accountID int64, n protocol.BidStatusNotification) {
	if n.HouseAccountID == 0 {
		n.HouseAccountID = h.accountID
	}
	if s, ok := h.sessions.get(accountID); ok {
		s.push(n)
	}
	// No connected session for this account is not an error: the agent
	// will see the effect (balance, purchases) next time it refreshes.
	h.publishSpectator(n)
}

func (h *House) Broadcast(n protocol.BidStatusNotification) {
	if n.HouseAccountID == 0 {
		n.HouseAccountID = h.accountID
	}
	sessions := h.sessions.all()
	var dead []*Session
	for _, s := range sessions {
		s.push(n)
		if s.dead.Load() {
			dead = append(dead, s)
		}
	}
	for _, s := range dead {
		h.sessions.remove(s)
	}
	h.metrics.SetSessions(h.sessions.count())
	h.publishSpectator(n)
}

func (h *House) ItemWithdrawn(itemID int64) {
	h.mu.Lock()
	delete(h.items, itemID)
	h.metrics.SetOpenItems(len(h.items))
	h.mu.Unlock()
}

func (h *House) ItemSettled(itemID int64) {
	h.ItemWithdrawn(itemID)
}

// --- session registration (spec.md §4.3) ---

// EnsureSession lazily creates the session for accountID on its first
// PlaceBid on this connection.
func (h *House) EnsureSession(accountID int64, conn *protocol.Conn) *Session {
	if s, ok := h.sessions.get(accountID); ok {
		return s
	}
	s := h.sessions.register(accountID, conn)
	h.metrics.SetSessions(h.sessions.count())
	return s
}

func (h *House) DropSession(s *Session) {
	h.sessions.remove(s)
	h.metrics.SetSessions(h.sessions.count())
}

func (h *House) AccountID() int64 { return h.accountID }
func (h *House) HouseID() int64   { return h.houseID }
