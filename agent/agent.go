// Package agent implements the bidder side of the protocol (spec.md
// §4.5): a Bank connection for the Agent's own account, one houseConn
// per connected Auction House, and the winner-settlement subroutine that
// ties a WINNER notification back to a confirmed sale.
package agent

import (
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kartnagrale/auction-core/bankclient"
	"github.com/kartnagrale/auction-core/money"
	"github.com/kartnagrale/auction-core/protocol"
)

// settlementTimeout bounds how long ConfirmWinner may take once a WINNER
// notification has fired the settlement subroutine (spec.md §4.5 step 2).
const settlementTimeout = 10 * time.Second

// Purchase records a completed, confirmed sale (spec.md §3 AgentView).
type Purchase struct {
	HouseID     int64
	ItemID      int64
	Description string
	Price       money.Amount
}

// Balance is the Agent's local cache of its own account snapshot.
type Balance struct {
	Total     money.Amount
	Available money.Amount
	Blocked   money.Amount
}

// Agent is a bidder process: its own Bank account plus zero or more
// connected Auction Houses (spec.md §3 AgentView, §4.5).
type Agent struct {
	bank      *bankclient.Client
	accountID int64
	name      string

	mu        sync.Mutex
	balance   Balance
	houses    map[int64]protocol.HouseInfo
	conns     map[int64]*houseConn
	purchases []Purchase
}

// Register connects to the Bank, registers a new AGENT account with the
// given name and initial balance, and seeds the known house list from
// the reply (spec.md §4.5 "Register").
func Register(bankAddr, name string, initial money.Amount) (*Agent, error) {
	bank, err := bankclient.Dial(bankAddr)
	if err != nil {
		return nil, err
	}
	accountID, houses, err := bank.RegisterAgent(name, initial)
	if err != nil {
		bank.Close()
		return nil, err
	}

	a := &Agent{
		bank:      bank,
		accountID: accountID,
		name:      name,
		balance:   Balance{Total: initial, Available: initial, Blocked: money.Zero},
		houses:    make(map[int64]protocol.HouseInfo),
		conns:     make(map[int64]*houseConn),
	}
	for _, h := range houses {
		a.houses[h.HouseID] = h
	}
	return a, nil
}

func (a *Agent) AccountID() int64 { return a.accountID }

// RefreshHouses re-fetches the full house list from the Bank (spec.md
// §4.6: on-demand discovery, the GetAuctionHouses path).
func (a *Agent) RefreshHouses() error {
	houses, err := a.bank.GetAuctionHouses()
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.houses = make(map[int64]protocol.HouseInfo, len(houses))
	for _, h := range houses {
		a.houses[h.HouseID] = h
	}
	return nil
}

// ConnectToHouse opens a connection to houseId if one isn't already
// open. Idempotent.
func (a *Agent) ConnectToHouse(houseID int64) error {
	a.mu.Lock()
	if _, ok := a.conns[houseID]; ok {
		a.mu.Unlock()
		return nil
	}
	info, ok := a.houses[houseID]
	a.mu.Unlock()
	if !ok {
		return protocol.NotFound("unknown house %d", houseID)
	}

	hc, err := dialHouse(houseID, info.Host, info.Port, a.handleNotification)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.conns[houseID] = hc
	a.mu.Unlock()
	return nil
}

// ConnectKnownHouses dials every currently known house concurrently,
// returning the first error encountered (if any). A fan-out over
// independent TCP dials is exactly what errgroup.Group is for, rather
// than a hand-rolled sync.WaitGroup plus error channel.
func (a *Agent) ConnectKnownHouses() error {
	a.mu.Lock()
	ids := make([]int64, 0, len(a.houses))
	for id := range a.houses {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error { return a.ConnectToHouse(id) })
	}
	return g.Wait()
}

// KnownHouseIDs returns the id of every house discovered so far, via
// either Register's bundled list or a later RefreshHouses.
func (a *Agent) KnownHouseIDs() []int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]int64, 0, len(a.houses))
	for id := range a.houses {
		ids = append(ids, id)
	}
	return ids
}

func (a *Agent) houseConnOrErr(houseID int64) (*houseConn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	hc, ok := a.conns[houseID]
	if !ok {
		return nil, protocol.State("not connected to house %d", houseID)
	}
	return hc, nil
}

// GetItems fetches the current item catalog from houseId.
func (a *Agent) GetItems(houseID int64) ([]protocol.ItemView, error) {
	hc, err := a.houseConnOrErr(houseID)
	if err != nil {
		return nil, err
	}
	env, err := hc.request(protocol.TagGetItems, protocol.GetItemsRequest{}, requestTimeout)
	if err != nil {
		return nil, err
	}
	var resp protocol.GetItemsResponse
	if err := protocol.Decode(env, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, protocol.State("%s", resp.Message)
	}
	return resp.Items, nil
}

// PlaceBid places a client-side-checked bid and, on ACCEPTED, updates the
// local balance cache (spec.md §4.5). PlaceBid may legitimately block
// until the house replies, so it waits on the response queue with no
// timeout, unlike the other request methods.
func (a *Agent) PlaceBid(houseID, itemID int64, amount money.Amount, minimumBid, currentBid money.Amount) (protocol.PlaceBidResponse, error) {
	a.mu.Lock()
	available := a.balance.Available
	a.mu.Unlock()

	// Pre-bid client-side checks for UX; the house remains authoritative.
	if amount.LessThan(minimumBid) {
		return protocol.PlaceBidResponse{}, protocol.Validation("bid below minimum")
	}
	if !amount.GreaterThan(currentBid) {
		return protocol.PlaceBidResponse{}, protocol.Validation("bid must exceed current bid")
	}
	if amount.GreaterThan(available) {
		return protocol.PlaceBidResponse{}, protocol.InsufficientFunds("bid exceeds available balance")
	}

	hc, err := a.houseConnOrErr(houseID)
	if err != nil {
		return protocol.PlaceBidResponse{}, err
	}
	env, err := hc.request(protocol.TagPlaceBid, protocol.PlaceBidRequest{ItemID: itemID, AgentID: a.accountID, Amount: amount}, 0)
	if err != nil {
		return protocol.PlaceBidResponse{}, err
	}
	var resp protocol.PlaceBidResponse
	if err := protocol.Decode(env, &resp); err != nil {
		return protocol.PlaceBidResponse{}, err
	}
	if resp.Success {
		if err := a.UpdateBalance(); err != nil {
			log.Printf("agent: refreshing balance after bid: %v", err)
		}
	}
	return resp, nil
}

// UpdateBalance refreshes the local balance cache from the Bank.
func (a *Agent) UpdateBalance() error {
	info, err := a.bank.GetAccountInfo(a.accountID)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.balance = Balance{Total: info.Total, Available: info.Available, Blocked: info.Blocked}
	a.mu.Unlock()
	return nil
}

func (a *Agent) Balance() Balance {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

func (a *Agent) Purchases() []Purchase {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Purchase, len(a.purchases))
	copy(out, a.purchases)
	return out
}

// handleNotification is the listener's dispatch for an unsolicited
// BidStatusNotification (spec.md §4.5): OUTBID/REJECTED/ITEM_SOLD simply
// refresh the balance; WINNER spawns the settlement subroutine on its
// own goroutine so it never blocks the listener that's driving it (the
// subroutine itself issues further requests on this same houseConn, and
// a request blocks waiting on the very respCh the listener feeds).
func (a *Agent) handleNotification(houseID int64, n protocol.BidStatusNotification) {
	switch n.Status {
	case protocol.StatusWinner:
		go a.settleWin(houseID, n)
	case protocol.StatusOutbid, protocol.StatusRejected, protocol.StatusItemSold:
		if err := a.UpdateBalance(); err != nil {
			log.Printf("agent: refreshing balance after %s: %v", n.Status, err)
		}
	default:
		log.Printf("agent: house %d: unrecognized notification status %q", houseID, n.Status)
	}
}

// settleWin runs the winner settlement subroutine (spec.md §4.5): pay
// the house, then confirm, then record the purchase.
func (a *Agent) settleWin(houseID int64, n protocol.BidStatusNotification) {
	if err := a.bank.TransferFunds(a.accountID, n.HouseAccountID, n.FinalPrice); err != nil {
		log.Printf("agent: transfer for house %d item %d failed, aborting settlement: %v", houseID, n.ItemID, err)
		return
	}

	hc, err := a.houseConnOrErr(houseID)
	if err != nil {
		log.Printf("agent: settling house %d item %d: %v", houseID, n.ItemID, err)
		return
	}
	env, err := hc.request(protocol.TagConfirmWinner, protocol.ConfirmWinnerRequest{ItemID: n.ItemID, AgentID: a.accountID}, settlementTimeout)
	if err != nil {
		log.Printf("agent: confirming win for house %d item %d: %v", houseID, n.ItemID, err)
		return
	}
	var resp protocol.SuccessResponse
	if err := protocol.Decode(env, &resp); err != nil {
		log.Printf("agent: decoding confirm-winner reply: %v", err)
		return
	}
	if !resp.Success {
		log.Printf("agent: house %d rejected confirm-winner for item %d: %s", houseID, n.ItemID, resp.Message)
		return
	}

	a.mu.Lock()
	a.purchases = append(a.purchases, Purchase{HouseID: houseID, ItemID: n.ItemID, Description: n.ItemDescription, Price: n.FinalPrice})
	a.mu.Unlock()

	if err := a.UpdateBalance(); err != nil {
		log.Printf("agent: refreshing balance after settlement: %v", err)
	}
}

// Disconnect interrupts every listener, closes every house connection,
// deregisters from the Bank, then closes the Bank connection (spec.md §5).
func (a *Agent) Disconnect() error {
	a.mu.Lock()
	conns := make([]*houseConn, 0, len(a.conns))
	for _, hc := range a.conns {
		conns = append(conns, hc)
	}
	a.conns = make(map[int64]*houseConn)
	a.mu.Unlock()

	for _, hc := range conns {
		hc.Close()
	}

	if err := a.bank.Deregister(a.accountID, protocol.KindAgent); err != nil {
		log.Printf("agent: deregistering %d: %v", a.accountID, err)
	}
	return a.bank.Close()
}
