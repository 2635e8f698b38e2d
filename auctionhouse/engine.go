// Package auctionhouse implements the per-item bidding state machine
// (spec.md §4.2), the session/broadcast layer (§4.3), and the operator
// control plane (§4.4) that together make up an Auction House process.
package auctionhouse

import (
	"sync"
	"time"

	"github.com/kartnagrale/auction-core/money"
	"github.com/kartnagrale/auction-core/protocol"
)

// defaultBidTimerDuration is the self-resetting auction timer length
// (spec.md §4.2) used when a House is built without an explicit override.
// cmd/auctionhouse wires config.AuctionHouse.BidTimerSeconds (env
// HOUSE_BID_TIMER) through House.New instead of relying on this default.
const defaultBidTimerDuration = 30 * time.Second

// settlementTimeoutMargin is added to the bid timer length to derive how
// long an item may sit in PENDING_SETTLEMENT waiting for ConfirmWinner
// (spec.md §9 Open Question 1). The settlement timeout must exceed the bid
// timer; see SPEC_FULL.md "Supplemented features" #1 for why an expired
// settlement withdraws the item instead of reopening it to the runner-up.
const settlementTimeoutMargin = 15 * time.Second

type engineState int

const (
	stateOpen engineState = iota
	statePendingSettlement
)

// BankFacade is the subset of bankclient.Client the item engine needs.
// A narrow interface rather than a concrete type keeps the engine
// testable against a stub bank (spec.md §9 "Cycles in ownership").
type BankFacade interface {
	BlockFunds(accountID int64, amount money.Amount) error
	UnblockFunds(accountID int64, amount money.Amount) error
}

// HouseCallback is the narrow handle an engine uses to reach back into
// its owning House, instead of holding a full *House pointer. This is
// the spec.md §9 "Cycles in ownership" fix: the House owns a map of
// engines, and each engine holds only houseId + this callback, so there
// is no retain cycle and an engine can be unit-tested with a stub.
type HouseCallback interface {
	PushNotification(accountID int64, n protocol.BidStatusNotification)
	Broadcast(n protocol.BidStatusNotification)
	ItemWithdrawn(itemID int64)
	ItemSettled(itemID int64)
}

// ItemEngine owns one AuctionItem, its ItemBidLedger, and its bidding
// timer. All mutating operations are serialized through mu (spec.md §5:
// "one engine instance; all operations on it are serialized").
type ItemEngine struct {
	mu sync.Mutex

	houseID        int64
	houseAccountID int64
	itemID         int64
	description    string
	minimumBid     money.Amount

	currentBid    money.Amount
	currentBidder int64 // -1 means none
	auctionEnd    time.Time

	ledger map[int64]money.Amount
	state  engineState
	timer  *time.Timer

	bidTimer          time.Duration
	settlementTimeout time.Duration

	bank BankFacade
	cb   HouseCallback
}

// newItemEngine builds an engine whose self-resetting bid timer lasts
// bidTimer (0 falls back to defaultBidTimerDuration, e.g. for callers that
// don't care about timing, like most engine_test.go cases).
func newItemEngine(houseID, houseAccountID, itemID int64, description string, minimumBid money.Amount, bank BankFacade, cb HouseCallback, bidTimer time.Duration) *ItemEngine {
	if bidTimer <= 0 {
		bidTimer = defaultBidTimerDuration
	}
	return &ItemEngine{
		houseID:           houseID,
		houseAccountID:    houseAccountID,
		itemID:            itemID,
		description:       description,
		minimumBid:        minimumBid,
		currentBid:        money.Zero,
		currentBidder:     -1,
		ledger:            make(map[int64]money.Amount),
		state:             stateOpen,
		bank:              bank,
		cb:                cb,
		bidTimer:          bidTimer,
		settlementTimeout: bidTimer + settlementTimeoutMargin,
	}
}

// View returns the item's public fields for display (spec.md §6).
func (e *ItemEngine) View() protocol.ItemView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

func (e *ItemEngine) viewLocked() protocol.ItemView {
	var endMillis int64
	if !e.auctionEnd.IsZero() {
		endMillis = e.auctionEnd.UnixMilli()
	}
	return protocol.ItemView{
		HouseID:              e.houseID,
		ItemID:               e.itemID,
		Description:          e.description,
		MinimumBid:           e.minimumBid,
		CurrentBid:           e.currentBid,
		CurrentBidder:        e.currentBidder,
		AuctionEndTimeMillis: endMillis,
	}
}

// HasBidder reports whether the item currently has an accepted bid
// (equivalently: whether an active timer exists for it), used by
// RemoveItem and Shutdown (spec.md §4.4).
func (e *ItemEngine) HasBidder() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentBidder != -1
}

// PlaceBid runs the bid acceptance algorithm of spec.md §4.2 steps 1-7.
func (e *ItemEngine) PlaceBid(bidder int64, amount money.Amount) protocol.PlaceBidResponse {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Step 1: validate.
	if !amount.IsPositive() {
		return e.rejected(amount, "Bid must be positive")
	}
	if amount.LessThan(e.minimumBid) {
		return e.rejected(amount, "Bid below minimum")
	}
	if !amount.GreaterThan(e.currentBid) {
		return e.rejected(amount, "Bid too low")
	}

	// Step 2: self-rebid handling. Remember the old hold in case the new,
	// larger block fails and we need to restore it (Open Question 3,
	// policy (a): re-block the old amount and keep the bidder as top).
	var selfOldAmount money.Amount
	hadSelfHold := false
	if old, ok := e.ledger[bidder]; ok {
		hadSelfHold = true
		selfOldAmount = old
		if err := e.bank.UnblockFunds(bidder, old); err != nil {
			// Never fails for a known account per spec.md §4.1; if it
			// somehow does, the ledger entry is left standing so the
			// bidder isn't silently shortchanged.
		} else {
			delete(e.ledger, bidder)
		}
	}

	// Step 3: block the new amount.
	if err := e.bank.BlockFunds(bidder, amount); err != nil {
		if hadSelfHold {
			// Restore the bidder's previous hold so they remain the
			// current top bidder at their old amount instead of being
			// silently dropped to zero blocked funds.
			_ = e.bank.BlockFunds(bidder, selfOldAmount)
			e.ledger[bidder] = selfOldAmount
		}
		return e.rejected(amount, "Insufficient funds")
	}

	// Step 4: remember the previous top bidder, then mutate.
	previousBidder := e.currentBidder
	e.currentBid = amount
	e.currentBidder = bidder
	e.ledger[bidder] = amount

	// Step 5: refund and notify the previous top bidder, if distinct.
	if previousBidder != -1 && previousBidder != bidder {
		if held, ok := e.ledger[previousBidder]; ok {
			if err := e.bank.UnblockFunds(previousBidder, held); err == nil {
				delete(e.ledger, previousBidder)
			}
			// If the unblock fails, the ledger entry remains and
			// releaseLoserFunds (run at ConfirmWinner) is the
			// compensating action, per spec.md §4.2.
		}
		e.cb.PushNotification(previousBidder, protocol.BidStatusNotification{
			ItemID:          e.itemID,
			Status:          protocol.StatusOutbid,
			Message:         "You have been outbid",
			FinalPrice:      amount,
			HouseAccountID:  e.houseAccountID,
			ItemDescription: e.description,
		})
	}

	// Step 6: reset the timer.
	e.resetTimerLocked()

	// Step 7: accept.
	return protocol.PlaceBidResponse{Success: true, Status: string(protocol.StatusAccepted), Message: "Bid accepted", Amount: amount}
}

func (e *ItemEngine) rejected(amount money.Amount, reason string) protocol.PlaceBidResponse {
	return protocol.PlaceBidResponse{Success: false, Status: string(protocol.StatusRejected), Message: reason, Amount: amount}
}

// resetTimerLocked cancels any outstanding expiry task and schedules a
// new one e.bidTimer in the future. Caller must hold e.mu.
func (e *ItemEngine) resetTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.auctionEnd = time.Now().Add(e.bidTimer)
	e.timer = time.AfterFunc(e.bidTimer, e.onExpiry)
}

// onExpiry runs on a dedicated per-item timer goroutine. It acquires the
// same mu that PlaceBid uses, so a bid in flight cannot race the timer
// fire (spec.md §5).
func (e *ItemEngine) onExpiry() {
	e.mu.Lock()
	if e.currentBidder == -1 || e.state != stateOpen {
		// No bidder (invariant 3: no timer should exist) or already
		// mid/post-settlement: stale fire, no-op.
		e.mu.Unlock()
		return
	}
	e.state = statePendingSettlement
	winner := e.currentBidder
	price := e.currentBid
	desc := e.description
	houseAccountID := e.houseAccountID
	e.timer = time.AfterFunc(e.settlementTimeout, e.onSettlementTimeout)
	e.mu.Unlock()

	e.cb.PushNotification(winner, protocol.BidStatusNotification{
		ItemID:          e.itemID,
		Status:          protocol.StatusWinner,
		Message:         "You won the auction",
		FinalPrice:      price,
		HouseAccountID:  houseAccountID,
		ItemDescription: desc,
	})
}

// onSettlementTimeout fires if ConfirmWinner never arrives within
// settlementTimeout of the WINNER notification (SPEC_FULL.md
// "Supplemented features" #1). The winner's hold is released and the
// item is withdrawn from the catalog.
func (e *ItemEngine) onSettlementTimeout() {
	e.mu.Lock()
	if e.state != statePendingSettlement {
		e.mu.Unlock()
		return
	}
	winner := e.currentBidder
	held, ok := e.ledger[winner]
	if ok {
		delete(e.ledger, winner)
	}
	e.mu.Unlock()

	if ok {
		_ = e.bank.UnblockFunds(winner, held)
	}
	e.cb.ItemWithdrawn(e.itemID)
}

// ConfirmWinner runs spec.md §4.2's winner confirmation steps 1-5.
func (e *ItemEngine) ConfirmWinner(bidder int64) protocol.SuccessResponse {
	e.mu.Lock()

	if e.state != statePendingSettlement {
		e.mu.Unlock()
		return protocol.SuccessResponse{Success: false, Message: "Item is not awaiting settlement"}
	}
	if bidder != e.currentBidder {
		e.mu.Unlock()
		return protocol.SuccessResponse{Success: false, Message: "You are not the winning bidder"}
	}
	if e.timer != nil {
		e.timer.Stop()
	}

	winner := e.currentBidder
	price := e.currentBid
	houseAccountID := e.houseAccountID
	itemID := e.itemID
	desc := e.description

	// releaseLoserFunds: under correct operation this has zero
	// iterations (invariant 2); it is the compensating action for any
	// step-5 unblock failures during PlaceBid.
	stragglers := make(map[int64]money.Amount, len(e.ledger))
	for acc, amt := range e.ledger {
		if acc != winner {
			stragglers[acc] = amt
		}
	}
	for acc := range stragglers {
		delete(e.ledger, acc)
	}
	delete(e.ledger, winner)
	e.mu.Unlock()

	for acc, amt := range stragglers {
		_ = e.bank.UnblockFunds(acc, amt)
	}

	e.cb.Broadcast(protocol.BidStatusNotification{
		ItemID:          itemID,
		Status:          protocol.StatusItemSold,
		Message:         "Item sold",
		FinalPrice:      price,
		HouseAccountID:  houseAccountID,
		ItemDescription: desc,
	})
	e.cb.ItemSettled(itemID)

	return protocol.SuccessResponse{Success: true, Message: "Settlement confirmed"}
}
