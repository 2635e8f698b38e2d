// Package bank implements the single in-memory authority for every
// account in the system (spec.md §4.1): agents and auction houses alike
// hold their funds here, and every block/unblock/transfer is atomic.
package bank

import (
	"sort"
	"sync"

	"github.com/kartnagrale/auction-core/money"
	"github.com/kartnagrale/auction-core/protocol"
)

// HouseRegistration is the Bank's record of one registered Auction House
// (spec.md §3's AuctionHouseRegistration).
type HouseRegistration struct {
	HouseID   int64
	Host      string
	Port      int
	AccountID int64
}

// Bank holds every account and every house registration. Registration
// operations (which mutate the account table and the house list
// together) take the Bank-wide mu for their duration; individual fund
// operations only need to reach the one (or two) Account(s) involved,
// which is why accounts are separately-locked monitors rather than being
// guarded by mu for their entire lifetime (spec.md §5).
type Bank struct {
	mu sync.RWMutex

	accounts       map[int64]*Account
	houses         map[int64]*HouseRegistration
	accountToHouse map[int64]int64 // accountId -> houseId, for atomic deregister-by-account

	nextAccountID int64
	nextHouseID   int64
}

func New() *Bank {
	return &Bank{
		accounts:       make(map[int64]*Account),
		houses:         make(map[int64]*HouseRegistration),
		accountToHouse: make(map[int64]int64),
		nextAccountID:  1000,
		nextHouseID:    1,
	}
}

// RegisterAgent assigns the next accountId, creates an AGENT account with
// the given initial balance, and returns it alongside a snapshot of the
// currently registered auction houses (spec.md §4.1).
func (b *Bank) RegisterAgent(name string, initial money.Amount) (accountID int64, houses []HouseRegistration, err error) {
	if name == "" {
		return 0, nil, protocol.Validation("name is required")
	}
	if err := money.RequirePositive(initial); err != nil {
		return 0, nil, protocol.Validation("initial balance must be positive")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextAccountID
	b.nextAccountID++
	b.accounts[id] = newAccount(id, name, protocol.KindAgent, initial)

	return id, b.listHousesLocked(), nil
}

// RegisterAuctionHouse assigns both a new houseId and a new AUCTION_HOUSE
// account (initial balance 0), and records the accountId -> houseId
// mapping (spec.md §4.1, §3).
func (b *Bank) RegisterAuctionHouse(host string, port int) (houseID, accountID int64, err error) {
	if host == "" {
		return 0, 0, protocol.Validation("host is required")
	}
	if port <= 0 {
		return 0, 0, protocol.Validation("port must be positive")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	accountID = b.nextAccountID
	b.nextAccountID++
	b.accounts[accountID] = newAccount(accountID, host, protocol.KindAuctionHouse, money.Zero)

	houseID = b.nextHouseID
	b.nextHouseID++
	b.houses[houseID] = &HouseRegistration{HouseID: houseID, Host: host, Port: port, AccountID: accountID}
	b.accountToHouse[accountID] = houseID

	return houseID, accountID, nil
}

func (b *Bank) lookup(accountID int64) (*Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	acc, ok := b.accounts[accountID]
	if !ok {
		return nil, protocol.NotFound("unknown account %d", accountID)
	}
	return acc, nil
}

// BlockFunds increases blocked by amount, failing the account is unknown
// or available < amount. Amounts must be positive (spec.md §4.1).
func (b *Bank) BlockFunds(accountID int64, amount money.Amount) error {
	if err := money.RequirePositive(amount); err != nil {
		return protocol.Validation("amount must be positive")
	}
	acc, err := b.lookup(accountID)
	if err != nil {
		return err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.block(amount)
}

// UnblockFunds decreases blocked by amount, clamped to zero. Never fails
// for a known account.
func (b *Bank) UnblockFunds(accountID int64, amount money.Amount) error {
	if err := money.RequirePositive(amount); err != nil {
		return protocol.Validation("amount must be positive")
	}
	acc, err := b.lookup(accountID)
	if err != nil {
		return err
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	acc.unblock(amount)
	return nil
}

// TransferFunds atomically requires blocked[from] >= amount; on success it
// decreases both blocked[from] and total[from] by amount and increases
// total[to] by amount. Only funds that have already been blocked are
// eligible for transfer (spec.md §4.1).
func (b *Bank) TransferFunds(fromID, toID int64, amount money.Amount) error {
	if err := money.RequirePositive(amount); err != nil {
		return protocol.Validation("amount must be positive")
	}
	if fromID == toID {
		return protocol.Validation("cannot transfer to the same account")
	}

	from, err := b.lookup(fromID)
	if err != nil {
		return err
	}
	to, err := b.lookup(toID)
	if err != nil {
		return err
	}

	// Lock both accounts in a fixed order (by id) to prevent deadlock
	// between two transfers that touch the same pair of accounts in
	// opposite directions.
	first, second := from, to
	if second.ID < first.ID {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if from.blocked.LessThan(amount) {
		return protocol.InsufficientFunds("insufficient blocked funds")
	}
	from.blocked = from.blocked.Sub(amount)
	from.total = from.total.Sub(amount)
	to.total = to.total.Add(amount)
	return nil
}

// GetAccountInfo returns a (total, available, blocked) snapshot.
func (b *Bank) GetAccountInfo(accountID int64) (Snapshot, error) {
	acc, err := b.lookup(accountID)
	if err != nil {
		return Snapshot{}, err
	}
	return acc.snapshot(), nil
}

// GetAuctionHouses returns the current house list, sorted by houseId for
// deterministic ordering.
func (b *Bank) GetAuctionHouses() []HouseRegistration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.listHousesLocked()
}

func (b *Bank) listHousesLocked() []HouseRegistration {
	out := make([]HouseRegistration, 0, len(b.houses))
	for _, h := range b.houses {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HouseID < out[j].HouseID })
	return out
}

// Deregister removes an account. If kind is AUCTION_HOUSE, the house
// listing is removed first via the accountId -> houseId reverse index so
// that invariant 5 (the house list is exactly the set of un-deregistered
// houses) holds atomically with the account's removal (spec.md §4.1, §3).
func (b *Bank) Deregister(accountID int64, kind protocol.AccountKind) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.accounts[accountID]; !ok {
		return protocol.NotFound("unknown account %d", accountID)
	}

	if kind == protocol.KindAuctionHouse {
		if houseID, ok := b.accountToHouse[accountID]; ok {
			delete(b.houses, houseID)
			delete(b.accountToHouse, accountID)
		}
	}
	delete(b.accounts, accountID)
	return nil
}
