package bank

import (
	"sync"

	"github.com/kartnagrale/auction-core/money"
	"github.com/kartnagrale/auction-core/protocol"
)

// Account is the Bank's owned record for one agent or auction house
// (spec.md §3). Each account is, conceptually, its own monitor: every
// individual fund operation locks exactly this account's mutex (or, for
// TransferFunds, both accounts' mutexes in a fixed order) so that
// concurrent BlockFunds/UnblockFunds/TransferFunds calls on the same
// account never observe a torn (total, blocked) pair.
type Account struct {
	mu sync.Mutex

	ID          int64
	DisplayName string
	Kind        protocol.AccountKind

	total   money.Amount
	blocked money.Amount
}

// Snapshot is the (total, available, blocked) triple returned by
// GetAccountInfo. available is always total - blocked.
type Snapshot struct {
	Total     money.Amount
	Available money.Amount
	Blocked   money.Amount
}

func newAccount(id int64, name string, kind protocol.AccountKind, initial money.Amount) *Account {
	return &Account{
		ID:          id,
		DisplayName: name,
		Kind:        kind,
		total:       initial,
		blocked:     money.Zero,
	}
}

func (a *Account) snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		Total:     a.total,
		Available: a.total.Sub(a.blocked),
		Blocked:   a.blocked,
	}
}

func (a *Account) available() money.Amount {
	return a.total.Sub(a.blocked)
}

// block increases blocked by amount, failing if it would make available
// negative. Caller must already hold a.mu.
func (a *Account) block(amount money.Amount) error {
	if a.available().LessThan(amount) {
		return protocol.InsufficientFunds("insufficient funds")
	}
	a.blocked = a.blocked.Add(amount)
	return nil
}

// unblock decreases blocked by amount, clamped to zero. Never fails.
// Caller must already hold a.mu.
func (a *Account) unblock(amount money.Amount) {
	a.blocked = a.blocked.Sub(amount)
	if a.blocked.IsNegative() {
		a.blocked = money.Zero
	}
}
