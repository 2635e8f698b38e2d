package auctionhouse

import (
	"sync"
	"sync/atomic"

	"github.com/kartnagrale/auction-core/protocol"
)

// Session is the House-side handle for one connected agent (spec.md
// §4.3), keyed by the agent's accountId and established lazily when the
// first PlaceBid arrives on a connection. conn already serializes its
// own writes, so concurrent PushNotification/Broadcast calls and the
// connection's own reply writes never interleave mid-frame.
type Session struct {
	accountID int64
	conn      *protocol.Conn
	dead      atomic.Bool
}

// sessionRegistry holds every connected agent session, keyed by account
// id. remove compares the *Session itself, so a dropped connection
// removes exactly its own session even if that account has since been
// registered again with a newer one.
type sessionRegistry struct {
	mu       sync.RWMutex
	byAccount map[int64]*Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{byAccount: make(map[int64]*Session)}
}

func (r *sessionRegistry) register(accountID int64, conn *protocol.Conn) *Session {
	s := &Session{accountID: accountID, conn: conn}
	r.mu.Lock()
	r.byAccount[accountID] = s
	r.mu.Unlock()
	return s
}

// remove deletes the session for accountID only if it is still the same
// *Session instance (guards against removing a newer session after a
// reconnect).
func (r *sessionRegistry) remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byAccount[s.accountID]; ok && cur == s {
		delete(r.byAccount, s.accountID)
	}
}

func (r *sessionRegistry) get(accountID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byAccount[accountID]
	return s, ok
}

func (r *sessionRegistry) all() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.byAccount))
	for _, s := range r.byAccount {
		out = append(out, s)
	}
	return out
}

func (r *sessionRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAccount)
}

// push sends a notification to one session's connection. A send failure
// marks the session dead; it is pruned on the next broadcast rather than
// immediately, per spec.md §4.3.
func (s *Session) push(n protocol.BidStatusNotification) {
	if err := s.conn.Send(protocol.TagBidStatusNotification, n); err != nil {
		s.dead.Store(true)
	}
}
