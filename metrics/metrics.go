// Package metrics centralizes the Prometheus collectors shared by the
// Bank and every Auction House process. Each process registers its own
// Registry so /metrics never mixes Bank and House series together.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Bank implements bank.Metrics.
type Bank struct {
	fundsBlocked       prometheus.Counter
	fundsUnblocked     prometheus.Counter
	fundsTransferred   prometheus.Counter
	accountsRegistered prometheus.Counter
}

func NewBank(reg prometheus.Registerer) *Bank {
	m := &Bank{
		fundsBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bank_funds_blocked_total", Help: "Number of successful BlockFunds calls.",
		}),
		fundsUnblocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bank_funds_unblocked_total", Help: "Number of successful UnblockFunds calls.",
		}),
		fundsTransferred: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bank_funds_transferred_total", Help: "Number of successful TransferFunds calls.",
		}),
		accountsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bank_accounts_registered_total", Help: "Number of accounts registered (agents + houses).",
		}),
	}
	reg.MustRegister(m.fundsBlocked, m.fundsUnblocked, m.fundsTransferred, m.accountsRegistered)
	return m
}

func (m *Bank) FundsBlocked()       { m.fundsBlocked.Inc() }
func (m *Bank) FundsUnblocked()     { m.fundsUnblocked.Inc() }
func (m *Bank) FundsTransferred()   { m.fundsTransferred.Inc() }
func (m *Bank) AccountRegistered()  { m.accountsRegistered.Inc() }

// House implements auctionhouse.Metrics.
type House struct {
	bidsAccepted   prometheus.Counter
	bidsRejected   prometheus.Counter
	itemsSettled   prometheus.Counter
	openItems      prometheus.Gauge
	activeSessions prometheus.Gauge
}

func NewHouse(reg prometheus.Registerer) *House {
	m := &House{
		bidsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "house_bids_accepted_total", Help: "Number of bids accepted.",
		}),
		bidsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "house_bids_rejected_total", Help: "Number of bids rejected.",
		}),
		itemsSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "house_items_settled_total", Help: "Number of items that completed settlement.",
		}),
		openItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "house_open_items", Help: "Number of items currently in the catalog.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "house_active_sessions", Help: "Number of connected agent sessions.",
		}),
	}
	reg.MustRegister(m.bidsAccepted, m.bidsRejected, m.itemsSettled, m.openItems, m.activeSessions)
	return m
}

func (m *House) BidAccepted()        { m.bidsAccepted.Inc() }
func (m *House) BidRejected()        { m.bidsRejected.Inc() }
func (m *House) ItemSettled()        { m.itemsSettled.Inc() }
func (m *House) SetOpenItems(n int)  { m.openItems.Set(float64(n)) }
func (m *House) SetSessions(n int)   { m.activeSessions.Set(float64(n)) }
