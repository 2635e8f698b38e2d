// Command agent is a minimal scripted bidder: it registers with the
// Bank, connects to every currently known Auction House, and bids the
// minimum increment on every item it sees once. It exists to exercise
// the Agent package end-to-end (spec.md §4.5); a real bidding strategy
// is out of scope (spec.md §1).
package main

import (
	"log"
	"time"

	"github.com/kartnagrale/auction-core/agent"
	"github.com/kartnagrale/auction-core/config"
	"github.com/kartnagrale/auction-core/money"
)

func main() {
	cfg, err := config.LoadAgent()
	if err != nil {
		log.Fatalf("agent: loading config: %v", err)
	}

	a, err := agent.Register(cfg.BankAddr, cfg.Name, money.New(cfg.InitialBalance))
	if err != nil {
		log.Fatalf("agent: registering: %v", err)
	}
	log.Printf("agent: registered as account %d", a.AccountID())

	if err := a.ConnectKnownHouses(); err != nil {
		log.Printf("agent: connecting to known houses: %v", err)
	}

	for _, houseID := range a.KnownHouseIDs() {
		items, err := a.GetItems(houseID)
		if err != nil {
			log.Printf("agent: house %d: listing items: %v", houseID, err)
			continue
		}
		for _, item := range items {
			bid := item.CurrentBid
			if !bid.IsPositive() {
				bid = item.MinimumBid
			} else {
				bid = bid.Add(money.New(1))
			}
			resp, err := a.PlaceBid(houseID, item.ItemID, bid, item.MinimumBid, item.CurrentBid)
			if err != nil {
				log.Printf("agent: house %d item %d: %v", houseID, item.ItemID, err)
				continue
			}
			log.Printf("agent: house %d item %d: %s (%s)", houseID, item.ItemID, resp.Status, resp.Message)
		}
	}

	// Give the listener goroutines a chance to observe any WINNER
	// notification and complete settlement before the process exits.
	time.Sleep(35 * time.Second)

	if err := a.Disconnect(); err != nil {
		log.Printf("agent: disconnecting: %v", err)
	}
}
