// Package config holds the per-process, environment-driven configuration
// structs for the Bank, Auction House, and Agent binaries (SPEC_FULL.md
// "AMBIENT STACK"). Each struct is populated with
// github.com/caarlos0/env/v11, the same struct-tag-driven idiom the
// teacher's raw os.Getenv calls were already gesturing at.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Bank configures the Bank process.
type Bank struct {
	ListenAddr  string `env:"BANK_LISTEN_ADDR" envDefault:":9000"`
	AdminAddr   string `env:"BANK_ADMIN_ADDR" envDefault:":9001"`
}

func LoadBank() (Bank, error) {
	var c Bank
	if err := env.Parse(&c); err != nil {
		return Bank{}, err
	}
	return c, nil
}

// AuctionHouse configures one Auction House process.
type AuctionHouse struct {
	ListenAddr      string        `env:"HOUSE_LISTEN_ADDR" envDefault:":0"`
	AdminAddr       string        `env:"HOUSE_ADMIN_ADDR" envDefault:":0"`
	AdvertiseHost   string        `env:"HOUSE_ADVERTISE_HOST"` // empty: auto-select, see netutil.AdvertiseAddress
	BankAddr        string        `env:"BANK_ADDR" envDefault:"localhost:9000"`
	BidTimerSeconds time.Duration `env:"HOUSE_BID_TIMER" envDefault:"30s"`
}

func LoadAuctionHouse() (AuctionHouse, error) {
	var c AuctionHouse
	if err := env.Parse(&c); err != nil {
		return AuctionHouse{}, err
	}
	return c, nil
}

// Agent configures the scripted Agent driver.
type Agent struct {
	Name           string  `env:"AGENT_NAME" envDefault:"agent"`
	InitialBalance float64 `env:"AGENT_INITIAL_BALANCE" envDefault:"1000"`
	BankAddr       string  `env:"BANK_ADDR" envDefault:"localhost:9000"`
}

func LoadAgent() (Agent, error) {
	var c Agent
	if err := env.Parse(&c); err != nil {
		return Agent{}, err
	}
	return c, nil
}
