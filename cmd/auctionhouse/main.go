// Command auctionhouse runs one Auction House process: a client of the
// Bank for fund operations and a server for Agents (spec.md §2).
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kartnagrale/auction-core/auctionhouse"
	"github.com/kartnagrale/auction-core/bankclient"
	"github.com/kartnagrale/auction-core/config"
	"github.com/kartnagrale/auction-core/metrics"
	"github.com/kartnagrale/auction-core/netutil"
	"github.com/kartnagrale/auction-core/protocol"
)

func main() {
	cfg, err := config.LoadAuctionHouse()
	if err != nil {
		log.Fatalf("house: loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Bind the agent-facing listener before registering (spec.md §4.6:
	// "first binding their listening socket, then sending
	// RegisterAuctionHouse") ─────────────────────────────────────────────
	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Fatalf("house: binding %s: %v", cfg.ListenAddr, err)
	}

	bindHost, bindPortStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		log.Fatalf("house: parsing bound address: %v", err)
	}
	bindPort, err := strconv.Atoi(bindPortStr)
	if err != nil {
		log.Fatalf("house: parsing bound port: %v", err)
	}

	advertiseHost := cfg.AdvertiseHost
	if advertiseHost == "" {
		advertiseHost, err = netutil.AdvertiseAddress(bindHost)
		if err != nil {
			log.Fatalf("house: selecting advertise address: %v", err)
		}
	}

	bank, err := bankclient.Dial(cfg.BankAddr)
	if err != nil {
		log.Fatalf("house: dialing bank at %s: %v", cfg.BankAddr, err)
	}
	houseID, accountID, err := bank.RegisterAuctionHouse(advertiseHost, bindPort)
	if err != nil {
		log.Fatalf("house: registering with bank: %v", err)
	}
	log.Printf("house: registered as house %d (account %d), advertising %s:%d", houseID, accountID, advertiseHost, bindPort)

	// ── House + Agent-facing TCP server ─────────────────────────────────
	reg := prometheus.NewRegistry()
	h := auctionhouse.New(houseID, accountID, bank, metrics.NewHouse(reg), cfg.BidTimerSeconds)
	srv := auctionhouse.NewServer(h)
	if _, err := srv.ListenOn(ln); err != nil {
		log.Fatalf("house: serving on pre-bound listener: %v", err)
	}
	go func() {
		if err := srv.Serve(); err != nil {
			log.Printf("house: serve: %v", err)
		}
	}()

	// ── Operator HTTP surface ────────────────────────────────────────────
	adminSrv := &http.Server{Addr: cfg.AdminAddr, Handler: auctionhouse.AdminRouter(h, reg)}
	go func() {
		log.Printf("house: admin surface on %s", cfg.AdminAddr)
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("house: admin server: %v", err)
		}
	}()

	for {
		<-ctx.Done()
		stop()
		log.Println("house: shutting down")
		if err := h.ShutdownCheck(); err != nil {
			log.Printf("house: shutdown refused, active bidders remain: %v", err)
			ctx, stop = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			continue
		}
		if err := bank.Deregister(accountID, protocol.KindAuctionHouse); err != nil {
			log.Printf("house: deregistering from bank: %v", err)
		}
		break
	}
	_ = adminSrv.Close()
	_ = srv.Close()
	_ = bank.Close()
}
