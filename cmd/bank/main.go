// Command bank runs the Bank process: the single in-memory authority for
// every account in the system (spec.md §4.1).
package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kartnagrale/auction-core/bank"
	"github.com/kartnagrale/auction-core/config"
	"github.com/kartnagrale/auction-core/metrics"
)

func main() {
	cfg, err := config.LoadBank()
	if err != nil {
		log.Fatalf("bank: loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Bank + TCP server ───────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	b := bank.New()
	srv := bank.NewServer(b, metrics.NewBank(reg))

	addr, err := srv.Listen(cfg.ListenAddr)
	if err != nil {
		log.Fatalf("bank: listening on %s: %v", cfg.ListenAddr, err)
	}
	log.Printf("bank: serving RPC on %s", addr)
	go func() {
		if err := srv.Serve(); err != nil {
			log.Printf("bank: serve: %v", err)
		}
	}()

	// ── Operator HTTP surface ───────────────────────────────────────────
	adminSrv := &http.Server{Addr: cfg.AdminAddr, Handler: bank.AdminRouter(b, reg)}
	go func() {
		log.Printf("bank: admin surface on %s", cfg.AdminAddr)
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("bank: admin server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("bank: shutting down")
	_ = adminSrv.Close()
	_ = srv.Close()
}
