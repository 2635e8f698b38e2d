package auctionhouse

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kartnagrale/auction-core/money"
)

// AdminRouter builds the Auction House's operator HTTP surface (spec.md
// §4.4, §6 "Operator surface"): item catalog management, /health,
// /metrics, and the spectator websocket, all entirely separate from the
// tagged-frame wire protocol served by Server.
func AdminRouter(h *House, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Get("/items", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.Snapshot())
	})

	r.Post("/items", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Description string       `json:"description"`
			MinimumBid  money.Amount `json:"minimum_bid"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		id, err := h.AddItem(body.Description, body.MinimumBid)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"item_id": id})
	})

	r.Delete("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid item id", http.StatusBadRequest)
			return
		}
		if err := h.RemoveItem(id); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	})

	r.Post("/shutdown", func(w http.ResponseWriter, r *http.Request) {
		if err := h.ShutdownCheck(); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "clear to shut down"})
	})

	if hub := h.Spectators(); hub != nil {
		r.Get("/spectate", hub.ServeHTTP)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
