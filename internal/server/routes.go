package server

import (
	"net/http"
	"time"

	"github.com/bobmcallan/tracket/internal/common"
	"github.com/go-chi/chi/v5"
)

// registerRoutes sets up all REST API routes on the router.
func (s *Server) registerRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		// System
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Post("/shutdown", s.handleShutdown)

		// Accounts
		r.Get("/accounts", s.handleAccountList)
		r.Post("/accounts", s.handleAccountCreate)
		r.Route("/accounts/{id}", func(r chi.Router) {
			r.Get("/", s.handleAccountGet)
			r.Put("/", s.handleAccountUpdate)
			r.Delete("/", s.handleAccountDelete)
			r.Get("/activity", s.handleAccountActivity)
			r.Get("/positions", s.handleAccountPositions)
			r.Get("/valuation", s.handleAccountValuation)
			r.Get("/summary", s.handleAccountSummary)
		})

		// Money movements and trades
		r.Post("/transactions", s.handleTransact)
		r.Post("/trades", s.handleTradeRecord)

		// Instruments and prices
		r.Get("/instruments", s.handleInstrumentList)
		r.Post("/instruments", s.handleInstrumentCreate)
		r.Route("/instruments/{name}", func(r chi.Router) {
			r.Get("/", s.handleInstrumentGet)
			r.Put("/", s.handleInstrumentUpdate)
			r.Delete("/", s.handleInstrumentDelete)
			r.Get("/price", s.handleLatestPrice)
			r.Post("/prices", s.handlePriceRecord)
		})

		// Account groups
		r.Get("/groups", s.handleGroupMappings)
		r.Post("/groups", s.handleGroupCreate)
		r.Put("/groups/{id}/accounts/{accountID}", s.handleGroupAccount)
		r.Delete("/groups/{id}/accounts/{accountID}", s.handleUngroupAccount)

		// Portfolio-wide
		r.Get("/valuations", s.handleValuateAll)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": s.app.Storage.Backend(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}
