package server

import (
	"net/http"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/go-chi/chi/v5"
)

// --- Trade handlers ---

func (s *Server) handleTradeRecord(w http.ResponseWriter, r *http.Request) {
	var req interfaces.TradeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	trade, err := s.app.TradeService.RecordTrade(r.Context(), req)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, trade)
}

// --- Instrument handlers ---

func (s *Server) handleInstrumentList(w http.ResponseWriter, r *http.Request) {
	instruments, err := s.app.TradeService.ListInstruments(r.Context())
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"instruments": instruments,
	})
}

func (s *Server) handleInstrumentCreate(w http.ResponseWriter, r *http.Request) {
	var req interfaces.InstrumentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	inst, err := s.app.TradeService.CreateInstrument(r.Context(), req)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, inst)
}

func (s *Server) handleInstrumentGet(w http.ResponseWriter, r *http.Request) {
	inst, err := s.app.TradeService.GetInstrument(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, inst)
}

func (s *Server) handleInstrumentUpdate(w http.ResponseWriter, r *http.Request) {
	var req interfaces.InstrumentRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	inst, err := s.app.TradeService.UpdateInstrument(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, inst)
}

func (s *Server) handleInstrumentDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.app.TradeService.DeleteInstrument(r.Context(), chi.URLParam(r, "name")); err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Price handlers ---

func (s *Server) handlePriceRecord(w http.ResponseWriter, r *http.Request) {
	var req interfaces.PriceRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	point, err := s.app.TradeService.RecordPrice(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, point)
}

// handleLatestPrice serves the cached latest price; 404 when none is known.
func (s *Server) handleLatestPrice(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	point, err := s.app.Prices.LatestPrice(r.Context(), name)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	if point == nil {
		WriteErrorWithCode(w, http.StatusNotFound, "no price recorded for "+name, "PRICE_NOT_FOUND")
		return
	}
	WriteJSON(w, http.StatusOK, point)
}
