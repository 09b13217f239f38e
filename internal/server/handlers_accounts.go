package server

import (
	"net/http"

	"github.com/bobmcallan/tracket/internal/interfaces"
	"github.com/bobmcallan/tracket/internal/money"
)

// --- Account handlers ---

func (s *Server) handleAccountList(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.app.LedgerService.ListAccounts(r.Context())
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
	})
}

func (s *Server) handleAccountCreate(w http.ResponseWriter, r *http.Request) {
	var req interfaces.CreateAccountRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	account, err := s.app.LedgerService.CreateAccount(r.Context(), req)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, account)
}

func (s *Server) handleAccountGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	account, err := s.app.LedgerService.GetAccount(r.Context(), id)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, account)
}

func (s *Server) handleAccountUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req interfaces.UpdateAccountRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	account, err := s.app.LedgerService.UpdateAccount(r.Context(), id, req)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, account)
}

func (s *Server) handleAccountDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.app.LedgerService.DeleteAccount(r.Context(), id); err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAccountActivity serves GET /api/accounts/{id}/activity?ledger_page=N&trade_page=M.
func (s *Server) handleAccountActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	ledgerPage, ok := pageParam(w, r, "ledger_page")
	if !ok {
		return
	}
	tradePage, ok := pageParam(w, r, "trade_page")
	if !ok {
		return
	}
	activity, err := s.app.LedgerService.Activity(r.Context(), id, ledgerPage, tradePage)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, activity)
}

// --- Money movement ---

func (s *Server) handleTransact(w http.ResponseWriter, r *http.Request) {
	var req interfaces.TransactionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	entry, err := s.app.LedgerService.Transact(r.Context(), req)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, entry)
}

// --- Positions and valuation ---

func (s *Server) handleAccountPositions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	positions, err := s.app.PositionService.Positions(r.Context(), id)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"account_id": id,
		"positions":  positions,
	})
}

func (s *Server) handleAccountValuation(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	valuation, err := s.app.PositionService.Valuate(r.Context(), id)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, valuation)
}

// handleAccountSummary returns the account totals without per-position detail.
func (s *Server) handleAccountSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()

	assetValue, err := s.app.PositionService.TotalAssetValue(ctx, id)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	costBasis, err := s.app.PositionService.CostBasis(ctx, id)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, struct {
		AccountID  int64       `json:"account_id"`
		AssetValue money.Money `json:"asset_value"`
		CostBasis  money.Money `json:"cost_basis"`
		ProfitLoss money.Money `json:"profit_loss"`
	}{id, assetValue, costBasis, assetValue.Sub(costBasis)})
}

func (s *Server) handleValuateAll(w http.ResponseWriter, r *http.Request) {
	valuations, err := s.app.PositionService.ValuateAll(r.Context())
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	total := money.Zero
	for _, v := range valuations {
		total = total.Add(v.AssetValue)
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"valuations":  valuations,
		"asset_value": total,
	})
}
