package server

import (
	"net/http"

	"github.com/bobmcallan/tracket/internal/interfaces"
)

// --- Account group handlers ---

func (s *Server) handleGroupMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := s.app.LedgerService.GroupMappings(r.Context())
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"groups": mappings,
	})
}

func (s *Server) handleGroupCreate(w http.ResponseWriter, r *http.Request) {
	var req interfaces.GroupRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	group, err := s.app.LedgerService.CreateGroup(r.Context(), req)
	if err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, group)
}

// membershipParams reads the group and account ids from the path.
func membershipParams(w http.ResponseWriter, r *http.Request) (interfaces.GroupMembershipRequest, bool) {
	groupID, ok := idParam(w, r, "id")
	if !ok {
		return interfaces.GroupMembershipRequest{}, false
	}
	accountID, ok := idParam(w, r, "accountID")
	if !ok {
		return interfaces.GroupMembershipRequest{}, false
	}
	return interfaces.GroupMembershipRequest{GroupID: groupID, AccountID: accountID}, true
}

// handleGroupAccount serves PUT /api/groups/{id}/accounts/{accountID}.
func (s *Server) handleGroupAccount(w http.ResponseWriter, r *http.Request) {
	req, ok := membershipParams(w, r)
	if !ok {
		return
	}
	if err := s.app.LedgerService.GroupAccount(r.Context(), req); err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUngroupAccount(w http.ResponseWriter, r *http.Request) {
	req, ok := membershipParams(w, r)
	if !ok {
		return
	}
	if err := s.app.LedgerService.UngroupAccount(r.Context(), req); err != nil {
		WriteServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
