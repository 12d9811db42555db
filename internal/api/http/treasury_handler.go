package http

import (
	"net/http"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/service"
)

type TreasuryHandler struct {
	treasury service.TreasuryService
}

func NewTreasuryHandler(treasury service.TreasuryService) *TreasuryHandler {
	return &TreasuryHandler{treasury: treasury}
}

// Get returns the treasury projection. Admin only.
func (h *TreasuryHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	if !principal.IsAdmin() {
		writeErrorMessage(w, http.StatusForbidden, "permission denied")
		return
	}

	treasury, err := h.treasury.GetTreasury(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, treasury)
}

type treasuryEntriesResponse struct {
	Entries []domain.TreasuryEntry `json:"entries"`
	Total   int32                  `json:"total"`
}

func (h *TreasuryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	if !principal.IsAdmin() {
		writeErrorMessage(w, http.StatusForbidden, "permission denied")
		return
	}

	page := queryInt32(r, "page", 1)
	pageSize := queryInt32(r, "page_size", 20)

	entries, total, err := h.treasury.ListEntries(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, treasuryEntriesResponse{Entries: entries, Total: total})
}
