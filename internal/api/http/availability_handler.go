package http

import (
	"net/http"

	"rentwheels-backend/internal/domain"
	"rentwheels-backend/internal/service"
)

type AvailabilityHandler struct {
	availability service.AvailabilityService
}

func NewAvailabilityHandler(availability service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

// Check answers whether a sub-category has any conflicting reservation in the
// requested range.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	subCategoryID := queryInt32(r, "sub_category_id", 0)
	if subCategoryID == 0 {
		writeErrorMessage(w, http.StatusBadRequest, "sub_category_id is required")
		return
	}
	dateFrom, err := parseDate(r.URL.Query().Get("date_from"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "date_from must be YYYY-MM-DD")
		return
	}
	dateTo, err := parseDate(r.URL.Query().Get("date_to"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "date_to must be YYYY-MM-DD")
		return
	}

	conflict, err := h.availability.HasConflict(r.Context(), subCategoryID, dateFrom, dateTo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{Available: !conflict})
}

type calendarResponse struct {
	Days []domain.DayCount `json:"days"`
}

func (h *AvailabilityHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	subCategoryID := queryInt32(r, "sub_category_id", 0)
	if subCategoryID == 0 {
		writeErrorMessage(w, http.StatusBadRequest, "sub_category_id is required")
		return
	}
	dateFrom, err := parseDate(r.URL.Query().Get("date_from"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "date_from must be YYYY-MM-DD")
		return
	}
	dateTo, err := parseDate(r.URL.Query().Get("date_to"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "date_to must be YYYY-MM-DD")
		return
	}

	days, err := h.availability.Calendar(r.Context(), subCategoryID, dateFrom, dateTo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, calendarResponse{Days: days})
}
