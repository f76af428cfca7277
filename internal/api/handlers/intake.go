package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hugh/hostel-hunter/internal/api/middleware"
	"github.com/hugh/hostel-hunter/internal/intake"
)

type IntakeHandler struct {
	intake *intake.Service
	log    *slog.Logger
}

func NewIntakeHandler(s *intake.Service, log *slog.Logger) *IntakeHandler {
	return &IntakeHandler{intake: s, log: log}
}

func (h *IntakeHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req intake.ContactInput
	if !decodeJSON(w, r, &req) {
		return
	}

	inq, err := h.intake.SubmitContact(r.Context(), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, inq)
}

// PropertyListing accepts anonymous submissions; a signed-in caller
// becomes the listing's owner.
func (h *IntakeHandler) PropertyListing(w http.ResponseWriter, r *http.Request) {
	var req intake.PropertyListingInput
	if !decodeJSON(w, r, &req) {
		return
	}

	listing, err := h.intake.SubmitPropertyListing(r.Context(), middleware.OptionalUserID(r.Context()), req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}
