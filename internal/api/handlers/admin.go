package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/hostel-hunter/internal/api/dto"
	"github.com/hugh/hostel-hunter/internal/catalog"
	"github.com/hugh/hostel-hunter/internal/intake"
	"github.com/hugh/hostel-hunter/internal/tokens"
)

// AdminHandler serves the staff-only catalog and intake endpoints.
type AdminHandler struct {
	catalog     *catalog.Service
	invitations *tokens.Invitations
	intake      *intake.Service
	log         *slog.Logger
}

func NewAdminHandler(c *catalog.Service, inv *tokens.Invitations, in *intake.Service, log *slog.Logger) *AdminHandler {
	return &AdminHandler{catalog: c, invitations: inv, intake: in, log: log}
}

func (h *AdminHandler) CreateHostel(w http.ResponseWriter, r *http.Request) {
	var req dto.HostelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hostel, err := h.catalog.CreateHostel(r.Context(), req.ToInput())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, hostel)
}

func (h *AdminHandler) UpdateHostel(w http.ResponseWriter, r *http.Request) {
	var req dto.HostelPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hostel, err := h.catalog.UpdateHostel(r.Context(), chi.URLParam(r, "slug"), req.ToUpdate())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, hostel)
}

func (h *AdminHandler) DeleteHostel(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteHostel(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateInvitation answers 201 even when the email failed; the warning
// tells staff to pass the link on themselves.
func (h *AdminHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req dto.InvitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.HostelSlug == "" {
		badRequest(w, "Validation failed", map[string]string{"hostel": "Choose a hostel"})
		return
	}

	hostelID, err := h.hostelID(r.Context(), req.HostelSlug)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	result, err := h.invitations.Create(r.Context(), tokens.CreateInvitationInput{
		HostelID: hostelID,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.InvitationResponse{Invitation: result.Invitation, Warning: result.Warning})
}

func (h *AdminHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	hostelID, ok := h.hostelFilter(w, r)
	if !ok {
		return
	}
	p := pagination(r)

	invs, total, err := h.invitations.List(r.Context(), hostelID, p.Offset(), p.PerPage)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPaginatedResponse(invs, total, p))
}

func (h *AdminHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	p := pagination(r)
	page, err := h.intake.ListContacts(r.Context(), p.Page, p.PerPage)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.intake.DeleteContact)
}

func (h *AdminHandler) ListHostelInquiries(w http.ResponseWriter, r *http.Request) {
	hostelID, ok := h.hostelFilter(w, r)
	if !ok {
		return
	}
	p := pagination(r)

	page, err := h.intake.ListHostelInquiries(r.Context(), hostelID, p.Page, p.PerPage)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) DeleteHostelInquiry(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.intake.DeleteHostelInquiry)
}

func (h *AdminHandler) ListPropertyListings(w http.ResponseWriter, r *http.Request) {
	p := pagination(r)
	page, err := h.intake.ListPropertyListings(r.Context(), p.Page, p.PerPage)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) ReplyToPropertyListing(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req dto.ReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	listing, err := h.intake.ReplyToPropertyListing(r.Context(), id, req.Reply)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *AdminHandler) DeletePropertyListing(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.intake.DeletePropertyListing)
}

func (h *AdminHandler) deleteByID(w http.ResponseWriter, r *http.Request, del func(context.Context, uuid.UUID) error) {
	id, ok := parseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := del(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// hostelFilter resolves the optional ?hostel=<slug> parameter.
func (h *AdminHandler) hostelFilter(w http.ResponseWriter, r *http.Request) (*uuid.UUID, bool) {
	slug := r.URL.Query().Get("hostel")
	if slug == "" {
		return nil, true
	}
	id, err := h.hostelID(r.Context(), slug)
	if err != nil {
		writeError(w, r, h.log, err)
		return nil, false
	}
	return &id, true
}

func (h *AdminHandler) hostelID(ctx context.Context, slug string) (uuid.UUID, error) {
	detail, err := h.catalog.GetBySlug(ctx, slug)
	if err != nil {
		return uuid.Nil, err
	}
	return detail.ID, nil
}
