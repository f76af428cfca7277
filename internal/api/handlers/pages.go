package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/database/models"
	"github.com/hugh/hostel-hunter/internal/tokens"
	"github.com/hugh/hostel-hunter/internal/web"
)

// PageHandler renders the pages behind emailed links.
type PageHandler struct {
	pages       *web.Pages
	invitations *tokens.Invitations
	emails      *tokens.EmailChanges
	log         *slog.Logger
}

func NewPageHandler(pages *web.Pages, inv *tokens.Invitations, emails *tokens.EmailChanges, log *slog.Logger) *PageHandler {
	return &PageHandler{pages: pages, invitations: inv, emails: emails, log: log}
}

type reviewPage struct {
	State    string
	Hostel   *models.Hostel
	FullName string
	Rating   int
	Comment  string
	Errors   map[string]string
}

type emailPage struct {
	State string
	Email string
}

func (h *PageHandler) ReviewForm(w http.ResponseWriter, r *http.Request) {
	view, err := h.invitations.Lookup(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.reviewFailure(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "review.html", reviewPage{
		State:    string(view.State),
		Hostel:   view.Hostel,
		FullName: view.Invitation.FullName,
		Rating:   5,
	})
}

func (h *PageHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	view, err := h.invitations.Lookup(r.Context(), token)
	if err != nil {
		h.reviewFailure(w, r, err)
		return
	}

	rating, _ := strconv.Atoi(r.FormValue("rating"))
	comment := r.FormValue("comment")

	result, err := h.invitations.Submit(r.Context(), token, rating, comment)
	if err != nil {
		if e, ok := apperr.As(err); ok && e.Kind == apperr.KindValidation {
			h.render(w, r, http.StatusBadRequest, "review.html", reviewPage{
				State:    string(tokens.StatePending),
				Hostel:   view.Hostel,
				FullName: view.Invitation.FullName,
				Rating:   rating,
				Comment:  comment,
				Errors:   map[string]string{e.Field: e.Message},
			})
			return
		}
		h.reviewFailure(w, r, err)
		return
	}

	state := "submitted"
	if result.AlreadyHandled {
		state = string(tokens.StateConsumed)
	}
	h.render(w, r, http.StatusOK, "review.html", reviewPage{State: state, Hostel: view.Hostel})
}

func (h *PageHandler) reviewFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		h.render(w, r, http.StatusNotFound, "review.html", reviewPage{State: "not_found"})
		return
	}
	h.log.Error("review page failed", "error", err)
	http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
}

func (h *PageHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	result, err := h.emails.Verify(r.Context(), chi.URLParam(r, "token"))
	if err == nil {
		state := "verified"
		if result.AlreadyHandled {
			state = string(tokens.StateConsumed)
		}
		h.render(w, r, http.StatusOK, "email_verify.html", emailPage{State: state, Email: result.NewEmail})
		return
	}

	status, _, known := statusOf(err)
	if !known {
		h.log.Error("email verification failed", "error", err)
		http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
		return
	}

	page := emailPage{State: "not_found"}
	switch apperr.KindOf(err) {
	case apperr.KindExpired:
		page.State = string(tokens.StateExpired)
	case apperr.KindConflict:
		page.State = "conflict"
	}
	h.render(w, r, status, "email_verify.html", page)
}

// render buffers the page so a template error never leaves a half-written
// response.
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.pages.Render(&buf, name, data); err != nil {
		h.log.Error("rendering page", "page", name, "path", r.URL.Path, "error", err)
		http.Error(w, "Something went wrong. Please try again later.", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
