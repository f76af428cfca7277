package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/hostel-hunter/internal/accounts"
	"github.com/hugh/hostel-hunter/internal/api/dto"
	"github.com/hugh/hostel-hunter/internal/api/middleware"
	"github.com/hugh/hostel-hunter/internal/catalog"
	"github.com/hugh/hostel-hunter/internal/profiles"
)

// multipartOverhead is the allowance for form boundaries and headers on top
// of the avatar itself.
const multipartOverhead = 1 << 20

// MeHandler serves the signed-in user's own account.
type MeHandler struct {
	profiles       *profiles.Service
	accounts       *accounts.Service
	catalog        *catalog.Service
	maxAvatarBytes int64
	log            *slog.Logger
}

func NewMeHandler(p *profiles.Service, a *accounts.Service, c *catalog.Service, maxAvatarBytes int64, log *slog.Logger) *MeHandler {
	if maxAvatarBytes <= 0 {
		maxAvatarBytes = profiles.DefaultMaxAvatarBytes
	}
	return &MeHandler{profiles: p, accounts: a, catalog: c, maxAvatarBytes: maxAvatarBytes, log: log}
}

func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.profiles.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *MeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.profiles.Update(r.Context(), middleware.GetUserID(r.Context()), req.ToInput())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *MeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Delete(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *MeHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Deactivate(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Account deactivated"})
}

func (h *MeHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	var req dto.UsernameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.profiles.ChangeUsername(r.Context(), middleware.GetUserID(r.Context()), req.Username); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Username updated"})
}

// ChangeEmail answers 202: the address only changes once the link in the
// verification email is followed.
func (h *MeHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	var req dto.EmailChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.profiles.ChangeEmail(r.Context(), middleware.GetUserID(r.Context()), req.Email)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, dto.EmailChangeResponse{
		Message:      "Check your inbox to confirm the new address",
		PendingEmail: result.Request.NewEmail,
		Warning:      result.Warning,
	})
}

func (h *MeHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAvatarBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			badRequest(w, "Validation failed", map[string]string{"avatar": "Image is too large"})
			return
		}
		badRequest(w, "Expected a multipart form with an avatar file", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequest(w, "Validation failed", map[string]string{"avatar": "Choose an image to upload"})
		return
	}
	defer file.Close()

	url, err := h.profiles.UploadAvatar(r.Context(), middleware.GetUserID(r.Context()),
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AvatarResponse{AvatarURL: url})
}

func (h *MeHandler) GetRoommate(w http.ResponseWriter, r *http.Request) {
	rp, err := h.profiles.GetRoommate(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rp)
}

func (h *MeHandler) SaveRoommate(w http.ResponseWriter, r *http.Request) {
	var req dto.RoommateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rp, err := h.profiles.SaveRoommate(r.Context(), middleware.GetUserID(r.Context()), req.ToInput())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rp)
}

func (h *MeHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	hostels, err := h.catalog.ListFavorites(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, hostels)
}

func (h *MeHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	favorited, err := h.catalog.ToggleFavorite(r.Context(), middleware.GetUserID(r.Context()), slug)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FavoriteResponse{Slug: slug, Favorited: favorited})
}
