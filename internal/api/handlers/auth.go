package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hugh/hostel-hunter/internal/accounts"
	"github.com/hugh/hostel-hunter/internal/api/dto"
	"github.com/hugh/hostel-hunter/internal/api/middleware"
	"github.com/hugh/hostel-hunter/internal/apperr"
	"github.com/hugh/hostel-hunter/internal/auth"
	"github.com/hugh/hostel-hunter/internal/database/models"
)

// ClaimVerifier checks a browser-supplied identity token.
type ClaimVerifier interface {
	Verify(ctx context.Context, credential string) (*auth.VerifiedClaims, error)
}

type AuthHandler struct {
	auth     *auth.Service
	accounts *accounts.Service
	google   ClaimVerifier   // nil disables credential login
	oauth    *auth.OAuthFlow // nil disables the redirect flow
	expiry   time.Duration
	secure   bool
	log      *slog.Logger
}

type AuthHandlerConfig struct {
	Auth          *auth.Service
	Accounts      *accounts.Service
	Google        ClaimVerifier
	OAuth         *auth.OAuthFlow
	SessionExpiry time.Duration
	SecureCookies bool
	Logger        *slog.Logger
}

func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		auth:     cfg.Auth,
		accounts: cfg.Accounts,
		google:   cfg.Google,
		oauth:    cfg.OAuth,
		expiry:   cfg.SessionExpiry,
		secure:   cfg.SecureCookies,
		log:      cfg.Logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		badRequest(w, "Validation failed", errs)
		return
	}

	user, err := h.accounts.SignUp(r.Context(), accounts.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	h.startSession(w, r, user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		badRequest(w, "Validation failed", errs)
		return
	}

	resp, err := h.auth.Login(r.Context(), auth.LoginInput{Login: req.Login, Password: req.Password})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	h.setSessionCookie(w, resp.Token)
	writeJSON(w, http.StatusOK, dto.AuthResponse{Token: resp.Token, User: dto.NewUserDTO(resp.User)})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Logged out"})
}

// Google signs in with an ID token obtained by the browser.
func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Google sign-in is not enabled"})
		return
	}

	var req dto.GoogleCredentialRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Credential == "" {
		badRequest(w, "Validation failed", map[string]string{"credential": "Credential is required"})
		return
	}

	claims, err := h.google.Verify(r.Context(), req.Credential)
	if errors.Is(err, auth.ErrVerifierUnavailable) {
		writeError(w, r, h.log, apperr.TransientExternal("Google sign-in is unavailable right now, try again shortly", err))
		return
	}
	if err != nil {
		h.log.Info("identity token rejected", "error", err)
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Google sign-in failed"})
		return
	}

	user, err := h.accounts.LoginWithClaims(r.Context(), claims)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.startSession(w, r, user, http.StatusOK)
}

func (h *AuthHandler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		http.NotFound(w, r)
		return
	}
	url, err := h.oauth.Start(r.Context())
	if err != nil {
		h.log.Error("oauth start failed", "error", err)
		http.Error(w, "Sign-in is unavailable right now", http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// GoogleCallback finishes the redirect flow and sends the browser home with
// a session cookie, or with auth_error set when sign-in failed.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		h.log.Info("oauth consent denied", "error", e)
		http.Redirect(w, r, "/?auth_error=denied", http.StatusFound)
		return
	}

	claims, err := h.oauth.Finish(r.Context(), q.Get("state"), q.Get("code"))
	if err != nil {
		reason := "failed"
		switch {
		case errors.Is(err, auth.ErrInvalidState):
			reason = "state"
		case errors.Is(err, auth.ErrVerifierUnavailable):
			reason = "unavailable"
		}
		h.log.Warn("oauth callback rejected", "error", err)
		http.Redirect(w, r, "/?auth_error="+reason, http.StatusFound)
		return
	}

	user, err := h.accounts.LoginWithClaims(r.Context(), claims)
	if err != nil {
		h.log.Warn("oauth login refused", "error", err)
		http.Redirect(w, r, "/?auth_error=account", http.StatusFound)
		return
	}
	resp, err := h.auth.Issue(user)
	if err != nil {
		h.log.Warn("oauth session not issued", "user_id", user.ID, "error", err)
		http.Redirect(w, r, "/?auth_error=account", http.StatusFound)
		return
	}

	h.setSessionCookie(w, resp.Token)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	resp, err := h.auth.Issue(user)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.setSessionCookie(w, resp.Token)
	writeJSON(w, status, dto.AuthResponse{Token: resp.Token, User: dto.NewUserDTO(resp.User)})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.expiry.Seconds()),
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
