package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/posturehq/auth-service/internal/application"
	"github.com/posturehq/auth-service/internal/domain"
)

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "login", err)
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password, req.RememberMe, application.ClientMeta{
		IPAddress: readIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeMappedError(r.Context(), w, "login", err)
		return
	}

	h.setAuthCookies(w, res.AccessToken, res.RefreshToken, cookieExpiry(res.ExpiresInMinutes), res.RefreshExpiresAt)
	writeSuccess(w, http.StatusOK, map[string]any{
		"user":      res.User,
		"expiresIn": res.ExpiresInMinutes,
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Refresh(r.Context(), cookieValue(r, refreshCookieName))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOrExpiredToken) {
			// The session behind these cookies is gone; leaving them in
			// place would make the browser retry a dead token forever.
			h.clearAuthCookies(w)
		}
		writeMappedError(r.Context(), w, "refresh", err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.SetCookie(w, h.authCookie(accessCookieName, res.AccessToken, cookieExpiry(res.ExpiresInMinutes)))
	writeSuccess(w, http.StatusOK, map[string]any{
		"expiresIn": res.ExpiresInMinutes,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Logout(r.Context(),
		cookieValue(r, accessCookieName),
		cookieValue(r, refreshCookieName),
	)
	if err != nil {
		writeMappedError(r.Context(), w, "logout", err)
		return
	}

	h.clearAuthCookies(w)
	writeSuccess(w, http.StatusOK, map[string]any{
		"method":            string(res.LoginMethod),
		"ssoLogoutRequired": res.LoginMethod == domain.LoginMethodSAML,
	})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Authenticate(r.Context(), cookieValue(r, accessCookieName))
	if err != nil {
		writeMappedError(r.Context(), w, "me", err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeSuccess(w, http.StatusOK, map[string]any{"user": user})
}

func cookieExpiry(minutes int64) time.Time {
	return time.Now().UTC().Add(time.Duration(minutes) * time.Minute)
}
