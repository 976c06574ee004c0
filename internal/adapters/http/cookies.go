package http

import (
	"net/http"
	"time"
)

const (
	accessCookieName  = "access_token"
	refreshCookieName = "refresh_token"
)

// setAuthCookies writes the bearer tokens as host-only HttpOnly cookies.
// Tokens never appear in response bodies, and no-store keeps intermediaries
// from holding a copy. The two cookies carry independent lifetimes: the
// refresh cookie must outlive the access window for remember-me logins, or
// the browser drops it while the session row is still live. An empty refresh
// token clears the refresh cookie so a remember-me downgrade cannot leave a
// stale one behind.
func (h *Handler) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string, accessExpiresAt, refreshExpiresAt time.Time) {
	w.Header().Set("Cache-Control", "no-store")
	http.SetCookie(w, h.authCookie(accessCookieName, accessToken, accessExpiresAt))
	if refreshToken == "" {
		http.SetCookie(w, h.expiredCookie(refreshCookieName))
		return
	}
	http.SetCookie(w, h.authCookie(refreshCookieName, refreshToken, refreshExpiresAt))
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	http.SetCookie(w, h.expiredCookie(accessCookieName))
	http.SetCookie(w, h.expiredCookie(refreshCookieName))
}

func (h *Handler) authCookie(name, value string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   !h.opts.DevMode,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *Handler) expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !h.opts.DevMode,
		SameSite: http.SameSiteStrictMode,
	}
}
