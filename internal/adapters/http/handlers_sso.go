package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/posturehq/auth-service/internal/application"
)

// Trusted headers set by the assertion-validating gateway in front of this
// service. They never cross the public edge; the gateway strips any
// client-supplied copies before forwarding.
const (
	headerSSOSubject      = "X-Sso-Subject"
	headerSSOSessionIndex = "X-Sso-Session-Index"
)

// ssoCallback finishes an identity-provider login. The gateway has already
// validated the assertion and forwards only the extracted subject; this
// handler mints the session, sets cookies, and bounces the browser back to
// the frontend.
func (h *Handler) ssoCallback(w http.ResponseWriter, r *http.Request) {
	subject := strings.TrimSpace(r.Header.Get(headerSSOSubject))
	sessionIndex := strings.TrimSpace(r.Header.Get(headerSSOSessionIndex))

	res, err := h.service.CompleteSSOLogin(r.Context(), subject, sessionIndex, application.ClientMeta{
		IPAddress: readIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.redirectSSOFailure(w, r, err)
		return
	}

	h.setAuthCookies(w, res.AccessToken, res.RefreshToken, cookieExpiry(res.ExpiresInMinutes), res.RefreshExpiresAt)
	http.Redirect(w, r, h.opts.FrontendURL+"/sso/complete", http.StatusFound)
}

// redirectSSOFailure sends the browser back to the frontend's error page.
// A JSON error body is useless mid-redirect, so the failure code travels as
// a query parameter instead.
func (h *Handler) redirectSSOFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := mapDomainError(err)
	logHTTPOperationError(r.Context(), "sso_callback", status, code, msg, err)

	target := h.opts.FrontendURL + "/sso/error?code=" + url.QueryEscape(code)
	http.Redirect(w, r, target, http.StatusFound)
}
