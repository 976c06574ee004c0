package http

import "net/http"

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.opts.ReadyCheck != nil {
		if err := h.opts.ReadyCheck(); err != nil {
			writeMappedError(r.Context(), w, "readyz", err)
			return
		}
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ready"})
}
