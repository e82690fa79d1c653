package httpapi

import (
	"io"
	"net/http"
)

type LivenessHandler struct {
	Message string
}

// Root answers only the exact "/" path; the mux routes every unknown path here too.
func (h LivenessHandler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, h.Message)
}
