package httpapi

import "net/http"

// LivenessMessage is the body served on GET /.
const LivenessMessage = "Job Hunter Bot is Running 24/7 on MonsterASP!"

func NewMux() *http.ServeMux {
	mux := http.NewServeMux()

	lh := LivenessHandler{Message: LivenessMessage}
	mux.HandleFunc("/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  lh.Root,
		http.MethodHead: lh.Root,
	}))

	return mux
}

// NewHandler wraps the mux with the standard middleware stack.
func NewHandler() http.Handler {
	return Chain(NewMux(), RequestID, AccessLog, Recover)
}
