package httpapi

import (
	"net/http"

	"chapterhub.org/internal/access"
	"chapterhub.org/internal/audit"
)

// respondError writes {"error", "code", "request_id"}.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	payload := map[string]any{
		"error": msg,
		"code":  code,
	}
	if rid := audit.RequestID(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

// writeAccessError renders any error through the access taxonomy. Internal
// causes never reach the client.
func writeAccessError(w http.ResponseWriter, r *http.Request, err error) {
	e := access.AsError(err)
	if e.Kind == access.KindUnauthenticated {
		w.Header().Set("WWW-Authenticate", `Bearer realm="chapterhub"`)
	}
	respondError(w, r, e.HTTPStatus(), string(e.Kind), e.PublicMessage())
}
