package httpapi

import (
	"crypto/subtle"
	"net/http"
)

// shutdownHandler lets the desktop shell stop the engine. Only loopback
// callers holding the token printed at startup are accepted.
func shutdownHandler(token string, shutdown func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isLoopback(r) {
			WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
			return
		}

		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			WriteError(w, r, http.StatusUnauthorized, "unauthorized", "unauthorized")
			return
		}

		// Respond immediately, then shut down asynchronously
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))
		go shutdown()
	}
}
