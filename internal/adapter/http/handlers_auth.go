package http

import (
	"net/http"

	"github.com/datamesh-io/marketplace/internal/domain/user"
)

// Login verifies a username/password pair and returns the user profile.
// There is no session: the shell replays the username on subsequent calls.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.auth.Authenticate(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
