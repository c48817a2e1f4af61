package httpapi

import (
	"net/http"
	"time"

	"svodka.org/internal/audit"
	"svodka.org/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *auth.User `json:"user"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	principal, err := a.users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{
			"username": req.Username,
		})
		handleAuthError(w, r, err)
		return
	}

	token, expiresAt, err := a.tokens.Issue(principal)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":  principal.UserID(),
		"username": principal.User.Username,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      principal.User,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	p, ok := a.principal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p.User)
}
