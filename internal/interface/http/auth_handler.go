package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errCodeMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errCodeBadRequest, "invalid body")
		return
	}

	if body.Username != s.operatorUser || !s.hasher.Compare(s.operatorHash, body.Password) {
		log.Warn().Str("username", body.Username).Msg("login failed")
		writeError(w, http.StatusUnauthorized, errCodeInvalidCredentials, "invalid credentials")
		return
	}

	token, _, err := s.tokens.Issue(body.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errCodeInternal, "internal error")
		return
	}
	log.Info().Str("username", body.Username).Msg("login success")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(s.tokenTTL.Seconds()),
	})
}
