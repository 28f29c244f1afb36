package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fridell/cartlens/pkg/models"
)

// sessionCookie is the cookie carrying the session ID. The username is a
// display label, not a credential; the cookie only routes requests to the
// right in-memory session.
const sessionCookie = "cartlens_session"

type contextKey int

const sessionIDKey contextKey = iota

// requireSession resolves the session cookie and rejects requests without a
// live session.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "NotLoggedIn", "log in first")
			return
		}
		if _, err := s.sessions.Get(r.Context(), cookie.Value); err != nil {
			if errors.Is(err, models.ErrSessionExpired) {
				respondError(w, http.StatusUnauthorized, "SessionExpired", "session expired, log in again")
				return
			}
			respondError(w, http.StatusUnauthorized, "NotLoggedIn", "log in first")
			return
		}
		next.ServeHTTP(w, withSessionID(r, cookie.Value))
	})
}

// withSessionID stashes the session ID on the request context.
func withSessionID(r *http.Request, id string) *http.Request {
	return r.WithContext(contextWithSessionID(r.Context(), id))
}

// login creates a session for a username label and sets the cookie.
// POST /api/v1/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "BadRequest", "invalid request body: "+err.Error())
		return
	}

	sess, err := s.sessions.Create(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, models.ErrEmptyUsername) {
			respondError(w, http.StatusBadRequest, "BadRequest", "please enter a username")
			return
		}
		respondError(w, http.StatusInternalServerError, "InternalError", err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]string{
		"message":  "logged in as " + sess.Username,
		"username": sess.Username,
	})
}

// logout discards the session and clears the cookie.
// POST /api/v1/logout
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	id := sessionIDFromContext(r.Context())
	if err := s.sessions.Delete(r.Context(), id); err != nil && !errors.Is(err, models.ErrSessionNotFound) {
		respondError(w, http.StatusInternalServerError, "InternalError", err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// getSession returns the session summary for the dashboard header.
// GET /api/v1/session
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "NotLoggedIn", "log in first")
		return
	}
	respondJSON(w, http.StatusOK, sess.Summarize())
}
