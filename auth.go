// Ladderbox credential service
//
// Registration and login statistics for game accounts. Usernames are
// stored in their original case but matched case-insensitively, so
// "Ann" and "ann" are one account.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type gameResult struct {
	Username string `json:"username"`
	Won      bool   `json:"won"`
}

// validateCredentials applies the registration rules: trimmed username
// of at least 3 characters, trimmed password of at least 4, and no
// markup-sensitive characters in either. Lengths count characters,
// not bytes, so multibyte names are measured as the user sees them.
func validateCredentials(username, password string) error {
	if utf8.RuneCountInString(strings.TrimSpace(username)) < 3 {
		return errors.New("Username must be at least 3 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(password)) < 4 {
		return errors.New("Password must be at least 4 characters")
	}
	if strings.ContainsAny(username, `<>"'&`) || strings.ContainsAny(password, `<>"'&`) {
		return errors.New("Invalid characters in credentials")
	}
	return nil
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeAuthError(cfg *Config, w http.ResponseWriter, status int, message string) {
	writeJSON(cfg, w, status, map[string]any{
		"error": message,
	})
}

func serveRegister(cfg *Config, store *UserStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var creds credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeAuthError(cfg, w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := validateCredentials(creds.Username, creds.Password); err != nil {
			writeAuthError(cfg, w, http.StatusBadRequest, err.Error())
			return
		}

		err := store.Register(r.Context(), creds.Username, creds.Password)
		switch {
		case errors.Is(err, errUserExists):
			writeAuthError(cfg, w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			logf(cfg, "AUTH: Register error for %s: %v", realIP(r), err)
			writeAuthError(cfg, w, http.StatusInternalServerError, "Internal server error")
			return
		}

		logf(cfg, "AUTH: Registered user %q for %s", creds.Username, realIP(r))

		writeJSON(cfg, w, http.StatusOK, map[string]any{
			"success":  true,
			"message":  "User registered successfully",
			"username": creds.Username,
		})
	}
}

func serveLogin(cfg *Config, store *UserStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var creds credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeAuthError(cfg, w, http.StatusBadRequest, "Invalid request body")
			return
		}

		profile, err := store.Authenticate(r.Context(), creds.Username, creds.Password)
		switch {
		case errors.Is(err, errInvalidCredentials):
			writeAuthError(cfg, w, http.StatusUnauthorized, err.Error())
			return
		case err != nil:
			logf(cfg, "AUTH: Login error for %s: %v", realIP(r), err)
			writeAuthError(cfg, w, http.StatusInternalServerError, "Internal server error")
			return
		}

		logf(cfg, "AUTH: User %q logged in from %s", profile.Username, realIP(r))

		writeJSON(cfg, w, http.StatusOK, map[string]any{
			"success":  true,
			"message":  "Login successful",
			"username": profile.Username,
			"user_data": map[string]any{
				"games_played": profile.GamesPlayed,
				"wins":         profile.Wins,
				"losses":       profile.Losses,
				"created_at":   profile.CreatedAt,
			},
		})
	}
}

func serveResult(cfg *Config, store *UserStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var result gameResult
		if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
			writeAuthError(cfg, w, http.StatusBadRequest, "Invalid request body")
			return
		}

		err := store.RecordResult(r.Context(), result.Username, result.Won)
		switch {
		case errors.Is(err, errUnknownUser):
			writeAuthError(cfg, w, http.StatusNotFound, err.Error())
			return
		case err != nil:
			logf(cfg, "AUTH: Result error for %s: %v", realIP(r), err)
			writeAuthError(cfg, w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(cfg, w, http.StatusOK, map[string]any{
			"success": true,
		})
	}
}

func serveStatus(cfg *Config, store *UserStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		count, err := store.Count(r.Context())
		if err != nil {
			logf(cfg, "AUTH: Status error: %v", err)
			writeAuthError(cfg, w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(cfg, w, http.StatusOK, map[string]any{
			"server_status": "active",
			"total_users":   count,
			"timestamp":     time.Now().Format(time.RFC3339),
		})
	}
}

func serveUsers(cfg *Config, store *UserStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		profiles, err := store.List(r.Context())
		if err != nil {
			logf(cfg, "AUTH: List error: %v", err)
			writeAuthError(cfg, w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(cfg, w, http.StatusOK, map[string]any{
			"users": profiles,
		})
	}
}

func registerAuthHandlers(cfg *Config, mux *httprouter.Router, store *UserStore) {
	mux.POST(cfg.prefix+"/register", serveRegister(cfg, store))
	mux.POST(cfg.prefix+"/login", serveLogin(cfg, store))
	mux.POST(cfg.prefix+"/result", serveResult(cfg, store))
	mux.GET(cfg.prefix+"/status", serveStatus(cfg, store))
	mux.GET(cfg.prefix+"/users", serveUsers(cfg, store))
}

// ServeAuth runs the credential service until ctx is cancelled.
func ServeAuth(ctx context.Context, cfg *Config) error {
	logf(cfg, "START: ladderbox auth v%s", releaseVersion)

	store, err := openUserStore(cfg.usersDB)
	if err != nil {
		return err
	}
	defer store.Close()

	errs := make(chan error, 64)
	go func() {
		for err := range errs {
			logf(cfg, "ERROR: %v", err)
		}
	}()

	mux := newMux(cfg, errs)

	registerAuthHandlers(cfg, mux, store)

	return serve(ctx, cfg, newServer(cfg, mux))
}
