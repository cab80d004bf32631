package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/engine/internal/accounts"
)

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

func userFrom(ctx context.Context) *authUser {
	u, _ := ctx.Value(ctxUserKey{}).(*authUser)
	return u
}

// credentials is the signup/login payload.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers authentication + gated routes (/auth/*, /stats/me, /games/mine).
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth())

		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(userFrom(r.Context()))
		})

		r.Get("/stats/me", func(w http.ResponseWriter, r *http.Request) {
			me := userFrom(r.Context())
			st, err := s.hist.UserStats(r.Context(), me.ID)
			if err != nil {
				http.Error(w, `{"error":"not_found"}`, http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":          me.ID,
				"gamesPlayed": st.GamesPlayed,
				"wins":        st.Wins,
				"streak":      st.Streak,
				"bestStreak":  st.BestStreak,
			})
		})

		r.Get("/games/mine", func(w http.ResponseWriter, r *http.Request) {
			rows, err := s.hist.RecentGames(r.Context(), userFrom(r.Context()).ID, 50)
			if err != nil {
				http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(w).Encode(rows)
		})
	})
}

// handleSignup creates a new user, sets the auth cookie, and claims anon history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.accts.Signup(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrUsernameTaken) {
			http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
			return
		}
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.issueToken(w, u) {
		return
	}
	s.claimAnonGames(w, r, u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

// handleLogin authenticates a user, sets the cookie, and claims anon history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.accts.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	if !s.issueToken(w, u) {
		return
	}
	s.claimAnonGames(w, r, u.ID)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": u.ID, "username": u.Username})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setAuthCookie(w, "", time.Time{}, -1)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (s *Server) issueToken(w http.ResponseWriter, u *accounts.User) bool {
	tok, exp, err := s.accts.SignToken(u)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return false
	}
	s.setAuthCookie(w, tok, exp, 0)
	return true
}

// claimAnonGames attaches the caller's anonymous games to userID.
func (s *Server) claimAnonGames(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.hist.ClaimAnonGames(r.Context(), s.ensureAnonID(w, r), userID); err != nil {
		log.Warn().Err(err).Msg("claim anon games")
	}
}

// --------------------------- auth middleware -------------------------------

// authenticate resolves the caller from a bearer token or auth cookie.
func (s *Server) authenticate(r *http.Request) (*authUser, bool) {
	tok := s.bearerOrCookie(r)
	if tok == "" {
		return nil, false
	}
	c, err := s.accts.ParseToken(tok)
	if err != nil {
		return nil, false
	}
	// Ensure user still exists
	if _, err := s.accts.FindByID(r.Context(), c.ID); err != nil {
		return nil, false
	}
	return &authUser{ID: c.ID, Username: c.Username}, true
}

// withOptionalAuth decorates requests with user context if a valid JWT is present.
// It never 401s; used for routes where guests are allowed.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, ok := s.authenticate(r); ok {
				r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid JWT and injects authUser into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := s.authenticate(r)
			if !ok {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
		})
	}
}

// ------------------------------ cookies ------------------------------------

const anonCookieName = "wordle_anon"

func (s *Server) sameSite() http.SameSite {
	if s.cfg.Production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := accounts.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: s.sameSite(),
		Expires:  s.now().Add(180 * 24 * time.Hour),
	})
	return id
}

// setAuthCookie writes (maxAge 0) or deletes (maxAge -1) the auth token cookie.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: s.sameSite(),
		Expires:  exp,
		MaxAge:   maxAge,
	})
}

// bearerOrCookie extracts a bearer token from the Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// checkOrigin admits websocket upgrades from the configured client origin,
// the server's own host, and non-browser clients that send no Origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.cfg.ClientOrigin {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
