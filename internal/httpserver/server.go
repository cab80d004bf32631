// internal/httpserver/server.go
//
// HTTP server wiring for the Wordle engine.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, logging).
//   - Public endpoints: "/", "/health", "/debug/words", "/words/{word}".
//   - Game endpoints (optional auth): POST /game/new, POST /game/guess,
//     GET /game/{id}, POST /game/{id}/reset, GET /game/ws.
//   - Daily Challenge endpoints: mounted under /daily.
//   - Auth + profile/stat endpoints: see auth.go.
//
// Notes:
//   - Live games are held in the session store; history rows are best effort
//     and never fail a guess. Idle sessions are dropped by Sweep.
//   - Session routes answer 403 to anyone but the game's owner.
//   - The engine scores any structurally valid guess. In strict mode the
//     server checks catalog membership first and answers "not_in_list"
//     without consuming an attempt.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/engine/internal/accounts"
	"github.com/robalobadob/wordle/engine/internal/config"
	"github.com/robalobadob/wordle/engine/internal/daily"
	"github.com/robalobadob/wordle/engine/internal/game"
	"github.com/robalobadob/wordle/engine/internal/history"
	"github.com/robalobadob/wordle/engine/internal/store"
	"github.com/robalobadob/wordle/engine/internal/words"
)

// Options are the dependencies of a Server.
type Options struct {
	Config *config.Config
	Store  store.Store
	DB     *sql.DB
	Words  *words.List
	Now    func() time.Time // defaults to time.Now
}

// Server bundles the router, the live session store and the durable stores.
type Server struct {
	r        *chi.Mux
	cfg      *config.Config
	store    store.Store
	hist     *history.Store
	daily    *daily.Store
	accts    *accounts.Service
	list     *words.List
	now      func() time.Time
	upgrader websocket.Upgrader

	mu            sync.Mutex
	dailySessions map[string]string // playerID|date → session ID
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	s := &Server{
		r:             chi.NewRouter(),
		cfg:           opts.Config,
		store:         opts.Store,
		hist:          history.New(opts.DB),
		daily:         daily.NewStore(opts.DB),
		accts:         accounts.NewService(opts.DB, opts.Config.JWTSecret, opts.Config.TokenTTL()),
		list:          opts.Words,
		now:           opts.Now,
		dailySessions: make(map[string]string),
	}
	if s.list == nil {
		s.list = words.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(s.cors)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, "not_found", http.StatusNotFound)
	})

	// websocket connections outlive the request timeout
	s.r.With(s.withOptionalAuth()).Get("/game/ws", s.handleWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"wordle-engine","endpoints":["/health","POST /game/new","POST /game/guess","GET /game/{id}","POST /game/{id}/reset","GET /game/ws","/words/{word}","/daily/*","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]int{"words": s.list.Len()})
		})
		r.Get("/words/{word}", s.handleWordLookup)

		// Game endpoints, optional auth (guests can play)
		r.Group(func(r chi.Router) {
			r.Use(s.withOptionalAuth())
			r.Post("/game/new", s.handleNewGame)
			r.Post("/game/guess", s.handleGuess)
			r.Get("/game/{id}", s.handleGetGame)
			r.Post("/game/{id}/reset", s.handleReset)
		})

		s.mountDaily(r)
		s.mountAuthRoutes(r)
	})

	return s
}

// Handler exposes the router (useful for tests and custom http.Servers).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.ClientOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request with zerolog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("requestId", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

// ------------------------------ GAME ---------------------------------------

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Mode   string `json:"mode"`   // "normal" | "daily"
	Answer string `json:"answer"` // optional fixed answer (testing, non-production only)
}
type newGameRes struct {
	GameID      string `json:"gameId"`
	Mode        string `json:"mode"`
	MaxAttempts int    `json:"maxAttempts"`
	WordLength  int    `json:"wordLength"`
	Date        string `json:"date,omitempty"`
	Played      bool   `json:"played,omitempty"` // daily already finished today
}

// handleNewGame creates a live session and a history owner row.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req)
	owner := s.owner(w, r)

	switch req.Mode {
	case "", store.ModeNormal:
		opts := []game.Option{game.WithWordList(s.list), game.WithMaxAttempts(s.cfg.MaxAttempts)}
		if req.Answer != "" && !s.cfg.Production {
			opts = append(opts, game.WithSecret(req.Answer))
		}
		e, err := game.NewEngine(opts...)
		if err != nil {
			http.Error(w, `{"error":"invalid_answer"}`, http.StatusBadRequest)
			return
		}
		sess := store.NewSession(accounts.NewID(), store.ModeNormal, owner, e)
		if !s.startSession(w, r, sess) {
			return
		}
		_ = json.NewEncoder(w).Encode(newGameRes{
			GameID: sess.ID, Mode: sess.Mode, MaxAttempts: e.MaxAttempts(), WordLength: e.WordLength(),
		})
	case store.ModeDaily:
		s.newDailyGame(w, r, owner)
	default:
		http.Error(w, `{"error":"unknown_mode"}`, http.StatusBadRequest)
	}
}

// startSession saves sess and records its owner row. It reports false after
// writing an error response.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, sess *store.Session) bool {
	sess.Started = s.now()
	sess.Touch(sess.Started)
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return false
	}
	if err := s.hist.StartGame(r.Context(), sess.ID, sess.Owner, sess.Mode, sess.Started); err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert game row")
	}
	return true
}

// guessReq/Res payloads for POST /game/guess and the websocket channel.
type guessReq struct {
	GameID string `json:"gameId"`
	Guess  string `json:"guess"`
}
type guessRes struct {
	Status    string      `json:"status"` // "scored" | "invalid" | "not_in_list"
	Guess     string      `json:"guess,omitempty"`
	Marks     []game.Mark `json:"marks,omitempty"`
	Feedback  string      `json:"feedback,omitempty"` // "GUESS:GYXXX"
	State     string      `json:"state"`              // "playing" | "won" | "lost"
	Attempt   int         `json:"attempt"`
	Remaining int         `json:"remaining"`
	Message   string      `json:"message"`
	Answer    string      `json:"answer,omitempty"` // revealed once lost
}

const statusNotInList = "not_in_list"

// handleGuess applies a guess to a live session.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, ok := s.ownedSession(w, r, req.GameID)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(s.applyGuess(r.Context(), sess, req.Guess))
}

// applyGuess scores raw against the session's engine and records history.
// Invalid guesses come back as a result, never as an error.
func (s *Server) applyGuess(ctx context.Context, sess *store.Session, raw string) guessRes {
	guess := strings.TrimSpace(raw)
	sess.Touch(s.now())

	var (
		out      guessRes
		scored   bool
		finished bool
		won      bool
		answer   string
		attempts int
	)
	sess.With(func(e *game.Engine) {
		if s.cfg.StrictWords && game.IsValidWord(guess) && e.CanMakeAttempt() && !e.IsInWordList(guess) {
			out = progress(e)
			out.Status = statusNotInList
			out.Message = "Not in word list"
			return
		}
		res := e.CheckGuess(guess)
		out = progress(e)
		out.Status = string(res.Status)
		if !res.Valid() {
			if !e.IsGameOver() {
				out.Message = "Invalid word! Please enter a 5-letter word."
			}
			return
		}
		out.Guess = res.Guess
		out.Marks = res.Marks[:]
		out.Feedback = res.String()

		scored = true
		finished = e.IsGameOver()
		won, answer, attempts = e.Won(), e.Secret(), e.CurrentAttempt()
	})

	if !scored {
		return out
	}
	if err := s.hist.RecordGuess(ctx, sess.ID, sess.Owner); err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("record guess")
	}
	if finished {
		s.finish(ctx, sess, won, answer, attempts)
	}
	return out
}

// finish stores the outcome of a session that just ended.
func (s *Server) finish(ctx context.Context, sess *store.Session, won bool, answer string, attempts int) {
	if err := s.hist.FinishGame(ctx, sess.ID, sess.Owner, won, answer, s.now()); err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("finish game")
	}
	if sess.Mode == store.ModeDaily {
		err := s.daily.InsertResult(ctx, daily.Result{
			PlayerID:  playerID(sess.Owner),
			Date:      sess.Date,
			WordIndex: sess.WordIndex,
			Guesses:   attempts,
			Won:       won,
			ElapsedMs: int(s.now().Sub(sess.Started).Milliseconds()),
		})
		if err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert daily result")
		}
	}
	log.Info().Str("gameId", sess.ID).Str("mode", sess.Mode).Bool("won", won).Int("attempts", attempts).Msg("game finished")
}

// progress fills the counters and status of a response from e.
func progress(e *game.Engine) guessRes {
	out := guessRes{
		State:     state(e),
		Attempt:   e.CurrentAttempt(),
		Remaining: e.RemainingAttempts(),
		Message:   e.GameStatus(),
	}
	if out.State == history.StatusLost {
		out.Answer = e.Secret()
	}
	return out
}

// state reports a coarse string representation of the engine state.
func state(e *game.Engine) string {
	switch {
	case e.Won():
		return history.StatusWon
	case e.IsGameOver():
		return history.StatusLost
	}
	return history.StatusPlaying
}

// boardRow is one scored guess in a snapshot.
type boardRow struct {
	Guess    string      `json:"guess"`
	Marks    []game.Mark `json:"marks"`
	Feedback string      `json:"feedback"`
}

// gameSnapshot is returned by GET /game/{id} and POST /game/{id}/reset.
type gameSnapshot struct {
	GameID      string     `json:"gameId"`
	Mode        string     `json:"mode"`
	Date        string     `json:"date,omitempty"`
	State       string     `json:"state"`
	Active      bool       `json:"active"`
	Attempt     int        `json:"attempt"`
	Remaining   int        `json:"remaining"`
	MaxAttempts int        `json:"maxAttempts"`
	Message     string     `json:"message"`
	Board       []boardRow `json:"board"`
	Answer      string     `json:"answer,omitempty"`
}

func snapshot(sess *store.Session, e *game.Engine) gameSnapshot {
	p := progress(e)
	snap := gameSnapshot{
		GameID:      sess.ID,
		Mode:        sess.Mode,
		Date:        sess.Date,
		State:       p.State,
		Active:      e.IsActive(),
		Attempt:     p.Attempt,
		Remaining:   p.Remaining,
		MaxAttempts: e.MaxAttempts(),
		Message:     p.Message,
		Answer:      p.Answer,
		Board:       []boardRow{},
	}
	for _, g := range e.Guesses() {
		snap.Board = append(snap.Board, boardRow{Guess: g.Guess, Marks: g.Marks[:], Feedback: g.String()})
	}
	return snap
}

// handleGetGame returns the current board and counters of a session.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var snap gameSnapshot
	sess.With(func(e *game.Engine) { snap = snapshot(sess, e) })
	_ = json.NewEncoder(w).Encode(snap)
}

type resetReq struct {
	NewWord bool `json:"newWord"` // also draw a new secret
}

// handleReset clears a session's bookkeeping, optionally with a new secret.
// Daily games cannot be reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	sess, ok := s.ownedSession(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if sess.Mode == store.ModeDaily {
		http.Error(w, `{"error":"daily_locked"}`, http.StatusConflict)
		return
	}

	var snap gameSnapshot
	sess.With(func(e *game.Engine) {
		if req.NewWord {
			e.NewRound()
		} else {
			e.ResetGame()
		}
		snap = snapshot(sess, e)
	})
	if err := s.hist.ResetGame(r.Context(), sess.ID, sess.Owner); err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("reset game row")
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// handleWordLookup reports catalog membership of a word.
func (s *Server) handleWordLookup(w http.ResponseWriter, r *http.Request) {
	word := game.StandardizeInput(strings.TrimSpace(chi.URLParam(r, "word")))
	_ = json.NewEncoder(w).Encode(map[string]any{
		"word":   word,
		"valid":  game.IsValidWord(word),
		"inList": s.list.Contains(word),
	})
}

// owner returns the history owner of a request: the signed-in user, or the
// anonymous cookie id (issued on first use).
func (s *Server) owner(w http.ResponseWriter, r *http.Request) history.Owner {
	if me := userFrom(r.Context()); me != nil {
		return history.Owner{UserID: me.ID}
	}
	return history.Owner{AnonID: s.ensureAnonID(w, r)}
}

// ownedSession loads session id for its owner. It reports false after writing
// a 404 for unknown sessions or a 403 for someone else's.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request, id string) (*store.Session, bool) {
	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil, false
	}
	if !owns(r, sess.Owner) {
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
		return nil, false
	}
	sess.Touch(s.now())
	return sess, true
}

// owns reports whether the caller is o: the signed-in user, or the holder of
// the anonymous cookie the game was started with.
func owns(r *http.Request, o history.Owner) bool {
	if me := userFrom(r.Context()); me != nil && o.UserID != "" && me.ID == o.UserID {
		return true
	}
	if o.AnonID == "" {
		return false
	}
	c, err := r.Cookie(anonCookieName)
	return err == nil && c.Value == o.AnonID
}

// Sweep drops live sessions unused for idle, with their daily index entries.
// Durable history is untouched.
func (s *Server) Sweep(ctx context.Context, idle time.Duration) int {
	gone, err := s.store.Evict(ctx, s.now().Add(-idle))
	if err != nil {
		log.Warn().Err(err).Msg("evict sessions")
		return 0
	}
	if len(gone) == 0 {
		return 0
	}
	dropped := make(map[string]struct{}, len(gone))
	for _, id := range gone {
		dropped[id] = struct{}{}
	}
	s.mu.Lock()
	for key, id := range s.dailySessions {
		if _, ok := dropped[id]; ok {
			delete(s.dailySessions, key)
		}
	}
	s.mu.Unlock()
	log.Info().Int("sessions", len(gone)).Msg("evicted idle sessions")
	return len(gone)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Server) RunSweeper(ctx context.Context, every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep(ctx, idle)
		}
	}
}

// playerID is the identity daily results are keyed by.
func playerID(o history.Owner) string {
	if o.UserID != "" {
		return o.UserID
	}
	return o.AnonID
}
