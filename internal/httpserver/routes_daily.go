// internal/httpserver/routes_daily.go
//
// "Daily Challenge" mode.
//   - POST /game/new {"mode":"daily"} → start (or resume) today's game
//   - GET  /daily/leaderboard          → top results for today (or ?date=)
//
// Every player gets the same secret for a date: the engine's random source is
// HMAC(salt, date). Each player can finish the daily game once per day
// (enforced by the daily_results table); an unfinished session is resumed.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/engine/internal/accounts"
	"github.com/robalobadob/wordle/engine/internal/daily"
	"github.com/robalobadob/wordle/engine/internal/game"
	"github.com/robalobadob/wordle/engine/internal/history"
	"github.com/robalobadob/wordle/engine/internal/store"
)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

// newDailyGame creates or resumes today's session for owner.
func (s *Server) newDailyGame(w http.ResponseWriter, r *http.Request, owner history.Owner) {
	now := s.now()
	date := daily.DateKey(now)
	pid := playerID(owner)

	played, err := s.daily.AlreadyPlayed(r.Context(), pid, date)
	if err != nil {
		log.Warn().Err(err).Str("player", pid).Msg("daily already played")
	}
	if played {
		_ = json.NewEncoder(w).Encode(newGameRes{Mode: store.ModeDaily, Date: date, Played: true})
		return
	}

	key := pid + "|" + date
	s.mu.Lock()
	if id, ok := s.dailySessions[key]; ok {
		if sess, err := s.store.Get(r.Context(), id); err == nil {
			s.mu.Unlock()
			sess.Touch(now)
			var res newGameRes
			sess.With(func(e *game.Engine) {
				res = newGameRes{GameID: sess.ID, Mode: sess.Mode, MaxAttempts: e.MaxAttempts(), WordLength: e.WordLength(), Date: date}
			})
			_ = json.NewEncoder(w).Encode(res)
			return
		}
	}

	e, err := game.NewEngine(
		game.WithWordList(s.list),
		game.WithMaxAttempts(s.cfg.MaxAttempts),
		game.WithRandom(daily.Source(now, s.cfg.DailySalt)),
	)
	if err != nil {
		s.mu.Unlock()
		log.Error().Err(err).Msg("new daily engine")
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	sess := store.NewSession(accounts.NewID(), store.ModeDaily, owner, e)
	sess.Date = date
	sess.WordIndex = daily.WordIndex(now, s.cfg.DailySalt, s.list.Len())
	s.dailySessions[key] = sess.ID
	s.mu.Unlock()

	if !s.startSession(w, r, sess) {
		return
	}
	_ = json.NewEncoder(w).Encode(newGameRes{
		GameID: sess.ID, Mode: sess.Mode, MaxAttempts: e.MaxAttempts(), WordLength: e.WordLength(), Date: date,
	})
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.now())
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := s.daily.Leaderboard(r.Context(), date, limit)
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
