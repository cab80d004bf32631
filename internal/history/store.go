// internal/history/store.go
//
// Durable record of played games and the per-player stats derived from them.
// Live game state stays in memory (see internal/store); this package only
// keeps owner rows, guess counters and outcomes.

package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Game states as stored in games.status.
const (
	StatusPlaying = "playing"
	StatusWon     = "won"
	StatusLost    = "lost"
)

// Owner identifies who played a game: a registered user or an anonymous
// browser id. UserID wins when both are set.
type Owner struct {
	UserID string
	AnonID string
}

func (o Owner) clause() (string, any) {
	if o.UserID != "" {
		return `user_id=?`, o.UserID
	}
	return `anonymous_id=?`, o.AnonID
}

// GameRow is one line of a player's game history.
type GameRow struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	Status     string `json:"status"`
	Answer     string `json:"answer,omitempty"`
	Guesses    int    `json:"guesses"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// Stats are a registered player's aggregate results.
type Stats struct {
	GamesPlayed int `json:"gamesPlayed"`
	Wins        int `json:"wins"`
	Streak      int `json:"streak"`
	BestStreak  int `json:"bestStreak"`
}

// Store reads and writes the games table.
type Store struct{ db *sql.DB }

func New(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for packages sharing the database.
func (s *Store) DB() *sql.DB { return s.db }

// StartGame inserts the owner row for a new game. The answer is not stored
// until the game finishes.
func (s *Store) StartGame(ctx context.Context, id string, owner Owner, mode string, at time.Time) error {
	var userID, anonID any
	if owner.UserID != "" {
		userID = owner.UserID
	} else {
		anonID = owner.AnonID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, user_id, anonymous_id, mode, status, guesses, started_at)
		 VALUES (?,?,?,?,?,0,?)`,
		id, userID, anonID, mode, StatusPlaying, at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("history: start game %s: %w", id, err)
	}
	return nil
}

// RecordGuess increments the guess counter of a game.
func (s *Store) RecordGuess(ctx context.Context, id string, owner Owner) error {
	clause, arg := owner.clause()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE games SET guesses = guesses + 1 WHERE id=? AND `+clause, id, arg); err != nil {
		return fmt.Errorf("history: record guess %s: %w", id, err)
	}
	return nil
}

// ResetGame puts a finished or in-progress game back to playing with zero guesses.
func (s *Store) ResetGame(ctx context.Context, id string, owner Owner) error {
	clause, arg := owner.clause()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE games SET status=?, guesses=0, answer='', finished_at=NULL WHERE id=? AND `+clause,
		StatusPlaying, id, arg); err != nil {
		return fmt.Errorf("history: reset game %s: %w", id, err)
	}
	return nil
}

// FinishGame stores the outcome and answer of a game and, for registered
// owners, bumps their stats in the same transaction.
func (s *Store) FinishGame(ctx context.Context, id string, owner Owner, won bool, answer string, at time.Time) error {
	status := StatusLost
	if won {
		status = StatusWon
	}
	clause, arg := owner.clause()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE games SET status=?, answer=?, finished_at=? WHERE id=? AND status=? AND `+clause,
		status, answer, at.UTC().Format(time.RFC3339), id, StatusPlaying, arg)
	if err != nil {
		return fmt.Errorf("history: finish game %s: %w", id, err)
	}
	// Already finished: stats were counted the first time.
	if n, _ := res.RowsAffected(); n == 0 {
		return tx.Commit()
	}
	if owner.UserID != "" {
		if err := bumpStats(ctx, tx, owner.UserID, won); err != nil {
			return fmt.Errorf("history: bump stats %s: %w", owner.UserID, err)
		}
	}
	return tx.Commit()
}

// bumpStats increments games played and updates wins and streaks (within tx).
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var st Stats
	row := tx.QueryRowContext(ctx,
		`SELECT games_played, wins, streak, best_streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&st.GamesPlayed, &st.Wins, &st.Streak, &st.BestStreak); err != nil {
		return err
	}
	st.GamesPlayed++
	if won {
		st.Wins++
		st.Streak++
		if st.Streak > st.BestStreak {
			st.BestStreak = st.Streak
		}
	} else {
		st.Streak = 0
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET games_played=?, wins=?, streak=?, best_streak=? WHERE id=?`,
		st.GamesPlayed, st.Wins, st.Streak, st.BestStreak, userID)
	return err
}

// UserStats returns the aggregate results of a registered player.
func (s *Store) UserStats(ctx context.Context, userID string) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT games_played, wins, streak, best_streak FROM users WHERE id=?`, userID,
	).Scan(&st.GamesPlayed, &st.Wins, &st.Streak, &st.BestStreak)
	if err != nil {
		return Stats{}, fmt.Errorf("history: stats %s: %w", userID, err)
	}
	return st, nil
}

// RecentGames lists a registered player's games, newest first.
// limit <= 0 means 50.
func (s *Store) RecentGames(ctx context.Context, userID string, limit int) ([]GameRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mode, status, answer, guesses, started_at, COALESCE(finished_at,'')
		 FROM games WHERE user_id=? ORDER BY started_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent games: %w", err)
	}
	defer rows.Close()

	out := []GameRow{}
	for rows.Next() {
		var g GameRow
		if err := rows.Scan(&g.ID, &g.Mode, &g.Status, &g.Answer, &g.Guesses, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ClaimAnonGames transfers an anonymous player's games to a user account.
func (s *Store) ClaimAnonGames(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		return fmt.Errorf("history: claim anon games: %w", err)
	}
	return nil
}
