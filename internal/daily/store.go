package daily

import (
	"context"
	"database/sql"
	"fmt"
)

// Result is one player's finished daily game.
type Result struct {
	PlayerID  string `json:"playerId"`
	Date      string `json:"date"`
	WordIndex int    `json:"wordIndex"`
	Guesses   int    `json:"guesses"`
	Won       bool   `json:"won"`
	ElapsedMs int    `json:"elapsedMs"`
}

// LBRow is a leaderboard entry.
type LBRow struct {
	PlayerID  string `json:"playerId"`
	Guesses   int    `json:"guesses"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Leaderboard sizes.
const (
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

// Store persists daily results in the daily_results table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether playerID has a result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, playerID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE player_id=? AND date=?`,
		playerID, date,
	).Scan(&cnt)
	if err != nil {
		return false, fmt.Errorf("daily: already played: %w", err)
	}
	return cnt > 0, nil
}

// InsertResult records r. A second result for the same player and date is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(player_id, date, word_index, guesses, won, elapsed_ms)
		 VALUES(?,?,?,?,?,?)`,
		r.PlayerID, r.Date, r.WordIndex, r.Guesses, r.Won, r.ElapsedMs,
	)
	if err != nil {
		return fmt.Errorf("daily: insert result: %w", err)
	}
	return nil
}

// Leaderboard returns the fastest winners of date: fewest guesses first,
// then elapsed time, then submission order. limit <= 0 means
// DefaultLeaderboardLimit and is capped at MaxLeaderboardLimit.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	switch {
	case limit <= 0:
		limit = DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		limit = MaxLeaderboardLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, guesses, elapsed_ms
		 FROM daily_results
		 WHERE date=? AND won=1
		 ORDER BY guesses ASC, elapsed_ms ASC, id ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("daily: leaderboard: %w", err)
	}
	defer rows.Close()

	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.PlayerID, &r.Guesses, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
