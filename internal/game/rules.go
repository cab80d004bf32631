// internal/game/rules.go
//
// Generic bookkeeping shared by fixed-length, fixed-attempt guessing games.
// Responsibilities:
//   - Attempt counting and remaining-attempts accounting.
//   - Active/over state.
//   - Input normalization and structural validation helpers.
//
// Concrete games embed Rules and implement the Game interface on top of it.

package game

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned when a game is configured with a
// non-positive attempt budget.
var ErrInvalidConfig = errors.New("maximum attempts must be greater than 0")

// Rules holds the attempt counters and the active flag of a game.
type Rules struct {
	maxAttempts     int
	currentAttempts int
	active          bool
}

// NewRules returns Rules with the given attempt budget.
func NewRules(maxAttempts int) (Rules, error) {
	if maxAttempts <= 0 {
		return Rules{}, fmt.Errorf("rules: %w (got %d)", ErrInvalidConfig, maxAttempts)
	}
	return Rules{maxAttempts: maxAttempts, active: true}, nil
}

// RemainingAttempts returns the unused part of the attempt budget.
func (r *Rules) RemainingAttempts() int { return r.maxAttempts - r.currentAttempts }

// MaxAttempts returns the attempt budget.
func (r *Rules) MaxAttempts() int { return r.maxAttempts }

// CurrentAttempt returns the number of attempts consumed so far.
func (r *Rules) CurrentAttempt() int { return r.currentAttempts }

// IsActive reports whether the game still accepts guesses.
func (r *Rules) IsActive() bool { return r.active }

// WordLength returns the length of words used in the game.
func (r *Rules) WordLength() int { return WordLength }

// ResetGame zeroes the attempt counter and reactivates the game.
// It does not touch anything owned by the concrete game, such as the secret.
func (r *Rules) ResetGame() {
	r.currentAttempts = 0
	r.active = true
}

// EndGame marks the game inactive. Calling it again has no effect.
func (r *Rules) EndGame() { r.active = false }

// CanMakeAttempt reports whether another attempt fits in the budget.
func (r *Rules) CanMakeAttempt() bool {
	return r.currentAttempts < r.maxAttempts && r.active
}

// IsValidGuess reports whether guess is structurally valid and the game is
// still active.
func (r *Rules) IsValidGuess(guess string) bool {
	return guess != "" && IsCorrectLength(guess) && IsOnlyLetters(guess) && r.active
}

// recordAttempt consumes one unit of the attempt budget.
func (r *Rules) recordAttempt() { r.currentAttempts++ }

// IsCorrectLength reports whether word has exactly WordLength characters.
func IsCorrectLength(word string) bool {
	return len(word) == WordLength
}

// IsOnlyLetters reports whether word is one or more ASCII letters, in either case.
func IsOnlyLetters(word string) bool {
	if word == "" {
		return false
	}
	for i := 0; i < len(word); i++ {
		c := word[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// StandardizeInput uppercases input. The empty string comes back unchanged.
func StandardizeInput(input string) string {
	if input == "" {
		return input
	}
	return strings.ToUpper(input)
}
