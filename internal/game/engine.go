// internal/game/engine.go
//
// Core game engine for a single Wordle game.
// Responsibilities:
//   - Select the secret word from a word catalog through an injected random source.
//   - Validate and score guesses using the two-pass, per-letter counted algorithm.
//   - Track state transitions: playing → won/lost.
//
// Notes:
//   - Catalog membership is not required to score a guess; callers that want
//     strict dictionary play check IsInWordList first.
//   - An Engine is owned by a single caller and carries no locks.

package game

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/robalobadob/wordle/engine/internal/words"
)

// RandomSource returns a value in [0, n).
type RandomSource func(n int) int

// CryptoSource draws from crypto/rand.
func CryptoSource(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// Engine is a Wordle game: Rules bookkeeping plus the secret word and scoring.
type Engine struct {
	Rules

	list    *words.List
	rnd     RandomSource
	secret  string
	won     bool
	guesses []Result
}

// Option configures an Engine built by NewEngine.
type Option func(*engineConfig)

type engineConfig struct {
	maxAttempts int
	list        *words.List
	rnd         RandomSource
	secret      string
}

// WithMaxAttempts overrides the attempt budget (default 6).
func WithMaxAttempts(n int) Option {
	return func(c *engineConfig) { c.maxAttempts = n }
}

// WithWordList sets the catalog secrets are drawn from.
func WithWordList(l *words.List) Option {
	return func(c *engineConfig) { c.list = l }
}

// WithRandom sets the random source used to draw secrets.
func WithRandom(src RandomSource) Option {
	return func(c *engineConfig) { c.rnd = src }
}

// WithSecret pins the first secret instead of drawing one.
// The word must be 5 letters; it does not need to be in the catalog.
func WithSecret(word string) Option {
	return func(c *engineConfig) { c.secret = word }
}

// NewEngine constructs a game ready for its first guess.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := engineConfig{maxAttempts: DefaultMaxAttempts}
	for _, o := range opts {
		o(&cfg)
	}
	rules, err := NewRules(cfg.maxAttempts)
	if err != nil {
		return nil, err
	}
	if cfg.list == nil {
		cfg.list = words.Default()
	}
	if cfg.rnd == nil {
		cfg.rnd = CryptoSource
	}

	e := &Engine{Rules: rules, list: cfg.list, rnd: cfg.rnd}
	if cfg.secret != "" {
		if !IsValidWord(cfg.secret) {
			return nil, fmt.Errorf("engine: secret %q is not a %d-letter word", cfg.secret, WordLength)
		}
		e.secret = StandardizeInput(cfg.secret)
	} else {
		e.secret = e.selectRandomWord()
	}
	return e, nil
}

func (e *Engine) selectRandomWord() string {
	return e.list.Pick(e.rnd)
}

// IsValidWord reports whether word is exactly 5 ASCII letters, in either case.
// It says nothing about catalog membership.
func IsValidWord(word string) bool {
	return IsCorrectLength(word) && IsOnlyLetters(word)
}

// IsValidWord is the structural validity gate for guesses.
func (e *Engine) IsValidWord(word string) bool { return IsValidWord(word) }

// IsInWordList reports whether the uppercased word is in the engine's catalog.
func (e *Engine) IsInWordList(word string) bool {
	if word == "" {
		return false
	}
	return e.list.Contains(StandardizeInput(word))
}

// CheckGuess scores guess against the secret word.
//
// Structurally invalid guesses, and any guess once the game is over, produce
// an Invalid result and leave the engine untouched.
//
// Scoring:
//   - Pass 1 marks exact matches Correct and counts each as consumed on both
//     the secret side and the guess side.
//   - Every non-exact secret position then adds its letter to the secret side,
//     so secretCount holds each letter's full multiplicity in the secret.
//   - Pass 2 marks a non-exact guess letter Present while the secret still has
//     more of that letter than the guess has consumed, otherwise Absent.
func (e *Engine) CheckGuess(guess string) Result {
	if !e.IsValidWord(guess) || !e.CanMakeAttempt() {
		return invalidResult()
	}

	guess = StandardizeInput(guess)
	e.recordAttempt()

	var secretCount, guessCount [26]int
	res := Result{Status: StatusScored, Guess: guess}

	for i := 0; i < WordLength; i++ {
		if guess[i] == e.secret[i] {
			res.Marks[i] = MarkCorrect
			secretCount[idx(e.secret[i])]++
			guessCount[idx(guess[i])]++
		}
	}

	for i := 0; i < WordLength; i++ {
		if res.Marks[i] != MarkCorrect {
			secretCount[idx(e.secret[i])]++
		}
	}

	for i := 0; i < WordLength; i++ {
		if res.Marks[i] == MarkCorrect {
			continue
		}
		j := idx(guess[i])
		if secretCount[j] > guessCount[j] {
			res.Marks[i] = MarkPresent
			guessCount[j]++
		} else {
			res.Marks[i] = MarkAbsent
		}
	}

	e.won = guess == e.secret
	e.guesses = append(e.guesses, res)
	if e.IsGameOver() {
		e.EndGame()
	}
	return res
}

// IsGameOver reports whether the game was won or the attempts are used up.
func (e *Engine) IsGameOver() bool {
	return e.won || e.currentAttempts >= e.maxAttempts
}

// Won reports whether the secret word was guessed.
func (e *Engine) Won() bool { return e.won }

// GameStatus returns the win, loss or progress message for the game.
func (e *Engine) GameStatus() string {
	if e.won {
		unit := "attempts"
		if e.currentAttempts == 1 {
			unit = "attempt"
		}
		return fmt.Sprintf("Congratulations! You guessed the word in %d %s!", e.currentAttempts, unit)
	}
	if e.currentAttempts >= e.maxAttempts {
		return "Game Over! The word was: " + e.secret
	}
	return fmt.Sprintf("Keep guessing! Attempts left: %d", e.RemainingAttempts())
}

// ResetGame clears the bookkeeping, the outcome and the board.
// The secret word is kept; call NewRound to draw a new one.
func (e *Engine) ResetGame() {
	e.Rules.ResetGame()
	e.won = false
	e.guesses = nil
}

// NewRound resets the game and draws a new secret word.
func (e *Engine) NewRound() {
	e.ResetGame()
	e.secret = e.selectRandomWord()
}

// Secret returns the current secret word.
func (e *Engine) Secret() string { return e.secret }

// Guesses returns the scored results of the current round, oldest first.
func (e *Engine) Guesses() []Result {
	return append([]Result(nil), e.guesses...)
}

// idx maps an uppercase ASCII letter to 0..25.
// Inputs are validated by IsValidWord before scoring.
func idx(c byte) int { return int(c - 'A') }

var _ Game = (*Engine)(nil)
