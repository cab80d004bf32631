// internal/game/types.go
//
// Core type definitions for the Wordle game engine.
// Defines:
//   - Mark: per-letter result of a guess (correct/present/absent).
//   - Status: whether a submitted guess was scored or rejected.
//   - Result: the structured feedback for one submitted guess.

package game

// WordLength is the number of letters in every secret word and guess.
const WordLength = 5

// DefaultMaxAttempts is the attempt budget of a standard Wordle game.
const DefaultMaxAttempts = 6

// Mark represents the evaluation result for a single letter in a guess.
// Possible values:
//   - "correct": letter is in the secret word at this position.
//   - "present": letter is in the secret word but elsewhere, within its
//     remaining multiplicity.
//   - "absent":  letter has no remaining unmatched occurrence in the secret.
type Mark string

const (
	MarkCorrect Mark = "correct"
	MarkPresent Mark = "present"
	MarkAbsent  Mark = "absent"
)

// Letter returns the single-character code of m: G, Y or X.
func (m Mark) Letter() byte {
	switch m {
	case MarkCorrect:
		return 'G'
	case MarkPresent:
		return 'Y'
	default:
		return 'X'
	}
}

// markFromLetter is the inverse of Mark.Letter.
func markFromLetter(c byte) (Mark, bool) {
	switch c {
	case 'G':
		return MarkCorrect, true
	case 'Y':
		return MarkPresent, true
	case 'X':
		return MarkAbsent, true
	}
	return "", false
}

// Status tags a Result.
type Status string

const (
	// StatusInvalid means the guess was rejected and no attempt was consumed.
	StatusInvalid Status = "invalid"
	// StatusScored means the guess consumed an attempt and carries marks.
	StatusScored Status = "scored"
)

// Result is the feedback for a single guess submission.
// Guess is the uppercased guess for scored results and empty for invalid ones.
type Result struct {
	Status Status           `json:"status"`
	Guess  string           `json:"guess"`
	Marks  [WordLength]Mark `json:"marks"`
}

// Valid reports whether r was scored.
func (r Result) Valid() bool { return r.Status == StatusScored }

// Solved reports whether every mark is MarkCorrect.
func (r Result) Solved() bool {
	if !r.Valid() {
		return false
	}
	for _, m := range r.Marks {
		if m != MarkCorrect {
			return false
		}
	}
	return true
}

// invalidResult is returned for every rejected guess.
func invalidResult() Result {
	r := Result{Status: StatusInvalid}
	for i := range r.Marks {
		r.Marks[i] = MarkAbsent
	}
	return r
}

// Game is the capability set every concrete guessing game implements on top
// of the shared Rules bookkeeping.
type Game interface {
	// CheckGuess scores guess, consuming an attempt when it is valid.
	CheckGuess(guess string) Result

	// IsGameOver reports whether the game has been won or the attempt budget
	// is exhausted.
	IsGameOver() bool

	// GameStatus returns a human-readable status line.
	GameStatus() string
}
