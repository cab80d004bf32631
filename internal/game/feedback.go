package game

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedFeedback is returned by ParseResult for strings that are not in
// "GUESS:FEEDBACK" form.
var ErrMalformedFeedback = errors.New("malformed feedback")

const invalidTag = "INVALID"

// Feedback returns the G/Y/X code of the marks, e.g. "GYXXG".
func (r Result) Feedback() string {
	var b [WordLength]byte
	for i, m := range r.Marks {
		b[i] = m.Letter()
	}
	return string(b[:])
}

// String encodes r as "GUESS:FEEDBACK". Invalid results encode as
// "INVALID:XXXXX".
func (r Result) String() string {
	if !r.Valid() {
		return invalidTag + ":" + strings.Repeat("X", WordLength)
	}
	return r.Guess + ":" + r.Feedback()
}

// ParseResult decodes the output of Result.String.
func ParseResult(s string) (Result, error) {
	guess, code, ok := strings.Cut(s, ":")
	if !ok || len(code) != WordLength {
		return Result{}, fmt.Errorf("%w: %q", ErrMalformedFeedback, s)
	}
	if guess == invalidTag {
		return invalidResult(), nil
	}
	if !IsValidWord(guess) || guess != StandardizeInput(guess) {
		return Result{}, fmt.Errorf("%w: bad guess %q", ErrMalformedFeedback, guess)
	}
	r := Result{Status: StatusScored, Guess: guess}
	for i := 0; i < WordLength; i++ {
		m, ok := markFromLetter(code[i])
		if !ok {
			return Result{}, fmt.Errorf("%w: bad mark %q", ErrMalformedFeedback, code[i])
		}
		r.Marks[i] = m
	}
	return r, nil
}
