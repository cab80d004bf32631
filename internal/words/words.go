// internal/words/words.go
//
// Provides word catalog management for the game engine.
//
// Responsibilities:
//   - Load the secret word catalog from a file or fall back to the embedded default.
//   - Maintain a set for quick membership lookups.
//   - Supply utilities like Pick, Contains and Words.
//
// Catalog rules:
//   • Words must be 5 alphabetic letters (A–Z).
//   • Words are normalized to uppercase and deduplicated, keeping first order.
//   • A catalog is immutable once built and safe to share between games.

package words

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/wordle/engine/assets"
)

// Length is the number of letters in every catalog word.
const Length = 5

// ErrEmptyList is returned when a catalog would end up with no usable words.
var ErrEmptyList = errors.New("words: list is empty")

// List is an ordered, read-only catalog of uppercase 5-letter words.
type List struct {
	words []string
	set   map[string]struct{}
}

var (
	defaultOnce sync.Once
	defaultList *List
)

// Default returns the embedded built-in catalog.
// The embedded file is part of the binary, so failing to read it is fatal.
func Default() *List {
	defaultOnce.Do(func() {
		raw, err := assets.WordList()
		if err != nil {
			panic(fmt.Errorf("words: read embedded catalog: %w", err))
		}
		l, err := New(raw...)
		if err != nil {
			panic(err)
		}
		defaultList = l
	})
	return defaultList
}

// New builds a catalog from ws. Entries are trimmed and uppercased; entries
// that are not exactly 5 letters are skipped.
func New(ws ...string) (*List, error) {
	l := &List{set: make(map[string]struct{}, len(ws))}
	for _, w := range ws {
		w = strings.ToUpper(strings.TrimSpace(w))
		if len(w) != Length || !isAlpha(w) {
			continue
		}
		if _, dup := l.set[w]; dup {
			continue
		}
		l.set[w] = struct{}{}
		l.words = append(l.words, w)
	}
	if len(l.words) == 0 {
		return nil, ErrEmptyList
	}
	return l, nil
}

// Load returns the catalog stored at path, or Default when path is empty.
func Load(path string) (*List, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads one word per line from path. Blank lines and lines starting
// with '#' are ignored.
func LoadFile(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("words: open %s: %w", path, err)
	}
	defer f.Close()

	var raw []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw = append(raw, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("words: read %s: %w", path, err)
	}
	l, err := New(raw...)
	if err != nil {
		return nil, fmt.Errorf("words: %s: %w", path, err)
	}
	return l, nil
}

// Contains reports whether the uppercased w is in the catalog.
func (l *List) Contains(w string) bool {
	_, ok := l.set[strings.ToUpper(w)]
	return ok
}

// Len returns the number of words in the catalog.
func (l *List) Len() int { return len(l.words) }

// At returns the i-th word in catalog order.
func (l *List) At(i int) string { return l.words[i] }

// Words returns a copy of the catalog in order.
func (l *List) Words() []string {
	return append([]string(nil), l.words...)
}

// Pick returns the word at index rnd(Len()). rnd must return a value in [0, n).
func (l *List) Pick(rnd func(n int) int) string {
	return l.words[rnd(len(l.words))]
}

// isAlpha reports whether s is all uppercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
