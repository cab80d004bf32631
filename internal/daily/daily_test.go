package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/engine/internal/game"
	"github.com/robalobadob/wordle/engine/internal/words"
)

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	d := time.Date(2026, 10, 20, 5, 0, 0, 0, loc)
	assert.Equal(t, "2026-10-19", DateKey(d))
}

func TestWordIndexDeterministic(t *testing.T) {
	morning := time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC)

	a := WordIndex(morning, "salt", 20)
	assert.Equal(t, a, WordIndex(evening, "salt", 20))
	assert.GreaterOrEqual(t, a, 0)
	assert.Less(t, a, 20)
	assert.Equal(t, 0, WordIndex(morning, "salt", 0))
}

func TestWordIndexVariesAcrossDays(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	seen := map[int]bool{}
	for i := 0; i < 60; i++ {
		seen[WordIndex(start.AddDate(0, 0, i), "salt", 20)] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestSourceDrivesEngine(t *testing.T) {
	day := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	a, err := game.NewEngine(game.WithRandom(Source(day, "salt")))
	require.NoError(t, err)
	b, err := game.NewEngine(game.WithRandom(Source(day, "salt")))
	require.NoError(t, err)

	assert.Equal(t, a.Secret(), b.Secret())
	assert.Equal(t, words.Default().At(WordIndex(day, "salt", words.Default().Len())), a.Secret())
}
