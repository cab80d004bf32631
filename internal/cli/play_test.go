package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle/engine/internal/game"
)

type recorder struct {
	feedback []string
	status   []string
	over     string
}

func (r *recorder) ShowFeedback(res game.Result) { r.feedback = append(r.feedback, res.String()) }
func (r *recorder) UpdateStatus(s string)        { r.status = append(r.status, s) }
func (r *recorder) GameOver(s string)            { r.over = s }

func newEngine(t *testing.T, secret string, opts ...game.Option) *game.Engine {
	t.Helper()
	e, err := game.NewEngine(append(opts, game.WithSecret(secret))...)
	require.NoError(t, err)
	return e
}

func TestPlayWin(t *testing.T) {
	e := newEngine(t, "HEART")
	rec := &recorder{}

	err := Play(context.Background(), e, strings.NewReader("\nabc\nearth\nheart\nunread\n"), rec)
	require.NoError(t, err)

	assert.Equal(t, []string{"EARTH:YYYYY", "HEART:GGGGG"}, rec.feedback)
	assert.Equal(t, []string{
		"Keep guessing! Attempts left: 6",
		MsgEmptyInput,
		MsgInvalidInput,
		"Keep guessing! Attempts left: 5",
	}, rec.status)
	assert.Equal(t, "Congratulations! You guessed the word in 2 attempts!", rec.over)
}

func TestPlayLoss(t *testing.T) {
	e := newEngine(t, "TIGER", game.WithMaxAttempts(2))
	rec := &recorder{}

	require.NoError(t, Play(context.Background(), e, strings.NewReader("cloud\nCLOUD\n"), rec))
	assert.Len(t, rec.feedback, 2)
	assert.Equal(t, "Game Over! The word was: TIGER", rec.over)
}

func TestPlayInputExhausted(t *testing.T) {
	e := newEngine(t, "TIGER")
	rec := &recorder{}

	err := Play(context.Background(), e, strings.NewReader("cloud\n"), rec)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Empty(t, rec.over)
}

func TestPlayCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Play(ctx, newEngine(t, "TIGER"), strings.NewReader("cloud\n"), &recorder{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTextDisplay(t *testing.T) {
	var buf bytes.Buffer
	d := TextDisplay{W: &buf}

	e := newEngine(t, "CRANE")
	d.ShowFeedback(e.CheckGuess("EERIE"))
	d.UpdateStatus(e.GameStatus())
	d.GameOver("done")

	assert.Equal(t, " e  e (R) i [E]   XXYXG\nKeep guessing! Attempts left: 5\n\ndone\n", buf.String())
}
