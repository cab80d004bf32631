// Package cli runs a Wordle game in a terminal.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/engine/internal/game"
)

const (
	MsgEmptyInput   = "Please enter a word!"
	MsgInvalidInput = "Invalid word! Please enter a 5-letter word."
)

// Display is what the play loop needs from a presentation layer.
type Display interface {
	ShowFeedback(res game.Result)
	UpdateStatus(status string)
	GameOver(status string)
}

// Play reads one guess per line from in until g is over, ctx is done, or in
// runs out. Running out of input before the game ends is io.ErrUnexpectedEOF.
func Play(ctx context.Context, g game.Game, in io.Reader, d Display) error {
	lines := bufio.NewScanner(in)
	d.UpdateStatus(g.GameStatus())

	for !g.IsGameOver() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return fmt.Errorf("cli: read guess: %w", err)
			}
			return io.ErrUnexpectedEOF
		}

		guess := strings.TrimSpace(lines.Text())
		if guess == "" {
			d.UpdateStatus(MsgEmptyInput)
			continue
		}
		res := g.CheckGuess(guess)
		if !res.Valid() {
			log.Debug().Str("guess", guess).Msg("rejected guess")
			d.UpdateStatus(MsgInvalidInput)
			continue
		}
		d.ShowFeedback(res)
		if !g.IsGameOver() {
			d.UpdateStatus(g.GameStatus())
		}
	}

	d.GameOver(g.GameStatus())
	return nil
}
