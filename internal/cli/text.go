package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/robalobadob/wordle/engine/internal/game"
)

// TextDisplay writes the board as plain text: [A] correct, (A) present,
// and  a  absent.
type TextDisplay struct {
	W io.Writer
}

func (d TextDisplay) ShowFeedback(res game.Result) {
	var b strings.Builder
	for i := 0; i < len(res.Guess) && i < game.WordLength; i++ {
		c := res.Guess[i]
		switch res.Marks[i] {
		case game.MarkCorrect:
			fmt.Fprintf(&b, "[%c]", c)
		case game.MarkPresent:
			fmt.Fprintf(&b, "(%c)", c)
		default:
			fmt.Fprintf(&b, " %c ", c+('a'-'A'))
		}
	}
	fmt.Fprintf(d.W, "%s   %s\n", b.String(), res.Feedback())
}

func (d TextDisplay) UpdateStatus(status string) {
	fmt.Fprintln(d.W, status)
}

func (d TextDisplay) GameOver(status string) {
	fmt.Fprintf(d.W, "\n%s\n", status)
}
