package gamesession

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/gamesession/pkg/domain"
)

// Player is what a Runner drives. Engine implements it.
type Player interface {
	Play(ctx context.Context, player domain.ActorID, action domain.Action) (domain.ClientEvent, error)
	Notifications(player domain.ActorID) []domain.EventEnvelope
}

// Runner plays games line by line from Input, writing results to Output.
//
// Commands: "start", "guess <word>" (or the bare word), "quit".
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
}

// NewRunner creates a Runner over the given IO.
func NewRunner(in io.Reader, out io.Writer) *Runner {
	return &Runner{Input: in, Output: out}
}

// Run reads commands until EOF, "quit" or ctx is done. Rejected actions are
// reported and the loop continues.
func (r *Runner) Run(ctx context.Context, p Player, player domain.ActorID) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewScanner(r.Input)

	if !r.Headless {
		fmt.Fprintf(r.Output, "--- gamesession: playing as %s ---\n", player)
		fmt.Fprintln(r.Output, "commands: start, guess <word>, quit")
	}

	var lastGuess string
	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			return nil
		}

		action, ok := ParseCommand(lines.Text())
		if !ok {
			if strings.TrimSpace(lines.Text()) != "" {
				fmt.Fprintf(r.Output, "unknown command %q\n", strings.TrimSpace(lines.Text()))
			}
			continue
		}
		if action == nil {
			if !r.Headless {
				fmt.Fprintln(r.Output, "Bye!")
			}
			return nil
		}
		if g, isGuess := action.(domain.SubmitGuess); isGuess {
			lastGuess = g.Word
		}

		ev, err := p.Play(ctx, player, action)
		switch {
		case errors.Is(err, domain.ErrShutdown), ctx.Err() != nil:
			return err
		case err != nil:
			fmt.Fprintf(r.Output, "error: %v\n", err)
		default:
			fmt.Fprintln(r.Output, Describe(ev, lastGuess))
		}

		for _, env := range p.Notifications(player) {
			if ev, err := env.Decode(); err == nil {
				fmt.Fprintf(r.Output, "notice: %s\n", Describe(ev, ""))
			}
		}
	}
}

// ParseCommand turns a console line into an action. It returns (nil, true)
// for quit and (nil, false) for anything it does not recognise.
func ParseCommand(line string) (domain.Action, bool) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil, false
	}
	switch fields[0] {
	case "quit", "exit":
		return nil, true
	case "start", "new":
		return domain.StartGame{}, len(fields) == 1
	case "guess":
		if len(fields) != 2 {
			return nil, false
		}
		return domain.SubmitGuess{Word: fields[1]}, true
	}
	if len(fields) == 1 && len(fields[0]) == domain.GuessLength {
		return domain.SubmitGuess{Word: fields[0]}, true
	}
	return nil, false
}

// Describe renders an event for the console. For a guess outcome with a
// known word, exact letters are upper case, present letters lower case and
// the rest are dots.
func Describe(ev domain.ClientEvent, guess string) string {
	switch v := ev.(type) {
	case domain.GameStarted:
		return "game started: guess the word"
	case domain.GuessOutcome:
		if len(guess) != domain.GuessLength {
			return fmt.Sprintf("exact %v, present %v", v.ExactPositions, v.PresentLetters)
		}
		mask := []byte(strings.Repeat(".", domain.GuessLength))
		for _, i := range v.PresentLetters {
			if i >= 0 && i < len(mask) {
				mask[i] = guess[i]
			}
		}
		for _, i := range v.ExactPositions {
			if i >= 0 && i < len(mask) {
				mask[i] = guess[i] - 'a' + 'A'
			}
		}
		return string(mask)
	case domain.GameEnded:
		return fmt.Sprintf("game over: %s", v.Outcome)
	}
	return fmt.Sprintf("%v", ev)
}
