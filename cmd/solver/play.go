package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Storm-fyre/silversolver/internal/feedback"
	"github.com/Storm-fyre/silversolver/internal/session"
	"github.com/Storm-fyre/silversolver/internal/worker"
)

var errGaveUp = errors.New("solver: turn limit reached")

const helpText = `Commands:
  GYBBY / 21010   feedback for the suggested guess (G/2 green, Y/1 yellow, B/0/X/. grey)
  undo            take back the last feedback
  reroll          pick another opener
  alts            list the alternatives for the current turn
  use WORD        play WORD instead of the suggestion
  restart         start a new game
  quit            exit`

// autoplay solves for secret and returns the number of guesses used.
func autoplay(ctx context.Context, w *worker.Worker, secret string, out io.Writer, maxTurns int) (int, error) {
	resp, err := w.Do(ctx, session.Request{Kind: session.KindStart})
	if err != nil {
		return 0, err
	}
	for turn := 1; ; turn++ {
		if resp.Kind == session.RespError {
			return turn - 1, fmt.Errorf("solver: %s", resp.Error)
		}
		if turn > maxTurns {
			return turn - 1, errGaveUp
		}
		if resp.Kind == session.RespSolved {
			fmt.Fprintf(out, "\nTurn %d: %s\n", turn, feedback.Colourise(resp.Guess, feedback.AllGreen))
			fmt.Fprintf(out, "Solved! The word is %s in %d turns.\n", resp.Guess, turn)
			return turn, nil
		}

		guess := resp.Guess
		code := feedback.Encode(guess, secret)
		fmt.Fprintf(out, "\nTurn %d: suggested guess %s  (%d candidates)\n", turn, guess, resp.Remaining)
		fmt.Fprintln(out, feedback.Colourise(guess, code))
		if code == feedback.AllGreen {
			fmt.Fprintf(out, "Solved! The word is %s in %d turns.\n", guess, turn)
			return turn, nil
		}

		resp, err = w.Do(ctx, session.Request{Kind: session.KindNext, Feedback: int(code)})
		if err != nil {
			return turn, err
		}
	}
}

// interactive reads commands from in until quit or EOF.
func interactive(ctx context.Context, w *worker.Worker, in io.Reader, out io.Writer) error {
	resp, err := w.Do(ctx, session.Request{Kind: session.KindStart})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, helpText)
	// Alternatives per turn, so undo can bring back the earlier list.
	alts := map[int][]string{resp.Turn: resp.Alts}
	turn := resp.Turn
	show(out, resp)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		cmd, arg, _ := strings.Cut(line, " ")

		var req session.Request
		switch strings.ToLower(cmd) {
		case "":
			continue
		case "quit", "q", "exit":
			return nil
		case "help", "?":
			fmt.Fprintln(out, helpText)
			continue
		case "alts":
			if len(alts[turn]) == 0 {
				fmt.Fprintln(out, "No alternatives.")
			} else {
				fmt.Fprintln(out, "Alternatives:", strings.Join(alts[turn], " "))
			}
			continue
		case "undo":
			req = session.Request{Kind: session.KindUndo}
		case "reroll":
			req = session.Request{Kind: session.KindReroll}
		case "restart":
			req = session.Request{Kind: session.KindStart}
		case "use":
			req = session.Request{Kind: session.KindManual, Guess: strings.TrimSpace(arg)}
		default:
			code, err := feedback.Parse(line)
			if err != nil {
				fmt.Fprintf(out, "Could not read feedback: %v (type help)\n", err)
				continue
			}
			req = session.Request{Kind: session.KindNext, Feedback: int(code)}
		}

		resp, err := w.Do(ctx, req)
		if err != nil {
			return err
		}
		if req.Kind == session.KindStart && resp.Kind != session.RespError {
			clear(alts)
		}
		turn = resp.Turn
		if resp.Kind == session.RespGuess && !resp.Undone {
			alts[turn] = resp.Alts
		}
		show(out, resp)
	}
}

// show prints one engine response.
func show(out io.Writer, resp session.Response) {
	switch resp.Kind {
	case session.RespGuess:
		if resp.Undone {
			fmt.Fprintln(out, "Undone.")
		}
		fmt.Fprintf(out, "Turn %d: suggested guess %s  (%d candidates)\n", resp.Turn+1, resp.Guess, resp.Remaining)
		if resp.AltWarn != "" {
			fmt.Fprintf(out, "  fallback once the alternatives run out: %s (leaves more candidates)\n", resp.AltWarn)
		}
	case session.RespAck:
		if resp.Ignored {
			fmt.Fprintln(out, "Not in the guess list, keeping the current word.")
			return
		}
		fmt.Fprintf(out, "Playing %s instead.\n", resp.Guess)
	case session.RespSolved:
		fmt.Fprintln(out, feedback.Colourise(resp.Guess, feedback.AllGreen))
		fmt.Fprintf(out, "Solved! The word is %s.\n", resp.Guess)
	case session.RespError:
		fmt.Fprintln(out, resp.Error)
	}
}
