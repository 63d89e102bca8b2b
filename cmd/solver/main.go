// cmd/solver/main.go
//
// Terminal solver.
//
//	solver                 interactive: type the colours the game showed you
//	solver -secret CIGAR   autonomous: play against a known answer
//	solver -hard           only suggest guesses that honour every clue so far
//
// Word lists and the optional pattern table come from the same configuration as
// the HTTP service (WORDS_DB, WORDS_*_FILE, PATTERN_TABLE, .env, CONFIG_FILE).

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/TwiN/go-color"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/Storm-fyre/silversolver/internal/config"
	"github.com/Storm-fyre/silversolver/internal/feedback"
	"github.com/Storm-fyre/silversolver/internal/pattern"
	"github.com/Storm-fyre/silversolver/internal/session"
	"github.com/Storm-fyre/silversolver/internal/worker"
	"github.com/Storm-fyre/silversolver/internal/words"
)

func main() {
	var (
		hard     = flag.Bool("hard", false, "enforce hard-mode guesses")
		secret   = flag.String("secret", "", "play automatically against `WORD`")
		maxTurns = flag.Int("max-turns", 10, "give up after this many guesses (autonomous mode)")
		plain    = flag.Bool("plain", false, "disable coloured tiles")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}
	cfg.LogPretty = true
	cfg.SetupLogging()
	if *plain {
		color.Toggle(false)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loader := words.NewLoader(words.SourceFor(cfg.WordsDB, cfg.WordsGuessesFile, cfg.WordsSolutionsFile))
	dict, err := loader.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, session.Message(fmt.Errorf("%w: %w", session.ErrLoadFailed, err)))
		os.Exit(1)
	}
	sol, gs := dict.Stats()
	fmt.Printf("Word lists loaded  (guesses %d  |  solutions %d)\n", gs, sol)
	if cfg.EmbeddedWords() {
		fmt.Println("Using the embedded sample lists; set WORDS_DB or WORDS_GUESSES_FILE for the full game lists.")
	}

	enc := feedback.Encode
	if cfg.PatternTable != "" {
		if tbl, err := pattern.LoadFile(cfg.PatternTable, dict.Guesses, dict.Solutions); err != nil {
			log.Warn().Err(err).Str("path", cfg.PatternTable).Msg("pattern table unusable")
		} else {
			enc = tbl.Encode
		}
	}

	w := worker.Start(session.New(loader,
		session.WithHardMode(*hard || cfg.HardMode),
		session.WithEncoder(enc),
		session.WithWorkers(cfg.ScoreWorkers),
	))
	defer w.Close()

	if *secret != "" {
		word := strings.ToUpper(strings.TrimSpace(*secret))
		if !lo.Contains(dict.Solutions, word) {
			fmt.Fprintln(os.Stderr, "Secret word must be a valid solution word.")
			os.Exit(2)
		}
		if _, err := autoplay(ctx, w, word, os.Stdout, *maxTurns); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := interactive(ctx, w, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
