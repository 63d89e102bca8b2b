// cmd/precompute/main.go
//
// Builds the feedback pattern table for the configured word lists.
//
//	precompute                         embedded lists, writes $PATTERN_TABLE or cache/patterns.sspt
//	precompute -o table.sspt -db words.db
//	precompute -guesses g.txt -solutions s.txt -workers 4
//
// The table is only used by the solver when its fingerprint matches the lists
// the solver loads, so rebuild it whenever the lists change.

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/Storm-fyre/silversolver/internal/config"
	"github.com/Storm-fyre/silversolver/internal/pattern"
	"github.com/Storm-fyre/silversolver/internal/words"
)

const defaultOut = "cache/patterns.sspt"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.LogPretty = true
	cfg.SetupLogging()

	var (
		out       = flag.String("o", orDefault(cfg.PatternTable, defaultOut), "output file")
		dbPath    = flag.String("db", cfg.WordsDB, "read word lists from this SQLite database")
		guesses   = flag.String("guesses", cfg.WordsGuessesFile, "guess list file (.txt or .json)")
		solutions = flag.String("solutions", cfg.WordsSolutionsFile, "solution list file (.txt or .json)")
		workers   = flag.Int("workers", runtime.NumCPU(), "parallel rows")
		quiet     = flag.Bool("q", false, "no progress bar")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dict, err := words.NewLoader(words.SourceFor(*dbPath, *guesses, *solutions)).Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load word lists")
	}
	sol, gs := dict.Stats()
	log.Info().Int("guesses", gs).Int("solutions", sol).Msg("word lists loaded")

	var progress func()
	if !*quiet {
		bar := progressbar.Default(int64(gs), "rows")
		progress = func() { _ = bar.Add(1) }
	}

	start := time.Now()
	tbl, err := pattern.Build(ctx, dict.Guesses, dict.Solutions, *workers, progress)
	if err != nil {
		log.Fatal().Err(err).Msg("build pattern table")
	}
	if err := tbl.SaveFile(*out); err != nil {
		log.Fatal().Err(err).Str("path", *out).Msg("write pattern table")
	}
	log.Info().
		Str("path", *out).
		Int("bytes", gs*sol).
		Dur("took", time.Since(start)).
		Msg("pattern table written")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
