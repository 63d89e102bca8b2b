// cmd/wordlists/main.go
//
// Word-list conversion tool.
//
//	wordlists json   -guesses g.txt -solutions s.txt -out data/     writes guesses.json + solutions.json
//	wordlists sqlite -guesses g.txt -solutions s.txt -db words.db   imports both lists into SQLite
//	wordlists info   -db words.db                                   prints counts and import metadata
//
// Missing -guesses uses the embedded default lists. Lists are normalised
// (upper case, 5 letters A-Z, duplicates dropped) on the way through.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/Storm-fyre/silversolver/internal/words"
	"github.com/Storm-fyre/silversolver/internal/wordsdb"
)

const usage = "usage: wordlists <json|sqlite|info> [flags]"

var errUsage = errors.New(usage)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("wordlists")
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	var (
		guesses   = fs.String("guesses", "", "guess list file (.txt or .json)")
		solutions = fs.String("solutions", "", "solution list file (.txt or .json)")
		outDir    = fs.String("out", ".", "output directory (json)")
		dbPath    = fs.String("db", "words.db", "SQLite database (sqlite, info)")
	)
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	switch args[0] {
	case "json":
		dict, err := load(ctx, *guesses, *solutions)
		if err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(*outDir, "guesses.json"), dict.Guesses); err != nil {
			return err
		}
		if err := writeJSON(filepath.Join(*outDir, "solutions.json"), dict.Solutions); err != nil {
			return err
		}
		log.Info().Str("dir", *outDir).Int("guesses", len(dict.Guesses)).Int("solutions", len(dict.Solutions)).Msg("json written")
		return nil

	case "sqlite":
		dict, err := load(ctx, *guesses, *solutions)
		if err != nil {
			return err
		}
		db, err := wordsdb.Open(*dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := wordsdb.Migrate(ctx, db); err != nil {
			return err
		}
		if err := wordsdb.Import(ctx, db, dict.Guesses, dict.Solutions, describe(*guesses, *solutions)); err != nil {
			return err
		}
		log.Info().Str("db", *dbPath).Int("guesses", len(dict.Guesses)).Int("solutions", len(dict.Solutions)).Msg("sqlite imported")
		return nil

	case "info":
		db, err := wordsdb.Open(*dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		meta, err := wordsdb.Meta(ctx, db)
		if err != nil {
			return err
		}
		keys := lo.Keys(meta)
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(stdout, "%-12s %s\n", k, meta[k])
		}
		return nil
	}
	return errUsage
}

// load reads and normalises the lists through the same path the solver uses.
func load(ctx context.Context, guesses, solutions string) (*words.Dictionary, error) {
	return words.NewLoader(words.SourceFor("", guesses, solutions)).Load(ctx)
}

func describe(guesses, solutions string) string {
	if guesses == "" {
		return "embedded"
	}
	if solutions == "" {
		return guesses
	}
	return guesses + "," + solutions
}

func writeJSON(path string, list []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
