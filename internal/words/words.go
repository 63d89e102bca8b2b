// internal/words/words.go
//
// Dictionary loading for the solver.
//
// Responsibilities:
//   - Read the guess and solution lists from a configured source.
//   - Normalise words (trim, uppercase, exactly 5 letters A–Z, first occurrence wins).
//   - Load lazily exactly once per Loader; concurrent callers share that load and a
//     failure is terminal for the Loader.
//
// Word Lists:
//   - "guesses":   every word the solver may suggest, in dictionary order.
//   - "solutions": the words that can be the secret answer.
//     Solutions ⊆ guesses is expected but not enforced.
//
// Sources (see SourceFor):
//  1. WORDS_DB set: read both lists from a SQLite database (internal/wordsdb).
//  2. WORDS_GUESSES_FILE and WORDS_SOLUTIONS_FILE set: read two files
//     (".json" arrays or one word per line).
//  3. Only WORDS_GUESSES_FILE set: use that file for both lists.
//  4. Neither set: embedded defaults from assets/.

package words

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/Storm-fyre/silversolver/assets"
	"github.com/Storm-fyre/silversolver/internal/feedback"
	"github.com/Storm-fyre/silversolver/internal/wordsdb"
)

var (
	// ErrLoadFailed wraps any failure to read or parse the word lists.
	ErrLoadFailed  = errors.New("word lists failed to load")
	ErrNoSolutions = errors.New("words: solutions list is empty")
	ErrNoGuesses   = errors.New("words: guesses list is empty")
)

// Dictionary holds the two immutable word lists.
type Dictionary struct {
	Guesses   []string
	Solutions []string

	guessSet map[string]struct{}
}

// NewDictionary normalises both lists and builds the guess lookup set.
func NewDictionary(guesses, solutions []string) (*Dictionary, error) {
	d := &Dictionary{
		Guesses:   Normalize(guesses),
		Solutions: Normalize(solutions),
	}
	if len(d.Solutions) == 0 {
		return nil, ErrNoSolutions
	}
	if len(d.Guesses) == 0 {
		return nil, ErrNoGuesses
	}
	d.guessSet = lo.Associate(d.Guesses, func(w string) (string, struct{}) {
		return w, struct{}{}
	})
	return d, nil
}

// IsGuess reports whether w (any case) is an allowed guess.
func (d *Dictionary) IsGuess(w string) bool {
	_, ok := d.guessSet[strings.ToUpper(w)]
	return ok
}

// Stats returns counts of loaded words: (solutions, guesses).
func (d *Dictionary) Stats() (solutions int, guesses int) {
	return len(d.Solutions), len(d.Guesses)
}

// Normalize trims and uppercases words, keeps only valid 5-letter words and
// drops repeats while preserving first-seen order.
func Normalize(list []string) []string {
	out := lo.FilterMap(list, func(w string, _ int) (string, bool) {
		w = strings.ToUpper(strings.TrimSpace(w))
		return w, IsWord(w)
	})
	return lo.Uniq(out)
}

// IsWord reports whether s is exactly 5 uppercase ASCII letters.
func IsWord(s string) bool {
	if len(s) != feedback.WordLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// -------------------------------- sources ----------------------------------

// Source produces the raw guess and solution lists.
type Source func(ctx context.Context) (guesses, solutions []string, err error)

// Embedded reads the default lists compiled into the binary.
func Embedded() Source {
	return func(ctx context.Context) ([]string, []string, error) {
		return assets.Guesses(), assets.Solutions(), nil
	}
}

// Files reads both lists from disk. An empty solutionsPath reuses the guesses file.
func Files(guessesPath, solutionsPath string) Source {
	return func(ctx context.Context) ([]string, []string, error) {
		g, err := ReadWordFile(guessesPath)
		if err != nil {
			return nil, nil, err
		}
		if solutionsPath == "" {
			return g, g, nil
		}
		s, err := ReadWordFile(solutionsPath)
		if err != nil {
			return nil, nil, err
		}
		return g, s, nil
	}
}

// SQLite reads both lists from a word-list database built by cmd/wordlists.
func SQLite(dsn string) Source {
	return func(ctx context.Context) ([]string, []string, error) {
		db, err := wordsdb.Open(dsn)
		if err != nil {
			return nil, nil, err
		}
		defer db.Close()
		return wordsdb.Load(ctx, db)
	}
}

// Static serves fixed lists; mostly useful in tests and tools.
func Static(guesses, solutions []string) Source {
	return func(ctx context.Context) ([]string, []string, error) {
		return guesses, solutions, nil
	}
}

// SourceFor picks a source using the precedence documented at the top of this file.
func SourceFor(dbPath, guessesPath, solutionsPath string) Source {
	switch {
	case dbPath != "":
		return SQLite(dbPath)
	case guessesPath != "":
		return Files(guessesPath, solutionsPath)
	default:
		return Embedded()
	}
}

// ReadWordFile loads a word list from a ".json" array or a one-word-per-line file.
// Lines starting with '#' are comments.
func ReadWordFile(path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var out []string
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return out, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// -------------------------------- loader -----------------------------------

// Loader loads a Dictionary once and caches the outcome, success or failure.
type Loader struct {
	src  Source
	once sync.Once
	dict *Dictionary
	err  error
}

// NewLoader returns a Loader over src. Nothing is read until the first Load.
func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

// Load returns the dictionary, reading it on first use.
// Every caller, concurrent or later, observes the same result. The read keeps
// ctx values but ignores its cancellation.
func (l *Loader) Load(ctx context.Context) (*Dictionary, error) {
	l.once.Do(func() {
		g, s, err := l.src(context.WithoutCancel(ctx))
		if err == nil {
			l.dict, err = NewDictionary(g, s)
		}
		if err != nil {
			l.err = fmt.Errorf("%w: %w", ErrLoadFailed, err)
			log.Error().Err(err).Msg("word lists failed to load")
			return
		}
		sol, gs := l.dict.Stats()
		log.Info().Int("solutions", sol).Int("guesses", gs).Msg("word lists loaded")
	})
	return l.dict, l.err
}
