// assets/embed.go
//
// Default word lists compiled into every binary. They are a small sample
// (569 guesses, 429 solutions) for development and tests, not the full game lists;
// configure WORDS_DB or WORDS_GUESSES_FILE / WORDS_SOLUTIONS_FILE for real play.
//   - guesses.txt:   every word accepted as a guess
//   - solutions.txt: the words that can be the secret answer
//
// One word per line; blank lines and '#' comments are skipped. Words are
// returned upper-cased in file order; further validation happens in words.
package assets

import (
	_ "embed"
	"strings"

	"github.com/samber/lo"
)

var (
	//go:embed guesses.txt
	guessesTxt string
	//go:embed solutions.txt
	solutionsTxt string
)

// Guesses returns the embedded guess list.
func Guesses() []string { return lines(guessesTxt) }

// Solutions returns the embedded solution list.
func Solutions() []string { return lines(solutionsTxt) }

func lines(text string) []string {
	return lo.FilterMap(strings.Split(text, "\n"), func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return strings.ToUpper(s), s != "" && !strings.HasPrefix(s, "#")
	})
}
