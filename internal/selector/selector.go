// internal/selector/selector.go
//
// Guess selection by bucket-collision score.
// Responsibilities:
//   - Score every allowed guess against the candidate set: Σ over the 243 feedback
//     buckets of bucket size squared (lower is better).
//   - Pick the best guess, the safe alternatives within a size-dependent band and
//     the cheapest guess outside that band.
//
// Scoring fans out over goroutines; both selection passes then run sequentially
// over the score slice so the result only depends on the inputs.

package selector

import (
	"context"
	"errors"
	"runtime"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/Storm-fyre/silversolver/internal/feedback"
	"github.com/Storm-fyre/silversolver/internal/hardmode"
)

var (
	ErrNoCandidates = errors.New("selector: candidate set is empty")
	ErrNoGuesses    = errors.New("selector: guess list is empty")
)

// Options tune Select. The zero value scores with feedback.Encode on GOMAXPROCS workers.
type Options struct {
	Encoder feedback.Func
	Workers int
	// Hard, when set, restricts the scored pool to guesses it allows.
	// If nothing qualifies the full list is scored instead.
	Hard *hardmode.Constraints
}

// Result is one selection.
type Result struct {
	BestWord string
	// SafeAlternatives starts with BestWord; the rest follow dictionary order.
	SafeAlternatives []string
	// CostlyAlternative is empty when every other guess was safe.
	CostlyAlternative string
}

// Threshold is the allowed gap in expected collisions for a safe alternative
// at candidate-set size n.
func Threshold(n int) float64 {
	switch {
	case n > 300:
		return 2
	case n > 20:
		return 0.5
	default:
		return 0
	}
}

// Score returns Σ bucket² for guess over candidates.
func Score(guess string, candidates []string, enc feedback.Func) int {
	if enc == nil {
		enc = feedback.Encode
	}
	var buckets [feedback.NumCodes]int
	for _, s := range candidates {
		buckets[enc(guess, s)]++
	}
	score := 0
	for _, n := range buckets {
		score += n * n
	}
	return score
}

func distinct(w string) int {
	return len(lo.Uniq([]byte(w)))
}

// Select picks the next guess for candidates from guesses.
func Select(ctx context.Context, candidates, guesses []string, opts Options) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}
	pool := guesses
	if opts.Hard != nil {
		if allowed := lo.Filter(guesses, func(g string, _ int) bool { return opts.Hard.Allows(g) }); len(allowed) > 0 {
			pool = allowed
		}
	}
	if len(pool) == 0 {
		return Result{}, ErrNoGuesses
	}

	scores, err := scoreAll(ctx, pool, candidates, opts)
	if err != nil {
		return Result{}, err
	}

	// Pass 1: minimum score, ties to strictly more distinct letters.
	best := 0
	bestDistinct := distinct(pool[0])
	for i := 1; i < len(pool); i++ {
		switch {
		case scores[i] < scores[best]:
			best, bestDistinct = i, distinct(pool[i])
		case scores[i] == scores[best]:
			if d := distinct(pool[i]); d > bestDistinct {
				best, bestDistinct = i, d
			}
		}
	}

	n := float64(len(candidates))
	bestE := float64(scores[best]) / n
	limit := Threshold(len(candidates))

	// Pass 2: safe band and the cheapest reject.
	res := Result{
		BestWord:         pool[best],
		SafeAlternatives: []string{pool[best]},
	}
	costly, costlyE := -1, 0.0
	for i, g := range pool {
		if i == best {
			continue
		}
		e := float64(scores[i]) / n
		if e-bestE <= limit {
			res.SafeAlternatives = append(res.SafeAlternatives, g)
		} else if costly < 0 || e < costlyE {
			costly, costlyE = i, e
		}
	}
	if costly >= 0 {
		res.CostlyAlternative = pool[costly]
	}
	return res, nil
}

// scoreAll scores pool in contiguous shards, one per worker.
func scoreAll(ctx context.Context, pool, candidates []string, opts Options) ([]int, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(pool))
	scores := make([]int, len(pool))

	g, ctx := errgroup.WithContext(ctx)
	shard := (len(pool) + workers - 1) / workers
	for start := 0; start < len(pool); start += shard {
		start, end := start, min(start+shard, len(pool))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if (i-start)%64 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				scores[i] = Score(pool[i], candidates, opts.Encoder)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}
