// internal/pattern/pattern.go
//
// Precomputed feedback table for a fixed dictionary.
// Responsibilities:
//   - Build the G×S matrix of feedback codes (guess rows, solution columns) in parallel.
//   - Persist it in a small binary format and load it back, refusing tables built
//     for a different dictionary.
//   - Serve as a drop-in feedback.Func for the selector.
//
// File format (little endian):
//
//	magic "SSPT" | version uint16 | G uint32 | S uint32 | fingerprint [32]byte | G·S code bytes

package pattern

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/Storm-fyre/silversolver/internal/feedback"
)

const version uint16 = 1

var magic = [4]byte{'S', 'S', 'P', 'T'}

var (
	ErrBadMagic   = errors.New("pattern: not a pattern table")
	ErrBadVersion = errors.New("pattern: unsupported table version")
	// ErrStaleTable means the table was built from different word lists.
	ErrStaleTable = errors.New("pattern: table does not match word lists")
)

type header struct {
	Magic       [4]byte
	Version     uint16
	Guesses     uint32
	Solutions   uint32
	Fingerprint [32]byte
}

// Table holds feedback codes for every (guess, solution) pair.
type Table struct {
	guesses   []string
	solutions []string
	gIdx      map[string]int
	sIdx      map[string]int
	codes     []byte // row-major, len(guesses)*len(solutions)
}

func newTable(guesses, solutions []string) *Table {
	t := &Table{
		guesses:   guesses,
		solutions: solutions,
		gIdx:      make(map[string]int, len(guesses)),
		sIdx:      make(map[string]int, len(solutions)),
		codes:     make([]byte, len(guesses)*len(solutions)),
	}
	for i, w := range guesses {
		t.gIdx[w] = i
	}
	for i, w := range solutions {
		t.sIdx[w] = i
	}
	return t
}

// Build computes the table using up to workers goroutines (0 or less means one
// per row). progress, if not nil, is called once per finished row and must be
// safe for concurrent use.
func Build(ctx context.Context, guesses, solutions []string, workers int, progress func()) (*Table, error) {
	t := newTable(guesses, solutions)
	S := len(solutions)

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for gi, guess := range guesses {
		gi, guess := gi, guess
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := t.codes[gi*S : (gi+1)*S]
			for si, answer := range solutions {
				row[si] = byte(feedback.Encode(guess, answer))
			}
			if progress != nil {
				progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

// Size returns the table dimensions (guesses, solutions).
func (t *Table) Size() (int, int) { return len(t.guesses), len(t.solutions) }

// Code returns the stored code for guess row gi and solution column si.
func (t *Table) Code(gi, si int) feedback.Code {
	return feedback.Code(t.codes[gi*len(t.solutions)+si])
}

// Encode looks up the pair and falls back to computing it for words outside the table.
func (t *Table) Encode(guess, answer string) feedback.Code {
	gi, ok := t.gIdx[guess]
	if !ok {
		return feedback.Encode(guess, answer)
	}
	si, ok := t.sIdx[answer]
	if !ok {
		return feedback.Encode(guess, answer)
	}
	return t.Code(gi, si)
}

// Fingerprint hashes both word lists in order.
func Fingerprint(guesses, solutions []string) [32]byte {
	h, _ := blake2b.New256(nil) // only fails for oversized keys
	for _, w := range guesses {
		h.Write([]byte(w))
		h.Write([]byte{'\n'})
	}
	h.Write([]byte{0})
	for _, w := range solutions {
		h.Write([]byte(w))
		h.Write([]byte{'\n'})
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// ---- persistence ----

// WriteTo implements io.WriterTo.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	hdr := header{
		Magic:       magic,
		Version:     version,
		Guesses:     uint32(len(t.guesses)),
		Solutions:   uint32(len(t.solutions)),
		Fingerprint: Fingerprint(t.guesses, t.solutions),
	}
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return 0, err
	}
	n, err := w.Write(buf.Bytes())
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(t.codes)
	return int64(n + m), err
}

// Read loads a table and checks it was built for exactly these word lists.
func Read(r io.Reader, guesses, solutions []string) (*Table, error) {
	var hdr header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if hdr.Magic != magic {
		return nil, ErrBadMagic
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, hdr.Version)
	}
	if int(hdr.Guesses) != len(guesses) || int(hdr.Solutions) != len(solutions) ||
		hdr.Fingerprint != Fingerprint(guesses, solutions) {
		return nil, ErrStaleTable
	}

	t := newTable(guesses, solutions)
	if _, err := io.ReadFull(r, t.codes); err != nil {
		return nil, fmt.Errorf("read codes: %w", err)
	}
	for _, c := range t.codes {
		if !feedback.Valid(int(c)) {
			return nil, fmt.Errorf("pattern: code %d out of range", c)
		}
	}
	return t, nil
}

// SaveFile writes the table to path, creating parent directories.
func (t *Table) SaveFile(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if _, err := t.WriteTo(bw); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a table written by SaveFile.
func LoadFile(path string, guesses, solutions []string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(bufio.NewReader(f), guesses, solutions)
}
