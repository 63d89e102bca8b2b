// internal/feedback/feedback.go
//
// Feedback codes for a guess/answer pair.
// Responsibilities:
//   - Encode a guess against an answer into a single base-3 integer (0..242).
//   - Decode a code back into per-position colours and build codes from colours.
//   - Parse user-typed feedback ("GYBBY" or "21010") and render codes as text or tiles.
//
// Encoding:
//   - Per position: absent=0, present=1, correct=2.
//   - Least-significant digit is the leftmost letter.
//   - Repeated letters follow the two-pass consume-pool rule: an answer letter
//     already matched (green or yellow) cannot be matched again.

package feedback

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TwiN/go-color"
)

// WordLength is the fixed number of letters in every guess and answer.
const WordLength = 5

// NumCodes is the size of the feedback space (3^WordLength).
const NumCodes = 243

// Color is the state of one tile.
type Color uint8

const (
	Absent  Color = iota // grey
	Present              // yellow: letter elsewhere in the answer
	Correct              // green: letter in the right position
)

// Code is a packed feedback value in [0, NumCodes).
type Code uint8

// AllGreen is the code for a fully solved row.
const AllGreen Code = NumCodes - 1

// Func computes a feedback code. Encode is the canonical implementation;
// pattern tables provide cached ones with the same signature.
type Func func(guess, answer string) Code

var (
	ErrFeedbackLength = errors.New("feedback must have exactly 5 symbols")
	ErrFeedbackSymbol = errors.New("bad feedback symbol")
)

// Encode scores guess against answer.
//
// Pass 1 marks exact matches and consumes those answer slots.
// Pass 2 gives each remaining guess letter the first unconsumed matching
// answer slot, scanning left to right.
func Encode(guess, answer string) Code {
	n := min(len(guess), len(answer), WordLength)

	var col [WordLength]Color
	var pool [WordLength]byte
	copy(pool[:], answer[:n])

	for i := 0; i < n; i++ {
		if guess[i] == answer[i] {
			col[i] = Correct
			pool[i] = 0
		}
	}
	for i := 0; i < n; i++ {
		if col[i] != Absent {
			continue
		}
		for j := 0; j < n; j++ {
			if pool[j] != 0 && pool[j] == guess[i] {
				col[i] = Present
				pool[j] = 0
				break
			}
		}
	}
	return FromColors(col)
}

// FromColors packs per-position colours into a code.
func FromColors(col [WordLength]Color) Code {
	code, pow := 0, 1
	for _, c := range col {
		code += int(c) * pow
		pow *= 3
	}
	return Code(code)
}

// Colors unpacks a code into per-position colours.
func (c Code) Colors() [WordLength]Color {
	var col [WordLength]Color
	n := int(c)
	for i := range col {
		col[i] = Color(n % 3)
		n /= 3
	}
	return col
}

// Valid reports whether n is inside the feedback space.
func Valid(n int) bool { return n >= 0 && n < NumCodes }

// Parse converts typed feedback into a code.
//
// Accepts:
//   - letters: G = green, Y = yellow, B / X / . = grey
//   - digits:  2 = green, 1 = yellow, 0 = grey
//
// Case and spaces are ignored.
func Parse(text string) (Code, error) {
	text = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(text), " ", ""))
	if len(text) != WordLength {
		return 0, ErrFeedbackLength
	}
	var col [WordLength]Color
	for i := 0; i < WordLength; i++ {
		switch text[i] {
		case 'G', '2':
			col[i] = Correct
		case 'Y', '1':
			col[i] = Present
		case 'B', '0', 'X', '.':
			col[i] = Absent
		default:
			return 0, fmt.Errorf("%w %q", ErrFeedbackSymbol, text[i])
		}
	}
	return FromColors(col), nil
}

// String renders the code in the G/Y/B letter form accepted by Parse.
func (c Code) String() string {
	var b strings.Builder
	for _, col := range c.Colors() {
		b.WriteByte("BYG"[col])
	}
	return b.String()
}

// Colourise renders word as coloured terminal tiles for code.
func Colourise(word string, c Code) string {
	palette := [...]string{color.Gray, color.Yellow, color.Green}
	var b strings.Builder
	for i, col := range c.Colors() {
		ch := " "
		if i < len(word) {
			ch = word[i : i+1]
		}
		b.WriteString(color.Ize(color.Bold, color.Ize(palette[col], " "+ch+" ")))
	}
	return b.String()
}
