// Package groupcode generates and validates participation codes for
// private walking groups.
//
// Members choose their own numeric code when creating a private group
// (4–10 digits, unique across all groups). The Generator exists for
// clients that want the server to suggest a free code instead of
// inventing one: it draws random codes and probes them for uniqueness
// until it finds a free one or hits the retry cap.
package groupcode

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"regexp"

	"github.com/sjlee/walkinggo/internal/apperror"
)

const (
	// Alphabet is the character set suggested codes are drawn from.
	Alphabet = "0123456789"

	// Length of a suggested code. 10^6 possible codes dwarfs any
	// realistic group count.
	Length = 6

	// maxAttempts bounds the retry-until-unique loop. Hitting the cap
	// means the code space is effectively full and the caller gets
	// CodeSpaceExhausted rather than an unbounded spin.
	maxAttempts = 100
)

// codePattern is the shape of a client-supplied participation code.
var codePattern = regexp.MustCompile(`^[0-9]{4,10}$`)

// Valid reports whether a client-supplied code has an acceptable shape.
func Valid(code string) bool {
	return codePattern.MatchString(code)
}

// ExistsFunc probes whether a candidate code is already stored.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator produces collision-free participation codes.
//
// The randomness source is injected so tests can supply a deterministic
// byte stream; production callers use NewGenerator, which reads from
// crypto/rand.
type Generator struct {
	random io.Reader
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{random: rand.Reader}
}

// NewGeneratorWithSource returns a Generator reading randomness from the
// given source. For tests.
func NewGeneratorWithSource(source io.Reader) *Generator {
	return &Generator{random: source}
}

// Generate returns a code not currently in use according to exists.
//
// The check-then-use race (two requests suggested the same free code, both
// clients submit it) is closed later by the uniqueness check inside group
// creation, so a stale suggestion degrades to DuplicateCode there.
func (g *Generator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := g.randomCode()
		if err != nil {
			return "", fmt.Errorf("groupcode: drawing random code: %w", err)
		}

		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("groupcode: checking code uniqueness: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperror.CodeSpaceExhausted()
}

// randomCode draws Length characters from Alphabet, rejecting bytes that
// would bias the distribution toward the low end of the alphabet.
func (g *Generator) randomCode() (string, error) {
	code := make([]byte, Length)
	buf := make([]byte, 1)
	// Largest multiple of len(Alphabet) that fits in a byte; values at or
	// above it are redrawn to keep each character equally likely.
	limit := byte(256 - 256%len(Alphabet))

	for i := 0; i < Length; {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", err
		}
		if buf[0] >= limit {
			continue
		}
		code[i] = Alphabet[int(buf[0])%len(Alphabet)]
		i++
	}
	return string(code), nil
}
