// Package slugs builds URL slugs for published content.
package slugs

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/gosimple/slug"
)

// lowercase Base36 so suffixed slugs stay canonical
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

const (
	suffixLength = 6
	maxAttempts  = 5
)

// ErrExhausted is returned when no free slug was found.
var ErrExhausted = errors.New("no free slug")

// Make turns a title into a slug. It returns "" when nothing printable is left.
func Make(title string) string {
	return slug.Make(title)
}

// RandomSuffix returns a random lowercase Base36 string of length n.
func RandomSuffix(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid suffix length: %d", n)
	}

	// Rejection sampling avoids modulo bias.
	// 252 is the largest multiple of 36 below 256.
	const maxRandomByte = 252

	out := make([]byte, n)
	buf := make([]byte, n*2)
	written := 0
	for written < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			out[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == n {
				break
			}
		}
	}
	return string(out), nil
}

// Unique returns base, or base with a random suffix, such that exists
// reports it as free.
func Unique(ctx context.Context, base string, exists func(ctx context.Context, slug string) (bool, error)) (string, error) {
	if base == "" {
		return "", fmt.Errorf("%w: empty base", ErrExhausted)
	}
	candidate := base
	for attempt := 0; attempt < maxAttempts; attempt++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		suffix, err := RandomSuffix(suffixLength)
		if err != nil {
			return "", err
		}
		candidate = base + "-" + suffix
	}
	return "", fmt.Errorf("%w for %q", ErrExhausted, base)
}
