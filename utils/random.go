// File: utils/random.go
package utils

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strings"
)

// cryptoSource feeds math/rand/v2 from the operating system CSPRNG.
type cryptoSource struct{}

func (cryptoSource) Uint64() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return binary.LittleEndian.Uint64(b[:])
}

// NewCryptoRand returns a generator backed by crypto/rand. Map generation and
// reveal rolls use it in production.
func NewCryptoRand() *rand.Rand {
	return rand.New(cryptoSource{})
}

// NewSeededRand returns a deterministic generator for tests and replays.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandomColor returns a random "#rrggbb" color.
func NewRandomColor(r *rand.Rand) string {
	return fmt.Sprintf("#%02x%02x%02x", r.IntN(256), r.IntN(256), r.IntN(256))
}

// IsHexColor reports whether s is a "#rrggbb" color.
func IsHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, c := range s[1:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// NormalizeColor keeps a valid requested color (lowercased) and replaces
// anything else with a random one.
func NormalizeColor(requested string, r *rand.Rand) string {
	if IsHexColor(requested) {
		return strings.ToLower(requested)
	}
	return NewRandomColor(r)
}

// Abs returns the absolute value of x.
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
