// Package joincode generates and normalizes world join codes.
package joincode

import (
	"crypto/rand"
	"strings"
)

// Alphabet is the fixed code alphabet: uppercase letters and digits.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length of every generated code.
const Length = 8

// New returns a random join code. Uniqueness among active worlds is enforced
// by the caller against the storage layer, re-rolling on collision.
func New() (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length)
	for len(out) < Length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, v := range buf {
			ch, ok := codeByte(v)
			if !ok {
				continue
			}
			out = append(out, ch)
			if len(out) == Length {
				break
			}
		}
	}
	return string(out), nil
}

// codeByte maps one random byte onto the alphabet. Bytes at or above the
// largest multiple of the alphabet size are rejected, so 36 does not divide
// 256 unevenly across the low letters.
func codeByte(v byte) (byte, bool) {
	const limit = 256 - 256%len(Alphabet)
	if int(v) >= limit {
		return 0, false
	}
	return Alphabet[int(v)%len(Alphabet)], true
}

// Normalize folds user input to the canonical form: codes are matched
// case-insensitively.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
