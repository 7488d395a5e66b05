package joincode

import (
	"strings"
	"testing"
)

func TestNewCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := New()
		if err != nil {
			t.Fatalf("new code: %v", err)
		}
		if len(code) != Length {
			t.Fatalf("expected length %d, got %q", Length, code)
		}
		for _, r := range code {
			if !strings.ContainsRune(Alphabet, r) {
				t.Fatalf("code %q contains %q outside alphabet", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 95 {
		t.Fatalf("expected near-unique codes, got %d distinct of 100", len(seen))
	}
}

func TestCodeByteUniform(t *testing.T) {
	counts := make(map[byte]int)
	rejected := 0
	for v := 0; v < 256; v++ {
		ch, ok := codeByte(byte(v))
		if !ok {
			rejected++
			continue
		}
		counts[ch]++
	}

	if want := 256 % len(Alphabet); rejected != want {
		t.Fatalf("rejected %d bytes, want %d", rejected, want)
	}
	want := 256 / len(Alphabet)
	for i := 0; i < len(Alphabet); i++ {
		if counts[Alphabet[i]] != want {
			t.Fatalf("%q drawn for %d byte values, want %d", Alphabet[i], counts[Alphabet[i]], want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  k7xq2p4m "); got != "K7XQ2P4M" {
		t.Fatalf("normalize: got %q", got)
	}
	if got := Normalize("K7XQ2P4M"); got != "K7XQ2P4M" {
		t.Fatalf("normalize should be stable, got %q", got)
	}
}
