// Package slug derives bounded, URL-safe identifiers from display names.
package slug

import (
	"math/rand/v2"
	"strings"
)

const (
	MaxLen     = 50
	SuffixLen  = 3
	alphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
	emptyBase  = "untitled"
	maxBaseLen = MaxLen - SuffixLen - 1
)

// Generator produces slugs. Intn picks an index into the suffix alphabet; nil
// uses math/rand/v2.
type Generator struct {
	Intn func(n int) int
}

var defaultGenerator = Generator{}

// Slugify lower-cases name, collapses every run of non-alphanumerics into one
// hyphen, trims hyphens, caps the base and appends a random suffix. The suffix
// only makes collisions unlikely; the server still decides uniqueness.
func Slugify(name string) string { return defaultGenerator.Slugify(name) }

func (g Generator) Slugify(name string) string {
	base := Base(name)
	if len(base) > maxBaseLen {
		base = strings.TrimRight(base[:maxBaseLen], "-")
	}
	if base == "" {
		base = emptyBase
	}
	out := base + "-" + g.suffix()
	if len(out) > MaxLen {
		out = out[:MaxLen]
	}
	return out
}

// Base is the normalized part of a slug, without the suffix.
func Base(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

func (g Generator) suffix() string {
	intn := g.Intn
	if intn == nil {
		intn = rand.IntN
	}
	buf := make([]byte, SuffixLen)
	for i := range buf {
		buf[i] = alphabet[intn(len(alphabet))]
	}
	return string(buf)
}
