package slug_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/mindengage-authoring/internal/slug"
)

var shape = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*-[a-z0-9]{3}$`)

func TestSlugifyBounds(t *testing.T) {
	names := []string{
		"",
		"---",
		"Intro to Go",
		"  Hello,   World!!  ",
		"ÜBER Straße 2024",
		strings.Repeat("Mixed-Case & Punctuation!! ", 8),
		strings.Repeat("a", 46) + "-" + strings.Repeat("b", 60),
	}
	for _, n := range names {
		s := slug.Slugify(n)
		assert.LessOrEqual(t, len(s), slug.MaxLen, "name %q", n)
		assert.Regexp(t, shape, s, "name %q", n)
	}
}

func TestSlugifyDeterministicSuffix(t *testing.T) {
	g := slug.Generator{Intn: func(int) int { return 0 }}
	assert.Equal(t, "intro-to-go-aaa", g.Slugify("Intro to Go"))
	assert.Equal(t, "untitled-aaa", g.Slugify("!!!"))

	// truncation never leaves a hyphen before the suffix separator
	long := strings.Repeat("x", 45) + " yz"
	assert.Equal(t, strings.Repeat("x", 45)+"-aaa", g.Slugify(long))
}

func TestBase(t *testing.T) {
	assert.Equal(t, "c-and-c-plus-plus", slug.Base("  C and C plus plus "))
	assert.Equal(t, "a-b", slug.Base("--a__b--"))
	assert.Equal(t, "", slug.Base("***"))
}
