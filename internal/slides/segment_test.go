package slides_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-authoring/internal/slides"
)

func titles(s []slides.Slide) []string {
	out := make([]string, len(s))
	for i := range s {
		out[i] = s[i].Title
	}
	return out
}

func assertContiguous(t *testing.T, s []slides.Slide) {
	t.Helper()
	require.NotEmpty(t, s)
	seen := map[string]bool{}
	for i, sl := range s {
		assert.Equal(t, i, sl.Order)
		assert.False(t, seen[sl.ID], "duplicate id %s", sl.ID)
		seen[sl.ID] = true
	}
}

func TestSegmentWithoutStructureIsOneSlide(t *testing.T) {
	cases := []string{
		"",
		"plain text only",
		"<p>para one</p>\n<h3>not a slide heading</h3><p>two</p>",
		"  <ul><li>leading whitespace is kept</li></ul>  ",
	}
	for _, in := range cases {
		got, strategy := slides.SegmentDetailed(in, "Module Title")
		require.Len(t, got, 1, "input %q", in)
		assert.Equal(t, slides.StrategyWhole, strategy)
		assert.Equal(t, in, got[0].Content)
		assert.Equal(t, "Module Title", got[0].Title)
		assert.Equal(t, 0, got[0].Order)
	}
}

func TestSegmentNestedContainerFindsOuterClose(t *testing.T) {
	in := `<div class="module-slide" data-slide="1">` +
		`<h2 class="slide-title">Nested</h2>` +
		`<div class="slide-content">A<div>B</div>C</div>` +
		`</div>`
	got, strategy := slides.SegmentDetailed(in, "fallback")
	require.Len(t, got, 1)
	assert.Equal(t, slides.StrategyMarkers, strategy)
	assert.Equal(t, "Nested", got[0].Title)
	assert.Equal(t, "A<div>B</div>C", got[0].Content)
}

func TestSegmentUnbalancedBodyRunsToEnd(t *testing.T) {
	in := `<div class="module-slide"><h2 class="slide-title">Broken</h2><div class="slide-content">A<div>B`
	got := slides.Segment(in, "fallback")
	require.Len(t, got, 1)
	assert.Equal(t, "Broken", got[0].Title)
	assert.Equal(t, "A<div>B", got[0].Content)
}

func TestSegmentMarkersDropEmptyBlocksAndDefaultTitles(t *testing.T) {
	in := `<div class="module-slide"></div>` +
		`<div class="module-slide"><div class="slide-content"><p>untitled body</p></div></div>` +
		`<div class="module-slide"><h2 class="slide-title">Real <em>one</em></h2><div class="slide-content">x</div></div>`
	got := slides.Segment(in, "fallback")
	assertContiguous(t, got)
	assert.Equal(t, []string{"Slide 2", "Real one"}, titles(got))
	assert.Equal(t, "<p>untitled body</p>", got[0].Content)
}

func TestSegmentMarkerWithoutContentContainer(t *testing.T) {
	in := `<div class="module-slide"><h2 class="slide-title">T</h2><p>hello</p><hr class="slide-separator" /></div>`
	got := slides.Segment(in, "fallback")
	require.Len(t, got, 1)
	assert.Equal(t, "T", got[0].Title)
	assert.Equal(t, "<p>hello</p>", got[0].Content)
}

func TestSegmentHeadingsInOrder(t *testing.T) {
	got, strategy := slides.SegmentDetailed("<h2>X</h2>p1<h2>Y</h2>p2", "fallback")
	assert.Equal(t, slides.StrategyHeadings, strategy)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"X", "Y"}, titles(got))
	assert.Equal(t, "<h2>X</h2>p1", got[0].Content)
	assert.Equal(t, "<h2>Y</h2>p2", got[1].Content)
	assertContiguous(t, got)
}

func TestSegmentShortPreambleDiscarded(t *testing.T) {
	got := slides.Segment("hi<h2>X</h2>body", "fallback")
	require.Len(t, got, 1)
	assert.Equal(t, "X", got[0].Title)
	assert.Equal(t, "<h2>X</h2>body", got[0].Content)
}

func TestSegmentPreambleCountsCharactersNotBytes(t *testing.T) {
	pre := strings.Repeat("é", 30)
	got := slides.Segment(pre+"<h2>X</h2>body", "fallback")
	require.Len(t, got, 1)
	assert.Equal(t, "X", got[0].Title)

	marked := pre + `<div class="module-slide"><h3 class="slide-title">A</h3><div class="slide-content"><p>a</p></div></div>`
	got = slides.Segment(marked, "fallback")
	assert.Equal(t, []string{"A"}, titles(got))
}

func TestSegmentLongPreambleBecomesIntroduction(t *testing.T) {
	pre := "<p>" + strings.Repeat("context ", 10) + "</p>"
	got := slides.Segment(pre+`<h2 class="x">First &amp; only</h2><p>b</p>`, "fallback")
	require.Len(t, got, 2)
	assert.Equal(t, []string{slides.IntroductionTitle, "First & only"}, titles(got))
	assert.Equal(t, pre, got[0].Content)
	assert.Equal(t, "slide-1", got[0].ID)
	assertContiguous(t, got)
}

func TestSegmentEmptyHeadingGetsSectionTitle(t *testing.T) {
	got := slides.Segment("<h2></h2>a<h2> </h2>b", "fallback")
	assert.Equal(t, []string{"Section 1", "Section 2"}, titles(got))
}

func TestAssembleRoundTrip(t *testing.T) {
	orig := []slides.Slide{
		{Title: "Intro & Setup", Content: `<p>Hello</p><div class="note">nested <div>deep</div></div>`},
		{Title: "Second", Content: "<ul><li>one</li></ul>"},
		{Title: "Third <b>bold</b>", Content: "<h2>inner heading</h2><p>text</p>"},
	}
	out := slides.Assemble(orig)
	assert.Equal(t, 2, strings.Count(out, slides.SeparatorClass))
	assert.Contains(t, out, `data-slide="3"`)

	got, strategy := slides.SegmentDetailed(out, "fallback")
	assert.Equal(t, slides.StrategyMarkers, strategy)
	require.Len(t, got, len(orig))
	for i := range orig {
		assert.Equal(t, orig[i].Title, got[i].Title)
		assert.Equal(t, orig[i].Content, got[i].Content)
		assert.Equal(t, i, got[i].Order)
	}

	// stable on a second pass
	again := slides.Segment(slides.Assemble(got), "fallback")
	assert.Equal(t, got, again)
}
