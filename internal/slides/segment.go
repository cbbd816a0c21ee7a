// Package slides splits module HTML into editable slides and assembles edited
// slides back into a single content blob.
package slides

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	MarkerClass    = "module-slide"
	TitleClass     = "slide-title"
	ContentClass   = "slide-content"
	SeparatorClass = "slide-separator"

	IntroductionTitle = "Introduction"
	// MinPreambleLength is how many characters of trimmed text before the first
	// slide it takes to become an introduction slide of its own.
	MinPreambleLength = 50
)

type Slide struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

type Strategy string

const (
	StrategyMarkers  Strategy = "markers"
	StrategyHeadings Strategy = "headings"
	StrategyWhole    Strategy = "whole"
)

// Segment turns content into a non-empty, contiguously ordered slide list.
func Segment(content, fallbackTitle string) []Slide {
	out, _ := SegmentDetailed(content, fallbackTitle)
	return out
}

// SegmentDetailed is Segment that also reports which strategy produced the slides.
func SegmentDetailed(content, fallbackTitle string) ([]Slide, Strategy) {
	toks := scan(content)
	if out := byMarkers(content, toks); len(out) > 0 {
		return Renumber(out), StrategyMarkers
	}
	if out := byHeadings(content, toks); len(out) > 0 {
		return Renumber(out), StrategyHeadings
	}
	return Renumber([]Slide{{Title: fallbackTitle, Content: content}}), StrategyWhole
}

// Renumber assigns order 0..n-1 and matching ids in place.
func Renumber(s []Slide) []Slide {
	for i := range s {
		s[i].Order = i
		s[i].ID = fmt.Sprintf("slide-%d", i+1)
	}
	return s
}

func byMarkers(src string, toks []token) []Slide {
	var markers []int
	for i, t := range toks {
		if t.kind == html.StartTagToken && t.hasClass(MarkerClass) {
			markers = append(markers, i)
		}
	}
	if len(markers) == 0 {
		return nil
	}

	var out []Slide
	if intro := strings.TrimSpace(src[:toks[markers[0]].start]); utf8.RuneCountInString(intro) > MinPreambleLength {
		out = append(out, Slide{Title: IntroductionTitle, Content: intro})
	}
	for n, mi := range markers {
		limit := len(src)
		if n+1 < len(markers) {
			limit = toks[markers[n+1]].start
		}
		inner, innerEnd := toks[mi].end, limit
		if ci := matchClose(toks, mi, limit); ci >= 0 {
			innerEnd = toks[ci].start
		}

		def := fmt.Sprintf("Slide %d", n+1)
		title, body := readBlock(src, toks, mi+1, inner, innerEnd)
		if title == "" {
			title = def
		}
		if body == "" && title == def {
			continue
		}
		out = append(out, Slide{Title: title, Content: body})
	}
	return out
}

// readBlock extracts the title heading and the body container of one marker block
// spanning src[from:to]. first is the index of the first token after the marker.
func readBlock(src string, toks []token, first, from, to int) (title, body string) {
	var (
		titleSpan  [2]int
		haveTitle  bool
		bodyOpen   = -1
		separators [][2]int
	)
	for i := first; i < len(toks) && toks[i].end <= to; i++ {
		t := toks[i]
		if t.start < from {
			continue
		}
		if t.hasClass(SeparatorClass) {
			separators = append(separators, [2]int{t.start, t.end})
			continue
		}
		if t.kind != html.StartTagToken {
			continue
		}
		if !haveTitle && t.isHeading() && t.hasClass(TitleClass) {
			end := to
			closeEnd := to
			if ci := matchClose(toks, i, to); ci >= 0 {
				end, closeEnd = toks[ci].start, toks[ci].end
			}
			title = textOf(src[t.end:end])
			titleSpan = [2]int{t.start, closeEnd}
			haveTitle = true
			continue
		}
		if bodyOpen < 0 && t.hasClass(ContentClass) {
			bodyOpen = i
		}
	}

	if bodyOpen >= 0 {
		open := toks[bodyOpen]
		end := to // unbalanced: everything up to the end of the block
		if ci := matchClose(toks, bodyOpen, to); ci >= 0 {
			end = toks[ci].start
		}
		var inside [][2]int
		for _, s := range separators {
			if s[0] >= open.end && s[1] <= end {
				inside = append(inside, s)
			}
		}
		return title, strings.TrimSpace(cut(src, open.end, end, inside))
	}

	// No content container: the block minus its title and separators.
	spans := separators
	if haveTitle {
		spans = insertSpan(spans, titleSpan)
	}
	return title, strings.TrimSpace(cut(src, from, to, spans))
}

func insertSpan(spans [][2]int, s [2]int) [][2]int {
	out := make([][2]int, 0, len(spans)+1)
	placed := false
	for _, x := range spans {
		if !placed && s[0] <= x[0] {
			out = append(out, s)
			placed = true
		}
		if x[0] >= s[0] && x[1] <= s[1] {
			continue
		}
		out = append(out, x)
	}
	if !placed {
		out = append(out, s)
	}
	return out
}

func byHeadings(src string, toks []token) []Slide {
	var heads []int
	for i, t := range toks {
		if t.kind == html.StartTagToken && t.name == "h2" {
			heads = append(heads, i)
		}
	}
	if len(heads) == 0 {
		return nil
	}

	out := make([]Slide, 0, len(heads)+1)
	if intro := strings.TrimSpace(src[:toks[heads[0]].start]); utf8.RuneCountInString(intro) > MinPreambleLength {
		out = append(out, Slide{Title: IntroductionTitle, Content: intro})
	}
	for n, hi := range heads {
		end := len(src)
		if n+1 < len(heads) {
			end = toks[heads[n+1]].start
		}
		titleEnd := end
		if ci := matchClose(toks, hi, end); ci >= 0 {
			titleEnd = toks[ci].start
		}
		title := textOf(src[toks[hi].end:titleEnd])
		if title == "" {
			title = fmt.Sprintf("Section %d", n+1)
		}
		out = append(out, Slide{Title: title, Content: strings.TrimSpace(src[toks[hi].start:end])})
	}
	return out
}
