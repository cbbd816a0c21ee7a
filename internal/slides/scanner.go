package slides

import (
	"strings"

	"golang.org/x/net/html"
)

// token is one lexical unit of the source markup with its byte span.
type token struct {
	kind  html.TokenType
	name  string
	class []string
	start int
	end   int
}

func (t token) hasClass(c string) bool {
	for _, x := range t.class {
		if x == c {
			return true
		}
	}
	return false
}

func (t token) isHeading() bool {
	return len(t.name) == 2 && t.name[0] == 'h' && t.name[1] >= '1' && t.name[1] <= '6'
}

// scan tokenizes src without building a tree. Offsets index into src; the raw
// spans reported by the tokenizer are contiguous, so summing them tracks position.
func scan(src string) []token {
	z := html.NewTokenizer(strings.NewReader(src))
	var out []token
	off := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return out
		}
		start := off
		off += len(z.Raw())
		t := token{kind: tt, start: start, end: off}
		switch tt {
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, more := z.TagName()
			t.name = string(name)
			for more {
				var k, v []byte
				k, v, more = z.TagAttr()
				if string(k) == "class" {
					t.class = strings.Fields(string(v))
				}
			}
		}
		out = append(out, t)
	}
}

// matchClose finds the end tag closing toks[open]. Nested start tags with the same
// name push the depth, end tags pop it. Tokens ending past limit are not
// considered. Returns -1 when the input runs out before depth returns to zero.
func matchClose(toks []token, open, limit int) int {
	name := toks[open].name
	depth := 0
	for i := open; i < len(toks) && toks[i].end <= limit; i++ {
		t := toks[i]
		if t.name != name {
			continue
		}
		switch t.kind {
		case html.StartTagToken:
			depth++
		case html.EndTagToken:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// textOf strips markup from an HTML fragment and unescapes entities.
func textOf(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// cut returns src[from:to] with the given spans removed. Spans must be sorted
// and lie within [from, to).
func cut(src string, from, to int, spans [][2]int) string {
	var b strings.Builder
	pos := from
	for _, s := range spans {
		if s[0] < pos || s[1] > to {
			continue
		}
		b.WriteString(src[pos:s[0]])
		pos = s[1]
	}
	b.WriteString(src[pos:to])
	return b.String()
}
