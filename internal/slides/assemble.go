package slides

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Assemble renders slides into one content blob, each slide in its own marker
// container with a 1-based data-slide index and a separator between slides.
// Segmenting the result reproduces the slides' titles, contents and order.
func Assemble(slides []Slide) string {
	var b strings.Builder
	for i, s := range slides {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "<div class=%q data-slide=\"%d\">\n", MarkerClass, i+1)
		fmt.Fprintf(&b, "  <h2 class=%q>%s</h2>\n", TitleClass, html.EscapeString(s.Title))
		fmt.Fprintf(&b, "  <div class=%q>\n%s\n  </div>\n", ContentClass, s.Content)
		if i < len(slides)-1 {
			fmt.Fprintf(&b, "  <hr class=%q />\n", SeparatorClass)
		}
		b.WriteString("</div>")
	}
	return b.String()
}
