package editor

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-authoring/internal/slides"
)

type SlideStore = Store[slides.Slide]

func slideID(s slides.Slide) string { return s.ID }

func renumberSlide(s *slides.Slide, i int) { s.Order = i }

// NewSlideStore seeds the slide editor; an empty list starts with one blank slide.
func NewSlideStore(initial []slides.Slide) *SlideStore {
	if len(initial) == 0 {
		initial = []slides.Slide{{ID: uuid.NewString(), Title: "Slide 1"}}
	}
	return NewStore(slideID, renumberSlide, initial)
}

func AddSlide(s *SlideStore) {
	s.Append(slides.Slide{
		ID:    uuid.NewString(),
		Title: fmt.Sprintf("Slide %d", s.Len()+1),
	})
}

func SetSlideTitle(s *SlideStore, i int, title string) error {
	return s.Edit(i, func(sl *slides.Slide) { sl.Title = title })
}

func SetSlideContent(s *SlideStore, i int, html string) error {
	return s.Edit(i, func(sl *slides.Slide) { sl.Content = html })
}
