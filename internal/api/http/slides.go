package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/mindengage-authoring/internal/slides"
)

// POST /slides/segment  {"content": "<html>", "title": "fallback"}
func SegmentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Content string `json:"content"`
			Title   string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json"})
			return
		}
		out, strategy := slides.SegmentDetailed(req.Content, req.Title)
		writeJSON(w, http.StatusOK, map[string]any{"slides": out, "strategy": strategy})
	}
}

// POST /slides/assemble  {"slides": [...]}
func AssembleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Slides []slides.Slide `json:"slides"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"content": slides.Assemble(req.Slides)})
	}
}
