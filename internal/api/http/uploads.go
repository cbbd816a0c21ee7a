package http

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-authoring/internal/storage"
)

// MountUploads serves the source documents kept for each wizard.
func MountUploads(r chi.Router, bs storage.BlobStore) {
	// GET /uploads/{wizardID}/{name}
	r.Get("/{wizardID}/{name}", func(w http.ResponseWriter, r *http.Request) {
		key := storage.UploadKey(chi.URLParam(r, "wizardID"), chi.URLParam(r, "name"))
		rc, err := bs.Get(key)
		switch {
		case errors.Is(err, os.ErrNotExist):
			http.Error(w, "not found", http.StatusNotFound)
			return
		case errors.Is(err, storage.ErrBadKey):
			http.Error(w, "bad key", http.StatusBadRequest)
			return
		case err != nil:
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		ct := "application/octet-stream"
		if path.Ext(key) == ".pdf" {
			ct = "application/pdf"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}
