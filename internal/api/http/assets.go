package http

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-qti/internal/storage"
)

// MountAssets serves stored packages: imports/<id>.zip and exports/<id>.zip.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	// GET /assets/*   -> the blob at whatever follows /assets/
	r.Get("/assets/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		switch {
		case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrBadKey):
			http.Error(w, "not found", http.StatusNotFound)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rc.Close()
		ct := "application/octet-stream"
		if path.Ext(key) == ".zip" {
			ct = "application/zip"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}
