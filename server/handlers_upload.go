package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	dbpkg "github.com/hushline-media/streamroom/db"
	"github.com/hushline-media/streamroom/storage"
	"github.com/hushline-media/streamroom/telemetry"
)

// HandleUploads serves the upload endpoint: POST stores multipart file parts
// under the data directory, GET lists stored uploads.
func (h *Handlers) HandleUploads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleUploadPost(w, r)
	case http.MethodGet:
		h.handleUploadList(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handlers) handleUploadPost(w http.ResponseWriter, r *http.Request) {
	// Stream the multipart body rather than buffering it; the size cap is
	// enforced inside the store.
	mr, err := r.MultipartReader()
	if err != nil {
		http.Error(w, "expected multipart/form-data", http.StatusBadRequest)
		return
	}

	var out []dbpkg.Upload
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, "invalid multipart body", http.StatusBadRequest)
			return
		}
		if part.FileName() == "" {
			_ = part.Close()
			continue
		}

		var u dbpkg.Upload
		var saveErr error
		telemetry.TimeFunc(telemetry.UploadDuration, func() {
			u, saveErr = h.store.SaveUpload(r.Context(), part.FileName(), part.Header.Get("Content-Type"), part)
		})
		_ = part.Close()
		if saveErr != nil {
			telemetry.IncCounter(telemetry.UploadsFailed)
			slog.Warn("upload failed", slog.String("file", part.FileName()), slog.Any("err", saveErr))
			status := http.StatusInternalServerError
			if errors.Is(saveErr, storage.ErrTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, saveErr.Error(), status)
			return
		}
		telemetry.IncCounter(telemetry.UploadsSucceeded)
		out = append(out, u)
	}

	if len(out) == 0 {
		http.Error(w, "no file parts in request", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handlers) handleUploadList(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 100)
	uploads, err := h.store.List(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, uploads)
}
