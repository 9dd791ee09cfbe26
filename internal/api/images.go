package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"

	"github.com/erazemk/itemadmin/internal/imaging"
	"github.com/erazemk/itemadmin/internal/items"
	"github.com/erazemk/itemadmin/internal/storage"
	"github.com/erazemk/itemadmin/internal/store"
)

// ImagesHandler serves the stored item images.
type ImagesHandler struct {
	DB        *sql.DB
	Images    storage.Store
	Resolver  *items.Resolver
	MaxUpload int64
}

type imageEntry struct {
	Name   string `json:"name"`
	UsedBy int    `json:"used_by"`
}

// List handles GET /api/images, the names offered for browse mode.
func (h *ImagesHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.Images.List(r.Context())
	if err != nil {
		slog.Error("failed to list images", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list images")
		return
	}

	entries := make([]imageEntry, 0, len(names))
	for _, name := range names {
		n, err := store.CountItemsWithImage(r.Context(), h.DB, name)
		if err != nil {
			slog.Error("failed to count image usage", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to list images")
			return
		}
		entries = append(entries, imageEntry{Name: name, UsedBy: n})
	}
	jsonResponse(w, http.StatusOK, entries)
}

// open returns the stored image or writes the error response.
func (h *ImagesHandler) open(w http.ResponseWriter, r *http.Request) (io.ReadCloser, bool) {
	rc, err := h.Images.Open(r.Context(), r.PathValue("name"))
	switch {
	case err == nil:
		return rc, true
	case errors.Is(err, storage.ErrInvalidName):
		jsonError(w, http.StatusBadRequest, "invalid image name")
	case errors.Is(err, storage.ErrNotExist):
		jsonError(w, http.StatusNotFound, "image not found")
	default:
		slog.Error("failed to open image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to open image")
	}
	return nil, false
}

// Get handles GET /api/images/{name}.
func (h *ImagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	rc, ok := h.open(w, r)
	if !ok {
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		slog.Error("failed to read image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to read image")
		return
	}

	// Names are content hashes, so a name always maps to the same bytes.
	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Write(data)
}

// Thumbnail handles GET /api/images/{name}/thumbnail?size=N.
func (h *ImagesHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	size := imaging.DefaultThumbnailSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid size")
			return
		}
		size = n
	}

	rc, ok := h.open(w, r)
	if !ok {
		return
	}
	defer rc.Close()

	data, err := imaging.Thumbnail(rc, size)
	if errors.Is(err, imaging.ErrTooLarge) {
		jsonError(w, http.StatusUnprocessableEntity, "image too large to thumbnail")
		return
	}
	if err != nil {
		jsonError(w, http.StatusUnprocessableEntity, "stored file is not a decodable image")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// Upload handles POST /api/images. It stores the file under its content
// name without creating an item, so the name can be used in browse mode.
func (h *ImagesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
		writeMultipartError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	mime, err := imaging.Sniff(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	name, err := h.Resolver.Resolve(r.Context(), items.UploadImage{File: file, Filename: header.Filename})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("image uploaded", "user", claims.Username, "name", *name, "mime", mime)
	jsonResponse(w, http.StatusCreated, map[string]string{"name": *name})
}
