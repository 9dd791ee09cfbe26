package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/itemadmin/internal/imaging"
	"github.com/erazemk/itemadmin/internal/items"
	"github.com/erazemk/itemadmin/internal/model"
	"github.com/erazemk/itemadmin/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	DB        *sql.DB
	Service   *items.Service
	Validate  *validator.Validate
	MaxUpload int64
}

type enchantmentRef struct {
	ID    int64 `json:"id" validate:"required,gt=0"`
	Level int   `json:"level" validate:"gte=1,lte=32767"`
}

type createItemRequest struct {
	Name         string           `json:"name" validate:"required,max=255"`
	Type         string           `json:"type" validate:"required,oneof=item permgroup"`
	GameID       string           `json:"game_id" validate:"required,max=255"`
	Description  string           `json:"description" validate:"max=4096"`
	Extra        json.RawMessage  `json:"extra"`
	ImageMode    string           `json:"image_mode"`
	ImageName    string           `json:"image_name"`
	Enchantments []enchantmentRef `json:"enchantments" validate:"dive"`
}

func (req *createItemRequest) toCreate(upload *items.UploadImage) (items.CreateRequest, error) {
	mode := req.ImageMode
	if mode == "" {
		mode = items.ImageModeDefault
	}
	src, err := items.ParseImageMode(mode, req.ImageName, upload)
	if err != nil {
		return items.CreateRequest{}, err
	}

	refs := make([]items.EnchantmentRef, len(req.Enchantments))
	for i, e := range req.Enchantments {
		refs[i] = items.EnchantmentRef{ID: e.ID, Level: e.Level}
	}

	return items.CreateRequest{
		Name:         req.Name,
		Type:         req.Type,
		GameID:       req.GameID,
		Description:  req.Description,
		Extra:        req.Extra,
		Image:        src,
		Enchantments: refs,
	}, nil
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	itemType := r.URL.Query().Get("type")
	if itemType != "" && !model.ValidItemType(itemType) {
		jsonError(w, http.StatusBadRequest, "invalid item type")
		return
	}

	list, err := store.ListItems(r.Context(), h.DB, itemType)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if list == nil {
		list = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, list)
}

// Create handles POST /api/items. JSON bodies select the default or a
// browsed image; multipart bodies may carry an uploaded image in the
// "image" field.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		req    createItemRequest
		upload *items.UploadImage
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
		if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
			writeMultipartError(w, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		if err := readItemForm(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}

		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			if _, err := imaging.Sniff(file); err != nil {
				jsonError(w, http.StatusBadRequest, err.Error())
				return
			}
			upload = &items.UploadImage{File: file, Filename: header.Filename}
		case errors.Is(err, http.ErrMissingFile):
			// Upload mode without a file is rejected by the resolver.
		default:
			jsonError(w, http.StatusBadRequest, "invalid image field")
			return
		}
	} else if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Validate.Struct(req); err != nil {
		jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErrors(err),
		})
		return
	}

	createReq, err := req.toCreate(upload)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	item, err := h.Service.Create(r.Context(), createReq)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item added", "user", claims.Username, "id", item.ID, "image", item.Image != nil)
	jsonResponse(w, http.StatusCreated, item)
}

// readItemForm copies the multipart text fields into req.
func readItemForm(r *http.Request, req *createItemRequest) error {
	req.Name = r.FormValue("name")
	req.Type = r.FormValue("type")
	req.GameID = r.FormValue("game_id")
	req.Description = r.FormValue("description")
	req.ImageMode = r.FormValue("image_mode")
	req.ImageName = r.FormValue("image_name")

	if extra := r.FormValue("extra"); extra != "" {
		if !json.Valid([]byte(extra)) {
			return errors.New("extra must be valid JSON")
		}
		req.Extra = json.RawMessage(extra)
	}

	if ench := r.FormValue("enchantments"); ench != "" {
		if err := json.Unmarshal([]byte(ench), &req.Enchantments); err != nil {
			return errors.New("enchantments must be a JSON array of {id, level}")
		}
	}
	return nil
}

// writeMultipartError reports a form that could not be parsed.
func writeMultipartError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, multipart.ErrMessageTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, "uploaded file exceeds maximum allowed size")
	default:
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
	}
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}. The item's image stays in storage.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	deleted, err := store.DeleteItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to delete item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if !deleted {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("item deleted", "user", claims.Username, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}
