package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/itemadmin/internal/model"
	"github.com/erazemk/itemadmin/internal/store"
)

// EnchantmentsHandler handles the enchantment catalogue.
type EnchantmentsHandler struct {
	DB *sql.DB
}

type createEnchantmentRequest struct {
	Name   string `json:"name"`
	GameID string `json:"game_id"`
}

// List handles GET /api/enchantments.
func (h *EnchantmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	enchantments, err := store.ListEnchantments(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list enchantments", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list enchantments")
		return
	}
	if enchantments == nil {
		enchantments = []model.Enchantment{}
	}
	jsonResponse(w, http.StatusOK, enchantments)
}

// Create handles POST /api/enchantments.
func (h *EnchantmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEnchantmentRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.GameID == "" {
		jsonError(w, http.StatusBadRequest, "name and game_id required")
		return
	}

	e, err := store.CreateEnchantment(r.Context(), h.DB, req.Name, req.GameID)
	if err != nil {
		jsonError(w, http.StatusConflict, "enchantment game_id already exists")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("enchantment created", "user", claims.Username, "name", e.Name, "game_id", e.GameID)
	jsonResponse(w, http.StatusCreated, e)
}

// Get handles GET /api/enchantments/{id}.
func (h *EnchantmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid enchantment id")
		return
	}

	e, err := store.GetEnchantment(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get enchantment", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get enchantment")
		return
	}
	if e == nil {
		jsonError(w, http.StatusNotFound, "enchantment not found")
		return
	}
	jsonResponse(w, http.StatusOK, e)
}

// Delete handles DELETE /api/enchantments/{id}.
func (h *EnchantmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid enchantment id")
		return
	}

	err := store.DeleteEnchantment(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrInUse) {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to delete enchantment", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete enchantment")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("enchantment deleted", "user", claims.Username, "id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "enchantment deleted"})
}
