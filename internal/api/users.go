package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/mail"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/itemadmin/internal/model"
	"github.com/erazemk/itemadmin/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Role string `json:"role"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

type setBalanceRequest struct {
	Balance *float64 `json:"balance"`
}

type completeActivationRequest struct {
	Code string `json:"code"`
}

type activationResponse struct {
	model.Activation
	Code string `json:"code"`
}

// targetName returns a user's name for log lines, falling back to the id.
func (h *UsersHandler) targetName(r *http.Request, id int64) string {
	target, _ := store.GetUser(r.Context(), h.DB, id)
	if target == nil {
		return fmt.Sprintf("id:%d", id)
	}
	return target.Username
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		jsonError(w, http.StatusBadRequest, "username, email, password, and role required")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid email")
		return
	}

	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, req.Email, string(hash), req.Role)
	if err != nil {
		jsonError(w, http.StatusConflict, "username or email already exists")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("user created", "user", claims.Username, "new_user", req.Username, "role", req.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUserWithActivations(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !model.ValidRole(req.Role) {
		jsonError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if err := store.UpdateUser(r.Context(), h.DB, id, req.Role); err != nil {
		slog.Error("failed to update user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil || user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("user role updated", "user", claims.Username, "target_user", user.Username, "new_role", req.Role)
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Password == "" {
		jsonError(w, http.StatusBadRequest, "password required")
		return
	}

	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, id, string(hash)); err != nil {
		slog.Error("failed to reset password", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("user password reset", "user", claims.Username, "target_user", h.targetName(r, id))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// SetBalance handles PUT /api/users/{id}/balance.
func (h *UsersHandler) SetBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req setBalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Balance == nil {
		jsonError(w, http.StatusBadRequest, "balance required")
		return
	}
	if *req.Balance < 0 {
		jsonError(w, http.StatusBadRequest, "balance must not be negative")
		return
	}

	if err := store.SetUserBalance(r.Context(), h.DB, id, *req.Balance); err != nil {
		slog.Error("failed to set balance", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to set balance")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil || user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("user balance set", "user", claims.Username, "target_user", user.Username, "balance", user.Balance)
	jsonResponse(w, http.StatusOK, user)
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	// Prevent self-deletion.
	claims := GetClaims(r.Context())
	if claims != nil && claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	targetName := h.targetName(r, id)

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		slog.Error("failed to delete user", "error", err)
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	slog.Info("user deleted", "user", claims.Username, "deleted_user", targetName)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

// ListActivations handles GET /api/users/{id}/activations.
func (h *UsersHandler) ListActivations(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	activations, err := store.ListActivations(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to list activations", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list activations")
		return
	}
	if activations == nil {
		activations = []model.Activation{}
	}
	jsonResponse(w, http.StatusOK, activations)
}

// CreateActivation handles POST /api/users/{id}/activations. The code is only
// returned here.
func (h *UsersHandler) CreateActivation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	a, err := store.CreateActivation(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to create activation", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create activation")
		return
	}

	claims := GetClaims(r.Context())
	slog.Info("activation created", "user", claims.Username, "target_user", user.Username)
	jsonResponse(w, http.StatusCreated, activationResponse{Activation: *a, Code: a.Code})
}

// CompleteActivation handles POST /api/users/{id}/activations/complete.
func (h *UsersHandler) CompleteActivation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req completeActivationRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		jsonError(w, http.StatusBadRequest, "activation code required")
		return
	}

	completed, err := store.CompleteActivation(r.Context(), h.DB, id, req.Code)
	if err != nil {
		slog.Error("failed to complete activation", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to complete activation")
		return
	}
	if !completed {
		jsonError(w, http.StatusNotFound, "no pending activation with that code")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "activation completed"})
}
