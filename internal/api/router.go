package api

import (
	"database/sql"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/itemadmin/internal/auth"
	"github.com/erazemk/itemadmin/internal/items"
	"github.com/erazemk/itemadmin/internal/model"
	"github.com/erazemk/itemadmin/internal/storage"
	"github.com/erazemk/itemadmin/internal/store"
)

// DefaultMaxUpload limits multipart request bodies when Deps.MaxUpload is zero.
const DefaultMaxUpload = 5 << 20

// Deps are the collaborators shared by the API handlers.
type Deps struct {
	DB        *sql.DB
	Issuer    *auth.Issuer
	Images    storage.Store
	Hasher    items.Hasher
	MaxUpload int64
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	if d.MaxUpload <= 0 {
		d.MaxUpload = DefaultMaxUpload
	}

	mux := http.NewServeMux()
	validate := validator.New()
	resolver := items.NewResolver(d.Hasher, d.Images)
	service := items.NewService(
		&store.ItemRepository{DB: d.DB},
		&store.EnchantmentRepository{DB: d.DB},
		resolver,
	)

	authHandler := &AuthHandler{DB: d.DB, Issuer: d.Issuer}
	usersHandler := &UsersHandler{DB: d.DB}
	enchantmentsHandler := &EnchantmentsHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{DB: d.DB, Service: service, Validate: validate, MaxUpload: d.MaxUpload}
	imagesHandler := &ImagesHandler{DB: d.DB, Images: d.Images, Resolver: resolver, MaxUpload: d.MaxUpload}

	authMW := AuthMiddleware(d.Issuer, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("PUT /api/users/{id}/balance", authMW(requireAdmin(http.HandlerFunc(usersHandler.SetBalance))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))
	mux.Handle("GET /api/users/{id}/activations", authMW(requireAdmin(http.HandlerFunc(usersHandler.ListActivations))))
	mux.Handle("POST /api/users/{id}/activations", authMW(requireAdmin(http.HandlerFunc(usersHandler.CreateActivation))))
	mux.Handle("POST /api/users/{id}/activations/complete", authMW(requireAdmin(http.HandlerFunc(usersHandler.CompleteActivation))))

	// Enchantments: read (all roles), write (manager+).
	mux.Handle("GET /api/enchantments", authMW(http.HandlerFunc(enchantmentsHandler.List)))
	mux.Handle("POST /api/enchantments", authMW(requireManager(http.HandlerFunc(enchantmentsHandler.Create))))
	mux.Handle("GET /api/enchantments/{id}", authMW(http.HandlerFunc(enchantmentsHandler.Get)))
	mux.Handle("DELETE /api/enchantments/{id}", authMW(requireManager(http.HandlerFunc(enchantmentsHandler.Delete))))

	// Items: read (all roles), write (manager+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireManager(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("DELETE /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Delete))))

	// Images: browse (all roles), upload (manager+).
	mux.Handle("GET /api/images", authMW(http.HandlerFunc(imagesHandler.List)))
	mux.Handle("POST /api/images", authMW(requireManager(http.HandlerFunc(imagesHandler.Upload))))
	mux.Handle("GET /api/images/{name}", authMW(http.HandlerFunc(imagesHandler.Get)))
	mux.Handle("GET /api/images/{name}/thumbnail", authMW(http.HandlerFunc(imagesHandler.Thumbnail)))

	return mux
}
