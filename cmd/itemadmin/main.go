package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/itemadmin/internal/api"
	"github.com/erazemk/itemadmin/internal/auth"
	"github.com/erazemk/itemadmin/internal/config"
	"github.com/erazemk/itemadmin/internal/db"
	"github.com/erazemk/itemadmin/internal/items"
	"github.com/erazemk/itemadmin/internal/model"
	"github.com/erazemk/itemadmin/internal/storage"
	"github.com/erazemk/itemadmin/internal/store"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stdout, config.Usage)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
		fmt.Fprint(os.Stderr, config.Usage)
		os.Exit(1)
	}

	// ERROR goes to stderr, lower levels to stdout; optionally also to a file.
	closeLog, err := setupLogger(cfg.LogLevel, cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		if closeLog != nil {
			closeLog()
		}
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	if cfg.VerifyImages {
		return runVerify(ctx, cfg)
	}

	_, statErr := os.Stat(cfg.DBPath)
	firstRun := os.IsNotExist(statErr)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Apply pending migrations (idempotent).
	if err := db.Migrate(ctx, database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	if firstRun {
		password, err := createAdmin(ctx, database, cfg.AdminUser, cfg.AdminEmail)
		if err != nil {
			database.Close()
			os.Remove(cfg.DBPath)
			return fmt.Errorf("initializing database: %w", err)
		}
		printInitResult(cfg.DBPath, cfg.AdminUser, password)
		fmt.Println()
	}

	slog.Info("database ready", "path", cfg.DBPath)

	if n, err := store.PurgeExpiredTokens(ctx, database, time.Now()); err != nil {
		slog.Warn("failed to purge expired tokens", "error", err)
	} else if n > 0 {
		slog.Info("purged expired tokens", "count", n)
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	images, err := openImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	hasher, err := items.NewHasher(cfg.HashAlgo)
	if err != nil {
		return err
	}

	handler := api.LoggingMiddleware(api.NewRouter(api.Deps{
		DB:        database,
		Issuer:    auth.NewIssuer(jwtSecret, time.Duration(cfg.TokenTTL)),
		Images:    images,
		Hasher:    hasher,
		MaxUpload: cfg.MaxUploadMB << 20,
	}))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "storage", cfg.Storage, "hash", cfg.HashAlgo)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// runVerify checks the image directory and fails if any name is stale.
func runVerify(ctx context.Context, cfg *config.Config) error {
	hasher, err := items.NewHasher(cfg.HashAlgo)
	if err != nil {
		return err
	}
	dir, err := storage.NewDir(cfg.ImageDir)
	if err != nil {
		return fmt.Errorf("opening image directory: %w", err)
	}

	mismatched, err := verifyImages(ctx, hasher, dir)
	if err != nil {
		return err
	}
	if len(mismatched) > 0 {
		return fmt.Errorf("%d image(s) do not match their names", len(mismatched))
	}
	return nil
}

// openImageStore selects the configured image storage backend.
func openImageStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage {
	case config.StorageS3:
		s, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("setting up s3 storage: %w", err)
		}
		slog.Info("image storage ready", "backend", "s3", "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix)
		return s, nil
	default:
		d, err := storage.NewDir(cfg.ImageDir)
		if err != nil {
			return nil, fmt.Errorf("setting up image directory: %w", err)
		}
		slog.Info("image storage ready", "backend", "dir", "path", d.Root())
		return d, nil
	}
}

// createAdmin creates the first admin account with a random password.
func createAdmin(ctx context.Context, database *sql.DB, username, email string) (string, error) {
	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err := store.CreateUser(ctx, database, username, email, string(hash), model.RoleAdmin); err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}
	return password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
