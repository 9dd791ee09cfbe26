// Package config loads server settings from defaults, an optional JSON file
// and command-line flags, in that order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Storage backends.
const (
	StorageDir = "dir"
	StorageS3  = "s3"
)

// Config holds runtime settings.
type Config struct {
	DBPath      string   `json:"db"`
	Addr        string   `json:"addr"`
	AdminUser   string   `json:"admin_user"`
	AdminEmail  string   `json:"admin_email"`
	LogPath     string   `json:"log"`
	LogLevel    string   `json:"log_level"`
	TokenTTL    Duration `json:"token_ttl"`
	HashAlgo    string   `json:"hash"`
	MaxUploadMB int64    `json:"max_upload_mb"`
	Storage     string   `json:"storage"`
	ImageDir    string   `json:"image_dir"`
	S3          S3       `json:"s3"`

	// VerifyImages re-hashes the image directory and exits.
	VerifyImages bool `json:"-"`
}

// S3 configures the S3 image storage backend.
type S3 struct {
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Prefix    string `json:"prefix"`
	PathStyle bool   `json:"path_style"`
}

// Duration is a time.Duration that unmarshals from "1h30m" or nanoseconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*d = Duration(time.Duration(val))
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", b)
	}
	return nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		DBPath:      "itemadmin.sqlite3",
		Addr:        ":8080",
		AdminUser:   "Admin",
		AdminEmail:  "admin@localhost",
		LogLevel:    "info",
		TokenTTL:    Duration(7 * 24 * time.Hour),
		HashAlgo:    "sha256",
		MaxUploadMB: 5,
		Storage:     StorageDir,
		ImageDir:    "img/shop/items",
		S3: S3{
			Region: "us-east-1",
			Prefix: "items/",
		},
	}
}

// Usage is printed for -h.
const Usage = `Usage: itemadmin [flags]

Flags:
  -c, -config <path>      JSON config file (flags override its values)
  -d, -db <path>          SQLite database path (default: itemadmin.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -e, -email <address>    admin email on first run (default: admin@localhost)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -log-level <level>      debug, info, warn or error (default: info)
  -s, -storage <dir|s3>   image storage backend (default: dir)
  -i, -images <path>      image directory for the dir backend (default: img/shop/items)
  -hash <sha256|md5>      content hash for uploaded image names (default: sha256)
  -verify-images          check stored image names against their content and exit
  -token-ttl <duration>   login token lifetime (default: 168h)
  -max-upload <MB>        maximum upload size in megabytes (default: 5)
  -s3-bucket, -s3-region, -s3-endpoint, -s3-access-key, -s3-secret-key,
  -s3-prefix, -s3-path-style
                          S3 backend settings
  -h, -help               show this help and exit
`

// Load builds the configuration from args (without the program name).
func Load(args []string) (*Config, error) {
	cfg := Defaults()

	if path := configPath(args); path != "" {
		if err := cfg.readJSON(path); err != nil {
			return nil, err
		}
	}

	fs := flag.NewFlagSet("itemadmin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	var ignored string
	stringFlag(fs, &ignored, "", "c", "config")
	stringFlag(fs, &cfg.DBPath, cfg.DBPath, "d", "db")
	stringFlag(fs, &cfg.Addr, cfg.Addr, "a", "addr")
	stringFlag(fs, &cfg.AdminUser, cfg.AdminUser, "u", "user")
	stringFlag(fs, &cfg.AdminEmail, cfg.AdminEmail, "e", "email")
	stringFlag(fs, &cfg.LogPath, cfg.LogPath, "l", "log")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "")
	stringFlag(fs, &cfg.Storage, cfg.Storage, "s", "storage")
	stringFlag(fs, &cfg.ImageDir, cfg.ImageDir, "i", "images")
	fs.StringVar(&cfg.HashAlgo, "hash", cfg.HashAlgo, "")
	fs.BoolVar(&cfg.VerifyImages, "verify-images", false, "")
	ttl := fs.Duration("token-ttl", time.Duration(cfg.TokenTTL), "")
	fs.Int64Var(&cfg.MaxUploadMB, "max-upload", cfg.MaxUploadMB, "")
	fs.StringVar(&cfg.S3.Bucket, "s3-bucket", cfg.S3.Bucket, "")
	fs.StringVar(&cfg.S3.Region, "s3-region", cfg.S3.Region, "")
	fs.StringVar(&cfg.S3.Endpoint, "s3-endpoint", cfg.S3.Endpoint, "")
	fs.StringVar(&cfg.S3.AccessKey, "s3-access-key", cfg.S3.AccessKey, "")
	fs.StringVar(&cfg.S3.SecretKey, "s3-secret-key", cfg.S3.SecretKey, "")
	fs.StringVar(&cfg.S3.Prefix, "s3-prefix", cfg.S3.Prefix, "")
	fs.BoolVar(&cfg.S3.PathStyle, "s3-path-style", cfg.S3.PathStyle, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	cfg.TokenTTL = Duration(*ttl)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that flags and JSON cannot express.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageDir:
		if c.ImageDir == "" {
			return errors.New("image directory required for dir storage")
		}
	case StorageS3:
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket required for s3 storage")
		}
		if c.VerifyImages {
			return errors.New("image verification requires dir storage")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	if c.MaxUploadMB <= 0 {
		return errors.New("max upload size must be positive")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	return nil
}

func (c *Config) readJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func stringFlag(fs *flag.FlagSet, p *string, value string, names ...string) {
	for _, n := range names {
		fs.StringVar(p, n, value, "")
	}
}

// configPath finds the value of -c/-config before the other flags are parsed.
func configPath(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if n, v, ok := strings.Cut(name, "="); ok {
			if n == "c" || n == "config" {
				return v
			}
			continue
		}
		if (name == "c" || name == "config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
