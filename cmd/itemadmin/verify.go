package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/erazemk/itemadmin/internal/items"
	"github.com/erazemk/itemadmin/internal/storage"
)

// verifyImages re-hashes every image in dir and returns the names whose
// hash part no longer matches their contents.
func verifyImages(ctx context.Context, h items.Hasher, dir *storage.Dir) ([]string, error) {
	names, err := dir.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	var mismatched []string
	for _, name := range names {
		sum, err := items.HashFile(h, filepath.Join(dir.Root(), name))
		if err != nil {
			return nil, err
		}
		want, _, _ := strings.Cut(name, ".")
		if sum != want {
			slog.Warn("image content does not match its name", "name", name, "hash", sum)
			mismatched = append(mismatched, name)
		}
	}

	slog.Info("images verified", "total", len(names), "mismatched", len(mismatched))
	return mismatched, nil
}
