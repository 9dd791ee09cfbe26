package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDirMoveAndOpen(t *testing.T) {
	root := filepath.Join(t.TempDir(), "img", "shop", "items")
	d, err := NewDir(root)
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	ctx := context.Background()

	if err := d.Move(ctx, "abc.png", strings.NewReader("first")); err != nil {
		t.Fatalf("Move: %v", err)
	}

	rc, err := d.Open(ctx, "abc.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "first" {
		t.Errorf("expected 'first', got %q", data)
	}
}

func TestDirMoveOverwrites(t *testing.T) {
	d, _ := NewDir(t.TempDir())
	ctx := context.Background()

	d.Move(ctx, "abc.png", strings.NewReader("first"))
	if err := d.Move(ctx, "abc.png", strings.NewReader("second")); err != nil {
		t.Fatalf("Move: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(d.Root(), "abc.png"))
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected overwrite, got %q", data)
	}

	entries, _ := os.ReadDir(d.Root())
	if len(entries) != 1 {
		t.Errorf("expected 1 file (no leftover temp files), got %d", len(entries))
	}
}

func TestDirOpenMissing(t *testing.T) {
	d, _ := NewDir(t.TempDir())

	_, err := d.Open(context.Background(), "missing.png")
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestDirRejectsInvalidNames(t *testing.T) {
	d, _ := NewDir(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"", ".", "..", "../escape.png", "a/b.png", `a\b.png`, ".hidden", "bad\x00name"} {
		if err := d.Move(ctx, name, strings.NewReader("x")); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Move(%q): expected ErrInvalidName, got %v", name, err)
		}
		if _, err := d.Open(ctx, name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Open(%q): expected ErrInvalidName, got %v", name, err)
		}
	}
}

func TestDirList(t *testing.T) {
	d, _ := NewDir(t.TempDir())
	ctx := context.Background()

	d.Move(ctx, "b.png", strings.NewReader("b"))
	d.Move(ctx, "a.jpg", strings.NewReader("a"))
	os.Mkdir(filepath.Join(d.Root(), "subdir"), 0755)
	os.WriteFile(filepath.Join(d.Root(), ".upload-stale"), []byte("x"), 0644)

	names, err := d.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "a.jpg" || names[1] != "b.png" {
		t.Errorf("expected [a.jpg b.png], got %v", names)
	}
}

func TestDirMoveCanceled(t *testing.T) {
	d, _ := NewDir(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Move(ctx, "abc.png", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
