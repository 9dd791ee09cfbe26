// Package items creates shop items: it resolves the item image to a stored
// filename and attaches enchantments before handing the item to persistence.
package items

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// Hasher derives a stable name from file contents.
type Hasher interface {
	Hash(r io.Reader) (string, error)
}

// DigestHasher hashes with a standard library digest and returns lowercase hex.
type DigestHasher struct {
	New func() hash.Hash
}

// SHA256 is the default hasher.
var SHA256 Hasher = DigestHasher{New: sha256.New}

// MD5 matches names produced by older stores. It is only used for naming.
var MD5 Hasher = DigestHasher{New: md5.New}

// NewHasher returns the hasher for the given algorithm name.
func NewHasher(algorithm string) (Hasher, error) {
	switch algorithm {
	case "", "sha256":
		return SHA256, nil
	case "md5":
		return MD5, nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", algorithm)
	}
}

// Hash reads r to the end and returns the hex digest.
func (h DigestHasher) Hash(r io.Reader) (string, error) {
	d := h.New()
	if _, err := io.Copy(d, r); err != nil {
		return "", fmt.Errorf("hashing contents: %w", err)
	}
	return hex.EncodeToString(d.Sum(nil)), nil
}

// HashFile hashes the file at path.
func HashFile(h Hasher, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return h.Hash(f)
}
