package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeS3 serves the subset of the S3 API used by the store, path-style.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Path is /{bucket}/{key}.
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	if parts[0] != "images" {
		http.Error(w, "no such bucket", http.StatusNotFound)
		return
	}
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch {
	case r.Method == http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		f.types[key] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodGet && key == "" && r.URL.Query().Get("list-type") == "2":
		prefix := r.URL.Query().Get("prefix")
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
		b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
		b.WriteString(`<Name>images</Name><Prefix>` + prefix + `</Prefix><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>`)
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				b.WriteString(`<Contents><Key>` + k + `</Key><Size>1</Size></Contents>`)
			}
		}
		b.WriteString(`</ListBucketResult>`)
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, b.String())

	case r.Method == http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.types[key])
		w.Write(data)

	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func newTestS3(t *testing.T) (*S3, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewS3(context.Background(), S3Config{
		Bucket:    "images",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
		Prefix:    "items/",
		PathStyle: true,
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	return s, fake
}

func TestS3MoveOpen(t *testing.T) {
	s, fake := newTestS3(t)
	ctx := context.Background()

	if err := s.Move(ctx, "abc.png", strings.NewReader("png bytes")); err != nil {
		t.Fatalf("Move: %v", err)
	}

	fake.mu.Lock()
	got, ok := fake.objects["items/abc.png"]
	ct := fake.types["items/abc.png"]
	fake.mu.Unlock()
	if !ok {
		t.Fatal("expected object under prefixed key")
	}
	if string(got) != "png bytes" {
		t.Errorf("expected 'png bytes', got %q", got)
	}
	if ct != "image/png" {
		t.Errorf("expected content type image/png, got %q", ct)
	}

	rc, err := s.Open(ctx, "abc.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "png bytes" {
		t.Errorf("expected 'png bytes', got %q", data)
	}
}

func TestS3OpenMissing(t *testing.T) {
	s, _ := newTestS3(t)

	_, err := s.Open(context.Background(), "missing.png")
	if !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestS3List(t *testing.T) {
	s, fake := newTestS3(t)
	fake.objects["items/b.png"] = []byte("b")
	fake.objects["items/a.jpg"] = []byte("a")
	fake.objects["items/nested/c.png"] = []byte("c")
	fake.objects["other/d.png"] = []byte("d")

	names, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "a.jpg" || names[1] != "b.png" {
		t.Errorf("expected [a.jpg b.png], got %v", names)
	}
}

func TestS3RejectsInvalidName(t *testing.T) {
	s, _ := newTestS3(t)

	if err := s.Move(context.Background(), "../x.png", strings.NewReader("x")); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestNewS3RequiresBucket(t *testing.T) {
	if _, err := NewS3(context.Background(), S3Config{Region: "us-east-1"}); err == nil {
		t.Error("expected error without bucket")
	}
}
