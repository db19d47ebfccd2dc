package storage

import (
	"bytes"
	"strings"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	payload := []byte("%PDF-1.4 fake content")
	ref, err := fs.Put(payload, ".pdf")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.HasSuffix(ref, ".pdf") {
		t.Fatalf("ref = %q, want .pdf suffix", ref)
	}

	got, err := fs.Get(ref)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("get returned %q, want %q", got, payload)
	}

	if err := fs.Delete(ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := fs.Get(ref); err == nil {
		t.Fatalf("get after delete should fail")
	}
}

func TestFileStoreDistinctRefs(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	a, err := fs.Put([]byte("a"), ".pdf")
	if err != nil {
		t.Fatalf("put a: %v", err)
	}
	b, err := fs.Put([]byte("b"), ".pdf")
	if err != nil {
		t.Fatalf("put b: %v", err)
	}
	if a == b {
		t.Fatalf("refs collide: %q", a)
	}
}

func TestFileStoreDeleteMissingIsNoop(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := fs.Delete("no-such-blob.pdf"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	for _, ref := range []string{"", "../etc/passwd", "a/b.pdf"} {
		if _, err := fs.Get(ref); err != ErrBadReference {
			t.Errorf("Get(%q) err = %v, want ErrBadReference", ref, err)
		}
		if err := fs.Delete(ref); err != ErrBadReference {
			t.Errorf("Delete(%q) err = %v, want ErrBadReference", ref, err)
		}
	}
}
