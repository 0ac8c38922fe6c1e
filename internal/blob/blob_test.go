package blob

import (
	"os"
	"strings"
	"testing"
)

func TestUploadRoundTrip(t *testing.T) {
	s, err := New(t.TempDir(), "http://localhost:8080/", 0)
	if err != nil {
		t.Fatal(err)
	}
	url, err := s.Upload("photo.png", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(url, "http://localhost:8080/files/") || !strings.HasSuffix(url, "/photo.png") {
		t.Fatalf("unexpected url %q", url)
	}
	path, ok := s.PathFromURL(url)
	if !ok {
		t.Fatalf("url %q should map back to a path", url)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "fake image bytes" {
		t.Fatalf("content = %q", data)
	}
}

func TestUploadSizeCap(t *testing.T) {
	s, err := New(t.TempDir(), "http://x", 8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upload("big.bin", strings.NewReader("123456789")); err == nil {
		t.Fatal("expected size limit error")
	}
}

func TestUploadSanitizesFilename(t *testing.T) {
	s, err := New(t.TempDir(), "http://x", 0)
	if err != nil {
		t.Fatal(err)
	}
	url, err := s.Upload("../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(url, "..") {
		t.Fatalf("url %q leaks path traversal", url)
	}
	if !strings.HasSuffix(url, "/passwd") {
		t.Fatalf("url %q should keep the base name", url)
	}
}

func TestRemove(t *testing.T) {
	s, err := New(t.TempDir(), "http://x", 0)
	if err != nil {
		t.Fatal(err)
	}
	url, err := s.Upload("doc.txt", strings.NewReader("bye"))
	if err != nil {
		t.Fatal(err)
	}
	path, _ := s.PathFromURL(url)
	// Foreign URLs are skipped, owned ones deleted.
	if err := s.Remove([]string{"https://example.com/elsewhere.png", url}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file should be gone, stat err = %v", err)
	}
}

func TestPathFromURLRejectsForeign(t *testing.T) {
	s, err := New(t.TempDir(), "http://x", 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, u := range []string{"https://cdn.example.com/a.png", "http://x/files/", "http://x/files/../../secret"} {
		if _, ok := s.PathFromURL(u); ok {
			t.Fatalf("url %q should not map to a path", u)
		}
	}
}
