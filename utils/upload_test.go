package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLocalUploaderDeleteImage(t *testing.T) {
	dir := t.TempDir()
	u := &LocalUploader{dir: dir, baseURL: "http://localhost:8080"}

	if err := os.MkdirAll(filepath.Join(dir, "users"), 0o755); err != nil {
		t.Fatal(err)
	}
	stored := filepath.Join(dir, "users", "avatar.png")
	if err := os.WriteFile(stored, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := u.DeleteImage("users/avatar.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Error("expected the stored file to be removed")
	}

	// Deleting an already-gone image is not an error.
	if err := u.DeleteImage("users/avatar.png"); err != nil {
		t.Errorf("expected nil for a missing image, got %v", err)
	}
}

func TestPublicIDFromURL(t *testing.T) {
	base := "http://localhost:8080"

	id, ok := PublicIDFromURL(base, base+"/uploads/users/avatar.png")
	if !ok || id != "users/avatar.png" {
		t.Errorf("got (%q, %v)", id, ok)
	}

	if _, ok := PublicIDFromURL(base, "https://cdn.example.com/avatar.png"); ok {
		t.Error("expected foreign URLs to be rejected")
	}

	if _, ok := PublicIDFromURL(base, ""); ok {
		t.Error("expected an empty URL to be rejected")
	}
}
