package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("unexpected error creating storage: %v", err)
	}

	key := PhotoKey(12, "png")
	id, err := store.Save(context.Background(), []byte("image-bytes"), key)
	if err != nil {
		t.Fatalf("unexpected error saving photo: %v", err)
	}
	if id != key {
		t.Fatalf("expected returned id %s, got %s", key, id)
	}

	absPath := filepath.Join(dir, filepath.FromSlash(id))
	data, err := os.ReadFile(absPath)
	if err != nil {
		t.Fatalf("expected saved file to exist: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("unexpected file contents: %q", data)
	}

	if err := store.Delete(context.Background(), id); err != nil {
		t.Fatalf("unexpected error deleting photo: %v", err)
	}
	if _, err := os.Stat(absPath); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, got %v", err)
	}

	// 重复删除不是错误
	if err := store.Delete(context.Background(), id); err != nil {
		t.Fatalf("expected delete of missing file to succeed, got %v", err)
	}
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error creating storage: %v", err)
	}

	if _, err := store.Save(context.Background(), []byte("x"), "../escape.txt"); err == nil {
		t.Fatal("expected error for traversal key")
	}
	if _, err := store.Save(context.Background(), []byte("x"), "   "); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := store.Delete(context.Background(), "../escape.txt"); err == nil {
		t.Fatal("expected error deleting traversal key")
	}
}

func TestPhotoKeyShape(t *testing.T) {
	key := PhotoKey(42, ".JPG")
	if !strings.HasPrefix(key, "stores/42/") {
		t.Fatalf("expected store-scoped key, got %s", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("expected normalised extension, got %s", key)
	}

	if !strings.HasSuffix(PhotoKey(1, ""), ".bin") {
		t.Fatal("expected fallback extension for empty input")
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"stores/1/a.png", "image/png"},
		{"stores/1/a.webp", "image/webp"},
		{"stores/1/a.unknownext", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := detectContentType(tt.key); got != tt.want {
			t.Fatalf("key %s: expected %s, got %s", tt.key, tt.want, got)
		}
	}
}

func TestJoinPrefix(t *testing.T) {
	if got := joinPrefix("", "stores/1/a.png"); got != "stores/1/a.png" {
		t.Fatalf("expected key unchanged without prefix, got %s", got)
	}
	if got := joinPrefix("/uploads/", "/stores/1/a.png"); got != "uploads/stores/1/a.png" {
		t.Fatalf("expected joined key, got %s", got)
	}
}
