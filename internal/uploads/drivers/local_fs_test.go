package drivers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalFSDriver_DirectoryHashing(t *testing.T) {
	tempDir := t.TempDir()

	driver, err := NewLocalFSDriver(tempDir, "/api/v1/uploads")
	if err != nil {
		t.Fatalf("failed to create driver: %v", err)
	}

	ctx := context.Background()
	key := "EXPORT/abcdef123456.xlsx"
	content := []byte("test content")

	err = driver.Save(ctx, key, bytes.NewReader(content), ObjectInfo{ContentType: "text/csv", OriginalName: "may.csv"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// key "EXPORT/abcdef123456.xlsx" should be at EXPORT/ab/cd/abcdef123456.xlsx
	fullPath := filepath.Join(tempDir, "EXPORT", "ab", "cd", "abcdef123456.xlsx")
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		t.Errorf("file not found at hashed path: %s", fullPath)
	}

	reader, info, err := driver.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got, _ := io.ReadAll(reader)
	reader.Close()

	if !bytes.Equal(got, content) {
		t.Errorf("unexpected content: %q", got)
	}
	if info.ContentType != "text/csv" || info.OriginalName != "may.csv" || info.Size != int64(len(content)) {
		t.Errorf("unexpected info: %+v", info)
	}

	url, err := driver.GenerateURL(ctx, key, 0)
	if err != nil {
		t.Errorf("GenerateURL failed: %v", err)
	}
	if url != "/api/v1/uploads/"+key {
		t.Errorf("unexpected URL: %s", url)
	}

	if err := driver.Delete(ctx, key); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if _, err := os.Stat(fullPath); !os.IsNotExist(err) {
		t.Error("file still exists after deletion")
	}
	if err := driver.Delete(ctx, key); err != nil {
		t.Errorf("deleting a missing object should succeed: %v", err)
	}
}

func TestLocalFSDriver_RejectsEscapingKeys(t *testing.T) {
	driver, err := NewLocalFSDriver(t.TempDir(), "")
	if err != nil {
		t.Fatalf("failed to create driver: %v", err)
	}

	for _, key := range []string{"", "../secret", "EXPORT/../../secret", "a\\b", "EXPORT//x.csv"} {
		err := driver.Save(context.Background(), key, strings.NewReader("x"), ObjectInfo{})
		if !errors.Is(err, ErrInvalidKey) {
			t.Errorf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestCleanKey(t *testing.T) {
	got, err := CleanKey("/IMPORT/abc.csv")
	if err != nil || got != "IMPORT/abc.csv" {
		t.Errorf("unexpected result %q, %v", got, err)
	}
}
