package filewalker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestTextFilesRecursiveSorted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"))
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, "sub", "deep", "c.txt"))
	writeFile(t, filepath.Join(root, "sub", "UPPER.TXT"))
	writeFile(t, filepath.Join(root, "ignore.bin"))
	writeFile(t, filepath.Join(root, "noext"))

	files, err := TextFiles(root)
	if err != nil {
		t.Fatalf("TextFiles: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("got %d files, want 4: %v", len(files), files)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1] >= files[i] {
			t.Errorf("files not sorted: %q before %q", files[i-1], files[i])
		}
	}
	for _, f := range files {
		low := strings.ToLower(f)
		if !strings.HasSuffix(low, ".txt") {
			t.Errorf("non-text file included: %s", f)
		}
	}
}

func TestTextFilesRootMustBeDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "plain.txt")
	writeFile(t, file)

	if _, err := TextFiles(file); err == nil {
		t.Error("TextFiles accepted a plain file as root")
	}
	if _, err := TextFiles(filepath.Join(root, "missing")); err == nil {
		t.Error("TextFiles accepted a missing root")
	}
}

func TestTextFilesEmptyDirectory(t *testing.T) {
	files, err := TextFiles(t.TempDir())
	if err != nil {
		t.Fatalf("TextFiles: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("got %v, want none", files)
	}
}
