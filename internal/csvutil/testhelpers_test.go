package csvutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func readTestFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// stagingFiles lists the staging files left in dir.
func stagingFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var out []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), StagingPrefix) {
			out = append(out, e.Name())
		}
	}
	return out
}

// readAll drains rows into flattened maps.
func readAll(t *testing.T, rows *Rows) []map[string]string {
	t.Helper()
	var out []map[string]string
	for rec, err := range rows.All() {
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		out = append(out, rec.Strings())
	}
	return out
}
