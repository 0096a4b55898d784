package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	if err := Init(Config{Level: "debug", FilePath: path}); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	t.Cleanup(func() { log = nil })

	WithContext("image").Warn("no image found", "link", "https://ex.com/a")
	_ = Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"msg":"no image found"`, `"context":"image"`, `"link":"https://ex.com/a"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log file missing %s:\n%s", want, out)
		}
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	err := Init(Config{Level: "loud", FilePath: filepath.Join(t.TempDir(), "app.log")})
	if err == nil {
		t.Fatal("expected error for unknown level")
	}
}
