package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNilSafeBeforeInit(t *testing.T) {
	Close()
	Info("dropped")
	Debug("dropped")
	Warn("dropped")
	Error("dropped")
	WithPrefix("x").Info("dropped")
}

func TestInitWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWriter(&buf, "warn"); err != nil {
		t.Fatal(err)
	}
	defer Close()

	Info("hidden")
	Warn("shown", "key", "value")
	WithPrefix("spotify").Error("request failed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("missing warn line in %q", out)
	}
	if !strings.Contains(out, "spotify") {
		t.Errorf("missing prefix in %q", out)
	}
}

func TestInitWriterBadLevel(t *testing.T) {
	if err := InitWriter(&bytes.Buffer{}, "loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestInitFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	if err := Init(dir, "debug"); err != nil {
		t.Fatal(err)
	}
	Debug("ranking started", "albums", 12)
	Close()

	path := filepath.Join(dir, "albumtier-"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "ranking started") {
		t.Errorf("unexpected log contents %q", data)
	}
}
