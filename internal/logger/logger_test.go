package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewParsesLevel(t *testing.T) {
	log, err := New("debug", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", log.GetLevel())
	}

	log, err = New("chatty", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected fallback to info, got %s", log.GetLevel())
	}
}

func TestNewAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radar.log")
	log, err := New("info", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.WithField("source", "Amazon").Info("source failed")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "source=Amazon") {
		t.Fatalf("expected structured field in log file, got %q", string(data))
	}
}

func TestNewRejectsUnwritablePath(t *testing.T) {
	if _, err := New("info", filepath.Join(t.TempDir(), "missing", "radar.log")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
