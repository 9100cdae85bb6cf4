package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStoreNestedKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	if err := s.SetWithExtension("usccb/2025-11-05", ".html", []byte("<html/>")); err != nil {
		t.Fatalf("SetWithExtension: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "usccb", "2025-11-05.html")); err != nil {
		t.Errorf("archived page not on disk: %v", err)
	}

	got, ok := s.GetWithExtension("usccb/2025-11-05", ".html")
	if !ok || string(got) != "<html/>" {
		t.Errorf("GetWithExtension = %q, %v", got, ok)
	}
}

func TestLocalStoreJSON(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	type meta struct {
		Strategy string `json:"strategy"`
	}
	if err := s.SetJSON("usccb/2025-11-05", meta{Strategy: "structural_match"}); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}

	var got meta
	if !s.GetJSON("usccb/2025-11-05", &got) || got.Strategy != "structural_match" {
		t.Errorf("GetJSON = %+v", got)
	}

	if s.GetJSON("usccb/missing", &got) {
		t.Error("GetJSON found a missing key")
	}
}

func TestLocalStoreKeysStayInsideDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocal(filepath.Join(dir, "store"))
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	if err := s.Set("../escape", []byte("{}")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.json")); err == nil {
		t.Error("key escaped the store directory")
	}
}
