package models

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ArchiveBase != "https://archive.ph" {
		t.Errorf("ArchiveBase = %q, want https://archive.ph", cfg.ArchiveBase)
	}
	if cfg.Archive.MaxAttempts != 100 || cfg.Archive.Interval != 100*time.Millisecond {
		t.Errorf("Archive = %+v, want 100 attempts at 100ms", cfg.Archive)
	}
	if len(cfg.DetectLanguages) < 2 {
		t.Errorf("DetectLanguages = %q, want a default candidate set", cfg.DetectLanguages)
	}
}

func TestLoadConfig_DetectLanguages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enquote.yaml")
	if err := os.WriteFile(path, []byte("detect_languages: [la, grc, en]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !reflect.DeepEqual(cfg.DetectLanguages, []string{"la", "grc", "en"}) {
		t.Errorf("DetectLanguages = %q, want the configured list", cfg.DetectLanguages)
	}
}

func TestLoadConfig_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enquote.yaml")
	content := "language: fr\narchive:\n  interval: 250ms\npassage_policy:\n  article: extracted-first\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Language != "fr" {
		t.Errorf("Language = %q, want fr", cfg.Language)
	}
	if cfg.Archive.Interval != 250*time.Millisecond {
		t.Errorf("Interval = %v, want 250ms", cfg.Archive.Interval)
	}
	if cfg.Archive.MaxAttempts != 100 {
		t.Errorf("MaxAttempts = %d, want default 100", cfg.Archive.MaxAttempts)
	}
	if cfg.PassagePolicy["article"] != "extracted-first" {
		t.Errorf("PassagePolicy = %v", cfg.PassagePolicy)
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("archive: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() error = nil, want parse error")
	}
}

func TestPreferenceFile_SetLanguage(t *testing.T) {
	prefs := PreferenceFile{Path: filepath.Join(t.TempDir(), "enquote.yaml")}

	if got := prefs.Language(); got != "" {
		t.Errorf("Language() before set = %q, want empty", got)
	}
	if err := prefs.SetLanguage("de"); err != nil {
		t.Fatalf("SetLanguage() error = %v", err)
	}
	if got := prefs.Language(); got != "de" {
		t.Errorf("Language() = %q, want de", got)
	}

	cfg, err := LoadConfig(prefs.Path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Archive.MaxAttempts != 100 {
		t.Errorf("SetLanguage dropped other settings: %+v", cfg.Archive)
	}
}
