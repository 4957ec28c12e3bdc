package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.MinWordLength != DefaultMinWordLength {
			t.Errorf("Expected default min word length %d, got %d", DefaultMinWordLength, cfg.MinWordLength)
		}
		if cfg.TopWords != DefaultTopWords {
			t.Errorf("Expected default top words %d, got %d", DefaultTopWords, cfg.TopWords)
		}
		if cfg.ExportDir != "" {
			t.Errorf("Expected empty export dir, got %q", cfg.ExportDir)
		}
		if cfg.ReportTemplate != DefaultReportTemplate {
			t.Error("Expected default report template")
		}
	})

	t.Run("TOMLOverrides", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		configDir := filepath.Join(home, ".config", "gptrider")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			t.Fatal(err)
		}
		tomlContent := `export_dir = "/exports"
min_word_length = 4
top_words = 10
`
		if err := os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(tomlContent), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.ExportDir != "/exports" {
			t.Errorf("Expected export dir /exports, got %q", cfg.ExportDir)
		}
		if cfg.MinWordLength != 4 {
			t.Errorf("Expected min word length 4, got %d", cfg.MinWordLength)
		}
		if cfg.TopWords != 10 {
			t.Errorf("Expected top words 10, got %d", cfg.TopWords)
		}
	})

	t.Run("CustomTemplate", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		configDir := filepath.Join(home, ".config", "gptrider")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(configDir, "report_template.txt"), []byte("{{year}} only"), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.ReportTemplate != "{{year}} only" {
			t.Errorf("Expected custom template, got %q", cfg.ReportTemplate)
		}
	})
}
