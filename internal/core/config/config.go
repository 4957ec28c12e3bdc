package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultReportTemplate renders the year-in-review summary. Users can
// replace it by dropping a report_template.txt next to config.toml.
const DefaultReportTemplate = `ChatGPT Year in Review {{year}}

Conversations: {{total_conversations}}{{#has_previous}} ({{conversations_delta}} vs {{previous_year}}){{/has_previous}}
Avg messages: {{avg_messages}}{{#has_previous}} ({{messages_delta}} vs {{previous_year}}){{/has_previous}}
Voice conversations: {{voice_count}}
{{#has_busiest}}
Busiest month: {{busiest_month}} ({{busiest_month_count}} conversations)
{{/has_busiest}}
{{#has_models}}
Models:
{{#models}}
- {{name}}: {{count}} ({{percent}}%)
{{/models}}
{{/has_models}}
{{#has_words}}
Top title words:
{{#words}}
- {{word}}: {{count}}
{{/words}}
{{/has_words}}`

const (
	DefaultMinWordLength = 3
	DefaultTopWords      = 25
)

type Config struct {
	ExportDir      string // Directory scanned for archive exports (optional)
	MinWordLength  int    // Shortest title word counted in word frequencies
	TopWords       int    // How many words the words command shows
	ReportTemplate string
}

type tomlConfig struct {
	ExportDir     string `toml:"export_dir"`
	MinWordLength int    `toml:"min_word_length"`
	TopWords      int    `toml:"top_words"`
}

// Load reads config from ~/.config/gptrider/
func Load() (*Config, error) {
	cfg := &Config{
		MinWordLength:  DefaultMinWordLength,
		TopWords:       DefaultTopWords,
		ReportTemplate: DefaultReportTemplate,
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil // Use defaults
	}

	configDir := filepath.Join(home, ".config", "gptrider")
	templatePath := filepath.Join(configDir, "report_template.txt")
	tomlPath := filepath.Join(configDir, "config.toml")

	// Load TOML config if it exists
	if _, err := os.Stat(tomlPath); err == nil {
		var tc tomlConfig
		if _, err := toml.DecodeFile(tomlPath, &tc); err == nil {
			cfg.ExportDir = tc.ExportDir
			if tc.MinWordLength > 0 {
				cfg.MinWordLength = tc.MinWordLength
			}
			if tc.TopWords > 0 {
				cfg.TopWords = tc.TopWords
			}
		}
	}

	// If custom template exists, use it
	if data, err := os.ReadFile(templatePath); err == nil {
		cfg.ReportTemplate = string(data)
	}

	return cfg, nil
}
