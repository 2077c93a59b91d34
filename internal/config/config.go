// Package config reads, modifies and stores the app settings. Settings live
// in a JSON file under the platform user-config directory; loading is lenient
// so that a stale or hand-edited file never prevents startup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	AppName    = "Research Assistant"
	AppAuthor  = "L'ART"
	AppVersion = "0.5.0"

	safeAppName  = "Research_Assistant"
	settingsFile = "settings.json"
	jsonIndent   = "    "
)

// Paths configures the directories used by the app.
type Paths struct {
	Config string `json:"config"`
	Data   string `json:"data"`
	Logs   string `json:"logs"`
	Cache  string `json:"cache"`
}

// Logging configures the app's debug and error logging.
type Logging struct {
	// MaxFiles is the number of log files kept; older files are pruned on
	// startup.
	MaxFiles     int    `json:"max_files"`
	DefaultLevel string `json:"default_level"`
	StreamFormat string `json:"stream_format"`
	FileFormat   string `json:"file_format"`
}

// Sequences maps each task to the task the participant is redirected to on
// completion. An empty value redirects to the app start screen.
type Sequences struct {
	Agt        string `json:"agt"`
	Atolc      string `json:"atolc"`
	Conclusion string `json:"conclusion"`
	Consent    string `json:"consent"`
	Lsbqe      string `json:"lsbqe"`
	Memorytask string `json:"memorytask"`
}

// Next returns the follow-up task configured for taskName. The second return
// is false when taskName is not a sequenceable task.
func (s Sequences) Next(taskName string) (string, bool) {
	switch taskName {
	case "agt":
		return s.Agt, true
	case "atolc":
		return s.Atolc, true
	case "conclusion":
		return s.Conclusion, true
	case "consent":
		return s.Consent, true
	case "lsbqe":
		return s.Lsbqe, true
	case "memorytask":
		return s.Memorytask, true
	}
	return "", false
}

// Config is the app configuration tree.
type Config struct {
	Paths         Paths     `json:"paths"`
	Logging       Logging   `json:"logging"`
	Sequences     Sequences `json:"sequences"`
	ShutdownDelay float64   `json:"shutdown_delay"`
}

// Default returns the hard-coded default configuration.
func Default() *Config {
	base := baseDir()
	cache, err := os.UserCacheDir()
	if err != nil {
		cache = base
	}
	return &Config{
		Paths: Paths{
			Config: base,
			Data:   filepath.Join(base, "Data"),
			Logs:   filepath.Join(base, "Logs"),
			Cache:  filepath.Join(cache, safeAppName),
		},
		Logging: Logging{
			MaxFiles:     10,
			DefaultLevel: "warning",
			StreamFormat: "console",
			FileFormat:   "json",
		},
		Sequences: Sequences{
			Atolc:   "memorytask",
			Consent: "lsbqe",
			Lsbqe:   "atolc",
		},
		ShutdownDelay: 2.0,
	}
}

func baseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, safeAppName)
}

// SettingsPath returns the settings file location.
func SettingsPath() string {
	return filepath.Join(baseDir(), settingsFile)
}

// Load reads the settings file. Unknown keys are logged and ignored, missing
// keys keep their defaults, and read or parse failures fall back to the
// defaults rather than failing startup. The config path itself always reverts
// to the platform default.
func Load(log *zap.Logger) *Config {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := Default()
	path := SettingsPath()
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error("failed to read settings file", zap.String("path", path), zap.Error(err))
		}
		return cfg
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		log.Error("failed to parse settings file, using defaults",
			zap.String("path", path), zap.Error(err))
		return Default()
	}
	for _, key := range unknownKeys(raw) {
		log.Warn("ignoring unknown setting", zap.String("key", key))
	}
	cfg.Paths.Config = baseDir()
	return cfg
}

// Save writes the configuration to the settings file, creating the config
// directory if needed.
func (c *Config) Save() error {
	path := SettingsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}
	raw, err := json.MarshalIndent(c, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("config: encode settings: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("config: write settings: %w", err)
	}
	return nil
}

// unknownKeys reports dotted keys in raw that the configuration does not
// declare, using the documented paths as the authority.
func unknownKeys(raw []byte) []string {
	var tree map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil
	}
	known := knownPaths()
	var unknown []string
	for section, body := range tree {
		if !known[section] {
			unknown = append(unknown, section)
			continue
		}
		var sub map[string]json.RawMessage
		if err := json.Unmarshal(body, &sub); err != nil {
			continue
		}
		for key := range sub {
			if !known[section+"."+key] {
				unknown = append(unknown, section+"."+key)
			}
		}
	}
	return unknown
}

func knownPaths() map[string]bool {
	known := map[string]bool{
		"paths":          true,
		"logging":        true,
		"sequences":      true,
		"shutdown_delay": true,
	}
	for _, doc := range Docs() {
		known[doc.Path] = true
	}
	return known
}
