package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Manage carries out a settings-file management command:
//
//   - "clear": remove the settings file so the next start uses the defaults.
//   - "update": load the current settings and save them again, filling in any
//     keys a user-edited or pre-update file may lack.
//   - "reset": restore the settings file to the hard-coded defaults.
//   - a JSON object: merge dotted-path settings into the current file, e.g.
//     {"sequences.consent": "memorytask", "shutdown_delay": 5}.
func Manage(command string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	switch {
	case command == "clear":
		return clear(log)
	case command == "update":
		cfg := Load(log)
		if err := cfg.Save(); err != nil {
			return err
		}
		log.Info("updated settings file", zap.String("path", SettingsPath()))
		return nil
	case command == "reset":
		if err := clear(log); err != nil {
			return err
		}
		if err := Default().Save(); err != nil {
			return err
		}
		log.Info("reset settings file to defaults", zap.String("path", SettingsPath()))
		return nil
	case strings.HasPrefix(command, "{") && strings.HasSuffix(command, "}"):
		return merge(command, log)
	}
	return fmt.Errorf("config: unrecognised settings command %q", command)
}

func clear(log *zap.Logger) error {
	path := SettingsPath()
	err := os.Remove(path)
	if os.IsNotExist(err) {
		log.Info("no settings file to clear", zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: remove settings file: %w", err)
	}
	log.Info("cleared settings file", zap.String("path", path))
	return nil
}

func merge(command string, log *zap.Logger) error {
	var updates map[string]any
	if err := json.Unmarshal([]byte(command), &updates); err != nil {
		return fmt.Errorf("config: parse settings JSON: %w", err)
	}
	cfg := Load(log)
	var stored, unknown []string
	for path, value := range updates {
		if cfg.set(path, value) {
			stored = append(stored, path)
		} else {
			unknown = append(unknown, path)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("config: unknown settings: %s", strings.Join(unknown, ", "))
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	log.Info("modified settings", zap.Strings("keys", stored))
	return nil
}

// set applies a value at a dotted setting path, reporting whether the path is
// known and the value usable.
func (c *Config) set(path string, value any) bool {
	switch path {
	case "shutdown_delay":
		f, ok := asFloat(value)
		if ok {
			c.ShutdownDelay = f
		}
		return ok
	case "logging.max_files":
		f, ok := asFloat(value)
		if ok {
			c.Logging.MaxFiles = int(f)
		}
		return ok
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	targets := map[string]*string{
		"paths.config":          &c.Paths.Config,
		"paths.data":            &c.Paths.Data,
		"paths.logs":            &c.Paths.Logs,
		"paths.cache":           &c.Paths.Cache,
		"logging.default_level": &c.Logging.DefaultLevel,
		"logging.stream_format": &c.Logging.StreamFormat,
		"logging.file_format":   &c.Logging.FileFormat,
		"sequences.agt":         &c.Sequences.Agt,
		"sequences.atolc":       &c.Sequences.Atolc,
		"sequences.conclusion":  &c.Sequences.Conclusion,
		"sequences.consent":     &c.Sequences.Consent,
		"sequences.lsbqe":       &c.Sequences.Lsbqe,
		"sequences.memorytask":  &c.Sequences.Memorytask,
	}
	target, ok := targets[path]
	if !ok {
		return false
	}
	*target = s
	return true
}

func asFloat(value any) (float64, bool) {
	switch x := value.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return 0, false
}
