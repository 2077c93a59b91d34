package config

// FieldDoc documents one setting for the settings screen.
type FieldDoc struct {
	Path    string         `json:"path"`
	Label   string         `json:"label"`
	Help    string         `json:"help,omitempty"`
	Values  map[string]any `json:"values,omitempty"`
	Default any            `json:"default"`
}

var sequenceOptions = map[string]any{
	"App start screen":  "",
	"AGT":               "agt",
	"AToL-C":            "atolc",
	"Conclusion Screen": "conclusion",
	"Consent Form":      "consent",
	"LSBQe":             "lsbqe",
	"Memory Task":       "memorytask",
}

// Docs returns the static documentation table for every user-facing setting.
func Docs() []FieldDoc {
	return []FieldDoc{
		{
			Path:  "paths.config",
			Label: "Path for configuration files",
			Help: "Note that changes to the configuration file path have no effect " +
				"and will automatically revert to the default path. The path shown " +
				"here is primarily of informational value.",
			Default: Default().Paths.Config,
		},
		{
			Path:    "paths.data",
			Label:   "Path for data files",
			Help:    "This is the path where data files (responses) from the app's tasks are stored.",
			Default: Default().Paths.Data,
		},
		{
			Path:  "paths.logs",
			Label: "Path for log files",
			Help: "This is the path where the app stores log files, which may contain " +
				"useful information for debugging and error reporting.",
			Default: Default().Paths.Logs,
		},
		{
			Path:  "paths.cache",
			Label: "Path for temporarily cached data and files",
			Help: "This is a path where the app may temporarily cache (store, modify, " +
				"delete) various files during operation.",
			Default: Default().Paths.Cache,
		},
		{
			Path:  "logging.max_files",
			Label: "Maximum number of log files to keep",
			Help: "Indicates the maximal number of log files kept. If more log files " +
				"are present on app startup, the oldest log files are deleted.",
			Default: 10,
		},
		{
			Path:  "logging.default_level",
			Label: "Default log level",
			Help: "Specifies the default log level on app startup, used if no log " +
				"level is specified with the --debug LEVEL command line option.",
			Values: map[string]any{
				"Debug":    "debug",
				"Info":     "info",
				"Warning":  "warning",
				"Error":    "error",
				"Critical": "critical",
			},
			Default: "warning",
		},
		{
			Path:    "logging.stream_format",
			Label:   "Console log message format",
			Help:    "Format for log and error messages displayed on the console.",
			Values:  map[string]any{"Console": "console", "JSON": "json"},
			Default: "console",
		},
		{
			Path:    "logging.file_format",
			Label:   "File log message format",
			Help:    "Format for log and error messages in the log files.",
			Values:  map[string]any{"Console": "console", "JSON": "json"},
			Default: "json",
		},
		{
			Path:    "sequences.agt",
			Label:   "Task following the AGT",
			Values:  sequenceOptions,
			Default: "",
		},
		{
			Path:    "sequences.atolc",
			Label:   "Task following the AToL-C",
			Values:  sequenceOptions,
			Default: "memorytask",
		},
		{
			Path:    "sequences.conclusion",
			Label:   "Task following the Conclusion Screen",
			Values:  sequenceOptions,
			Default: "",
		},
		{
			Path:    "sequences.consent",
			Label:   "Task following the Consent Form",
			Values:  sequenceOptions,
			Default: "lsbqe",
		},
		{
			Path:    "sequences.lsbqe",
			Label:   "Task following the LSBQe",
			Values:  sequenceOptions,
			Default: "atolc",
		},
		{
			Path:    "sequences.memorytask",
			Label:   "Task following the Memory Task",
			Values:  sequenceOptions,
			Default: "",
		},
		{
			Path:  "shutdown_delay",
			Label: "Shutdown delay",
			Help: "The number of seconds to wait with shutting down the app's backend " +
				"process after the last window has been closed. Increasing this number " +
				"slightly can help if you are running on slow or underpowered hardware " +
				"and experience crashes.",
			Default: 2.0,
		},
	}
}
