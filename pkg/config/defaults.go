package config

// Default configuration values.
const (
	DefaultMode        = ModeTree
	DefaultBaseBranch  = "main"
	DefaultWorkers     = 1
	DefaultSniffBytes  = 1024
	DefaultMaxFileSize = ""
	DefaultFormat      = "tree"
	DefaultOrder       = "oldest"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = LogFormatText
	DefaultConfigName  = ".todoscope"
	DefaultConfigType  = "yaml"
	DefaultEnvPrefix   = "TODOSCOPE"
)

// Scan modes.
const (
	ModeTree = "tree"
	ModeDiff = "diff"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)
