// Package config provides configuration management for the contisim CLI.
// Configuration is loaded from TOML files with embedded defaults, the way
// the teacher's cmd/calcmark/config package loads TUI settings.
package config

// Config is the root configuration structure.
type Config struct {
	Run   RunConfig   `mapstructure:"run"`
	Table TableConfig `mapstructure:"table"`
}

// RunConfig holds the default run-level settings a model file does not
// itself specify: how long to simulate and what to report. CommInterval
// is loaded but the run command does not read it; only the --cint flag
// overrides DYNAMIC's CINT.
type RunConfig struct {
	StopTime   float64  `mapstructure:"stop_time"`
	CommInterval int    `mapstructure:"comm_interval"`
	Report     []string `mapstructure:"report"`
}

// TableConfig controls result-table rendering.
type TableConfig struct {
	Theme     ThemeConfig `mapstructure:"theme"`
	Precision int         `mapstructure:"precision"`
}

// ThemeConfig defines the result table's colors as hex strings.
type ThemeConfig struct {
	Header    string `mapstructure:"header"`
	Border    string `mapstructure:"border"`
	Accent    string `mapstructure:"accent"`
	Muted     string `mapstructure:"muted"`
}
