package types

import "time"

// ConversionBackend identifies the Word-to-PDF conversion tool.
type ConversionBackend string

const (
	// BackendAuto picks word on windows and darwin, libreoffice elsewhere.
	BackendAuto        ConversionBackend = "auto"
	BackendWord        ConversionBackend = "word"
	BackendLibreOffice ConversionBackend = "libreoffice"
)

// ConversionConfig holds settings for the word_ops group.
type ConversionConfig struct {
	// Backend selects the conversion tool: auto, word, or libreoffice.
	Backend ConversionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// SofficePath overrides the LibreOffice binary lookup on PATH.
	SofficePath string `json:"soffice_path,omitempty" yaml:"soffice_path,omitempty" mapstructure:"soffice_path"`

	// ContainerImage is a LibreOffice image run through docker or podman
	// when no local soffice binary is found. Empty disables the fallback.
	ContainerImage string `json:"container_image,omitempty" yaml:"container_image,omitempty" mapstructure:"container_image"`

	// Timeout bounds a single conversion (default 2m).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// ArchiveConfig holds settings for the archive_ops group.
type ArchiveConfig struct {
	// Level is the default gzip level for create_archive (1-9, default 9).
	Level int `json:"level" yaml:"level" mapstructure:"level"`
}

// Config groups all settings loaded at process start.
type Config struct {
	// LogLevel is the zap level for stderr logs (debug, info, warn, error).
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	Convert ConversionConfig `json:"convert" yaml:"convert" mapstructure:"convert"`
	Archive ArchiveConfig    `json:"archive" yaml:"archive" mapstructure:"archive"`
}

// Default configuration values.
const (
	DefaultLogLevel       = "warn"
	DefaultConvertTimeout = 2 * time.Minute
	DefaultArchiveLevel   = 9
)

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		Convert: ConversionConfig{
			Backend: BackendAuto,
			Timeout: DefaultConvertTimeout,
		},
		Archive: ArchiveConfig{Level: DefaultArchiveLevel},
	}
}
