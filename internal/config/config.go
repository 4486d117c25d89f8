package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds user-tunable settings. Every field has a working default; the
// config file is optional.
type Config struct {
	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat     string `mapstructure:"log_format" yaml:"log_format"`
	LogFile       string `mapstructure:"log_file" yaml:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb" yaml:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups" yaml:"log_max_backups"`

	// Foreground is the digit color as #RRGGBB or #RRGGBBAA.
	Foreground string `mapstructure:"foreground" yaml:"foreground"`
	// TooltipFormat takes a single %d verb for the level.
	TooltipFormat string `mapstructure:"tooltip_format" yaml:"tooltip_format"`
	// MuteIcon selects the dedicated muted glyph instead of the "0" icon.
	MuteIcon bool `mapstructure:"mute_icon" yaml:"mute_icon"`

	PipeName string `mapstructure:"pipe_name" yaml:"pipe_name"`
}

const (
	DefaultForeground    = "#000000"
	DefaultTooltipFormat = "Volume: %d%%"
)

func Default() *Config {
	return &Config{
		LogLevel:      "info",
		LogFormat:     "text",
		LogFile:       DefaultLogFile(),
		LogMaxSizeMB:  5,
		LogMaxBackups: 2,
		Foreground:    DefaultForeground,
		TooltipFormat: DefaultTooltipFormat,
		MuteIcon:      true,
		PipeName:      DefaultPipeName(),
	}
}

// Load reads cfgFile, or volumeicon.yaml from Dir() and the working directory
// when cfgFile is empty. A missing default file is not an error; environment
// variables prefixed VOLUMEICON_ override file values.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("volumeicon")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("VOLUMEICON")
	v.AutomaticEnv()
	bindDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can override keys that are
// absent from the file.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("log_max_size_mb", cfg.LogMaxSizeMB)
	v.SetDefault("log_max_backups", cfg.LogMaxBackups)
	v.SetDefault("foreground", cfg.Foreground)
	v.SetDefault("tooltip_format", cfg.TooltipFormat)
	v.SetDefault("mute_icon", cfg.MuteIcon)
	v.SetDefault("pipe_name", cfg.PipeName)
}

// Dir returns the per-user config directory.
func Dir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "volumeicon")
	}
	return "."
}

// DefaultLogFile is empty (stderr) except on Windows, where the tray process
// has no console.
func DefaultLogFile() string {
	if runtime.GOOS != "windows" {
		return ""
	}
	dir, err := os.UserCacheDir() // %LocalAppData%
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "volumeicon", "volumeicon.log")
}

// DefaultPipeName is scoped to the current user so sessions do not collide.
func DefaultPipeName() string {
	user := os.Getenv("USERNAME")
	if user == "" {
		user = os.Getenv("USER")
	}
	if user == "" {
		user = "default"
	}
	if runtime.GOOS == "windows" {
		return `\\.\pipe\volumeicon-` + user
	}
	return filepath.Join(os.TempDir(), "volumeicon-"+user+".sock")
}
