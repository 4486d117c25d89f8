package config

import (
	"fmt"
	"image/color"
	"log/slog"
	"strconv"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// ValidationResult splits problems into fatals, which must stop startup, and
// warnings, which were corrected in place.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

// AllErrors returns fatals followed by warnings.
func (r ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	return append(all, r.Warnings...)
}

// ValidateTiered checks the config. Out-of-range values are clamped or reset to
// defaults and reported as warnings; values with no safe fallback are fatal.
func (c *Config) ValidateTiered() ValidationResult {
	var r ValidationResult

	if _, err := ParseColor(c.Foreground); err != nil {
		r.Fatals = append(r.Fatals, fmt.Errorf("foreground: %w", err))
	}

	if c.PipeName == "" {
		r.Fatals = append(r.Fatals, fmt.Errorf("pipe_name must not be empty"))
	}

	if c.TooltipFormat == "" || strings.Count(c.TooltipFormat, "%d") != 1 ||
		strings.Contains(fmt.Sprintf(c.TooltipFormat, 0), "%!") {
		r.Warnings = append(r.Warnings, fmt.Errorf("tooltip_format %q must contain exactly one %%d verb, using default", c.TooltipFormat))
		c.TooltipFormat = DefaultTooltipFormat
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	if c.LogMaxSizeMB < 1 {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_max_size_mb %d is below minimum 1, clamping", c.LogMaxSizeMB))
		c.LogMaxSizeMB = 1
	} else if c.LogMaxSizeMB > 100 {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_max_size_mb %d exceeds maximum 100, clamping", c.LogMaxSizeMB))
		c.LogMaxSizeMB = 100
	}

	if c.LogMaxBackups < 0 {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_max_backups %d is negative, clamping", c.LogMaxBackups))
		c.LogMaxBackups = 0
	} else if c.LogMaxBackups > 20 {
		r.Warnings = append(r.Warnings, fmt.Errorf("log_max_backups %d exceeds maximum 20, clamping", c.LogMaxBackups))
		c.LogMaxBackups = 20
	}

	for _, err := range r.Warnings {
		slog.Warn("config validation", "error", err)
	}

	return r
}

// ForegroundColor returns the parsed foreground, falling back to opaque black.
func (c *Config) ForegroundColor() color.NRGBA {
	col, err := ParseColor(c.Foreground)
	if err != nil {
		return color.NRGBA{A: 0xFF}
	}
	return col
}

// ParseColor parses #RRGGBB or #RRGGBBAA. Alpha defaults to opaque; a fully
// transparent color is rejected since the icon would be invisible.
func ParseColor(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return color.NRGBA{}, fmt.Errorf("color %q must be #RRGGBB or #RRGGBBAA", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}

	col := color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	if col.A == 0 {
		return color.NRGBA{}, fmt.Errorf("color %q is fully transparent", s)
	}
	return col, nil
}
