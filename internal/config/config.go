package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"lenticular-viewmap/internal/viewmap"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "VMAPGEN_"

// Config holds all configurable paths, server settings and batch jobs.
type Config struct {
	// Paths
	BaseDir    string `json:"base_dir"`
	ProfileDir string `json:"profile_dir"`
	OutputDir  string `json:"output_dir"`

	// Output settings
	Format      string `json:"format"`
	PreviewSize int    `json:"preview_size"`
	Visualize   bool   `json:"visualize"`

	Workers int    `json:"workers"`
	Listen  string `json:"listen"`

	Jobs []Job `json:"jobs"`
}

// Job describes one view map to generate in a batch run.
type Job struct {
	// Name is the output file stem. Defaults to the profile name.
	Name string `json:"name"`
	// Profile is a profile name or a path to a calibration file.
	Profile string `json:"profile"`
	// Format overrides Config.Format for this job.
	Format  string               `json:"format,omitempty"`
	Options viewmap.BuildOptions `json:"options"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values, except BaseDir which
// defaults to the directory holding the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Dir(path)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from VMAPGEN_* environment variables.
func (c *Config) ApplyEnv() error {
	if v, ok := lookupEnv("BASE_DIR"); ok {
		c.BaseDir = v
	}
	if v, ok := lookupEnv("PROFILE_DIR"); ok {
		c.ProfileDir = v
	}
	if v, ok := lookupEnv("OUTPUT_DIR"); ok {
		c.OutputDir = v
	}
	if v, ok := lookupEnv("FORMAT"); ok {
		c.Format = v
	}
	if v, ok := lookupEnv("LISTEN"); ok {
		c.Listen = v
	}
	if v, ok := lookupEnv("WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sWORKERS: %w", EnvPrefix, err)
		}
		c.Workers = n
	}
	if v, ok := lookupEnv("PREVIEW_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sPREVIEW_SIZE: %w", EnvPrefix, err)
		}
		c.PreviewSize = n
	}
	if v, ok := lookupEnv("VISUALIZE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %sVISUALIZE: %w", EnvPrefix, err)
		}
		c.Visualize = b
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file and environment
	if flags.ProfileDir != "" {
		c.ProfileDir = flags.ProfileDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Listen != "" {
		c.Listen = flags.Listen
	}

	if c.ProfileDir == "" {
		c.ProfileDir = "profiles"
	}
	if c.OutputDir == "" {
		c.OutputDir = "viewmaps"
	}
	c.ProfileDir = c.abs(c.ProfileDir)
	c.OutputDir = c.abs(c.OutputDir)

	if c.Format == "" {
		c.Format = "bmp"
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.PreviewSize < 0 {
		c.PreviewSize = 0
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}

	for i := range c.Jobs {
		j := &c.Jobs[i]
		if j.Name == "" {
			j.Name = stem(j.Profile)
		}
		if j.Format == "" {
			j.Format = c.Format
		}
	}
}

// abs resolves relative paths against BaseDir.
func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	ProfileDir string
	OutputDir  string
	Format     string
	Workers    int
	Listen     string
}

func stem(p string) string {
	base := filepath.Base(strings.ReplaceAll(p, `\`, "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
