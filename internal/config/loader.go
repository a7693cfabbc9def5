package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"vidgend/internal/common/fsutil"
)

// Defaults applied by Normalize.
const (
	DefaultAddr            = ":7860"
	DefaultOutputDir       = "./outputs"
	DefaultTempDir         = "./temp"
	DefaultQueueSize       = 50
	DefaultMaxFileAgeDays  = 7
	DefaultMaxFiles        = 50
	DefaultWorkers         = 1
	DefaultHeadroomGB      = 8
	DefaultCleanupMinutes  = 60
	DefaultMaxPromptLength = 1000
	DefaultMaxDurationSec  = 60
	DefaultMaxSceneCount   = 10
	DefaultMaxFPS          = 60
	DefaultMaxResults      = 100
	DefaultMaxBodyBytes    = 1 << 20
	DefaultNvidiaSMIPath   = "nvidia-smi"
	DefaultFFmpegPath      = "ffmpeg"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	AcceleratorAuto        = "auto"
	AcceleratorPresent     = "present"
	AcceleratorAbsent      = "absent"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by Normalize.
type Config struct {
	Debug     bool   `json:"debug" yaml:"debug" toml:"debug" env:"DEBUG_MODE"`
	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format" env:"LOG_FORMAT"`
	Addr      string `json:"addr" yaml:"addr" toml:"addr" env:"VIDGEND_ADDR"`

	OutputDir string `json:"output_dir" yaml:"output_dir" toml:"output_dir" env:"OUTPUT_DIR"`
	TempDir   string `json:"temp_dir" yaml:"temp_dir" toml:"temp_dir" env:"TEMP_DIR"`

	MaxQueueSize      int `json:"max_queue_size" yaml:"max_queue_size" toml:"max_queue_size" env:"MAX_QUEUE_SIZE"`
	MaxFileAgeDays    int `json:"max_file_age_days" yaml:"max_file_age_days" toml:"max_file_age_days" env:"MAX_FILE_AGE_DAYS"`
	MaxFiles          int `json:"max_files" yaml:"max_files" toml:"max_files" env:"MAX_FILES"`
	Workers           int `json:"workers" yaml:"workers" toml:"workers" env:"WORKERS"`
	JobTimeoutSeconds int `json:"job_timeout_seconds" yaml:"job_timeout_seconds" toml:"job_timeout_seconds" env:"JOB_TIMEOUT_SECONDS"`
	MaxResults        int `json:"max_results" yaml:"max_results" toml:"max_results" env:"MAX_RESULTS"`
	CleanupMinutes    int `json:"cleanup_interval_minutes" yaml:"cleanup_interval_minutes" toml:"cleanup_interval_minutes" env:"CLEANUP_INTERVAL_MINUTES"`

	HeadroomThresholdGB float64 `json:"headroom_threshold_gb" yaml:"headroom_threshold_gb" toml:"headroom_threshold_gb" env:"HEADROOM_THRESHOLD_GB"`
	Accelerator         string  `json:"accelerator" yaml:"accelerator" toml:"accelerator" env:"ACCELERATOR"`
	AcceleratorHeadroom float64 `json:"accelerator_headroom_gb" yaml:"accelerator_headroom_gb" toml:"accelerator_headroom_gb" env:"ACCELERATOR_HEADROOM_GB"`
	NvidiaSMIPath       string  `json:"nvidia_smi_path" yaml:"nvidia_smi_path" toml:"nvidia_smi_path" env:"NVIDIA_SMI_PATH"`
	FFmpegPath          string  `json:"ffmpeg_path" yaml:"ffmpeg_path" toml:"ffmpeg_path" env:"FFMPEG_PATH"`

	MaxPromptLength    int `json:"max_prompt_length" yaml:"max_prompt_length" toml:"max_prompt_length" env:"MAX_PROMPT_LENGTH"`
	MaxDurationSeconds int `json:"max_duration_seconds" yaml:"max_duration_seconds" toml:"max_duration_seconds" env:"MAX_DURATION_SECONDS"`
	MaxSceneCount      int `json:"max_scene_count" yaml:"max_scene_count" toml:"max_scene_count" env:"MAX_SCENE_COUNT"`
	MaxFPS             int `json:"max_fps" yaml:"max_fps" toml:"max_fps" env:"MAX_FPS"`

	SyntheticFrameDelayMS int `json:"synthetic_frame_delay_ms" yaml:"synthetic_frame_delay_ms" toml:"synthetic_frame_delay_ms" env:"SYNTHETIC_FRAME_DELAY_MS"`
	SyntheticFrameBudget  int `json:"synthetic_frame_budget" yaml:"synthetic_frame_budget" toml:"synthetic_frame_budget" env:"SYNTHETIC_FRAME_BUDGET"`

	MaxBodyBytes int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes" env:"MAX_BODY_BYTES"`
	CORSEnabled  bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled" env:"CORS_ENABLED"`
	CORSOrigins  []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
	CORSMethods  []string `json:"cors_methods" yaml:"cors_methods" toml:"cors_methods" env:"CORS_METHODS" envSeparator:","`
	CORSHeaders  []string `json:"cors_headers" yaml:"cors_headers" toml:"cors_headers" env:"CORS_HEADERS" envSeparator:","`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if fsutil.PathExists(f) {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// ApplyEnv overlays environment variables onto cfg. Unset variables leave
// the existing value alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}

// Resolve builds the effective configuration: defaults < file < environment.
// CLI flags are applied by the caller afterwards, followed by Normalize.
func Resolve(path string) (Config, error) {
	var cfg Config
	if path != "" {
		c, err := Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize expands ~ in directories and replaces unset or non-positive
// values with defaults.
func (c *Config) Normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	c.Addr = orString(c.Addr, DefaultAddr)
	c.OutputDir = expand(orString(c.OutputDir, DefaultOutputDir))
	c.TempDir = expand(orString(c.TempDir, DefaultTempDir))
	c.NvidiaSMIPath = orString(c.NvidiaSMIPath, DefaultNvidiaSMIPath)
	c.FFmpegPath = orString(c.FFmpegPath, DefaultFFmpegPath)

	c.MaxQueueSize = orInt(c.MaxQueueSize, DefaultQueueSize)
	c.MaxFileAgeDays = orInt(c.MaxFileAgeDays, DefaultMaxFileAgeDays)
	c.MaxFiles = orInt(c.MaxFiles, DefaultMaxFiles)
	c.Workers = orInt(c.Workers, DefaultWorkers)
	c.MaxResults = orInt(c.MaxResults, DefaultMaxResults)
	c.CleanupMinutes = orInt(c.CleanupMinutes, DefaultCleanupMinutes)
	c.MaxPromptLength = orInt(c.MaxPromptLength, DefaultMaxPromptLength)
	c.MaxDurationSeconds = orInt(c.MaxDurationSeconds, DefaultMaxDurationSec)
	c.MaxSceneCount = orInt(c.MaxSceneCount, DefaultMaxSceneCount)
	c.MaxFPS = orInt(c.MaxFPS, DefaultMaxFPS)
	if c.JobTimeoutSeconds < 0 {
		c.JobTimeoutSeconds = 0
	}
	if c.SyntheticFrameDelayMS < 0 {
		c.SyntheticFrameDelayMS = 0
	}
	if c.SyntheticFrameBudget < 0 {
		c.SyntheticFrameBudget = 0
	}
	if c.HeadroomThresholdGB <= 0 {
		c.HeadroomThresholdGB = DefaultHeadroomGB
	}
	if c.AcceleratorHeadroom < 0 {
		c.AcceleratorHeadroom = 0
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	switch a := strings.ToLower(strings.TrimSpace(c.Accelerator)); a {
	case AcceleratorPresent, AcceleratorAbsent:
		c.Accelerator = a
	default:
		c.Accelerator = AcceleratorAuto
	}
}

// expand leaves the path unchanged when the home directory is unknown.
func expand(p string) string {
	if e, err := fsutil.ExpandHome(p); err == nil {
		return e
	}
	return p
}

func orString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
