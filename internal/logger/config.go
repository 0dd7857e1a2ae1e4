package logger

import (
	"os"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Environment variables read by LoadFromEnv.
const (
	EnvLevel       = "LOG_LEVEL"       // debug, info, warn, error (default info)
	EnvFormat      = "LOG_FORMAT"      // json or text (default json)
	EnvService     = "SERVICE_NAME"    // service field (default devmeme)
	EnvAppEnv      = "APP_ENV"         // local disables file output (default local)
	EnvFile        = "LOG_FILE"        // rotated log file outside local
	EnvFileOnly    = "LOG_FILE_ONLY"   // drop stdout when a file is written
	EnvMaxSizeMB   = "LOG_MAX_SIZE"    // megabytes before rotation
	EnvMaxBackups  = "LOG_MAX_BACKUPS" // rotated files kept
	EnvMaxAgeDays  = "LOG_MAX_AGE"     // days rotated files are kept
	EnvCompress    = "LOG_COMPRESS"    // gzip rotated files
	defaultLogFile = "/var/log/devmeme/api.log"
)

// EnvConfig is the logger setup for the API server and the render CLI.
type EnvConfig struct {
	Config

	// Environment is "local" on a workstation; anything else enables File.
	Environment string

	// File is nil when logs only go to stdout.
	File *FileOutput
}

// FileOutput describes the rotated log file.
type FileOutput struct {
	Path       string
	Only       bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func (f *FileOutput) writer() *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   f.Path,
		MaxSize:    f.MaxSizeMB,
		MaxBackups: f.MaxBackups,
		MaxAge:     f.MaxAgeDays,
		Compress:   f.Compress,
	}
}

// LoadFromEnv reads the logger setup from the LOG_* variables.
func LoadFromEnv() *EnvConfig {
	cfg := &EnvConfig{
		Config: Config{
			Level:       envString(EnvLevel, "info"),
			Format:      envString(EnvFormat, "json"),
			ServiceName: envString(EnvService, "devmeme"),
		},
		Environment: envString(EnvAppEnv, "local"),
	}
	if cfg.Environment == "local" {
		return cfg
	}

	if path := envString(EnvFile, defaultLogFile); path != "" {
		cfg.File = &FileOutput{
			Path:       path,
			Only:       envBool(EnvFileOnly, false),
			MaxSizeMB:  envInt(EnvMaxSizeMB, 100),
			MaxBackups: envInt(EnvMaxBackups, 7),
			MaxAgeDays: envInt(EnvMaxAgeDays, 30),
			Compress:   envBool(EnvCompress, true),
		}
	}
	return cfg
}

func envString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return i
}
