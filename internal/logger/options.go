package logger

import (
	"io"
	"os"
	"strconv"
)

// Options configures a Logger.
type Options struct {
	Level       string    // debug, info, warn, error
	Format      string    // json or text
	ServiceName string    // value of the "service" field on every entry
	Output      io.Writer // when set, the only destination; file settings are ignored

	// Environment is "local" for development. Anywhere else entries are also
	// written to File with rotation.
	Environment string
	File        string
	FileOnly    bool // skip stdout outside local

	// Rotation of File
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultOptions returns JSON logging at info level to stdout.
func DefaultOptions() *Options {
	return &Options{
		Level:       "info",
		Format:      "json",
		ServiceName: "mediafetch",
		Environment: "local",
	}
}

// OptionsFromEnv reads options from LOG_* variables, SERVICE_NAME and APP_ENV.
func OptionsFromEnv() *Options {
	return &Options{
		Level:       envString("LOG_LEVEL", "info"),
		Format:      envString("LOG_FORMAT", "json"),
		ServiceName: envString("SERVICE_NAME", "mediafetch"),
		Environment: envString("APP_ENV", "local"),
		File:        envString("LOG_FILE", "/var/log/mediafetch/app.log"),
		FileOnly:    envParse("LOG_FILE_ONLY", false, strconv.ParseBool),
		MaxSizeMB:   envParse("LOG_MAX_SIZE", 100, strconv.Atoi),
		MaxBackups:  envParse("LOG_MAX_BACKUPS", 7, strconv.Atoi),
		MaxAgeDays:  envParse("LOG_MAX_AGE", 30, strconv.Atoi),
		Compress:    envParse("LOG_COMPRESS", true, strconv.ParseBool),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envParse returns fallback when key is unset or does not parse.
func envParse[T any](key string, fallback T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := parse(raw)
	if err != nil {
		return fallback
	}
	return v
}
