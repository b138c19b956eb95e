package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Downloader DownloaderConfig `mapstructure:"downloader"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Notify     NotifyConfig     `mapstructure:"notify"`
}

type ServerConfig struct {
	Port      int        `mapstructure:"port"`
	Mode      string     `mapstructure:"mode"`
	StaticDir string     `mapstructure:"static_dir"`
	CORS      CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// DownloaderConfig configures the external download program and job lifecycle.
type DownloaderConfig struct {
	Binary        string        `mapstructure:"binary"`
	OutputDir     string        `mapstructure:"output_dir"`
	ExtraArgs     []string      `mapstructure:"extra_args"`
	Env           []string      `mapstructure:"env"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	Retention     time.Duration `mapstructure:"retention"`
	DrainTimeout  time.Duration `mapstructure:"drain_timeout"`
}

type NotifyConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("server.port", "PORT")
	v.BindEnv("downloader.binary", "YTDLP_BINARY")
	v.BindEnv("downloader.output_dir", "DOWNLOAD_DIR")
	v.BindEnv("database.dsn", "DATABASE_URL")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("notify.webhook_url", "NOTIFY_WEBHOOK_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.ResolveEnvVars()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5001)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.static_dir", "./static")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("downloader.binary", "yt-dlp")
	v.SetDefault("downloader.output_dir", "./downloads")
	v.SetDefault("downloader.extra_args", []string{})
	v.SetDefault("downloader.env", []string{})
	v.SetDefault("downloader.max_concurrent", 0)
	v.SetDefault("downloader.poll_interval", 500*time.Millisecond)
	v.SetDefault("downloader.retention", time.Hour)
	v.SetDefault("downloader.drain_timeout", 30*time.Second)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/history.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.prefix", "downloads/")
	v.SetDefault("notify.timeout", 10*time.Second)
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Downloader.Binary == "" {
		return fmt.Errorf("downloader.binary is required")
	}
	if c.Downloader.OutputDir == "" {
		return fmt.Errorf("downloader.output_dir is required")
	}
	if c.Downloader.PollInterval <= 0 {
		return fmt.Errorf("downloader.poll_interval must be positive, got %s", c.Downloader.PollInterval)
	}
	if c.Downloader.Retention <= 0 {
		return fmt.Errorf("downloader.retention must be positive, got %s", c.Downloader.Retention)
	}
	if c.Downloader.MaxConcurrent < 0 {
		return fmt.Errorf("downloader.max_concurrent must not be negative")
	}
	if c.Downloader.DrainTimeout < 0 {
		return fmt.Errorf("downloader.drain_timeout must not be negative")
	}
	if c.Storage.Enabled {
		if err := c.Storage.Validate(); err != nil {
			return err
		}
	}
	return nil
}
