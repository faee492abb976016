package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DownloadStrategies is the number of yt-dlp invocations one download may
// make before giving up.
const DownloadStrategies = 4

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Ytdlp   YtdlpConfig   `mapstructure:"ytdlp"`
	FFmpeg  FFmpegConfig  `mapstructure:"ffmpeg"`
	Policy  PolicyConfig  `mapstructure:"policy"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// YtdlpConfig holds yt-dlp settings
type YtdlpConfig struct {
	BinaryPath      string        `mapstructure:"binary_path"`
	CookiesFile     string        `mapstructure:"cookies_file"`
	MetadataTimeout time.Duration `mapstructure:"metadata_timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	KillGrace       time.Duration `mapstructure:"kill_grace"`
}

// FFmpegConfig holds the ffmpeg binary yt-dlp merges and converts with
type FFmpegConfig struct {
	BinaryPath string `mapstructure:"binary_path"`
}

// PolicyConfig holds track-selection settings
type PolicyConfig struct {
	DesiredLanguage string `mapstructure:"desired_language"`
}

// StorageConfig holds temp download settings
type StorageConfig struct {
	WorkDir       string        `mapstructure:"work_dir"`
	StaleAfter    time.Duration `mapstructure:"stale_after"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/youtube-download-gateway")
		v.AddConfigPath("$HOME/.youtube-download-gateway")
		v.AddConfigPath(".")
	}

	// Environment variables, e.g. YTGW_YTDLP_COOKIES_FILE
	v.SetEnvPrefix("YTGW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.resolveWorkDir()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("ytdlp.binary_path", "yt-dlp")
	v.SetDefault("ytdlp.cookies_file", "")
	v.SetDefault("ytdlp.metadata_timeout", 30*time.Second)
	v.SetDefault("ytdlp.download_timeout", 20*time.Minute)
	v.SetDefault("ytdlp.kill_grace", 5*time.Second)

	v.SetDefault("ffmpeg.binary_path", "ffmpeg")

	v.SetDefault("policy.desired_language", "en")

	v.SetDefault("storage.work_dir", "")
	v.SetDefault("storage.stale_after", 2*time.Hour)
	v.SetDefault("storage.sweep_interval", 15*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
}

// Validate checks values that would make the gateway misbehave at runtime
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Ytdlp.BinaryPath) == "" {
		return fmt.Errorf("ytdlp.binary_path must not be empty")
	}
	if c.Ytdlp.MetadataTimeout <= 0 {
		return fmt.Errorf("ytdlp.metadata_timeout must be positive, got %v", c.Ytdlp.MetadataTimeout)
	}
	if c.Ytdlp.DownloadTimeout <= 0 {
		return fmt.Errorf("ytdlp.download_timeout must be positive, got %v", c.Ytdlp.DownloadTimeout)
	}
	if c.Ytdlp.KillGrace < 0 {
		return fmt.Errorf("ytdlp.kill_grace must not be negative, got %v", c.Ytdlp.KillGrace)
	}
	if c.Storage.StaleAfter < 0 || c.Storage.SweepInterval < 0 {
		return fmt.Errorf("storage.stale_after and storage.sweep_interval must not be negative")
	}
	if c.Ytdlp.CookiesFile != "" {
		if _, err := os.Stat(c.Ytdlp.CookiesFile); err != nil {
			return fmt.Errorf("ytdlp.cookies_file: %w", err)
		}
	}
	// a download may walk the whole strategy ladder, each rung with its own
	// timeout, so the sweeper must not reap work that is still running
	if minStale := DownloadStrategies * c.Ytdlp.DownloadTimeout; c.Storage.StaleAfter > 0 && c.Storage.StaleAfter < minStale {
		return fmt.Errorf("storage.stale_after (%v) must be at least %d x ytdlp.download_timeout (%v)",
			c.Storage.StaleAfter, DownloadStrategies, c.Ytdlp.DownloadTimeout)
	}
	if strings.TrimSpace(c.Policy.DesiredLanguage) == "" {
		return fmt.Errorf("policy.desired_language must not be empty")
	}
	return nil
}

// resolveWorkDir picks a temp directory when none is configured
func (c *Config) resolveWorkDir() {
	if c.Storage.WorkDir == "" {
		c.Storage.WorkDir = filepath.Join(os.TempDir(), "youtube-download-gateway")
	}
}
