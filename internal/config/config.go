package config

import (
	"fmt"
	"strings"

	"github.com/fly-io/camctl/pkg/gphoto"
	"github.com/spf13/viper"
)

// Driver names
const (
	DriverGphoto2   = "gphoto2"
	DriverSimulated = "simulated"
)

// Config holds all application configuration
type Config struct {
	// Camera
	Driver    string `mapstructure:"driver"`
	OutputDir string `mapstructure:"output-dir"`
	FileType  string `mapstructure:"file-type"`

	// Database paths
	SQLitePath string `mapstructure:"sqlite-path"`
	FSMDBPath  string `mapstructure:"fsm-db-path"`

	// S3 configuration
	UploadEnabled bool   `mapstructure:"upload-enabled"`
	S3Bucket      string `mapstructure:"s3-bucket"`
	S3Region      string `mapstructure:"s3-region"`
	S3Endpoint    string `mapstructure:"s3-endpoint"`
	S3Prefix      string `mapstructure:"s3-prefix"`

	// Security limits
	MaxFileSize  int64 `mapstructure:"max-file-size"`
	MaxTotalSize int64 `mapstructure:"max-total-size"`

	// FSM configuration
	FSMMaxRetries int `mapstructure:"fsm-max-retries"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("driver", DriverGphoto2)
	v.SetDefault("output-dir", ".")
	v.SetDefault("file-type", "normal")
	v.SetDefault("sqlite-path", ".artifacts/captures.db")
	v.SetDefault("fsm-db-path", ".artifacts/fsm.db")
	v.SetDefault("upload-enabled", false)
	v.SetDefault("s3-bucket", "")
	v.SetDefault("s3-region", "us-east-1")
	v.SetDefault("s3-endpoint", "")
	v.SetDefault("s3-prefix", "captures")
	v.SetDefault("max-file-size", 512*1024*1024)
	v.SetDefault("max-total-size", 20*1024*1024*1024)
	v.SetDefault("fsm-max-retries", 5)
}

// Load reads configuration from environment, config file, and defaults
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load on a specific viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	// Environment variables (will be CAMCTL_OUTPUT_DIR, etc.)
	v.SetEnvPrefix("CAMCTL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.camctl")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.Driver != DriverGphoto2 && c.Driver != DriverSimulated {
		return fmt.Errorf("driver must be %q or %q, got %q", DriverGphoto2, DriverSimulated, c.Driver)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output-dir cannot be empty")
	}
	if _, err := gphoto.ParseFileType(c.FileType); err != nil {
		return fmt.Errorf("file-type: %w", err)
	}
	if c.SQLitePath == "" {
		return fmt.Errorf("sqlite-path cannot be empty")
	}
	if c.FSMDBPath == "" {
		return fmt.Errorf("fsm-db-path cannot be empty")
	}
	if c.UploadEnabled && c.S3Bucket == "" {
		return fmt.Errorf("s3-bucket cannot be empty when upload is enabled")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max-file-size must be positive")
	}
	if c.MaxTotalSize <= 0 {
		return fmt.Errorf("max-total-size must be positive")
	}
	if c.FSMMaxRetries < 0 {
		return fmt.Errorf("fsm-max-retries must be non-negative")
	}
	return nil
}

// DownloadFileType is the parsed file-type key.
func (c *Config) DownloadFileType() gphoto.FileType {
	t, err := gphoto.ParseFileType(c.FileType)
	if err != nil {
		return gphoto.FileNormal
	}
	return t
}
