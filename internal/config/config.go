package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abhishekpandeykyndryl/multi-model-recognition-project/internal/capture"
	"github.com/spf13/viper"
)

const (
	configName = "voice-enroll"
	envPrefix  = "VOICE_ENROLL"
)

type Config struct {
	ServerURL             string `mapstructure:"server_url" yaml:"server_url" validate:"required"`
	InsecureSkipVerify    bool   `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" yaml:"request_timeout_seconds"`

	// Email is the default account for enroll and login when --email is not given.
	Email string `mapstructure:"email" yaml:"email,omitempty"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	LogFile   string `mapstructure:"log_file" yaml:"log_file"`

	Capture CaptureConfig `mapstructure:"capture" yaml:"capture"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	Stub    StubConfig    `mapstructure:"stub" yaml:"stub"`
}

// CaptureConfig selects and tunes the audio source.
type CaptureConfig struct {
	Source             string   `mapstructure:"source" yaml:"source" validate:"oneof=command file"`
	DurationSeconds    int      `mapstructure:"duration_seconds" yaml:"duration_seconds"`
	Command            []string `mapstructure:"command" yaml:"command"`
	MIMEType           string   `mapstructure:"mime_type" yaml:"mime_type"`
	ChunkBytes         int      `mapstructure:"chunk_bytes" yaml:"chunk_bytes"`
	OpenTimeoutSeconds int      `mapstructure:"open_timeout_seconds" yaml:"open_timeout_seconds"`
	File               string   `mapstructure:"file" yaml:"file"`
}

// ArchiveConfig controls where captured clips are kept, if anywhere.
type ArchiveConfig struct {
	Provider         string `mapstructure:"provider" yaml:"provider" validate:"oneof=none local s3 azure gcs b2"`
	Path             string `mapstructure:"path" yaml:"path,omitempty"`
	Bucket           string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Region           string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint         string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	AccessKeyID      string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey  string `mapstructure:"secret_access_key" yaml:"-"`
	Prefix           string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Container        string `mapstructure:"container" yaml:"container,omitempty"`
	AccountURL       string `mapstructure:"account_url" yaml:"account_url,omitempty"`
	ConnectionString string `mapstructure:"connection_string" yaml:"-"`
	CredentialsFile  string `mapstructure:"credentials_file" yaml:"credentials_file,omitempty"`
	B2AccountID      string `mapstructure:"b2_account_id" yaml:"b2_account_id,omitempty"`
	B2ApplicationKey string `mapstructure:"b2_application_key" yaml:"-"`
}

// StubConfig configures the local development server.
type StubConfig struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	JWTSecret  string `mapstructure:"jwt_secret" yaml:"-"`
}

func Default() *Config {
	return &Config{
		ServerURL: "http://localhost:8000",
		LogLevel:  "info",
		LogFormat: "text",
		Capture: CaptureConfig{
			Source:             "command",
			DurationSeconds:    int(capture.DefaultDuration / time.Second),
			Command:            append([]string(nil), capture.DefaultCommand...),
			MIMEType:           "audio/wav",
			ChunkBytes:         4096,
			OpenTimeoutSeconds: 3,
		},
		Archive: ArchiveConfig{
			Provider: "none",
		},
		Stub: StubConfig{
			ListenAddr: "127.0.0.1:8000",
			JWTSecret:  "changeme",
		},
	}
}

// Load reads configuration from cfgFile (or the default search path) with
// VOICE_ENROLL_* environment overrides, e.g. VOICE_ENROLL_CAPTURE_DURATION_SECONDS.
func Load(cfgFile string) (*Config, error) {
	cfg := Default()
	v := newViper(cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

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

// SaveTo writes cfg as YAML. An empty path selects the default location.
// Secrets are written too, so the file is restricted to its owner.
func SaveTo(cfg *Config, cfgFile string) (string, error) {
	v := newViper(cfg)

	cfgPath := cfgFile
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir(), configName+".yaml")
	}
	if dir := filepath.Dir(cfgPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", err
		}
	}

	if err := v.WriteConfigAs(cfgPath); err != nil {
		return "", err
	}
	return cfgPath, os.Chmod(cfgPath, 0o600)
}

// newViper returns a dedicated viper instance seeded with cfg as defaults.
// Every key must be known to viper for AutomaticEnv to reach it.
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_url", cfg.ServerURL)
	v.SetDefault("insecure_skip_verify", cfg.InsecureSkipVerify)
	v.SetDefault("request_timeout_seconds", cfg.RequestTimeoutSeconds)
	v.SetDefault("email", cfg.Email)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("log_file", cfg.LogFile)

	v.SetDefault("capture.source", cfg.Capture.Source)
	v.SetDefault("capture.duration_seconds", cfg.Capture.DurationSeconds)
	v.SetDefault("capture.command", cfg.Capture.Command)
	v.SetDefault("capture.mime_type", cfg.Capture.MIMEType)
	v.SetDefault("capture.chunk_bytes", cfg.Capture.ChunkBytes)
	v.SetDefault("capture.open_timeout_seconds", cfg.Capture.OpenTimeoutSeconds)
	v.SetDefault("capture.file", cfg.Capture.File)

	v.SetDefault("archive.provider", cfg.Archive.Provider)
	v.SetDefault("archive.path", cfg.Archive.Path)
	v.SetDefault("archive.bucket", cfg.Archive.Bucket)
	v.SetDefault("archive.region", cfg.Archive.Region)
	v.SetDefault("archive.endpoint", cfg.Archive.Endpoint)
	v.SetDefault("archive.access_key_id", cfg.Archive.AccessKeyID)
	v.SetDefault("archive.secret_access_key", cfg.Archive.SecretAccessKey)
	v.SetDefault("archive.prefix", cfg.Archive.Prefix)
	v.SetDefault("archive.container", cfg.Archive.Container)
	v.SetDefault("archive.account_url", cfg.Archive.AccountURL)
	v.SetDefault("archive.connection_string", cfg.Archive.ConnectionString)
	v.SetDefault("archive.credentials_file", cfg.Archive.CredentialsFile)
	v.SetDefault("archive.b2_account_id", cfg.Archive.B2AccountID)
	v.SetDefault("archive.b2_application_key", cfg.Archive.B2ApplicationKey)

	v.SetDefault("stub.listen_addr", cfg.Stub.ListenAddr)
	v.SetDefault("stub.jwt_secret", cfg.Stub.JWTSecret)

	return v
}

// Duration returns the requested recording length.
func (c CaptureConfig) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}

func (c CaptureConfig) OpenTimeout() time.Duration {
	return time.Duration(c.OpenTimeoutSeconds) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// configDir returns the per-user config directory.
func configDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, configName)
	}
	return "."
}
