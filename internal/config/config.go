package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Drafts   DraftsConfig   `yaml:"drafts"`
	Composer ComposerConfig `yaml:"composer"`
	Cache    CacheConfig    `yaml:"cache"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type StorageConfig struct {
	// One of s3, minio, fs, memory.
	Driver          string `yaml:"driver" default:"fs"`
	Bucket          string `yaml:"bucket" default:"media"`
	Endpoint        string `yaml:"endpoint" default:""`
	Region          string `yaml:"region" default:"auto"`
	AccessKeyID     string `yaml:"access_key_id" default:""`
	SecretAccessKey string `yaml:"secret_access_key" default:""`
	UseSSL          bool   `yaml:"use_ssl" default:"true"`
	PublicBaseURL   string `yaml:"public_base_url" default:""`
	LocalDir        string `yaml:"local_dir" default:"./media"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" default:"./database.db"`
}

type DraftsConfig struct {
	// One of db, fs, memory.
	Driver     string `yaml:"driver" default:"db"`
	StorageKey string `yaml:"storage_key" default:"draft-storage"`
	Dir        string `yaml:"dir" default:"./drafts"`
}

type ComposerConfig struct {
	MaxCharacters     int `yaml:"max_characters" default:"200"`
	UploadConcurrency int `yaml:"upload_concurrency" default:"4"`
}

type CacheConfig struct {
	Size              int `yaml:"size" default:"256"`
	StaleAfterSeconds int `yaml:"stale_after_seconds" default:"300"`
}

func (c CacheConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSeconds) * time.Second
}

type AuthConfig struct {
	UserID   string `yaml:"user_id" default:""`
	Username string `yaml:"username" default:""`
}

// Environment variables that override file values. Secrets are expected here
// rather than in the YAML file.
const (
	EnvAccessKeyID     = "THREAD_S3_ACCESS_KEY_ID"
	EnvSecretAccessKey = "THREAD_S3_SECRET_ACCESS_KEY"
	EnvEndpoint        = "THREAD_S3_ENDPOINT"
	EnvUserID          = "THREAD_USER_ID"
	EnvUsername        = "THREAD_USERNAME"
	EnvLogLevel        = "THREAD_LOG_LEVEL"
)

func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	// Try to read and parse the config file
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(config, os.LookupEnv)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "s3", "minio":
		if c.Storage.Endpoint == "" {
			return fmt.Errorf("storage.endpoint is required for the %s driver", c.Storage.Driver)
		}
	case "fs", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Drafts.Driver {
	case "db", "fs", "memory":
	default:
		return fmt.Errorf("unknown drafts driver %q", c.Drafts.Driver)
	}

	if c.Drafts.StorageKey == "" {
		return fmt.Errorf("drafts.storage_key cannot be empty")
	}
	if c.Composer.MaxCharacters <= 0 {
		return fmt.Errorf("composer.max_characters must be positive, got %d", c.Composer.MaxCharacters)
	}
	if c.Composer.UploadConcurrency <= 0 {
		return fmt.Errorf("composer.upload_concurrency must be positive, got %d", c.Composer.UploadConcurrency)
	}
	return nil
}

func applyEnv(config *Config, lookup func(string) (string, bool)) {
	overrides := []struct {
		env   string
		field *string
	}{
		{EnvAccessKeyID, &config.Storage.AccessKeyID},
		{EnvSecretAccessKey, &config.Storage.SecretAccessKey},
		{EnvEndpoint, &config.Storage.Endpoint},
		{EnvUserID, &config.Auth.UserID},
		{EnvUsername, &config.Auth.Username},
		{EnvLogLevel, &config.Logging.Level},
	}

	for _, o := range overrides {
		if v, ok := lookup(o.env); ok && v != "" {
			*o.field = v
		}
	}
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
