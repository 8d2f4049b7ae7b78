// Package config loads the lostfound configuration from an optional YAML
// file followed by LOSTFOUND_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"lostfound/internal/blob"
	"lostfound/internal/core"
)

// DefaultFile is the configuration file looked up when no path is given.
const DefaultFile = "lostfound.yaml"

// Config is the complete runtime configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Blob     BlobConfig     `yaml:"blob"`
	Encoding EncodingConfig `yaml:"encoding"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// StorageConfig selects the snapshot backend.
type StorageConfig struct {
	// Driver is one of memory, sqlite, postgres, document.
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// BlobConfig selects the blob backend used for label exports and the
// document storage driver.
type BlobConfig struct {
	Driver string   `yaml:"driver"`
	FSRoot string   `yaml:"fs_root"`
	S3     S3Config `yaml:"s3"`
}

// S3Config mirrors the s3 driver settings. Credentials come from the
// default AWS chain unless set here.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// EncodingConfig controls code composition.
type EncodingConfig struct {
	// Timezone names the IANA zone used for the timestamp segment; "Local"
	// or empty uses the host zone.
	Timezone string `yaml:"timezone"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// MetricsConfig selects the service metrics recorder.
type MetricsConfig struct {
	// Recorder is one of none, expvar, prometheus.
	Recorder string `yaml:"recorder"`
}

// Metrics recorder names.
const (
	MetricsNone       = "none"
	MetricsExpvar     = "expvar"
	MetricsPrometheus = "prometheus"
)

// Default returns the configuration used when nothing is configured.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Driver:     string(core.StorageSQLite),
			SQLitePath: "./lostfound.db",
		},
		Blob: BlobConfig{
			Driver: string(blob.DriverFilesystem),
			FSRoot: "./blobdata",
		},
		Encoding: EncodingConfig{Timezone: "Local"},
		Log:      LogConfig{Level: "error"},
		Metrics:  MetricsConfig{Recorder: MetricsNone},
	}
}

// Load reads path (DefaultFile when empty), applies environment overrides
// and validates the result. A missing default file is not an error; a
// missing explicit path is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LOSTFOUND_STORAGE_DRIVER":   &c.Storage.Driver,
		"LOSTFOUND_SQLITE_PATH":      &c.Storage.SQLitePath,
		"LOSTFOUND_POSTGRES_DSN":     &c.Storage.PostgresDSN,
		"LOSTFOUND_BLOB_DRIVER":      &c.Blob.Driver,
		"LOSTFOUND_BLOB_FS_ROOT":     &c.Blob.FSRoot,
		"LOSTFOUND_BLOB_S3_BUCKET":   &c.Blob.S3.Bucket,
		"LOSTFOUND_BLOB_S3_REGION":   &c.Blob.S3.Region,
		"LOSTFOUND_BLOB_S3_ENDPOINT": &c.Blob.S3.Endpoint,
		"LOSTFOUND_TIMEZONE":         &c.Encoding.Timezone,
		"LOSTFOUND_LOG_LEVEL":        &c.Log.Level,
		"LOSTFOUND_METRICS":          &c.Metrics.Recorder,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	if v, ok := lookup("LOSTFOUND_BLOB_S3_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("LOSTFOUND_BLOB_S3_PATH_STYLE: %w", err)
		}
		c.Blob.S3.PathStyle = b
	}
	return nil
}

// Validate rejects unknown drivers, levels and time zones.
func (c Config) Validate() error {
	var errs []error
	driver, err := core.ParseStorageDriver(c.Storage.Driver)
	if err != nil {
		errs = append(errs, err)
	}
	if driver == core.StoragePostgres && c.Storage.PostgresDSN == "" {
		errs = append(errs, errors.New("postgres storage requires postgres_dsn"))
	}
	blobDriver, err := blob.ParseDriver(c.Blob.Driver)
	if err != nil {
		errs = append(errs, err)
	}
	if blobDriver == blob.DriverS3 && c.Blob.S3.Bucket == "" {
		errs = append(errs, errors.New("s3 blob driver requires a bucket"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Metrics.Recorder {
	case "", MetricsNone, MetricsExpvar, MetricsPrometheus:
	default:
		errs = append(errs, fmt.Errorf("unknown metrics recorder %s", c.Metrics.Recorder))
	}
	return errors.Join(errs...)
}

// Location resolves Encoding.Timezone.
func (c Config) Location() (*time.Location, error) {
	switch tz := strings.TrimSpace(c.Encoding.Timezone); tz {
	case "", "Local":
		return time.Local, nil
	default:
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("timezone %s: %w", tz, err)
		}
		return loc, nil
	}
}

// LogLevel parses Log.Level; empty is error.
func (c Config) LogLevel() (zapcore.Level, error) {
	if c.Log.Level == "" {
		return zapcore.ErrorLevel, nil
	}
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.ErrorLevel, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// BlobStoreConfig converts the blob section to the blob factory input.
func (c Config) BlobStoreConfig() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.Blob.Driver),
		FSRoot: c.Blob.FSRoot,
		S3: blob.S3Config{
			Bucket:          c.Blob.S3.Bucket,
			Region:          c.Blob.S3.Region,
			Endpoint:        c.Blob.S3.Endpoint,
			PathStyle:       c.Blob.S3.PathStyle,
			AccessKeyID:     c.Blob.S3.AccessKeyID,
			SecretAccessKey: c.Blob.S3.SecretAccessKey,
		},
	}
}

// StorageConfig converts the storage section to the core store input.
func (c Config) StorageConfig() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.Storage.Driver),
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
		Blob:        c.BlobStoreConfig(),
	}
}
