package config

import (
	"errors"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/viant/mmvec/embedding"
	"github.com/viant/mmvec/embedding/providers"
	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/index"
	"github.com/viant/mmvec/loader"
	"github.com/viant/mmvec/vector"
)

// EnvPrefix prefixes environment overrides, e.g. MMVEC_STORAGE_PATH.
const EnvPrefix = "MMVEC"

// Config is the top-level mmvec configuration.
type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	Collection CollectionConfig `mapstructure:"collection"`
	Index      IndexConfig      `mapstructure:"index"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Loader     LoaderConfig     `mapstructure:"loader"`
	Verbose    bool             `mapstructure:"verbose"`

	Credentials Credentials `mapstructure:"-"`
}

// StorageConfig locates the persistent store directory.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// CollectionConfig names the collection commands operate on.
type CollectionConfig struct {
	Name   string `mapstructure:"name"`
	Metric string `mapstructure:"metric"`
}

// IndexConfig selects the in-memory index kind.
type IndexConfig struct {
	Kind string `mapstructure:"kind"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	Provider      string  `mapstructure:"provider"`
	Model         string  `mapstructure:"model"`
	Dimensions    int     `mapstructure:"dimensions"`
	BatchSize     int     `mapstructure:"batch_size"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	BaseURL       string  `mapstructure:"base_url"`
	Images        bool    `mapstructure:"images"`
}

// LoaderConfig controls how content references are resolved.
type LoaderConfig struct {
	BaseDir     string        `mapstructure:"base_dir"`
	Parallelism int           `mapstructure:"parallelism"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	MaxBytes    int64         `mapstructure:"max_bytes"`
	S3          S3Config      `mapstructure:"s3"`
}

// S3Config targets AWS S3, or an S3-compatible endpoint when Endpoint is set.
type S3Config struct {
	Endpoint string `mapstructure:"endpoint"`
	Region   string `mapstructure:"region"`
	UseSSL   bool   `mapstructure:"use_ssl"`
}

// Credentials are read from the environment only, never from config files.
type Credentials struct {
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GoogleAPIKey string `envconfig:"GOOGLE_API_KEY"`
	S3AccessKey  string `envconfig:"MMVEC_S3_ACCESS_KEY"`
	S3SecretKey  string `envconfig:"MMVEC_S3_SECRET_KEY"`
}

// SetDefaults registers the default for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.path", "./data")
	v.SetDefault("collection.name", "multimodal_collection")
	v.SetDefault("collection.metric", "")
	v.SetDefault("index.kind", string(index.KindAuto))
	v.SetDefault("embedding.provider", providers.Hash)
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.dimensions", 512)
	v.SetDefault("embedding.batch_size", embedding.DefaultBatchSize)
	v.SetDefault("embedding.rate_per_second", 0)
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.images", false)
	v.SetDefault("loader.base_dir", "")
	v.SetDefault("loader.parallelism", 4)
	v.SetDefault("loader.http_timeout", 30*time.Second)
	v.SetDefault("loader.max_bytes", 32<<20)
	v.SetDefault("loader.s3.endpoint", "")
	v.SetDefault("loader.s3.region", "")
	v.SetDefault("loader.s3.use_ssl", true)
	v.SetDefault("verbose", false)
}

// SetupEnv binds MMVEC_-prefixed environment variables to config keys.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from path (optional) with defaults and
// environment overrides, then validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, mmerr.Errorf(mmerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v and reads
// credentials from the environment.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, mmerr.Errorf(mmerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}
	if err := envconfig.Process("", &cfg.Credentials); err != nil {
		return nil, mmerr.Errorf(mmerr.CodeConfigLoadReadFailure, "reading credentials: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, mmerr.Errorf(mmerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}
	return &cfg, nil
}

// Validate returns every validation error found.
func (c *Config) Validate() []error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, mmerr.Errorf(mmerr.CodeConfigValidateInvalidValue, "config: "+format, args...))
	}

	if c.Storage.Path == "" {
		invalid("storage.path must not be empty")
	}
	if c.Collection.Name == "" {
		invalid("collection.name must not be empty")
	}
	if _, err := vector.ParseMetric(c.Collection.Metric); err != nil {
		invalid("collection.metric must be one of [l2, cosine, ip], got %q", c.Collection.Metric)
	}
	if _, err := index.ParseKind(c.Index.Kind); err != nil {
		invalid("index.kind must be one of [auto, brute, cover], got %q", c.Index.Kind)
	}

	switch strings.ToLower(c.Embedding.Provider) {
	case providers.Hash:
	case providers.OpenAI:
		if c.Credentials.OpenAIAPIKey == "" {
			invalid("embedding.provider %q requires OPENAI_API_KEY", c.Embedding.Provider)
		}
	case providers.Google:
		if c.Credentials.GeminiAPIKey == "" && c.Credentials.GoogleAPIKey == "" {
			invalid("embedding.provider %q requires GEMINI_API_KEY or GOOGLE_API_KEY", c.Embedding.Provider)
		}
	default:
		invalid("embedding.provider must be one of [hash, openai, google], got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions < 0 {
		invalid("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.BatchSize <= 0 {
		invalid("embedding.batch_size must be greater than 0, got %d", c.Embedding.BatchSize)
	}
	if c.Embedding.RatePerSecond < 0 {
		invalid("embedding.rate_per_second must not be negative, got %g", c.Embedding.RatePerSecond)
	}

	if c.Loader.Parallelism <= 0 {
		invalid("loader.parallelism must be greater than 0, got %d", c.Loader.Parallelism)
	}
	if c.Loader.HTTPTimeout < 0 {
		invalid("loader.http_timeout must not be negative, got %s", c.Loader.HTTPTimeout)
	}
	if c.Loader.MaxBytes < 0 {
		invalid("loader.max_bytes must not be negative, got %d", c.Loader.MaxBytes)
	}
	return errs
}

// CollectionMetric returns the configured metric, or "" when unset so that an
// existing collection is opened with whatever metric it was created with.
func (c *Config) CollectionMetric() vector.Metric {
	if strings.TrimSpace(c.Collection.Metric) == "" {
		return ""
	}
	return c.MetricValue()
}

// MetricValue returns the parsed collection metric, defaulting to l2.
func (c *Config) MetricValue() vector.Metric {
	m, _ := vector.ParseMetric(c.Collection.Metric)
	return m
}

// IndexKind returns the parsed index kind.
func (c *Config) IndexKind() index.Kind {
	k, _ := index.ParseKind(c.Index.Kind)
	return k
}

// EmbeddingFunctionConfig returns the provider settings including its API key.
func (c *Config) EmbeddingFunctionConfig() embedding.Config {
	out := embedding.Config{
		Provider:      strings.ToLower(c.Embedding.Provider),
		Model:         c.Embedding.Model,
		Dimensions:    c.Embedding.Dimensions,
		BatchSize:     c.Embedding.BatchSize,
		RatePerSecond: c.Embedding.RatePerSecond,
		BaseURL:       c.Embedding.BaseURL,
		Images:        c.Embedding.Images,
	}
	switch out.Provider {
	case providers.OpenAI:
		out.APIKey = c.Credentials.OpenAIAPIKey
	case providers.Google:
		out.APIKey = c.Credentials.GeminiAPIKey
		if out.APIKey == "" {
			out.APIKey = c.Credentials.GoogleAPIKey
		}
	}
	return out
}

// LoaderConfig returns the content loader settings including S3 credentials.
func (c *Config) LoaderConfig() loader.Config {
	return loader.Config{
		BaseDir:     c.Loader.BaseDir,
		HTTPTimeout: c.Loader.HTTPTimeout,
		MaxBytes:    c.Loader.MaxBytes,
		S3: loader.MinioConfig{
			Endpoint:  c.Loader.S3.Endpoint,
			AccessKey: c.Credentials.S3AccessKey,
			SecretKey: c.Credentials.S3SecretKey,
			Region:    c.Loader.S3.Region,
			UseSSL:    c.Loader.S3.UseSSL,
		},
	}
}
