package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// AppConfig holds runtime configuration. It is built once at startup and
// passed by pointer into every handler.
type AppConfig struct {
	Port           int              `yaml:"port"`
	Env            string           `yaml:"env"` // "development" | "production"
	AllowedOrigins []string         `yaml:"allowed_origins"`
	Supabase       SupabaseConfig   `yaml:"supabase"`
	Data           DataConfig       `yaml:"data"`
	Storage        StorageConfig    `yaml:"storage"`
	Generation     GenerationConfig `yaml:"generation"`
	RedisURL       string           `yaml:"redis_url"`
	Metrics        MetricsConfig    `yaml:"metrics"`
}

// SupabaseConfig addresses the identity-aware data platform.
type SupabaseConfig struct {
	URL       string `yaml:"url"`
	AnonKey   string `yaml:"anon_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

type DataConfig struct {
	Driver       string `yaml:"driver"` // "supabase" | "mysql"
	DSN          string `yaml:"dsn"`
	EntriesTable string `yaml:"entries_table"`
	UpsertTable  string `yaml:"upsert_table"`
	StoriesTable string `yaml:"stories_table"`
}

type StorageConfig struct {
	Driver string   `yaml:"driver"` // "supabase" | "s3"
	Bucket string   `yaml:"bucket"`
	S3     S3Config `yaml:"s3"`
}

type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

type GenerationConfig struct {
	Provider      string  `yaml:"provider"` // "openai" | "anthropic"
	Model         string  `yaml:"model"`
	APIKey        string  `yaml:"api_key"`
	BaseURL       string  `yaml:"base_url"`
	CentsPerToken float64 `yaml:"cents_per_token"`
}

type MetricsConfig struct {
	Enable bool `yaml:"enable"`
}

// envOverrides lists the environment variables honoured on top of the YAML
// file. Non-string knobs are read as strings so unset can be told from zero.
type envOverrides struct {
	Port               string   `envconfig:"PORT"`
	Env                string   `envconfig:"APP_ENV"`
	AllowedOrigins     []string `envconfig:"ALLOWED_ORIGINS"`
	SupabaseURL        string   `envconfig:"SUPABASE_URL"`
	SupabaseAnonKey    string   `envconfig:"SUPABASE_ANON_KEY"`
	SupabaseJWTSecret  string   `envconfig:"SUPABASE_JWT_SECRET"`
	DataDriver         string   `envconfig:"DATA_DRIVER"`
	DatabaseDSN        string   `envconfig:"DATABASE_DSN"`
	EntriesTable       string   `envconfig:"SUPA_ENTRIES_TABLE"`
	StoriesBucket      string   `envconfig:"SUPA_STORIES_BUCKET"`
	StorageDriver      string   `envconfig:"STORAGE_DRIVER"`
	S3Region           string   `envconfig:"S3_REGION"`
	S3Endpoint         string   `envconfig:"S3_ENDPOINT"`
	S3AccessKeyID      string   `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey  string   `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3PathStyle        string   `envconfig:"S3_PATH_STYLE"`
	GenerationProvider string   `envconfig:"GENERATION_PROVIDER"`
	OpenAIAPIKey       string   `envconfig:"OPENAI_API_KEY"`
	OpenAIModel        string   `envconfig:"OPENAI_MODEL"`
	OpenAIBaseURL      string   `envconfig:"OPENAI_BASE_URL"`
	AnthropicAPIKey    string   `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel     string   `envconfig:"ANTHROPIC_MODEL"`
	CentsPerToken      string   `envconfig:"COST_CENTS_PER_TOKEN"`
	RedisURL           string   `envconfig:"REDIS_URL"`
	MetricsEnable      string   `envconfig:"METRICS_ENABLE"`
}

// Load reads the optional YAML file at configPath, overlays the process
// environment and validates the result. A missing file is not an error: the
// service is usually configured through the environment alone.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := applyEnvOverrides(&cfg, env); err != nil {
		return nil, err
	}

	normalize(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Data: DataConfig{
			Driver:       defaultDataDriver,
			EntriesTable: defaultEntriesTable,
			UpsertTable:  defaultUpsertTable,
			StoriesTable: defaultStoriesTable,
		},
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
			Bucket: defaultStoriesBucket,
			S3:     S3Config{Region: defaultS3Region},
		},
		Generation: GenerationConfig{
			Provider:      defaultGenerationProvider,
			CentsPerToken: defaultCentsPerToken,
		},
	}
}

func applyEnvOverrides(cfg *AppConfig, env envOverrides) error {
	if v := strings.TrimSpace(env.Port); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	setString(&cfg.Env, env.Env)
	if len(env.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = env.AllowedOrigins
	}

	setString(&cfg.Supabase.URL, env.SupabaseURL)
	setString(&cfg.Supabase.AnonKey, env.SupabaseAnonKey)
	setString(&cfg.Supabase.JWTSecret, env.SupabaseJWTSecret)

	setString(&cfg.Data.Driver, env.DataDriver)
	setString(&cfg.Data.DSN, env.DatabaseDSN)
	setString(&cfg.Data.EntriesTable, env.EntriesTable)

	setString(&cfg.Storage.Driver, env.StorageDriver)
	setString(&cfg.Storage.Bucket, env.StoriesBucket)
	setString(&cfg.Storage.S3.Region, env.S3Region)
	setString(&cfg.Storage.S3.Endpoint, env.S3Endpoint)
	setString(&cfg.Storage.S3.AccessKeyID, env.S3AccessKeyID)
	setString(&cfg.Storage.S3.SecretAccessKey, env.S3SecretAccessKey)
	if v := strings.TrimSpace(env.S3PathStyle); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid S3_PATH_STYLE %q: %w", v, err)
		}
		cfg.Storage.S3.PathStyle = b
	}

	setString(&cfg.Generation.Provider, env.GenerationProvider)
	switch normalizeName(cfg.Generation.Provider) {
	case ProviderAnthropic:
		setString(&cfg.Generation.APIKey, env.AnthropicAPIKey)
		setString(&cfg.Generation.Model, env.AnthropicModel)
	default:
		setString(&cfg.Generation.APIKey, env.OpenAIAPIKey)
		setString(&cfg.Generation.Model, env.OpenAIModel)
		setString(&cfg.Generation.BaseURL, env.OpenAIBaseURL)
	}
	if v := strings.TrimSpace(env.CentsPerToken); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid COST_CENTS_PER_TOKEN %q: %w", v, err)
		}
		cfg.Generation.CentsPerToken = f
	}

	setString(&cfg.RedisURL, env.RedisURL)
	if v := strings.TrimSpace(env.MetricsEnable); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_ENABLE %q: %w", v, err)
		}
		cfg.Metrics.Enable = b
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Data.Driver {
	case DriverSupabase, DriverMySQL:
	default:
		return fmt.Errorf("unsupported data.driver %q", c.Data.Driver)
	}
	switch c.Storage.Driver {
	case DriverSupabase, DriverS3:
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	switch c.Generation.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported generation.provider %q", c.Generation.Provider)
	}
	if c.Generation.CentsPerToken < 0 {
		return fmt.Errorf("invalid generation.cents_per_token %v, expected >= 0", c.Generation.CentsPerToken)
	}
	return nil
}

// IsDev reports whether the service runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env == "development"
}

// DataServiceReady reports a configuration error when the data platform
// cannot be reached with the current settings.
func (c *AppConfig) DataServiceReady() error {
	switch c.Data.Driver {
	case DriverMySQL:
		if c.Data.DSN == "" || c.Supabase.JWTSecret == "" {
			return errors.New("Missing database envs")
		}
	default:
		if c.Supabase.URL == "" || c.Supabase.AnonKey == "" {
			return errors.New("Missing Supabase envs")
		}
	}
	return nil
}

// GenerationReady reports a configuration error when no generation API key is set.
func (c *AppConfig) GenerationReady() error {
	if c.Generation.APIKey != "" {
		return nil
	}
	if c.Generation.Provider == ProviderAnthropic {
		return errors.New("Missing ANTHROPIC_API_KEY")
	}
	return errors.New("Missing OPENAI_API_KEY")
}

// GenerationModel returns the configured model or the provider default.
func (c *AppConfig) GenerationModel() string {
	if c.Generation.Model != "" {
		return c.Generation.Model
	}
	if c.Generation.Provider == ProviderAnthropic {
		return defaultAnthropicModel
	}
	return defaultOpenAIModel
}
