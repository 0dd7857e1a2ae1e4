package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/timmy/devmeme/internal/domain"
	"github.com/timmy/devmeme/internal/storage"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Content    ContentConfig    `mapstructure:"content"`
	Render     RenderConfig     `mapstructure:"render"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Generation GenerationConfig `mapstructure:"generation"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	Mode              string        `mapstructure:"mode"`
	CORS              CORSConfig    `mapstructure:"cors"`
	GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// DatabaseConfig points the history repository at its database. The
// default DSN is an in-memory SQLite database shared across connections.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RenderConfig struct {
	FontPath       string        `mapstructure:"font_path"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	MaxImageBytes  int64         `mapstructure:"max_image_bytes"`
	MaxImagePixels int64         `mapstructure:"max_image_pixels"`
}

type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

// GenerationConfig tunes the orchestrator. Templates are appended to the
// built-in catalog; their URL may be an s3://bucket/key reference.
type GenerationConfig struct {
	TemplateDelay time.Duration         `mapstructure:"template_delay"`
	Templates     []domain.MemeTemplate `mapstructure:"templates"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets and endpoints are usually provided by the environment
	v.BindEnv("content.api_key", "OPENAI_API_KEY")
	v.BindEnv("content.base_url", "OPENAI_BASE_URL")
	v.BindEnv("content.text_model", "TEXT_MODEL")
	v.BindEnv("content.image_model", "IMAGE_MODEL")
	v.BindEnv("storage.enabled", "S3_ENABLED")
	v.BindEnv("storage.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "S3_SECRET_KEY")
	v.BindEnv("storage.bucket", "S3_BUCKET")
	v.BindEnv("storage.region", "S3_REGION")
	v.BindEnv("render.font_path", "MEME_FONT_PATH")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Content.ResolveEnvVars()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("server.generation_timeout", 2*time.Minute)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:devmeme?mode=memory&cache=shared")
	v.SetDefault("content.base_url", "https://api.openai.com/v1")
	v.SetDefault("content.text_model", "gpt-4o-mini")
	v.SetDefault("content.image_model", "dall-e-3")
	v.SetDefault("content.image_size", "1024x1024")
	v.SetDefault("content.api_key_env", "")
	v.SetDefault("content.timeout", 90*time.Second)
	v.SetDefault("render.font_path", "")
	v.SetDefault("render.fetch_timeout", 30*time.Second)
	v.SetDefault("render.max_image_bytes", 20<<20)
	v.SetDefault("render.max_image_pixels", 25_000_000)
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.type", "")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("generation.template_delay", 500*time.Millisecond)
}

// Validate reports every missing or malformed required value.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.GenerationTimeout <= 0 {
		errs = append(errs, errors.New("server.generation_timeout must be positive"))
	}
	if c.Database.Driver != "sqlite" {
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if err := c.Content.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Render.MaxImageBytes <= 0 {
		errs = append(errs, errors.New("render.max_image_bytes must be positive"))
	}
	if c.Render.MaxImagePixels <= 0 {
		errs = append(errs, errors.New("render.max_image_pixels must be positive"))
	}
	if c.Generation.TemplateDelay < 0 {
		errs = append(errs, errors.New("generation.template_delay must not be negative"))
	}
	for i, t := range c.Generation.Templates {
		if t.ID == "" || t.URL == "" {
			errs = append(errs, fmt.Errorf("generation.templates[%d]: id and url are required", i))
		}
		if t.ID == domain.CustomTemplateID {
			errs = append(errs, fmt.Errorf("generation.templates[%d]: id %q is reserved", i, t.ID))
		}
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		errs = append(errs, errors.New("storage.bucket is required when storage is enabled"))
	}
	return errors.Join(errs...)
}

// GetStorageConfig converts the storage section for the storage package.
func (c *Config) GetStorageConfig() *storage.S3Config {
	return &storage.S3Config{
		Type:      storage.StorageType(c.Storage.Type),
		Endpoint:  c.Storage.Endpoint,
		AccessKey: c.Storage.AccessKey,
		SecretKey: c.Storage.SecretKey,
		UseSSL:    c.Storage.UseSSL,
		Bucket:    c.Storage.Bucket,
		Region:    c.Storage.Region,
		PublicURL: c.Storage.PublicURL,
	}
}
