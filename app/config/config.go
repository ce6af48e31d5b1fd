package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type AppCfg struct {
	Name string `mapstructure:"name" yaml:"name"`
	Env  string `mapstructure:"env" yaml:"env"`
	Port string `mapstructure:"port" yaml:"port"`
}

type StoreCfg struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // mongo | postgres | sqlite
}

type MongoCfg struct {
	URL      string `mapstructure:"url" yaml:"url"`
	Database string `mapstructure:"database" yaml:"database"`
}

type PostgresCfg struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

type SQLiteCfg struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type CacheCfg struct {
	Driver         string        `mapstructure:"driver" yaml:"driver"` // memory | redis | hybrid
	Capacity       int           `mapstructure:"capacity" yaml:"capacity"`
	SweepWatermark int           `mapstructure:"sweep_watermark" yaml:"sweep_watermark"`
	LookupTTL      time.Duration `mapstructure:"lookup_ttl" yaml:"lookup_ttl"`
	BulkTTL        time.Duration `mapstructure:"bulk_ttl" yaml:"bulk_ttl"`
}

type RedisCfg struct {
	URL    string `mapstructure:"url" yaml:"url"`
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

type ResolverCfg struct {
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	RetryTimeout    time.Duration `mapstructure:"retry_timeout" yaml:"retry_timeout"`
	WorkingSetLimit int           `mapstructure:"working_set_limit" yaml:"working_set_limit"`
	BulkLimit       int           `mapstructure:"bulk_limit" yaml:"bulk_limit"`
}

type FuzzyCfg struct {
	AcceptThreshold    float64 `mapstructure:"accept_threshold" yaml:"accept_threshold"`
	RejectCutoff       float64 `mapstructure:"reject_cutoff" yaml:"reject_cutoff"`
	PrefixBonus        float64 `mapstructure:"prefix_bonus" yaml:"prefix_bonus"`
	WordPrefixBonus    float64 `mapstructure:"word_prefix_bonus" yaml:"word_prefix_bonus"`
	ContainsBonus      float64 `mapstructure:"contains_bonus" yaml:"contains_bonus"`
	PositionPenalty    float64 `mapstructure:"position_penalty" yaml:"position_penalty"`
	JaroBoostThreshold float64 `mapstructure:"jaro_boost_threshold" yaml:"jaro_boost_threshold"`
}

type NominatimCfg struct {
	URL         string        `mapstructure:"url" yaml:"url"`
	MinInterval time.Duration `mapstructure:"min_interval" yaml:"min_interval"`
	Strict      bool          `mapstructure:"strict" yaml:"strict"` // token bucket thay cho soft throttle
}

type GoogleCfg struct {
	URL    string `mapstructure:"url" yaml:"url"`
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
}

type ProvidersCfg struct {
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`
	PostalIndexURL string        `mapstructure:"postal_index_url" yaml:"postal_index_url"`
	ZippopotamURL  string        `mapstructure:"zippopotam_url" yaml:"zippopotam_url"`
	Nominatim      NominatimCfg  `mapstructure:"nominatim" yaml:"nominatim"`
	Google         GoogleCfg     `mapstructure:"google" yaml:"google"`
}

type MeiliCfg struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	URL       string `mapstructure:"url" yaml:"url"`
	MasterKey string `mapstructure:"master_key" yaml:"master_key"`
}

type WorkerCfg struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"` // khoảng cách tối thiểu giữa hai lần gọi provider
	BatchLimit  int           `mapstructure:"batch_limit" yaml:"batch_limit"`
}

// Config cấu hình đầy đủ của service
type Config struct {
	App         AppCfg       `mapstructure:"app" yaml:"app"`
	Store       StoreCfg     `mapstructure:"store" yaml:"store"`
	Mongo       MongoCfg     `mapstructure:"mongo" yaml:"mongo"`
	Postgres    PostgresCfg  `mapstructure:"postgres" yaml:"postgres"`
	SQLite      SQLiteCfg    `mapstructure:"sqlite" yaml:"sqlite"`
	Cache       CacheCfg     `mapstructure:"cache" yaml:"cache"`
	Redis       RedisCfg     `mapstructure:"redis" yaml:"redis"`
	Resolver    ResolverCfg  `mapstructure:"resolver" yaml:"resolver"`
	Fuzzy       FuzzyCfg     `mapstructure:"fuzzy" yaml:"fuzzy"`
	Providers   ProvidersCfg `mapstructure:"providers" yaml:"providers"`
	Meilisearch MeiliCfg     `mapstructure:"meilisearch" yaml:"meilisearch"`
	Worker      WorkerCfg    `mapstructure:"worker" yaml:"worker"`
}

// setDefaults giá trị mặc định cho mọi khóa
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "locality-resolver")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("mongo.url", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "locality_resolver")
	v.SetDefault("postgres.dsn", "host=localhost user=postgres password=postgres dbname=locality_resolver port=5432 sslmode=disable")
	v.SetDefault("sqlite.path", "data/locality.db")

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.capacity", 10000)
	v.SetDefault("cache.sweep_watermark", 100)
	v.SetDefault("cache.lookup_ttl", 5*time.Minute)
	v.SetDefault("cache.bulk_ttl", time.Hour)
	v.SetDefault("redis.url", "redis://localhost:6379")
	v.SetDefault("redis.prefix", "locres:")

	v.SetDefault("resolver.read_timeout", 12*time.Second)
	v.SetDefault("resolver.retry_timeout", 15*time.Second)
	v.SetDefault("resolver.working_set_limit", 5000)
	v.SetDefault("resolver.bulk_limit", 500)

	v.SetDefault("fuzzy.accept_threshold", 0.3)
	v.SetDefault("fuzzy.reject_cutoff", 0.5)
	v.SetDefault("fuzzy.prefix_bonus", -0.5)
	v.SetDefault("fuzzy.word_prefix_bonus", -0.3)
	v.SetDefault("fuzzy.contains_bonus", -0.1)
	v.SetDefault("fuzzy.position_penalty", 0.15)
	v.SetDefault("fuzzy.jaro_boost_threshold", 0.7)

	v.SetDefault("providers.user_agent", "")
	v.SetDefault("providers.http_timeout", 8*time.Second)
	v.SetDefault("providers.postal_index_url", "https://api.postalpincode.in")
	v.SetDefault("providers.zippopotam_url", "https://api.zippopotam.us")
	v.SetDefault("providers.nominatim.url", "https://nominatim.openstreetmap.org")
	v.SetDefault("providers.nominatim.min_interval", time.Second)
	v.SetDefault("providers.nominatim.strict", false)
	v.SetDefault("providers.google.url", "https://maps.googleapis.com/maps/api/geocode/json")
	v.SetDefault("providers.google.api_key", "")

	v.SetDefault("meilisearch.enabled", false)
	v.SetDefault("meilisearch.url", "http://localhost:7700")
	v.SetDefault("meilisearch.master_key", "")

	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.interval", time.Second)
	v.SetDefault("worker.batch_limit", 1000)
}

// Load đọc config từ file (nếu có) và env vars.
// path rỗng thì tìm config/app.yaml hoặc ./app.yaml.
// Env dạng CACHE_LOOKUP_TTL ghi đè cache.lookup_ttl.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("app")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("lỗi đọc file config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("lỗi parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate kiểm tra các giá trị bắt buộc
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "mongo", "postgres", "sqlite":
	default:
		return fmt.Errorf("store.driver không hợp lệ: %q", c.Store.Driver)
	}
	switch c.Cache.Driver {
	case "memory", "redis", "hybrid":
	default:
		return fmt.Errorf("cache.driver không hợp lệ: %q", c.Cache.Driver)
	}
	if c.Resolver.ReadTimeout <= 0 || c.Resolver.RetryTimeout <= 0 {
		return errors.New("resolver timeouts phải > 0")
	}
	if c.Fuzzy.RejectCutoff <= 0 {
		return errors.New("fuzzy.reject_cutoff phải > 0")
	}
	return nil
}

// IsProduction kiểm tra môi trường production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Dump xuất config hiệu lực dạng YAML, che API key
func (c Config) Dump() ([]byte, error) {
	if c.Providers.Google.APIKey != "" {
		c.Providers.Google.APIKey = "***"
	}
	if c.Meilisearch.MasterKey != "" {
		c.Meilisearch.MasterKey = "***"
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("lỗi encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
