package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	StreamName string `mapstructure:"stream_name"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// EngineConfig bounds the inputs and the optional verdict cache
type EngineConfig struct {
	MaxBatchURLs  int         `mapstructure:"max_batch_urls"`
	MaxTextBytes  int         `mapstructure:"max_text_bytes"`
	MaxAudioBytes int         `mapstructure:"max_audio_bytes"`
	Cache         CacheConfig `mapstructure:"cache"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Backend  string        `mapstructure:"backend"` // "memory" or "redis"
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type ProvidersConfig struct {
	SafeBrowsing ProviderConfig `mapstructure:"safe_browsing"`
	VirusTotal   ProviderConfig `mapstructure:"virustotal"`
	LLM          LLMConfig      `mapstructure:"llm"`
	Transcriber  ProviderConfig `mapstructure:"transcriber"`
}

// ProviderConfig is shared by every remote signal source
type ProviderConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIURL  string        `mapstructure:"api_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Configured reports whether the provider is switched on and has a credential
func (c ProviderConfig) Configured() bool {
	return c.Enabled && c.APIKey != ""
}

type LLMConfig struct {
	ProviderConfig `mapstructure:",squash"`
	Provider       string  `mapstructure:"provider"` // openai, claude
	Model          string  `mapstructure:"model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "seniorguard")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "seniorguard:")

	v.SetDefault("nats.stream_name", "SCANS")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.requests_per_minute", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.time_format", time.RFC3339)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("engine.max_batch_urls", 10)
	v.SetDefault("engine.max_text_bytes", 100_000)
	v.SetDefault("engine.max_audio_bytes", 25*1024*1024)
	v.SetDefault("engine.cache.backend", "memory")
	v.SetDefault("engine.cache.capacity", 1024)
	v.SetDefault("engine.cache.ttl", 10*time.Minute)

	for _, p := range []string{"safe_browsing", "virustotal", "llm", "transcriber"} {
		v.SetDefault("providers."+p+".enabled", true)
	}
	v.SetDefault("providers.safe_browsing.timeout", 10*time.Second)
	v.SetDefault("providers.virustotal.timeout", 10*time.Second)
	v.SetDefault("providers.llm.timeout", 20*time.Second)
	v.SetDefault("providers.llm.provider", "openai")
	v.SetDefault("providers.llm.model", "gpt-4o-mini")
	v.SetDefault("providers.llm.temperature", 0.3)
	v.SetDefault("providers.llm.max_tokens", 500)
	v.SetDefault("providers.transcriber.timeout", 60*time.Second)
}

// Load reads configuration from file and environment variables.
// A missing config file is not an error; defaults and env still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/seniorguard")
	}

	v.SetEnvPrefix("SENIORGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("redis.enabled", "SENIORGUARD_REDIS_ENABLED")
	v.BindEnv("redis.host", "SENIORGUARD_REDIS_HOST")
	v.BindEnv("redis.port", "SENIORGUARD_REDIS_PORT")
	v.BindEnv("redis.password", "SENIORGUARD_REDIS_PASSWORD")
	v.BindEnv("nats.enabled", "SENIORGUARD_NATS_ENABLED")
	v.BindEnv("nats.url", "SENIORGUARD_NATS_URL")
	v.BindEnv("app.environment", "SENIORGUARD_APP_ENVIRONMENT")
	v.BindEnv("providers.safe_browsing.api_key", "SENIORGUARD_PROVIDERS_SAFE_BROWSING_API_KEY", "GOOGLE_SAFE_BROWSING_API_KEY")
	v.BindEnv("providers.virustotal.api_key", "SENIORGUARD_PROVIDERS_VIRUSTOTAL_API_KEY", "VIRUSTOTAL_API_KEY")
	v.BindEnv("providers.llm.api_key", "SENIORGUARD_PROVIDERS_LLM_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("providers.transcriber.api_key", "SENIORGUARD_PROVIDERS_TRANSCRIBER_API_KEY", "OPENAI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}
