package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Server      struct {
		Port         int           `mapstructure:"port"`
		ReadTimeout  time.Duration `mapstructure:"readTimeout"`
		WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	} `mapstructure:"server"`
	NATS struct {
		URL       string             `mapstructure:"url"`
		Ingestion ConsumerNatsConfig `mapstructure:"ingestion"`
		Insights  InsightsNatsConfig `mapstructure:"insights"`
	} `mapstructure:"nats"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Insights   struct {
		// Timezone is the IANA zone used to read the hour of day of an interaction.
		Timezone string `mapstructure:"timezone"`
	} `mapstructure:"insights"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
	WorkerPools struct {
		Insights WorkerPoolConfig `mapstructure:"insights"`
	} `mapstructure:"workerPools"`
}

// EnrichmentConfig configures the generative text client.
type EnrichmentConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	APIKey            string        `mapstructure:"apiKey"`
	BaseURL           string        `mapstructure:"baseURL"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requestsPerMinute"` // 0 disables the local limiter
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"maxRetries"`
}

// WorkerPoolConfig holds configuration for an ants worker pool
type WorkerPoolConfig struct {
	PoolSize   int           `mapstructure:"poolSize"`   // Number of workers
	QueueSize  int           `mapstructure:"queueSize"`  // Max blocking submitters
	ExpiryTime time.Duration `mapstructure:"expiryTime"` // Idle worker expiry time
}

// ConsumerNatsConfig holds configuration specific to a NATS consumer
type ConsumerNatsConfig struct {
	MaxAge       int64         `mapstructure:"maxAge"` // max age of messages in day
	Stream       string        `mapstructure:"stream"`
	Consumer     string        `mapstructure:"consumer"` // durable name
	QueueGroup   string        `mapstructure:"group"`
	SubjectList  []string      `mapstructure:"subjectList"`
	MaxDeliver   int           `mapstructure:"maxDeliver"`   // Max delivery attempts before termination
	NakBaseDelay time.Duration `mapstructure:"nakBaseDelay"` // Base delay for exponential backoff NAK
	NakMaxDelay  time.Duration `mapstructure:"nakMaxDelay"`  // Maximum delay for exponential backoff NAK
}

// InsightsNatsConfig configures the request/reply insight responder.
type InsightsNatsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Subject    string `mapstructure:"subject"`
	QueueGroup string `mapstructure:"group"`
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 10*time.Second)
	v.SetDefault("server.writeTimeout", 45*time.Second)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("database.postgresAutoMigrate", true)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.ingestion.stream", "crm_events_stream")
	v.SetDefault("nats.ingestion.consumer", "crm_insights_ingestion")
	v.SetDefault("nats.ingestion.group", "crm_insights_ingestion_group")
	v.SetDefault("nats.ingestion.subjectList", []string{"v1.customers.>", "v1.interactions.>"})
	v.SetDefault("nats.ingestion.maxAge", 30)
	v.SetDefault("nats.ingestion.maxDeliver", 5)
	v.SetDefault("nats.ingestion.nakBaseDelay", time.Second)
	v.SetDefault("nats.ingestion.nakMaxDelay", 5*time.Minute)
	v.SetDefault("nats.insights.enabled", true)
	v.SetDefault("nats.insights.subject", "v1.insights.request")
	v.SetDefault("nats.insights.group", "crm_insights_responders")

	v.SetDefault("enrichment.enabled", true)
	v.SetDefault("enrichment.baseURL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("enrichment.model", "gemini-2.5-flash")
	v.SetDefault("enrichment.timeout", 30*time.Second)
	v.SetDefault("enrichment.requestsPerMinute", 60)
	v.SetDefault("enrichment.burst", 5)
	v.SetDefault("enrichment.maxRetries", 2)

	v.SetDefault("insights.timezone", "UTC")

	// WorkerPools Defaults
	v.SetDefault("workerPools.insights.poolSize", 16)
	v.SetDefault("workerPools.insights.queueSize", 1000)
	v.SetDefault("workerPools.insights.expiryTime", time.Minute)

	// Config file settings
	v.SetConfigName("default")
	v.SetConfigType("yaml")

	// Add lookup paths
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("$HOME/.daisi-crm-insights")
	v.AddConfigPath("/etc/daisi-crm-insights")

	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvs(v, Config{})

	// Read directly from ENV for critical values
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		v.Set("database.postgresDSN", dsn)
	}
	if lgLevel := os.Getenv("LOG_LEVEL"); lgLevel != "" {
		v.Set("logLevel", lgLevel)
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		v.Set("nats.url", url)
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		v.Set("enrichment.apiKey", key)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if _, err := time.LoadLocation(config.Insights.Timezone); err != nil {
		return nil, fmt.Errorf("invalid insights.timezone %q: %w", config.Insights.Timezone, err)
	}

	return &config, nil
}

// Location returns the configured insight timezone, defaulting to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Insights.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EnrichmentActive reports whether enrichment is both enabled and has credentials.
func (c *Config) EnrichmentActive() bool {
	return c.Enrichment.Enabled && c.Enrichment.APIKey != ""
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		path := append(append([]string{}, parts...), tag)
		key := strings.Join(path, ".")

		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		_ = v.BindEnv(key)
	}
}
