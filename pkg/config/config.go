package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Embedding EmbeddingConfig
	Scoring   ScoringConfig
	Analyzer  AnalyzerConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// EmbeddingConfig describes the external embedding provider. Enabled is the
// capability probe signal: when false, or when no API key is configured, the
// engine runs on the lexical strategy from the start.
type EmbeddingConfig struct {
	Enabled     bool
	APIKey      string
	Model       string
	Dim         int
	TimeoutSec  int
	CacheTTLSec int
}

// ScoringConfig carries the weight table and AI-optimum band. It is passed
// into each run as an immutable value; runs never read ambient state.
type ScoringConfig struct {
	SourceWeight        float64
	DeliveryWeight      float64
	CollaborationWeight float64
	QualityWeight       float64
	AIOptimumLow        float64
	AIOptimumHigh       float64
}

type AnalyzerConfig struct {
	MaxRecordChars int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/devpulse")

	viper.SetEnvPrefix("DEVPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 60)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("sqlite.path", "./data/devpulse.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("embedding.enabled", true)
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.dim", 1536)
	viper.SetDefault("embedding.timeoutSec", 20)
	viper.SetDefault("embedding.cacheTTLSec", 86400)

	viper.SetDefault("scoring.sourceWeight", 0.35)
	viper.SetDefault("scoring.deliveryWeight", 0.30)
	viper.SetDefault("scoring.collaborationWeight", 0.20)
	viper.SetDefault("scoring.qualityWeight", 0.15)
	viper.SetDefault("scoring.aiOptimumLow", 0.25)
	viper.SetDefault("scoring.aiOptimumHigh", 0.45)

	viper.SetDefault("analyzer.maxRecordChars", 4000)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
