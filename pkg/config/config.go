package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	Environment string `yaml:"environment" default:"dev" validate:"required"`
	Log         struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"metrics"`
	Feed struct {
		Symbols      []string      `yaml:"symbols" validate:"min=1"`
		BasePrice    float64       `yaml:"base_price" default:"100.0" validate:"gt=0"`
		TickInterval time.Duration `yaml:"tick_interval" default:"100ms" validate:"gt=0"`
		PhaseLength  int           `yaml:"phase_length" default:"100" validate:"gt=0"`
		Seed         int64         `yaml:"seed"`
	} `yaml:"feed"`
	Classifier struct {
		BufferSize   int     `yaml:"buffer_size" default:"50" validate:"gte=2"`
		MinSamples   int     `yaml:"min_samples" default:"3" validate:"gte=2"`
		TrendR2      float64 `yaml:"trend_r2" default:"0.7" validate:"gt=0,lte=1"`
		ZThreshold   float64 `yaml:"z_threshold" default:"2.0" validate:"gt=0"`
		ZWindow      int     `yaml:"z_window" default:"20" validate:"gte=2"`
		SlopeEpsilon float64 `yaml:"slope_epsilon" default:"0.000001" validate:"gt=0"`
	} `yaml:"classifier"`
	Risk struct {
		Balance         float64 `yaml:"balance" default:"100000" validate:"gt=0"`
		MaxRiskPerTrade float64 `yaml:"max_risk_per_trade" default:"500" validate:"gt=0"`
		MaxDailyRisk    float64 `yaml:"max_daily_risk" default:"2000" validate:"gt=0"`
		ATR             float64 `yaml:"atr" default:"50" validate:"gt=0"`
		ContractSize    float64 `yaml:"contract_size" default:"10" validate:"gt=0"`
	} `yaml:"risk"`
	Orders struct {
		Backend string `yaml:"backend" default:"log" validate:"oneof=log kafka"`
	} `yaml:"orders"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"order-requests"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"kafka"`
}

// Load reads a YAML configuration file, applies struct defaults and
// validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Finalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Feed.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("ORDERS_BACKEND"); v != "" {
		c.Orders.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	if err := c.Finalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// Finalize applies defaults and validates the configuration, including the
// cross-field rules the tag language cannot express.
func (c *Config) Finalize() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if len(c.Feed.Symbols) == 0 {
		c.Feed.Symbols = []string{"EURUSD", "USDJPY", "XAUUSD"}
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.Classifier.ZWindow > c.Classifier.BufferSize {
		return fmt.Errorf("validate config: z_window %d exceeds buffer_size %d",
			c.Classifier.ZWindow, c.Classifier.BufferSize)
	}
	if c.Risk.MaxRiskPerTrade > c.Risk.MaxDailyRisk {
		return fmt.Errorf("validate config: max_risk_per_trade %v exceeds max_daily_risk %v",
			c.Risk.MaxRiskPerTrade, c.Risk.MaxDailyRisk)
	}
	if c.Orders.Backend == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("validate config: kafka backend requires brokers")
	}
	return nil
}
