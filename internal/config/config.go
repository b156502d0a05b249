package config

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the full configuration surface of the core. Every threshold,
// weight, limit and fee tier used by the services comes from here; the
// services themselves carry no hard-coded policy numbers.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Fraud    FraudConfig
	Risk     RiskConfig
	Limits   LimitsConfig
	Fees     FeeConfig
	Velocity VelocityConfig
}

type ServerConfig struct {
	Port        string
	MetricsPort string
}

type DatabaseConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FraudConfig holds the rule thresholds of the fraud engine.
type FraudConfig struct {
	HighAmountThreshold decimal.Decimal
	VelocityThreshold   int
	NewRecipientAmount  decimal.Decimal
	MaxTravelSpeedKmh   float64
	LocationRadiusKm    float64
	LocationWindow      time.Duration
	AnomalyScoreCutoff  float64
	AnomalyPenalty      int
	ScorerTimeout       time.Duration
	MonitorQueueSize    int
	SuspiciousThreshold int
	ReviewThreshold     int
	BlockThreshold      int
}

// RiskConfig holds per-entity-type factor weights and level cutoffs.
// Weights for each entity type are expected to sum to 1.0.
type RiskConfig struct {
	CustomerWeights    map[string]float64
	AccountWeights     map[string]float64
	TransactionWeights map[string]float64
	LevelLowBelow      float64 // score below this is VERY_LOW
	LevelMediumBelow   float64 // score below this is LOW
	LevelHighBelow     float64 // score below this is MEDIUM, at or above HIGH
	CacheTTL           time.Duration
}

type LimitsConfig struct {
	DailyWithdrawal    decimal.Decimal
	DailyTransfer      decimal.Decimal
	HighValueThreshold decimal.Decimal
}

// FeeConfig defines the deterministic fee tiers. Deposits are always free;
// withdrawals are free below FreeBelow, flat up to FlatBelow, percentage
// above; transfers are free internally and percentage-based externally.
type FeeConfig struct {
	WithdrawalFreeBelow     decimal.Decimal
	WithdrawalFlatBelow     decimal.Decimal
	WithdrawalFlatFee       decimal.Decimal
	WithdrawalPercent       decimal.Decimal
	ExternalTransferPercent decimal.Decimal
}

type VelocityConfig struct {
	Window        time.Duration
	MaxEntries    int
	SweepInterval time.Duration
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load builds the typed configuration from environment variables and an
// optional config file, with working defaults for every option.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("COREBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("corebank")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/corebank")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("config file ignored: %v", err)
		}
	}

	setDefaults(v)

	return &Config{
		Server: ServerConfig{
			Port:        v.GetString("server.port"),
			MetricsPort: v.GetString("server.metrics_port"),
		},
		Database: DatabaseConfig{
			DSN: v.GetString("database.dsn"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Kafka: KafkaConfig{
			Brokers:    v.GetStringSlice("kafka.brokers"),
			AuditTopic: v.GetString("kafka.audit_topic"),
		},
		Fraud: FraudConfig{
			HighAmountThreshold: decimal.NewFromFloat(v.GetFloat64("fraud.high_amount_threshold")),
			VelocityThreshold:   v.GetInt("fraud.velocity_threshold"),
			NewRecipientAmount:  decimal.NewFromFloat(v.GetFloat64("fraud.new_recipient_amount")),
			MaxTravelSpeedKmh:   v.GetFloat64("fraud.max_travel_speed_kmh"),
			LocationRadiusKm:    v.GetFloat64("fraud.location_radius_km"),
			LocationWindow:      v.GetDuration("fraud.location_window"),
			AnomalyScoreCutoff:  v.GetFloat64("fraud.anomaly_score_cutoff"),
			AnomalyPenalty:      v.GetInt("fraud.anomaly_penalty"),
			ScorerTimeout:       v.GetDuration("fraud.scorer_timeout"),
			MonitorQueueSize:    v.GetInt("fraud.monitor_queue_size"),
			SuspiciousThreshold: v.GetInt("fraud.suspicious_threshold"),
			ReviewThreshold:     v.GetInt("fraud.review_threshold"),
			BlockThreshold:      v.GetInt("fraud.block_threshold"),
		},
		Risk: RiskConfig{
			CustomerWeights:    weightsOrDefault(v.GetStringMapString("risk.customer_weights"), DefaultCustomerWeights),
			AccountWeights:     weightsOrDefault(v.GetStringMapString("risk.account_weights"), DefaultAccountWeights),
			TransactionWeights: weightsOrDefault(v.GetStringMapString("risk.transaction_weights"), DefaultTransactionWeights),
			LevelLowBelow:      v.GetFloat64("risk.level_low_below"),
			LevelMediumBelow:   v.GetFloat64("risk.level_medium_below"),
			LevelHighBelow:     v.GetFloat64("risk.level_high_below"),
			CacheTTL:           v.GetDuration("risk.cache_ttl"),
		},
		Limits: LimitsConfig{
			DailyWithdrawal:    decimal.NewFromFloat(v.GetFloat64("limits.daily_withdrawal")),
			DailyTransfer:      decimal.NewFromFloat(v.GetFloat64("limits.daily_transfer")),
			HighValueThreshold: decimal.NewFromFloat(v.GetFloat64("limits.high_value_threshold")),
		},
		Fees: FeeConfig{
			WithdrawalFreeBelow:     decimal.NewFromFloat(v.GetFloat64("fees.withdrawal_free_below")),
			WithdrawalFlatBelow:     decimal.NewFromFloat(v.GetFloat64("fees.withdrawal_flat_below")),
			WithdrawalFlatFee:       decimal.NewFromFloat(v.GetFloat64("fees.withdrawal_flat_fee")),
			WithdrawalPercent:       decimal.NewFromFloat(v.GetFloat64("fees.withdrawal_percent")),
			ExternalTransferPercent: decimal.NewFromFloat(v.GetFloat64("fees.external_transfer_percent")),
		},
		Velocity: VelocityConfig{
			Window:        v.GetDuration("velocity.window"),
			MaxEntries:    v.GetInt("velocity.max_entries"),
			SweepInterval: v.GetDuration("velocity.sweep_interval"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.metrics_port", "9090")
	v.SetDefault("database.dsn", "host=localhost user=corebank password=corebank dbname=corebank port=5432 sslmode=disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.audit_topic", "corebank.audit.events")

	v.SetDefault("fraud.high_amount_threshold", 10000)
	v.SetDefault("fraud.velocity_threshold", 10)
	v.SetDefault("fraud.new_recipient_amount", 1000)
	v.SetDefault("fraud.max_travel_speed_kmh", 900)
	v.SetDefault("fraud.location_radius_km", 500)
	v.SetDefault("fraud.location_window", time.Hour)
	v.SetDefault("fraud.anomaly_score_cutoff", 0.8)
	v.SetDefault("fraud.anomaly_penalty", 40)
	v.SetDefault("fraud.scorer_timeout", 200*time.Millisecond)
	v.SetDefault("fraud.monitor_queue_size", 1024)
	v.SetDefault("fraud.suspicious_threshold", 50)
	v.SetDefault("fraud.review_threshold", 50)
	v.SetDefault("fraud.block_threshold", 80)

	v.SetDefault("risk.level_low_below", 30)
	v.SetDefault("risk.level_medium_below", 60)
	v.SetDefault("risk.level_high_below", 80)
	v.SetDefault("risk.cache_ttl", 15*time.Minute)

	v.SetDefault("limits.daily_withdrawal", 10000)
	v.SetDefault("limits.daily_transfer", 50000)
	v.SetDefault("limits.high_value_threshold", 10000)

	v.SetDefault("fees.withdrawal_free_below", 100)
	v.SetDefault("fees.withdrawal_flat_below", 1000)
	v.SetDefault("fees.withdrawal_flat_fee", 2.50)
	v.SetDefault("fees.withdrawal_percent", 0.005)
	v.SetDefault("fees.external_transfer_percent", 0.01)

	v.SetDefault("velocity.window", time.Hour)
	v.SetDefault("velocity.max_entries", 200)
	v.SetDefault("velocity.sweep_interval", 5*time.Minute)
}

// Default factor weights per entity type. Each set sums to 1.0.
var (
	DefaultCustomerWeights = map[string]float64{
		"age":                  0.10,
		"credit_score":         0.25,
		"employment_stability": 0.15,
		"income":               0.15,
		"address_tenure":       0.10,
		"delinquencies":        0.15,
		"banking_tenure":       0.05,
		"kyc_status":           0.05,
	}
	DefaultAccountWeights = map[string]float64{
		"account_type":      0.15,
		"account_age":       0.15,
		"volatility":        0.25,
		"overdraft_usage":   0.20,
		"customer_standing": 0.25,
	}
	DefaultTransactionWeights = map[string]float64{
		"amount_ratio":      0.45,
		"transaction_type":  0.25,
		"recipient_novelty": 0.30,
	}
)

func weightsOrDefault(raw map[string]string, def map[string]float64) map[string]float64 {
	if len(raw) == 0 {
		out := make(map[string]float64, len(def))
		for k, w := range def {
			out[k] = w
		}
		return out
	}
	out := make(map[string]float64, len(raw))
	for k, s := range raw {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			log.Printf("invalid weight %s=%q, ignoring: %v", k, s, err)
			continue
		}
		out[k] = f
	}
	return out
}
