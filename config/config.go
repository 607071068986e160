// Package config loads the operator-facing surface described in spec.md §6
// from the environment, using viper the way the pack's indexer-shaped
// sibling (other_examples/manifests/smolgroot-coin-indexor) configures
// itself.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full operator surface: DB connection, provider endpoints and
// credentials, analyzer paths, scanner intervals, and the rate-limit mode
// switch.
type Config struct {
	DB       DBConfig
	Scanners ScannersConfig
	Eth      ProviderConfig
	Moralis  ProviderConfig
	LLM      LLMConfig
	Analyzer AnalyzerConfig
	Kafka    KafkaConfig
	Metrics  MetricsConfig
	// AgentCORSOrigins is consumed only by the out-of-scope agent HTTP
	// surface; carried here because it is part of the operator surface
	// this process reads, even though this process never serves it.
	AgentCORSOrigins []string
}

// DBConfig is the relational store's connection string and pool bounds
// (spec.md §5: "DB pool bounded min 1 / max 10").
type DBConfig struct {
	DSN            string
	MaxOpenConns   int
	MaxIdleConns   int
	ConnMaxLife    time.Duration
}

// ScannersConfig holds each scanner's poll interval and the rate-limit mode
// switch (spec.md §9, SCANNERS_API_PARALLEL_MODE).
type ScannersConfig struct {
	NetworkInterval     time.Duration
	BlockInterval       time.Duration
	TransactionInterval time.Duration
	SourceInterval      time.Duration
	DateInterval        time.Duration
	TokenInterval       time.Duration
	BatchSize           int
	FinalityDepth       uint64
	APIParallelMode     bool
}

// ProviderConfig is shared shape for Etherscan-like and Moralis-like HTTP
// providers: base URL, API key, and the per-instance rate-limit delay.
type ProviderConfig struct {
	BaseURL      string
	APIKey       string
	DelaySeconds float64
	TimeoutSec   int
}

// LLMConfig configures the OpenAI-compatible semantic analyzer client.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// AnalyzerConfig configures the static-analyzer subprocess sandbox and the
// keyword whitelist analyzer.KeywordFilter matches ABI item names against.
type AnalyzerConfig struct {
	BinaryPath string
	WorkDir    string
	Timeout    time.Duration
	Keywords   []string
}

// KafkaConfig configures the airdrop-discovery event publisher.
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	Replicas int16
}

// MetricsConfig configures the Prometheus bridge.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

// Load reads configuration from the environment, prefixed AIRDROPINDEXER_,
// mirroring the AutomaticEnv + SetEnvPrefix idiom used by viper-based
// indexers in the pack.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AIRDROPINDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 1)
	v.SetDefault("db.conn_max_life", "5m")

	v.SetDefault("scanners.network_interval", "15s")
	v.SetDefault("scanners.block_interval", "5s")
	v.SetDefault("scanners.transaction_interval", "5s")
	v.SetDefault("scanners.source_interval", "10s")
	v.SetDefault("scanners.date_interval", "60s")
	v.SetDefault("scanners.token_interval", "30s")
	v.SetDefault("scanners.batch_size", 50)
	v.SetDefault("scanners.finality_depth", 12)
	v.SetDefault("scanners.api_parallel_mode", false)

	v.SetDefault("eth.timeout_sec", 30)
	v.SetDefault("moralis.timeout_sec", 30)
	v.SetDefault("moralis.delay_seconds", 0.5)
	v.SetDefault("eth.delay_seconds", 0.2)

	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("analyzer.timeout", "30s")
	v.SetDefault("analyzer.keywords", []string{
		"airdrop", "claim", "eligib", "allocation", "merkle", "distribute", "distribution", "whitelist",
	})

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "airdrop.discovered")
	v.SetDefault("kafka.replicas", 1)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9100")

	dsn := v.GetString("db.dsn")
	if dsn == "" {
		return nil, fmt.Errorf("config: AIRDROPINDEXER_DB_DSN is required")
	}

	cfg := &Config{
		DB: DBConfig{
			DSN:          dsn,
			MaxOpenConns: v.GetInt("db.max_open_conns"),
			MaxIdleConns: v.GetInt("db.max_idle_conns"),
			ConnMaxLife:  v.GetDuration("db.conn_max_life"),
		},
		Scanners: ScannersConfig{
			NetworkInterval:     v.GetDuration("scanners.network_interval"),
			BlockInterval:       v.GetDuration("scanners.block_interval"),
			TransactionInterval: v.GetDuration("scanners.transaction_interval"),
			SourceInterval:      v.GetDuration("scanners.source_interval"),
			DateInterval:        v.GetDuration("scanners.date_interval"),
			TokenInterval:       v.GetDuration("scanners.token_interval"),
			BatchSize:           v.GetInt("scanners.batch_size"),
			FinalityDepth:       uint64(v.GetInt64("scanners.finality_depth")),
			APIParallelMode:     v.GetBool("scanners.api_parallel_mode"),
		},
		Eth: ProviderConfig{
			BaseURL:      v.GetString("eth.base_url"),
			APIKey:       v.GetString("eth.api_key"),
			DelaySeconds: v.GetFloat64("eth.delay_seconds"),
			TimeoutSec:   v.GetInt("eth.timeout_sec"),
		},
		Moralis: ProviderConfig{
			BaseURL:      v.GetString("moralis.base_url"),
			APIKey:       v.GetString("moralis.api_key"),
			DelaySeconds: v.GetFloat64("moralis.delay_seconds"),
			TimeoutSec:   v.GetInt("moralis.timeout_sec"),
		},
		LLM: LLMConfig{
			BaseURL: v.GetString("llm.base_url"),
			APIKey:  v.GetString("llm.api_key"),
			Model:   v.GetString("llm.model"),
			Timeout: v.GetDuration("llm.timeout"),
		},
		Analyzer: AnalyzerConfig{
			BinaryPath: v.GetString("analyzer.binary_path"),
			WorkDir:    v.GetString("analyzer.work_dir"),
			Timeout:    v.GetDuration("analyzer.timeout"),
			Keywords:   v.GetStringSlice("analyzer.keywords"),
		},
		Kafka: KafkaConfig{
			Enabled:  v.GetBool("kafka.enabled"),
			Brokers:  v.GetStringSlice("kafka.brokers"),
			Topic:    v.GetString("kafka.topic"),
			Replicas: int16(v.GetInt("kafka.replicas")),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Addr:    v.GetString("metrics.addr"),
		},
		AgentCORSOrigins: v.GetStringSlice("agent.cors_origins"),
	}
	return cfg, nil
}
