// Package config loads the engine's strategy/risk/venue parameters from a
// YAML file via viper, the way 0xtitan6-polymarket-mm's internal/config
// package does, and exposes them behind an atomic snapshot pointer so the
// main loop never holds a config lock across a venue call.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// VenueConfig is one venue's identity, fees, and connection parameters
// (spec.md §6, exchange.a/exchange.b).
type VenueConfig struct {
	Name               string          `mapstructure:"name"`
	APIBaseURL         string          `mapstructure:"api_base_url"`
	APIKeyEnv          string          `mapstructure:"api_key_env"`
	APISecretEnv       string          `mapstructure:"api_secret_env"`
	PassphraseEnv      string          `mapstructure:"passphrase_env"`
	TradingFeePercent  decimal.Decimal `mapstructure:"trading_fee_percent"`
	RateLimitPerSecond float64         `mapstructure:"rate_limit_per_second"`
	TimeoutMs          int             `mapstructure:"timeout_ms"`
	MaxRetries         int             `mapstructure:"max_retries"`
	IsEnabled          bool            `mapstructure:"is_enabled"`
}

// PartialFillStrategy is the executor policy applied when a leg fills
// partially.
type PartialFillStrategy string

const (
	PartialFillWaitMore        PartialFillStrategy = "WaitMore"
	PartialFillHedge           PartialFillStrategy = "Hedge"
	PartialFillCancelRemaining PartialFillStrategy = "CancelRemaining"
)

// OneSideFailStrategy is the executor policy applied when exactly one leg
// fails outright.
type OneSideFailStrategy string

const (
	OneSideFailHedge     OneSideFailStrategy = "Hedge"
	OneSideFailCutLoss   OneSideFailStrategy = "CutLoss"
	OneSideFailDoNothing OneSideFailStrategy = "DoNothing"
)

// StrategyConfig tunes opportunity detection and execution style
// (spec.md §6, strategy.*).
type StrategyConfig struct {
	MinSpreadPercentage     decimal.Decimal      `mapstructure:"min_spread_percentage"`
	MinExpectedProfitQuote  decimal.Decimal      `mapstructure:"min_expected_profit_quote"`
	PollingIntervalMs       int                  `mapstructure:"polling_interval_ms"`
	OrderType               string               `mapstructure:"order_type"` // "Market" or "Limit"
	LimitOrderSlippagePct   decimal.Decimal      `mapstructure:"limit_order_slippage_pct"`
	OrderFillTimeoutMs      int                  `mapstructure:"order_fill_timeout_ms"`
	PartialFillStrategy     PartialFillStrategy  `mapstructure:"partial_fill_strategy"`
	OneSideFailStrategy     OneSideFailStrategy  `mapstructure:"one_side_fail_strategy"`
	MinDepthQty             decimal.Decimal      `mapstructure:"min_depth_qty"`
}

// RiskConfig caps trading activity and gates emergency protection
// (spec.md §6, risk.*).
type RiskConfig struct {
	MaxPositionSizePerTrade  decimal.Decimal `mapstructure:"max_position_size_per_trade"`
	MaxDailyLoss             decimal.Decimal `mapstructure:"max_daily_loss"`
	MaxTradesPerDay          int             `mapstructure:"max_trades_per_day"`
	MinTimeBetweenTradesMs   int             `mapstructure:"min_time_between_trades_ms"`
	MaxConsecutiveLosses     int             `mapstructure:"max_consecutive_losses"`
	MaxDrawdownPercent       decimal.Decimal `mapstructure:"max_drawdown_percent"`
	RebalanceThresholdPercent decimal.Decimal `mapstructure:"rebalance_threshold_percent"`
}

// Config is the top-level, YAML-shaped configuration document.
type Config struct {
	ExchangeA     VenueConfig    `mapstructure:"exchange_a"`
	ExchangeB     VenueConfig    `mapstructure:"exchange_b"`
	Strategy      StrategyConfig `mapstructure:"strategy"`
	Risk          RiskConfig     `mapstructure:"risk"`
	TradingPairs  []string       `mapstructure:"trading_pairs"`
	HistoryLimit  int            `mapstructure:"history_limit"`
	BalancePoolHistoryLimit int  `mapstructure:"balance_pool_history_limit"`
}

// Snapshot is an immutable, fully-resolved view of Config plus the
// credentials resolved from the environment variables it names. The engine
// only ever reads through a *Snapshot obtained from a Source.
type Snapshot struct {
	Config Config

	CredentialsA Credentials
	CredentialsB Credentials
}

// Credentials are the secrets resolved for one venue, kept out of Config so
// Export never serializes them.
type Credentials struct {
	APIKey     string
	APISecret  string
	Passphrase string
}

func resolveCredentials(v VenueConfig) Credentials {
	return Credentials{
		APIKey:     os.Getenv(v.APIKeyEnv),
		APISecret:  os.Getenv(v.APISecretEnv),
		Passphrase: os.Getenv(v.PassphraseEnv),
	}
}

// Source holds the live, hot-swappable configuration snapshot.
type Source struct {
	snap atomic.Pointer[Snapshot]
	v    *viper.Viper
}

// Load reads path via viper and returns a Source whose Current() snapshot
// is immediately available. It also arms viper's file watcher so later
// edits publish a fresh Snapshot without blocking readers.
func Load(path string) (*Source, error) {
	v := viper.New()
	v.SetConfigFile(path)
	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	s := &Source{v: v}
	if err := s.reload(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		if err := s.reload(); err != nil {
			// A bad edit must not tear down the running snapshot; the old
			// one stays live until a valid file is written.
			return
		}
	})
	v.WatchConfig()

	return s, nil
}

// decimalDecodeHook lets mapstructure populate decimal.Decimal fields from
// the plain strings/numbers viper reads out of YAML.
func decimalDecodeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(decimal.Decimal{}) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		if v == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	default:
		return data, nil
	}
}

func (s *Source) reload() error {
	var cfg Config
	if err := s.v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		decimalDecodeHook,
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	snap := &Snapshot{
		Config:       cfg,
		CredentialsA: resolveCredentials(cfg.ExchangeA),
		CredentialsB: resolveCredentials(cfg.ExchangeB),
	}
	s.snap.Store(snap)
	return nil
}

// Current returns the live snapshot. Callers should take this once per
// iteration/operation rather than holding onto it across a network call.
func (s *Source) Current() *Snapshot {
	return s.snap.Load()
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("strategy.polling_interval_ms", 1000)
	v.SetDefault("strategy.order_type", "Market")
	v.SetDefault("strategy.order_fill_timeout_ms", 5000)
	v.SetDefault("strategy.partial_fill_strategy", string(PartialFillCancelRemaining))
	v.SetDefault("strategy.one_side_fail_strategy", string(OneSideFailHedge))
	v.SetDefault("risk.max_trades_per_day", 100)
	v.SetDefault("risk.max_consecutive_losses", 5)
	v.SetDefault("history_limit", 1000)
	v.SetDefault("balance_pool_history_limit", 1000)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}
