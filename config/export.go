package config

import (
	"bytes"
	"reflect"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Export serializes cfg back to YAML bytes. Paired with Import, this
// supports the round-trip property required by spec.md §8: exporting and
// re-importing a Config yields an equivalent Config. Credentials are never
// part of Config (they live in Snapshot, resolved separately from env
// vars), so nothing sensitive round-trips through Export.
func Export(cfg Config) ([]byte, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	sections := map[string]any{"exchange_a": cfg.ExchangeA, "exchange_b": cfg.ExchangeB, "strategy": cfg.Strategy, "risk": cfg.Risk}
	for key, section := range sections {
		rv := reflect.ValueOf(section)
		fields := make(map[string]any, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			val := rv.Field(i).Interface()
			if d, ok := val.(decimal.Decimal); ok {
				val = d.String()
			}
			fields[rv.Type().Field(i).Tag.Get("mapstructure")] = val
		}
		v.Set(key, fields)
	}
	v.Set("trading_pairs", cfg.TradingPairs)
	v.Set("history_limit", cfg.HistoryLimit)
	v.Set("balance_pool_history_limit", cfg.BalancePoolHistoryLimit)

	buf := &bytes.Buffer{}
	if err := v.WriteConfigTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Import parses YAML bytes produced by Export (or hand-written in the same
// shape) into a Config.
func Import(data []byte) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	applyDefaults(v)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decimalDecodeHook)); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
