// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/imdario/mergo"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	EngineConfig EngineConfig `mapstructure:"engine" json:"engine"`
}

type EngineConfig struct {
	LogLevel                  string   `mapstructure:"logLevel" json:"logLevel" default:"info"`
	ApiAddr                   string   `mapstructure:"apiAddr" json:"apiAddr" default:":8080"`
	HealthPort                uint16   `mapstructure:"healthPort" json:"healthPort" default:"9001"`
	StorePath                 string   `mapstructure:"storePath" json:"storePath" default:"./solbridge-data"`
	OpenTelemetryCollectorURL string   `mapstructure:"openTelemetryCollectorUrl" json:"openTelemetryCollectorUrl"`
	DisabledChainKinds        []string `mapstructure:"disabledChainKinds" json:"disabledChainKinds"`
	ReconcileInterval         uint64   `mapstructure:"reconcileInterval" json:"reconcileInterval" default:"30"`
	ProviderTimeout           uint64   `mapstructure:"providerTimeout" json:"providerTimeout" default:"10"`
	ComposeDestinationSwap    bool     `mapstructure:"composeDestinationSwap" json:"composeDestinationSwap" default:"true"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit" json:"rateLimit"`
	Providers ProviderConfig  `mapstructure:"providers" json:"providers"`
	Chains    ChainConfig     `mapstructure:"chains" json:"chains"`
}

type RateLimitConfig struct {
	WindowSeconds uint64 `mapstructure:"windowSeconds" json:"windowSeconds" default:"60"`
	Max           int64  `mapstructure:"max" json:"max" default:"60"`
}

func (c RateLimitConfig) Window() time.Duration {
	// nolint:gosec
	return time.Duration(c.WindowSeconds) * time.Second
}

type ProviderConfig struct {
	Lifi    LifiConfig    `mapstructure:"lifi" json:"lifi"`
	Rango   RangoConfig   `mapstructure:"rango" json:"rango"`
	Jupiter JupiterConfig `mapstructure:"jupiter" json:"jupiter"`
}

type LifiConfig struct {
	Url string `mapstructure:"url" json:"url" default:"https://li.quest"`
}

type RangoConfig struct {
	Url    string `mapstructure:"url" json:"url" default:"https://api.rango.exchange"`
	ApiKey string `mapstructure:"apiKey" json:"apiKey"`
}

type JupiterConfig struct {
	Url string `mapstructure:"url" json:"url" default:"https://quote-api.jup.ag"`
}

// ChainConfig configures the finality verification endpoints per chain kind.
// Kinds without endpoints stay report-only; sessions touching them still
// execute, the engine just never confirms their steps server-side.
type ChainConfig struct {
	EvmEndpoints map[uint64]string `mapstructure:"evmEndpoints" json:"evmEndpoints"`
	SolanaRpc    string            `mapstructure:"solanaRpc" json:"solanaRpc"`
	BitcoinApi   string            `mapstructure:"bitcoinApi" json:"bitcoinApi" default:"https://blockstream.info/api"`
	CosmosRest   map[string]string `mapstructure:"cosmosRest" json:"cosmosRest"`
	TonApi       string            `mapstructure:"tonApi" json:"tonApi" default:"https://tonapi.io"`
}

func (c *Config) Validate() error {
	if c.EngineConfig.ApiAddr == "" {
		return fmt.Errorf("required field engine.ApiAddr empty")
	}
	if c.EngineConfig.StorePath == "" {
		return fmt.Errorf("required field engine.StorePath empty")
	}
	if c.EngineConfig.RateLimit.WindowSeconds == 0 {
		return fmt.Errorf("field engine.RateLimit.WindowSeconds has to be positive")
	}
	if c.EngineConfig.RateLimit.Max <= 0 {
		return fmt.Errorf("field engine.RateLimit.Max has to be positive")
	}
	return nil
}

// envKeys are the configuration keys overridable through SOLBRIDGE_*
// environment variables. Credentials are expected to arrive this way rather
// than through the config file.
var envKeys = []string{
	"engine.logLevel",
	"engine.apiAddr",
	"engine.healthPort",
	"engine.storePath",
	"engine.openTelemetryCollectorUrl",
	"engine.providers.lifi.url",
	"engine.providers.rango.url",
	"engine.providers.rango.apiKey",
	"engine.providers.jupiter.url",
	"engine.chains.solanaRpc",
	"engine.chains.bitcoinApi",
	"engine.chains.tonApi",
}

// decodeOptions enables weak typing so numeric map keys and comma-separated
// environment lists decode into their typed config fields.
func decodeOptions() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SOLBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// GetConfigFromFile loads configuration from a file, layered over the
// optional base configuration, with environment variables taking precedence.
func GetConfigFromFile(path string, base *Config) (*Config, error) {
	config := base
	if config == nil {
		config = &Config{}
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	loaded := &Config{}
	if err := v.Unmarshal(loaded, decodeOptions()); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := mergo.Merge(config, loaded, mergo.WithOverride); err != nil {
		return nil, err
	}
	if err := defaults.Set(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GetConfigFromENV builds configuration purely from defaults and SOLBRIDGE_*
// environment variables.
func GetConfigFromENV(base *Config) (*Config, error) {
	config := base
	if config == nil {
		config = &Config{}
	}

	v := newViper()
	loaded := &Config{}
	if err := v.Unmarshal(loaded, decodeOptions()); err != nil {
		return nil, fmt.Errorf("failed to parse environment configuration: %w", err)
	}
	if err := mergo.Merge(config, loaded, mergo.WithOverride); err != nil {
		return nil, err
	}
	if err := defaults.Set(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GetSharedConfigFromNetwork fetches a base configuration shared between
// deployments. Local file and environment values override it.
func GetSharedConfigFromNetwork(url string) (*Config, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shared configuration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d fetching shared configuration", resp.StatusCode)
	}

	config := &Config{}
	if err := json.NewDecoder(resp.Body).Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode shared configuration: %w", err)
	}
	return config, nil
}
