package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Approval ApprovalConfig `mapstructure:"approval"`
	Feed     FeedConfig     `mapstructure:"feed"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// WalletConfig points at the wallet-assistant backend. BaseURL is the single
// process-wide endpoint setting; it is read once at startup and never
// mutated afterwards.
type WalletConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ApprovalConfig carries the user-adjustable evaluation defaults and the
// fallback asset pair substituted when a suggestion omits its legs.
type ApprovalConfig struct {
	SlippageBps    int     `mapstructure:"slippage_bps"`
	GasEstimateUSD float64 `mapstructure:"gas_estimate_usd"`
	AssetFrom      string  `mapstructure:"asset_from"`
	AssetTo        string  `mapstructure:"asset_to"`
}

type FeedConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Poll     string `mapstructure:"poll"`
	PageSize int    `mapstructure:"page_size"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8090")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("wallet.base_url", "http://localhost:8000")
	v.SetDefault("wallet.timeout", "15s")
	v.SetDefault("approval.slippage_bps", 50)
	v.SetDefault("approval.gas_estimate_usd", 1.0)
	v.SetDefault("approval.asset_from", "USDC")
	v.SetDefault("approval.asset_to", "ETH")
	v.SetDefault("feed.enabled", true)
	v.SetDefault("feed.poll", "@every 15s")
	v.SetDefault("feed.page_size", 50)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
