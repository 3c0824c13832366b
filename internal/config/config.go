// Package config loads settings from the XDG config file, BOOKGREP_*
// environment variables and built-in defaults, lowest to highest.
// Command-line flags override all of these at the command layer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseCurrency = "EUR"
	DefaultLookbackDays = 30
	DefaultOutputFormat = "table"
	DefaultCurrencyMode = "auto"
)

// Config is the effective configuration after all layers are merged.
type Config struct {
	Book         string `mapstructure:"book" yaml:"book"`
	BaseCurrency string `mapstructure:"base_currency" yaml:"base_currency"`
	LookbackDays int    `mapstructure:"fx_lookback_days" yaml:"fx_lookback_days"`
	Format       string `mapstructure:"format" yaml:"format"`
	ShowHeader   bool   `mapstructure:"show_header" yaml:"show_header"`
	CurrencyMode string `mapstructure:"currency_mode" yaml:"currency_mode"`
	CachePath    string `mapstructure:"cache_path" yaml:"cache_path"`
	HistoryPath  string `mapstructure:"history_path" yaml:"history_path"`
}

// Load reads the config file at path, or the default XDG location when
// path is empty. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BOOKGREP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_currency", DefaultBaseCurrency)
	v.SetDefault("fx_lookback_days", DefaultLookbackDays)
	v.SetDefault("format", DefaultOutputFormat)
	v.SetDefault("show_header", true)
	v.SetDefault("currency_mode", DefaultCurrencyMode)
	v.SetDefault("history_path", filepath.Join(stateHome(), "bookgrep", "history"))

	// AutomaticEnv alone does not surface env-only keys through Unmarshal.
	for _, key := range []string{"book", "base_currency", "fx_lookback_days",
		"format", "show_header", "currency_mode", "cache_path", "history_path"} {
		_ = v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(configHome(), "bookgrep"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Dump renders the effective configuration as YAML, for doctor output.
func (c Config) Dump() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

func stateHome() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state")
}
