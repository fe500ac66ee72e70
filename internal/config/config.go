// Package config loads the xfiledump CLI's configuration via viper: defaults,
// an optional config file, and environment variable overrides, adapted from
// the teacher's AppConfig/Initialize/sync.Once pattern.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name used for config files and directories.
	AppName = "xfiledump"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "XFILEDUMP"
)

// AppConfig holds the application configuration.
type AppConfig struct {
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`

	// Decode settings. Only AllowNonPCPlatform is read (by the decode
	// command, with no flag to override it); strict mode comes from the
	// --strict flag alone, and the string cap is strpool.MaxStringLen, so
	// StrictUnknownKinds and MaxStringLen here have no effect.
	Decode struct {
		StrictUnknownKinds  bool `mapstructure:"strict_unknown_kinds"`
		AllowNonPCPlatform  bool `mapstructure:"allow_non_pc_platform"`
		MaxStringLen        int  `mapstructure:"max_string_len"`
	} `mapstructure:"decode"`
}

var (
	// Instance is the global configuration instance.
	Instance AppConfig

	// ConfigLoaded reports whether a config file was found and read.
	ConfigLoaded bool
	// ConfigFile is the path of the config file actually used, if any.
	ConfigFile string

	v *viper.Viper

	initOnce sync.Once
)

// Initialize sets up the configuration system. Safe to call more than once;
// only the first call takes effect.
func Initialize(cfgFile string) error {
	var err error

	initOnce.Do(func() {
		v = viper.New()

		setDefaults(v)

		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
		} else {
			v.SetConfigName(AppName)
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
			if home, homeErr := os.UserHomeDir(); homeErr == nil {
				v.AddConfigPath(home)
			}
		}

		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()

		if readErr := v.ReadInConfig(); readErr != nil {
			if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
				err = fmt.Errorf("error reading config file: %w", readErr)
				return
			}
			ConfigLoaded = false
			ConfigFile = ""
		} else {
			ConfigLoaded = true
			ConfigFile = v.ConfigFileUsed()
		}

		if unmarshalErr := v.Unmarshal(&Instance); unmarshalErr != nil {
			err = fmt.Errorf("error parsing config: %w", unmarshalErr)
		}
	})

	return err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("log_format", "human")
	v.SetDefault("log_file", "")

	v.SetDefault("decode.strict_unknown_kinds", false)
	v.SetDefault("decode.allow_non_pc_platform", true)
	v.SetDefault("decode.max_string_len", 64*1024)
}
