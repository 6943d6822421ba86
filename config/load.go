package config

import (
	"github.com/spf13/viper"

	"github.com/typebridge/typebridge/errors"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("languages", []string{"typescript"})
	v.SetDefault("target_os", []string{})
	v.SetDefault("multi_file", false)
	v.SetDefault("no_version_header", false)
	v.SetDefault("enum_case", "")

	v.SetDefault("typescript.int64_handling", "error")

	v.SetDefault("swift.prefix", "")
	v.SetDefault("swift.default_decorators", []string{})
	v.SetDefault("swift.generic_constraints", []string{"Codable"})

	v.SetDefault("go.package", "")
	v.SetDefault("go.uppercase_acronyms", []string{})
	v.SetDefault("go.no_pointer_slice", false)

	v.SetDefault("java.package", "")
	v.SetDefault("java.prefix", "")
}

// Load reads configuration from the given viper instance.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &cfg, nil
}

// LoadFromFile loads configuration from a specific TOML file path. An empty
// path returns the defaults.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
		}
	}

	return Load(v)
}

// Default returns the built-in defaults without touching the filesystem.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		// defaults always unmarshal
		panic(err)
	}
	return cfg
}
