package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type options struct {
	envPrefix string
}

type Option func(o *options)

// WithEnvPrefix only lets environment variables starting with prefix_ override the file.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// Load reads file into config, which must be a pointer to a struct. Values
// already set in config act as defaults, the file overrides them, and the
// environment overrides both. Nested keys map to env names with "." replaced
// by "_", e.g. REDIS_STORE_ADDRS. Lists are comma separated.
func Load(file string, config any, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()

	// Every leaf must be a known key, otherwise AutomaticEnv never looks it up.
	if err := setDefaults(v, "", config); err != nil {
		return fmt.Errorf("mapstructure: %w", err)
	}

	v.SetConfigFile(file)
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config from file %s: %w", file, err)
	}

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(config, hook); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	return nil
}

func setDefaults(v *viper.Viper, prefix string, in any) error {
	m := make(map[string]any)
	if err := mapstructure.Decode(in, &m); err != nil {
		return err
	}

	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch reflect.Indirect(reflect.ValueOf(val)).Kind() {
		case reflect.Struct, reflect.Map:
			if err := setDefaults(v, key, val); err != nil {
				return err
			}
		default:
			v.SetDefault(key, val)
		}
	}

	return nil
}
