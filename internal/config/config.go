package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. TECHBRIDGE_HTTP_PORT.
const EnvPrefix = "TECHBRIDGE"

type Options struct {
	// File is the YAML config file. Empty means env and defaults only.
	File string
	// DotEnv files are loaded into the environment when they exist.
	DotEnv []string
}

// Load config from file and environment into the config struct, config must be a pointer to
// the config struct already holding the defaults.
func Load(o Options, config any) error {
	for _, f := range o.DotEnv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %v", f, err)
		}
	}

	v := viper.New()
	m := make(map[string]any)

	if err := mapstructure.Decode(config, &m); err != nil {
		return fmt.Errorf("mapstructure: %v", err)
	}

	if err := v.MergeConfigMap(m); err != nil {
		return fmt.Errorf("merge config map: %v", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.File != "" {
		v.SetConfigFile(o.File)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("read config from file %s: %v", o.File, err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("unmarshal config: %v", err)
	}

	return nil
}
