package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read into Config.
// INSIGHTQ_REGISTRY sets registry, INSIGHTQ_WORKERS sets workers.
const EnvPrefix = "INSIGHTQ_"

// DefaultWorkers is the validate worker pool size when nothing else is set.
const DefaultWorkers = 4

// Config holds defaults for command flags. Flags given on the command line
// always win.
type Config struct {
	Registry string `mapstructure:"registry"`
	Catalog  string `mapstructure:"catalog"`
	Workers  int    `mapstructure:"workers"`
}

// LoadConfig reads the optional config file at path (any format viper
// understands) and then overlays EnvPrefix variables from environ.
// An empty path skips the file; a path that cannot be read is an error.
func LoadConfig(path string, environ []string) (Config, error) {
	v := viper.New()
	v.SetDefault("workers", DefaultWorkers)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		// INSIGHTQ_REGISTRY -> registry
		prop := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if prop == "" {
			continue
		}
		v.Set(prop, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Workers < 1 {
		return Config{}, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	return cfg, nil
}
