// Package config assembles the process configuration from file, environment,
// and defaults. The result is an explicit struct built once at startup and
// passed into the components that need it; nothing reads ambient settings
// after Load returns.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HerbHall/fortimap/internal/fortigate"
	"github.com/HerbHall/fortimap/internal/probe"
)

// OutputConfig names the files the one-shot discovery writes.
type OutputConfig struct {
	TopologyFile string `mapstructure:"topology_file"`
	BabylonFile  string `mapstructure:"babylon_file"`
}

// PollConfig controls the service-mode rebuild loop.
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// ServerConfig holds the HTTP listener settings for service mode.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// SnapshotConfig controls topology snapshot persistence.
type SnapshotConfig struct {
	Path string `mapstructure:"path"`
	Keep int    `mapstructure:"keep"`
}

// Config is the complete process configuration.
type Config struct {
	Fortigate fortigate.Config `mapstructure:"fortigate"`
	Probe     probe.Config     `mapstructure:"probe"`
	Output    OutputConfig     `mapstructure:"output"`
	Poll      PollConfig       `mapstructure:"poll"`
	Server    ServerConfig     `mapstructure:"server"`
	Snapshots SnapshotConfig   `mapstructure:"snapshots"`

	// CatalogFile optionally overrides the embedded appearance catalog.
	CatalogFile string `mapstructure:"catalog_file"`
}

// Load reads configuration with the precedence: defaults, then config file,
// then FORTIMAP_* environment variables. Flags are applied by the caller on
// top of the returned struct. An explicit path must exist; the implicit
// ./fortimap.yaml is optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FORTIMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		v.SetConfigName("fortimap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the settings required to reach an appliance are set.
func (c *Config) Validate() error {
	if c.Fortigate.Host == "" {
		return errors.New("fortigate.host is required")
	}
	if c.Fortigate.APIToken == "" && c.Fortigate.Username == "" {
		return errors.New("fortigate.api_token or fortigate.username is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Empty-string defaults keep these keys visible to Unmarshal so that
	// AutomaticEnv overrides apply even without a config file.
	v.SetDefault("fortigate.host", "")
	v.SetDefault("fortigate.api_token", "")
	v.SetDefault("fortigate.username", "")
	v.SetDefault("fortigate.password", "")
	v.SetDefault("catalog_file", "")

	v.SetDefault("fortigate.port", 443)
	v.SetDefault("fortigate.verify_ssl", false)
	v.SetDefault("fortigate.timeout", "30s")
	v.SetDefault("fortigate.requests_per_second", 10)

	v.SetDefault("probe.enabled", false)
	v.SetDefault("probe.timeout", "5s")
	v.SetDefault("probe.count", 3)

	v.SetDefault("output.topology_file", "fortinet_topology.json")
	v.SetDefault("output.babylon_file", "babylon_topology.json")

	v.SetDefault("poll.interval", "300s")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("snapshots.path", "fortimap.db")
	v.SetDefault("snapshots.keep", 50)
}
