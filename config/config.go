// Package config loads the station configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gr-butler/hydrostation/archive"
	"github.com/gr-butler/hydrostation/broker"
	"github.com/gr-butler/hydrostation/env"
	"github.com/gr-butler/hydrostation/network"
	"github.com/gr-butler/hydrostation/retry"
	"github.com/gr-butler/hydrostation/station"
	"gopkg.in/yaml.v3"
)

const (
	fileName = "hydrostation.yaml"

	LinkNMCLI  = "nmcli"
	LinkStatic = "static"
)

// DefaultSearchPaths returns the config file search order:
// ./hydrostation.yaml, ~/.config/hydrostation/hydrostation.yaml,
// /etc/hydrostation/hydrostation.yaml.
func DefaultSearchPaths() []string {
	paths := []string{fileName}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "hydrostation", fileName))
	}
	return append(paths, filepath.Join("/etc", "hydrostation", fileName))
}

// FindConfig returns explicit if it exists, otherwise the first file found
// on the search path.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}
	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

type Config struct {
	Station   string `yaml:"station"`
	TopicRoot string `yaml:"topic_root"`
	LogLevel  string `yaml:"log_level"`

	Network    NetworkConfig    `yaml:"network"`
	Broker     BrokerConfig     `yaml:"broker"`
	Pins       PinsConfig       `yaml:"pins"`
	I2C        I2CConfig        `yaml:"i2c"`
	Hygrometer HygrometerConfig `yaml:"hygrometer"`

	Rain     station.RainSettings     `yaml:"rain"`
	Drainage station.DrainageSettings `yaml:"drainage"`

	HTTP    HTTPConfig     `yaml:"http"`
	Archive archive.Config `yaml:"archive"`
	WOW     WOWConfig      `yaml:"wow"`
}

type NetworkConfig struct {
	Driver      string               `yaml:"driver"`
	Interface   string               `yaml:"interface"`
	Credentials []network.Credential `yaml:"credentials"`
	Timeout     time.Duration        `yaml:"timeout"`
	Retry       retry.Policy         `yaml:"retry"`
}

type BrokerConfig struct {
	broker.Config `yaml:",inline"`
	Retry         retry.Policy `yaml:"retry"`
}

type PinsConfig struct {
	LinkLed    string `yaml:"link_led"`
	BrokerLed  string `yaml:"broker_led"`
	TipSensor  string `yaml:"tip_sensor"`
	RangerTrig string `yaml:"ranger_trigger"`
	RangerEcho string `yaml:"ranger_echo"`
}

type I2CConfig struct {
	Bus        string `yaml:"bus"`
	BMP280Addr uint16 `yaml:"bmp280_addr"`
	Samples    int    `yaml:"samples"`
}

type HygrometerConfig struct {
	Path string `yaml:"path"`
}

type HTTPConfig struct {
	// Listen is the address of the web endpoint, empty to disable it.
	Listen string `yaml:"listen"`
}

// WOWConfig controls the Met Office WOW upload of rain gauge readings.
type WOWConfig struct {
	Enabled bool          `yaml:"enabled"`
	SiteID  string        `yaml:"site_id"`
	AuthKey string        `yaml:"auth_key"`
	Every   time.Duration `yaml:"every"`
	// Elevation of the barometer above sea level in m, for the sea level
	// pressure correction.
	Elevation float64 `yaml:"elevation_m"`
}

// Default returns the configuration of a station of the given kind with
// nothing but the broker host and wireless credentials left to fill in.
func Default(kind string) *Config {
	cfg := defaults(kind)
	cfg.derive()
	return cfg
}

func defaults(kind string) *Config {
	return &Config{
		Station:   kind,
		TopicRoot: env.TopicRoot,
		LogLevel:  "info",
		Network: NetworkConfig{
			Driver:  LinkNMCLI,
			Timeout: env.LinkTimeout,
			Retry:   retry.Forever(0),
		},
		Broker: BrokerConfig{
			Config: broker.Config{
				Port:           env.BrokerPort,
				TLS:            true,
				ConnectTimeout: 30 * time.Second,
				KeepAlive:      15 * time.Second,
			},
			Retry: retry.Forever(env.BrokerRetryWait),
		},
		Pins: PinsConfig{
			LinkLed:    env.LinkLed,
			BrokerLed:  env.BrokerLed,
			TipSensor:  env.TipSensor,
			RangerTrig: env.RangerTrig,
			RangerEcho: env.RangerEcho,
		},
		I2C: I2CConfig{
			BMP280Addr: env.BMP280_I2C,
			Samples:    env.EnvSampleCount,
		},
		Hygrometer: HygrometerConfig{Path: env.HygrometerPath},
		Rain:       station.DefaultRainSettings(),
		Drainage:   station.DefaultDrainageSettings(),
		HTTP:       HTTPConfig{Listen: ":80"},
		Archive:    archive.Config{Table: archive.DefaultTable},
		WOW: WOWConfig{
			SiteID:  os.Getenv("WOWSITEID"),
			AuthKey: os.Getenv("WOWPIN"),
			Every:   env.ReportFreqMin * time.Minute,
		},
	}
}

// derive fills the values that depend on other settings.
func (c *Config) derive() {
	if c.Broker.ClientID == "" {
		c.Broker.ClientID = ClientID(c.Station, c.Drainage.Unit)
	}
}

// ClientID is the broker client identifier of a station.
func ClientID(kind string, unit int) string {
	if kind == env.StationDrainage {
		return fmt.Sprintf("espKant-%d", unit)
	}
	return "espKant-Pluviometro"
}

// Name is the station segment of its topics.
func (c *Config) Name() string {
	if c.Station == env.StationDrainage {
		return fmt.Sprintf("%s-%d", env.DrainageBaseName, c.Drainage.Unit)
	}
	return env.RainStationName
}

// Topics builds the topic set of the configured station.
func (c *Config) Topics() station.Topics {
	if c.Station == env.StationDrainage {
		return station.DrainageTopics(c.TopicRoot, env.DrainageBaseName, c.Drainage.Unit)
	}
	return station.RainTopics(c.TopicRoot, env.RainStationName)
}

// Load reads path, expanding environment variables, over the defaults for
// the station kind it names. A non-empty kind overrides the file.
func Load(path string, kind string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expanded := []byte(os.ExpandEnv(string(data)))

	if kind == "" {
		var probe struct {
			Station string `yaml:"station"`
		}
		if err := yaml.Unmarshal(expanded, &probe); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		kind = probe.Station
	}
	if kind == "" {
		kind = env.StationRain
	}

	cfg := defaults(kind)
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Station = kind
	cfg.derive()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Station {
	case env.StationRain:
		if c.Rain.Window <= 0 || c.Rain.Window > c.Rain.Interval {
			return fmt.Errorf("rain window %v must be positive and within the %v interval", c.Rain.Window, c.Rain.Interval)
		}
		if c.Rain.CollectorArea <= 0 {
			return fmt.Errorf("rain collector area must be positive")
		}
	case env.StationDrainage:
		if c.Drainage.Unit < 1 {
			return fmt.Errorf("drainage unit must be 1 or more, got %d", c.Drainage.Unit)
		}
		if c.Drainage.Interval <= 0 || c.Drainage.Radius <= 0 {
			return fmt.Errorf("drainage interval and radius must be positive")
		}
	default:
		return fmt.Errorf("unknown station %q (want %s or %s)", c.Station, env.StationRain, env.StationDrainage)
	}

	switch c.Network.Driver {
	case LinkStatic:
	case LinkNMCLI:
		if n := len(c.Network.Credentials); n == 0 || n > network.MaxCredentials {
			return fmt.Errorf("between 1 and %d wireless credentials required, got %d", network.MaxCredentials, n)
		}
	default:
		return fmt.Errorf("unknown network driver %q", c.Network.Driver)
	}

	if c.Broker.Host == "" {
		return fmt.Errorf("broker host is required")
	}

	switch c.Archive.Driver {
	case archive.DriverNone, archive.DriverPostgres, archive.DriverInflux:
	default:
		return fmt.Errorf("unknown archive driver %q", c.Archive.Driver)
	}

	if c.WOW.Enabled && (c.WOW.SiteID == "" || c.WOW.AuthKey == "") {
		return fmt.Errorf("wow upload needs site_id and auth_key (WOWSITEID and WOWPIN)")
	}
	return nil
}
