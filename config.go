package celestium

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigEnv is the environment variable holding the directory of the configuration file.
const ConfigEnv = "CELESTIUM_CONFIG"

// Config is the configuration of the engine.
type Config struct {
	EphemerisSource  string
	EphemerisTimeout time.Duration
	HorizonsURL      string
	OutputDir        string
	Vehicles         []Vehicle // added to the built-in catalog
}

// NewViper returns a viper instance with the defaults set and the configuration file read, if any.
// The file is either the one provided or `conf.{toml,yaml,...}` in the $CELESTIUM_CONFIG directory.
// A missing file is not an error; a malformed one is.
func NewViper(file string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("ephemeris.source", SourceMeeus)
	v.SetDefault("ephemeris.timeout", DefaultLookupTimeout)
	v.SetDefault("horizons.url", DefaultHorizonsURL)
	v.SetDefault("output.directory", ".")
	v.SetEnvPrefix("celestium")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		confPath := os.Getenv(ConfigEnv)
		if confPath == "" {
			return v, nil
		}
		v.SetConfigName("conf")
		v.AddConfigPath(confPath)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	return v, nil
}

// LoadConfig reads the configuration from viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	conf := Config{
		EphemerisSource:  strings.ToLower(v.GetString("ephemeris.source")),
		EphemerisTimeout: v.GetDuration("ephemeris.timeout"),
		HorizonsURL:      v.GetString("horizons.url"),
		OutputDir:        v.GetString("output.directory"),
	}
	if conf.EphemerisTimeout <= 0 {
		return Config{}, fmt.Errorf("ephemeris.timeout must be positive, got %s", conf.EphemerisTimeout)
	}
	switch conf.EphemerisSource {
	case SourceMeeus, SourceHorizons, SourceCircular:
	default:
		return Config{}, fmt.Errorf("unknown ephemeris source '%s'", conf.EphemerisSource)
	}
	if err := v.UnmarshalKey("vehicles", &conf.Vehicles); err != nil {
		return Config{}, fmt.Errorf("reading vehicles: %w", err)
	}
	return conf, nil
}

// Ephemeris returns the configured ephemeris.
func (c Config) Ephemeris() (Ephemeris, error) {
	return NewEphemeris(c.EphemerisSource, c.HorizonsURL, c.EphemerisTimeout)
}

// Registry returns the built-in catalog extended with the configured vehicles.
func (c Config) Registry() (*VehicleRegistry, error) {
	return NewVehicleRegistry(append(DefaultVehicles(), c.Vehicles...)...)
}
