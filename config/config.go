// Package config defines the light client's on-disk configuration surface,
// read with spf13/viper, capturing the subjective-initialization
// parameters an operator supplies out of band.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/coinexchain/tm-light/light"
)

// Config is the full configuration surface for a light client daemon: the
// core Options, the peer topology, and the subjective-init anchor.
type Config struct {
	ChainID string `mapstructure:"chain-id"`

	// Primary is the peer address the daemon treats as authoritative until
	// it is caught acting faulty.
	Primary string `mapstructure:"primary"`
	// Witnesses cross-check the primary for fork detection. At least one is
	// required once verification is past the initial trusted height.
	Witnesses []string `mapstructure:"witnesses"`

	// TrustingPeriod, ClockDrift, and TrustThresholdNumerator/Denominator
	// populate light.Options.
	TrustingPeriod          time.Duration `mapstructure:"trusting-period"`
	ClockDrift              time.Duration `mapstructure:"clock-drift"`
	TrustThresholdNumerator int64         `mapstructure:"trust-threshold-numerator"`
	TrustThresholdDenom     int64         `mapstructure:"trust-threshold-denominator"`

	// TrustHeight and TrustHash pin the initial trusted block: the
	// weak-subjectivity anchor an operator supplies out of band.
	TrustHeight int64  `mapstructure:"trust-height"`
	TrustHash   []byte `mapstructure:"trust-hash"`

	// Database backend for the persistent light store: "goleveldb" or
	// "memdb".
	DBBackend string `mapstructure:"db-backend"`
	DBDir     string `mapstructure:"db-dir"`
}

// Defaults returns a Config with the default 1/3 trust threshold and a
// conservative trusting period, leaving peer topology and chain identity to
// be filled in by the caller.
func Defaults() Config {
	return Config{
		TrustingPeriod:          168 * time.Hour,
		ClockDrift:              10 * time.Second,
		TrustThresholdNumerator: light.DefaultTrustThreshold.Numerator,
		TrustThresholdDenom:     light.DefaultTrustThreshold.Denominator,
		DBBackend:               "goleveldb",
		DBDir:                   "light-client-db",
	}
}

// Load reads configuration from the given viper instance, which the caller
// is expected to have already pointed at a config file and/or bound to CLI
// flags and environment variables.
func Load(v *viper.Viper) (Config, error) {
	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields required before a Supervisor can be built.
func (c Config) Validate() error {
	if c.ChainID == "" {
		return fmt.Errorf("config: chain-id is required")
	}
	if c.Primary == "" {
		return fmt.Errorf("config: primary is required")
	}
	threshold := light.TrustThreshold{Numerator: c.TrustThresholdNumerator, Denominator: c.TrustThresholdDenom}
	if err := threshold.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.TrustingPeriod <= 0 {
		return fmt.Errorf("config: trusting-period must be positive")
	}
	return nil
}

// Options builds the light.Options this Config describes.
func (c Config) Options() light.Options {
	return light.Options{
		TrustThreshold: light.TrustThreshold{Numerator: c.TrustThresholdNumerator, Denominator: c.TrustThresholdDenom},
		TrustingPeriod: c.TrustingPeriod,
		ClockDrift:     c.ClockDrift,
	}
}
