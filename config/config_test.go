package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/coinexchain/tm-light/light"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, light.DefaultTrustThreshold.Numerator, cfg.TrustThresholdNumerator)
	require.Equal(t, light.DefaultTrustThreshold.Denominator, cfg.TrustThresholdDenom)
	require.Equal(t, 168*time.Hour, cfg.TrustingPeriod)
	require.Equal(t, "goleveldb", cfg.DBBackend)
}

func TestValidate_RequiresChainIDAndPrimary(t *testing.T) {
	cfg := Defaults()
	require.Error(t, cfg.Validate(), "missing chain-id and primary")

	cfg.ChainID = "test-chain"
	require.Error(t, cfg.Validate(), "still missing primary")

	cfg.Primary = "tcp://node:26657"
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadTrustThreshold(t *testing.T) {
	cfg := Defaults()
	cfg.ChainID = "test-chain"
	cfg.Primary = "tcp://node:26657"

	cfg.TrustThresholdNumerator = 2
	cfg.TrustThresholdDenom = 1 // > 1, invalid
	require.Error(t, cfg.Validate())
}

func TestValidate_RejectsNonPositiveTrustingPeriod(t *testing.T) {
	cfg := Defaults()
	cfg.ChainID = "test-chain"
	cfg.Primary = "tcp://node:26657"
	cfg.TrustingPeriod = 0

	require.Error(t, cfg.Validate())
}

func TestOptions_ReflectsConfiguredThreshold(t *testing.T) {
	cfg := Defaults()
	cfg.TrustThresholdNumerator = 2
	cfg.TrustThresholdDenom = 3
	cfg.TrustingPeriod = time.Hour
	cfg.ClockDrift = 5 * time.Second

	opts := cfg.Options()
	require.Equal(t, light.TrustThreshold{Numerator: 2, Denominator: 3}, opts.TrustThreshold)
	require.Equal(t, time.Hour, opts.TrustingPeriod)
	require.Equal(t, 5*time.Second, opts.ClockDrift)
}

func TestLoad_UnmarshalsAndValidates(t *testing.T) {
	v := viper.New()
	v.Set("chain-id", "test-chain")
	v.Set("primary", "tcp://node1:26657")
	v.Set("witnesses", []string{"tcp://node2:26657", "tcp://node3:26657"})
	v.Set("trust-height", int64(100))

	cfg, err := Load(v)
	require.NoError(t, err)
	require.Equal(t, "test-chain", cfg.ChainID)
	require.Equal(t, []string{"tcp://node2:26657", "tcp://node3:26657"}, cfg.Witnesses)
	require.Equal(t, int64(100), cfg.TrustHeight)
	// Fields left unset by the viper instance still carry Defaults().
	require.Equal(t, 168*time.Hour, cfg.TrustingPeriod)
}

func TestLoad_FailsValidationWithoutChainID(t *testing.T) {
	v := viper.New()
	v.Set("primary", "tcp://node1:26657")

	_, err := Load(v)
	require.Error(t, err)
}
