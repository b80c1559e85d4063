package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/rewindnet/rewind/src/common"
	"github.com/sirupsen/logrus"
)

// capacityMargin is the minimum ratio between the ledger capacity and the
// prediction window. A slot must never be recycled while its frame can still
// be rolled back to or reported.
const capacityMargin = 8

// Config holds the session parameters.
type Config struct {
	// FPS is the fixed simulation rate in frames per second.
	FPS int `mapstructure:"fps"`

	// MaxPrediction is the maximum number of frames a peer may simulate ahead
	// of the confirmed horizon.
	MaxPrediction int `mapstructure:"max-prediction"`

	// LedgerCapacity is the number of slots in each fingerprint ledger. It
	// must be at least capacityMargin times MaxPrediction.
	LedgerCapacity int `mapstructure:"ledger-capacity"`

	// WarmupFrames is the number of initial frames during which the physics
	// simulation is kept inactive while peers settle.
	WarmupFrames int `mapstructure:"warmup-frames"`

	Logger *logrus.Logger
}

// NewConfig returns a session Config with the given parameters.
func NewConfig(fps, maxPrediction, ledgerCapacity, warmupFrames int, logger *logrus.Logger) *Config {
	return &Config{
		FPS:            fps,
		MaxPrediction:  maxPrediction,
		LedgerCapacity: ledgerCapacity,
		WarmupFrames:   warmupFrames,
		Logger:         logger,
	}
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		FPS:            60,
		MaxPrediction:  8,
		LedgerCapacity: 128,
		WarmupFrames:   120,
		Logger:         logger,
	}
}

// TestConfig returns a session configuration for tests, with logs routed
// through the test runner.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.Logger = common.NewTestLogger(t, common.TestLogLevel)
	return config
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, not %d", c.FPS)
	}
	if c.MaxPrediction < 0 {
		return fmt.Errorf("max-prediction must not be negative")
	}
	if c.LedgerCapacity < capacityMargin*c.MaxPrediction || c.LedgerCapacity <= 0 {
		return fmt.Errorf("ledger-capacity must be at least %d times max-prediction",
			capacityMargin)
	}
	if c.WarmupFrames < 0 {
		return fmt.Errorf("warmup-frames must not be negative")
	}
	return nil
}

// TickInterval returns the duration of one frame at the configured rate.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}
