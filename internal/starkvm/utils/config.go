package utils

import (
	"fmt"

	"github.com/vybium/starkvm/internal/starkvm/protocols"
)

// Config is the user-facing configuration surface, mirroring the
// teacher's Config/DefaultConfig/WithX builder pattern but wrapping
// protocols.Options instead of duplicating its fields.
type Config struct {
	Options      protocols.Options
	NumOutputs   int
	HashFunction string // informational only: this VM always uses the sponge permutation in core
}

// DefaultConfig returns a configuration suitable for the examples in
// spec.md §8: 48 FRI queries, extension factor 16, grinding factor 16.
func DefaultConfig() *Config {
	return &Config{
		Options:      protocols.DefaultOptions(),
		NumOutputs:   1,
		HashFunction: "sponge",
	}
}

// Validate checks that the configuration can produce a sound proof.
func (c *Config) Validate() error {
	if c.Options.ExtensionFactor < 2 {
		return fmt.Errorf("extension factor must be at least 2, got %d", c.Options.ExtensionFactor)
	}
	if c.Options.NumQueries <= 0 {
		return fmt.Errorf("number of FRI queries must be positive, got %d", c.Options.NumQueries)
	}
	if c.NumOutputs <= 0 {
		return fmt.Errorf("number of outputs must be positive, got %d", c.NumOutputs)
	}
	return nil
}

// WithExtensionFactor sets the low-degree-extension blowup factor.
func (c *Config) WithExtensionFactor(factor int) *Config {
	c.Options.ExtensionFactor = factor
	return c
}

// WithNumQueries sets the number of FRI query positions.
func (c *Config) WithNumQueries(queries int) *Config {
	c.Options.NumQueries = queries
	return c
}

// WithGrindingFactor sets the proof-of-work grinding difficulty.
func (c *Config) WithGrindingFactor(factor int) *Config {
	c.Options.GrindingFactor = factor
	return c
}

// WithNumOutputs sets how many stack cells the execution reads as the
// claimed public output.
func (c *Config) WithNumOutputs(n int) *Config {
	c.NumOutputs = n
	return c
}
