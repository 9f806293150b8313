package starkvm

import (
	"github.com/vybium/starkvm/internal/starkvm/core"
	"github.com/vybium/starkvm/internal/starkvm/protocols"
	"github.com/vybium/starkvm/internal/starkvm/utils"
	"github.com/vybium/starkvm/internal/starkvm/vm"
)

// FieldElement is an element of the VM's 128-bit prime field.
type FieldElement = core.FieldElement

// Digest is a sponge hash output, used for program digests (Merkle roots
// are plain byte slices).
type Digest = core.Digest

// Program is a validated, power-of-two-length bytecode program.
type Program = vm.Program

// Inputs bundles a program's public input tape and its two secret input
// tapes (consumed by the READ, READ2 and CMP opcodes).
type Inputs = vm.Inputs

// Proof is everything a verifier needs besides the public digest,
// inputs and claimed outputs.
type Proof = protocols.Proof

// Options controls the prover/verifier's security and performance
// tradeoffs: extension factor, FRI query count, grinding factor.
type Options = protocols.Options

// Config is the builder-style configuration wrapping Options.
type Config = utils.Config

// NewProgram validates and wraps a raw element slice as a Program.
func NewProgram(elements []*FieldElement) (*Program, error) {
	p, err := vm.NewProgram(elements)
	if err != nil {
		return nil, wrapErr(ErrProgramMalformed, "invalid program", err)
	}
	return p, nil
}

// NewInputs builds an Inputs from a public input tape and two secret
// bit streams.
func NewInputs(public, secretA, secretB []*FieldElement) *Inputs {
	return vm.NewInputs(public, secretA, secretB)
}

// DefaultOptions returns the security/performance defaults used by
// spec.md §8's worked examples.
func DefaultOptions() Options {
	return protocols.DefaultOptions()
}

// DefaultConfig returns the builder-style default configuration.
func DefaultConfig() *Config {
	return utils.DefaultConfig()
}
