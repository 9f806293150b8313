package starkvm

import (
	"github.com/vybium/starkvm/internal/starkvm/core"
	"github.com/vybium/starkvm/internal/starkvm/protocols"
	"github.com/vybium/starkvm/internal/starkvm/utils"
)

// Execute runs program to completion over inputs and produces a proof
// of the resulting execution (spec.md §6's execute()). It returns the
// claimed public outputs, the program's digest, and the proof.
func Execute(program *Program, inputs *Inputs, numOutputs int, opts Options) ([]*FieldElement, Digest, *Proof, error) {
	outputs, digest, proof, err := protocols.Execute(program, inputs, numOutputs, opts)
	if err != nil {
		return nil, core.Digest{}, nil, wrapErr(ErrVMExecution, "execution failed", err)
	}
	return outputs, digest, proof, nil
}

// Verify checks proof against the claimed program digest, public
// inputs and outputs (spec.md §6's verify()).
func Verify(digest Digest, publicInputs, claimedOutputs []*FieldElement, proof *Proof, traceLength int, opts Options) (bool, error) {
	ok, err := protocols.Verify(digest, publicInputs, claimedOutputs, proof, traceLength, opts)
	if err != nil {
		return false, wrapErr(ErrProofVerification, "verification failed", err)
	}
	return ok, nil
}

// ExecuteAndProve is a logging-instrumented convenience wrapper around
// Execute, timing the whole call as one stage through the shared zerolog logger
// (spec.md §10's ambient logging requirement).
func ExecuteAndProve(program *Program, inputs *Inputs, cfg *Config) ([]*FieldElement, Digest, *Proof, error) {
	log := utils.NewLogger("prover")
	done := utils.StageTimer(log, "execute_and_prove")
	defer done()

	if err := cfg.Validate(); err != nil {
		return nil, core.Digest{}, nil, wrapErr(ErrInvalidConfig, "invalid config", err)
	}
	return Execute(program, inputs, cfg.NumOutputs, cfg.Options)
}

// VerifyWithLogging is a logging-instrumented convenience wrapper
// around Verify.
func VerifyWithLogging(digest Digest, publicInputs, claimedOutputs []*FieldElement, proof *Proof, traceLength int, cfg *Config) (bool, error) {
	log := utils.NewLogger("verifier")
	done := utils.StageTimer(log, "verify")
	defer done()

	if err := cfg.Validate(); err != nil {
		return false, wrapErr(ErrInvalidConfig, "invalid config", err)
	}
	return Verify(digest, publicInputs, claimedOutputs, proof, traceLength, cfg.Options)
}
