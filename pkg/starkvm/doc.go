// Package starkvm provides a zkSTARK prover and verifier for a small
// stack-based virtual machine.
//
// # Features
//
//   - Complete zkSTARK prover and verifier over a 128-bit prime field
//   - A 30-instruction stack machine with a sponge-based hash opcode
//   - FRI-based low-degree testing of the DEEP composition polynomial
//   - Fiat-Shamir transcripts binding program digest, public inputs and
//     claimed outputs before any out-of-domain challenge is derived
//
// # Quick start
//
// Proving a program's execution:
//
//	program, _ := starkvm.NewProgram(elements)
//	inputs := starkvm.NewInputs(publicInputs, secretA, secretB)
//	outputs, digest, proof, err := starkvm.Execute(program, inputs, 1, starkvm.DefaultOptions())
//
// Verifying a proof:
//
//	ok, err := starkvm.Verify(digest, publicInputs, outputs, proof, program.Len(), starkvm.DefaultOptions())
package starkvm
