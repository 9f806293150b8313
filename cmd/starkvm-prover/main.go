// Command starkvm-prover proves and verifies executions of starkvm
// programs from the command line.
//
// Usage:
//
//	starkvm-prover prove <program.json> <inputs.json> <num_outputs> <proof.json>
//	starkvm-prover verify <proof.json> <program.json> <inputs.json>
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/vybium/starkvm/internal/starkvm/core"
	"github.com/vybium/starkvm/internal/starkvm/utils"
	"github.com/vybium/starkvm/pkg/starkvm"
)

// programFile is the on-disk JSON shape for a program: a flat list of
// decimal field-element strings (opcodes and PUSH immediates alike).
type programFile struct {
	Elements []string `json:"elements"`
}

// inputsFile is the on-disk JSON shape for a program's inputs.
type inputsFile struct {
	Public  []string `json:"public"`
	SecretA []string `json:"secret_a"`
	SecretB []string `json:"secret_b"`
}

// proofFile is the on-disk JSON encoding of a Proof plus enough
// bookkeeping (digest, outputs) for a later `verify` invocation to not
// need to re-execute the program.
type proofFile struct {
	Digest  string   `json:"digest_hex"`
	Outputs []string `json:"outputs"`
	Proof   string   `json:"proof_hex"`
}

func main() {
	if len(os.Args) < 2 {
		fatal("usage: starkvm-prover <prove|verify> ...")
	}

	log := utils.NewLogger("cli")

	switch os.Args[1] {
	case "prove":
		if len(os.Args) != 6 {
			fatal("usage: starkvm-prover prove <program.json> <inputs.json> <num_outputs> <proof.json>")
		}
		runProve(log, os.Args[2], os.Args[3], os.Args[4], os.Args[5])
	case "verify":
		if len(os.Args) != 5 {
			fatal("usage: starkvm-prover verify <proof.json> <program.json> <inputs.json>")
		}
		runVerify(log, os.Args[2], os.Args[3], os.Args[4])
	default:
		fatal(fmt.Sprintf("unknown subcommand %q", os.Args[1]))
	}
}

func runProve(log zerolog.Logger, programPath, inputsPath, numOutputsArg, proofPath string) {
	done := utils.StageTimer(log, "prove")
	defer done()

	program, err := loadProgram(programPath)
	if err != nil {
		fatal(err.Error())
	}
	inputs, _, err := loadInputs(inputsPath)
	if err != nil {
		fatal(err.Error())
	}
	numOutputs := parseInt(numOutputsArg, "num_outputs")

	outputs, digest, proof, err := starkvm.Execute(program, inputs, numOutputs, starkvm.DefaultOptions())
	if err != nil {
		fatal(fmt.Sprintf("execution failed: %v", err))
	}

	proofBytes, err := proof.MarshalBinary()
	if err != nil {
		fatal(fmt.Sprintf("marshaling proof: %v", err))
	}

	out := proofFile{
		Digest:  hex.EncodeToString(digest.Bytes()),
		Outputs: writeElements(outputs),
		Proof:   hex.EncodeToString(proofBytes),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fatal(fmt.Sprintf("serializing proof file: %v", err))
	}
	if err := os.WriteFile(proofPath, data, 0o644); err != nil {
		fatal(fmt.Sprintf("writing proof file: %v", err))
	}
	log.Info().Strs("outputs", out.Outputs).Msg("proof written")
}

func runVerify(log zerolog.Logger, proofPath, programPath, inputsPath string) {
	done := utils.StageTimer(log, "verify")
	defer done()

	data, err := os.ReadFile(proofPath)
	if err != nil {
		fatal(fmt.Sprintf("reading proof file: %v", err))
	}
	var pf proofFile
	if err := json.Unmarshal(data, &pf); err != nil {
		fatal(fmt.Sprintf("parsing proof file: %v", err))
	}

	digestBytes, err := hex.DecodeString(pf.Digest)
	if err != nil {
		fatal(fmt.Sprintf("invalid digest hex: %v", err))
	}
	digest, err := core.DigestFromBytes(digestBytes)
	if err != nil {
		fatal(fmt.Sprintf("decoding digest: %v", err))
	}
	outputs, err := parseElements(pf.Outputs)
	if err != nil {
		fatal(err.Error())
	}
	proofBytes, err := hex.DecodeString(pf.Proof)
	if err != nil {
		fatal(fmt.Sprintf("invalid proof hex: %v", err))
	}
	proof := &starkvm.Proof{}
	if err := proof.UnmarshalBinary(proofBytes); err != nil {
		fatal(fmt.Sprintf("decoding proof: %v", err))
	}

	program, err := loadProgram(programPath)
	if err != nil {
		fatal(err.Error())
	}
	_, publicStrings, err := loadInputs(inputsPath)
	if err != nil {
		fatal(err.Error())
	}
	publicInputs, err := parseElements(publicStrings)
	if err != nil {
		fatal(err.Error())
	}

	ok, err := starkvm.Verify(digest, publicInputs, outputs, proof, program.Len(), starkvm.DefaultOptions())
	if err != nil {
		log.Error().Err(err).Msg("verification failed")
		fmt.Println("INVALID:", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Println("INVALID")
		os.Exit(1)
	}
	fmt.Println("VALID")
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "starkvm-prover: error:", msg)
	os.Exit(1)
}

func loadProgram(path string) (*starkvm.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program file: %w", err)
	}
	var pf programFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing program file: %w", err)
	}
	elements, err := parseElements(pf.Elements)
	if err != nil {
		return nil, err
	}
	return starkvm.NewProgram(elements)
}

func loadInputs(path string) (*starkvm.Inputs, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading inputs file: %w", err)
	}
	var f inputsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parsing inputs file: %w", err)
	}
	public, err := parseElements(f.Public)
	if err != nil {
		return nil, nil, err
	}
	secretA, err := parseElements(f.SecretA)
	if err != nil {
		return nil, nil, err
	}
	secretB, err := parseElements(f.SecretB)
	if err != nil {
		return nil, nil, err
	}
	return starkvm.NewInputs(public, secretA, secretB), f.Public, nil
}

func parseElements(values []string) ([]*starkvm.FieldElement, error) {
	out := make([]*starkvm.FieldElement, len(values))
	for i, v := range values {
		n := new(big.Int)
		if _, ok := n.SetString(v, 10); !ok {
			return nil, fmt.Errorf("invalid field element %q at index %d", v, i)
		}
		out[i] = core.F128.NewElement(n)
	}
	return out, nil
}

func writeElements(elements []*starkvm.FieldElement) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = e.Big().String()
	}
	return out
}

func parseInt(s, what string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		fatal(fmt.Sprintf("invalid %s %q: %v", what, s, err))
	}
	return n
}
