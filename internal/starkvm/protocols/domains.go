package protocols

import (
	"fmt"

	"github.com/vybium/starkvm/internal/starkvm/core"
)

// DefaultExtensionFactor is the blowup between the trace domain and the LDE
// domain FRI runs over (spec.md §5: parallelism/size knobs).
const DefaultExtensionFactor = 16

// ProverDomains bundles the two domains a STARK proof is built over: the
// trace domain itself and its low-degree-extended blowup (where
// commitments and FRI actually run). The LDE domain is a coset shifted by
// an offset that keeps it disjoint from the trace domain (so no LDE
// evaluation leaks a trace value for free).
type ProverDomains struct {
	Trace *core.Domain
	LDE   *core.Domain
}

// NewProverDomains builds the trace and LDE domains for a trace of the
// given length and extension factor.
func NewProverDomains(traceLength, extensionFactor int) (*ProverDomains, error) {
	if extensionFactor <= 1 || extensionFactor&(extensionFactor-1) != 0 {
		return nil, fmt.Errorf("extension factor must be a power of two > 1, got %d", extensionFactor)
	}
	trace, err := core.NewDomain(traceLength)
	if err != nil {
		return nil, fmt.Errorf("building trace domain: %w", err)
	}
	ldeSize := traceLength * extensionFactor
	ldeBase, err := core.NewDomain(ldeSize)
	if err != nil {
		return nil, fmt.Errorf("building LDE domain: %w", err)
	}
	lde := ldeBase.WithOffset(core.Generator128)
	return &ProverDomains{Trace: trace, LDE: lde}, nil
}

// LowDegreeExtendColumn lifts one trace-domain evaluation column onto the
// LDE domain.
func (d *ProverDomains) LowDegreeExtendColumn(values []*core.FieldElement) ([]*core.FieldElement, error) {
	return core.LowDegreeExtend(d.Trace, values, d.LDE)
}
