package protocols

import (
	"encoding/binary"
	"fmt"

	"github.com/vybium/starkvm/internal/starkvm/core"
)

// ProofSchemaVersion guards against decoding a proof produced by an
// incompatible future wire format.
const ProofSchemaVersion = 2

// TraceOpening is one FRI query position's raw, unweighted trace columns
// (spec.md §3/§6: "Merkle roots of trace LDE ... per-layer query
// openings"), opened both at the queried LDE index and at the index one
// trace step ahead, so the verifier can reconstruct cur/next air.Rows and
// independently recompute boundary and transition residuals instead of
// trusting the Merkle-committed trace root as an inert label.
type TraceOpening struct {
	Index      int
	NextIndex  int
	CurValues  []*core.FieldElement
	CurPath    *core.AuthPath
	NextValues []*core.FieldElement
	NextPath   *core.AuthPath
}

// Proof is everything the verifier needs besides the public program
// digest, inputs and claimed outputs: the prover's commitments, its
// out-of-domain evaluations, the per-query trace openings, and the FRI
// sub-proof for the composed polynomial. ConstraintRoot is the root of
// the composed (constraint-carrying) codeword's first FRI layer —
// FRI's layer-0 commitment already commits to the fully-composed
// polynomial, so this field names that same root for clarity rather than
// re-committing it.
type Proof struct {
	TraceRoot      []byte
	ConstraintRoot []byte
	OodZ           *core.FieldElement
	OodCur         []*core.FieldElement
	OodNext        []*core.FieldElement
	TraceOpenings  []TraceOpening
	FRI            *FRIProof
	GrindingNonce  uint64
}

// MarshalBinary encodes the proof as a flat, length-prefixed byte stream.
func (p *Proof) MarshalBinary() ([]byte, error) {
	var buf []byte
	buf = appendUint32(buf, ProofSchemaVersion)
	buf = appendBytes(buf, p.TraceRoot)
	buf = appendBytes(buf, p.ConstraintRoot)
	buf = appendBytes(buf, p.OodZ.Bytes())
	buf = appendElements(buf, p.OodCur)
	buf = appendElements(buf, p.OodNext)
	buf = appendUint64(buf, p.GrindingNonce)

	buf = appendUint32(buf, uint32(len(p.TraceOpenings)))
	for _, o := range p.TraceOpenings {
		buf = appendUint32(buf, uint32(o.Index))
		buf = appendUint32(buf, uint32(o.NextIndex))
		buf = appendElements(buf, o.CurValues)
		buf = appendAuthPath(buf, o.CurPath)
		buf = appendElements(buf, o.NextValues)
		buf = appendAuthPath(buf, o.NextPath)
	}

	buf = appendUint32(buf, uint32(len(p.FRI.Roots)))
	for _, r := range p.FRI.Roots {
		buf = appendBytes(buf, r)
	}
	finalCoeffs := p.FRI.FinalPoly.Coefficients()
	buf = appendElements(buf, finalCoeffs)
	buf = appendUint32(buf, uint32(len(p.FRI.QueryOpenings)))
	for _, layer := range p.FRI.QueryOpenings {
		buf = appendUint32(buf, uint32(len(layer)))
		for _, o := range layer {
			buf = appendUint32(buf, uint32(o.FoldedIndex))
			for _, v := range o.Values {
				buf = appendBytes(buf, v.Bytes())
			}
			for _, path := range o.Paths {
				buf = appendAuthPath(buf, path)
			}
		}
	}
	return buf, nil
}

// UnmarshalBinary decodes a proof previously produced by MarshalBinary.
func (p *Proof) UnmarshalBinary(data []byte) error {
	r := &byteReader{data: data}

	version, err := r.uint32()
	if err != nil {
		return err
	}
	if version != ProofSchemaVersion {
		return fmt.Errorf("unsupported proof schema version %d", version)
	}

	traceRoot, err := r.bytes()
	if err != nil {
		return err
	}
	constraintRoot, err := r.bytes()
	if err != nil {
		return err
	}
	oodZBytes, err := r.bytes()
	if err != nil {
		return err
	}
	cur, err := r.elements()
	if err != nil {
		return err
	}
	next, err := r.elements()
	if err != nil {
		return err
	}
	nonce, err := r.uint64()
	if err != nil {
		return err
	}

	numOpenings, err := r.uint32()
	if err != nil {
		return err
	}
	traceOpenings := make([]TraceOpening, numOpenings)
	for i := range traceOpenings {
		idx, err := r.uint32()
		if err != nil {
			return err
		}
		nextIdx, err := r.uint32()
		if err != nil {
			return err
		}
		curValues, err := r.elements()
		if err != nil {
			return err
		}
		curPath, err := r.authPath()
		if err != nil {
			return err
		}
		nextValues, err := r.elements()
		if err != nil {
			return err
		}
		nextPath, err := r.authPath()
		if err != nil {
			return err
		}
		traceOpenings[i] = TraceOpening{
			Index:      int(idx),
			NextIndex:  int(nextIdx),
			CurValues:  curValues,
			CurPath:    curPath,
			NextValues: nextValues,
			NextPath:   nextPath,
		}
	}

	numRoots, err := r.uint32()
	if err != nil {
		return err
	}
	roots := make([][]byte, numRoots)
	for i := range roots {
		roots[i], err = r.bytes()
		if err != nil {
			return err
		}
	}
	finalCoeffs, err := r.elements()
	if err != nil {
		return err
	}
	finalPoly, err := core.NewPolynomial(finalCoeffs)
	if err != nil {
		return fmt.Errorf("decoding final FRI polynomial: %w", err)
	}

	numLayers, err := r.uint32()
	if err != nil {
		return err
	}
	openings := make([][]CosetOpening, numLayers)
	for li := range openings {
		numQueries, err := r.uint32()
		if err != nil {
			return err
		}
		layer := make([]CosetOpening, numQueries)
		for oi := range layer {
			base, err := r.uint32()
			if err != nil {
				return err
			}
			var values [foldingFactor]*core.FieldElement
			for j := range values {
				b, err := r.bytes()
				if err != nil {
					return err
				}
				values[j] = core.F128.NewElementFromBytes(b)
			}
			var paths [foldingFactor]*core.AuthPath
			for j := range paths {
				paths[j], err = r.authPath()
				if err != nil {
					return err
				}
			}
			layer[oi] = CosetOpening{FoldedIndex: int(base), Values: values, Paths: paths}
		}
		openings[li] = layer
	}

	p.TraceRoot = traceRoot
	p.ConstraintRoot = constraintRoot
	p.OodZ = core.F128.NewElementFromBytes(oodZBytes)
	p.OodCur = cur
	p.OodNext = next
	p.GrindingNonce = nonce
	p.TraceOpenings = traceOpenings
	p.FRI = &FRIProof{Roots: roots, FinalPoly: finalPoly, QueryOpenings: openings}
	return nil
}

func appendAuthPath(buf []byte, path *core.AuthPath) []byte {
	buf = appendUint32(buf, uint32(len(path.Siblings)))
	for _, s := range path.Siblings {
		buf = appendBytes(buf, s)
	}
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendBytes(buf, data []byte) []byte {
	buf = appendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

func appendElements(buf []byte, elems []*core.FieldElement) []byte {
	buf = appendUint32(buf, uint32(len(elems)))
	for _, e := range elems {
		buf = appendBytes(buf, e.Bytes())
	}
	return buf
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) uint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("unexpected end of proof data")
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *byteReader) uint64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("unexpected end of proof data")
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) bytes() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.data) {
		return nil, fmt.Errorf("unexpected end of proof data")
	}
	out := append([]byte{}, r.data[r.pos:r.pos+int(n)]...)
	r.pos += int(n)
	return out, nil
}

func (r *byteReader) elements() ([]*core.FieldElement, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	out := make([]*core.FieldElement, n)
	for i := range out {
		b, err := r.bytes()
		if err != nil {
			return nil, err
		}
		out[i] = core.F128.NewElementFromBytes(b)
	}
	return out, nil
}

func (r *byteReader) authPath() (*core.AuthPath, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	siblings := make([][]byte, n)
	for i := range siblings {
		siblings[i], err = r.bytes()
		if err != nil {
			return nil, err
		}
	}
	return &core.AuthPath{Siblings: siblings}, nil
}
