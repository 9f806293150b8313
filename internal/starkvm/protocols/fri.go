package protocols

import (
	"fmt"

	"github.com/vybium/starkvm/internal/starkvm/core"
)

// foldingFactor is how many codeword positions collapse into one per FRI
// layer (spec.md §4.5).
const foldingFactor = 4

// friMinLayerSize is the codeword length at or below which FRI stops
// folding and sends the remaining polynomial in the clear.
const friMinLayerSize = 16

// FRILayer is one round of the FRI commitment: the folded codeword and
// its Merkle commitment.
type FRILayer struct {
	Codeword []*core.FieldElement
	Tree     *core.MerkleTree
}

// FRIProof is the full folding transcript plus the terminal polynomial.
// It carries no query-position list: the verifier re-derives the exact
// same positions by replaying the same transcript absorptions the prover
// made (spec.md §4.5(b)), rather than trusting a prover-supplied list.
type FRIProof struct {
	Roots         [][]byte
	FinalPoly     *core.Polynomial
	QueryOpenings [][]CosetOpening
}

// CosetOpening is one queried position's full folding coset within one FRI
// layer: all foldingFactor sibling values (and their Merkle paths) that
// combine into a single folded value in the next layer, so the verifier
// can recompute the fold itself instead of trusting a pre-folded value.
type CosetOpening struct {
	FoldedIndex int
	Values      [foldingFactor]*core.FieldElement
	Paths       [foldingFactor]*core.AuthPath
}

// Prove runs the FRI folding protocol on an evaluation codeword over
// domain, committing each layer to channel and finishing once the
// codeword shrinks to friMinLayerSize or below or the domain can no longer be
// divided by foldingFactor. grindingBits is the proof-of-work difficulty
// (spec.md §6's grinding_factor) ground between the final polynomial and
// the query challenge; it returns the derived query positions and the
// grinding nonce alongside the proof so the caller can open matching
// trace/constraint leaves at the same positions.
func Prove(codeword []*core.FieldElement, domain *core.Domain, numQueries, grindingBits int, channel *Channel) (*FRIProof, []int, uint64, error) {
	if len(codeword) != domain.Size {
		return nil, nil, 0, fmt.Errorf("codeword length %d does not match domain size %d", len(codeword), domain.Size)
	}

	var layers []FRILayer
	curCodeword := codeword
	curDomain := domain

	for len(curCodeword) > friMinLayerSize && curDomain.Size%foldingFactor == 0 {
		tree, err := commitCodeword(curCodeword)
		if err != nil {
			return nil, nil, 0, err
		}
		channel.Send(tree.Root())
		layers = append(layers, FRILayer{Codeword: curCodeword, Tree: tree})

		alpha := channel.ReceiveRandomFieldElement()
		folded, foldedDomain, err := foldLayer(curCodeword, curDomain, alpha)
		if err != nil {
			return nil, nil, 0, err
		}
		curCodeword = folded
		curDomain = foldedDomain
	}

	finalPoly, err := curDomain.Interpolate(curCodeword)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("interpolating final FRI layer: %w", err)
	}
	for _, c := range finalPoly.Coefficients() {
		channel.Send(c.Bytes())
	}

	nonce, err := channel.Grind(grindingBits)
	if err != nil {
		return nil, nil, 0, err
	}

	positions, err := channel.ReceiveIndices(numQueries, domain.Size)
	if err != nil {
		return nil, nil, 0, err
	}

	openings := make([][]CosetOpening, len(layers))
	for li, layer := range layers {
		half := len(layer.Codeword) / foldingFactor
		layerOpenings := make([]CosetOpening, 0, len(positions))
		for _, pos := range positions {
			idx := pos % len(layer.Codeword)
			base := idx % half
			var values [foldingFactor]*core.FieldElement
			var paths [foldingFactor]*core.AuthPath
			for j := 0; j < foldingFactor; j++ {
				coIdx := base + j*half
				path, err := layer.Tree.Open(coIdx)
				if err != nil {
					return nil, nil, 0, err
				}
				values[j] = layer.Codeword[coIdx]
				paths[j] = path
			}
			layerOpenings = append(layerOpenings, CosetOpening{FoldedIndex: base, Values: values, Paths: paths})
		}
		openings[li] = layerOpenings
	}

	roots := make([][]byte, len(layers))
	for i, l := range layers {
		roots[i] = l.Tree.Root()
	}

	return &FRIProof{Roots: roots, FinalPoly: finalPoly, QueryOpenings: openings}, positions, nonce, nil
}

// foldCoset combines the foldingFactor sibling values of one coset into a
// single folded value at random point alpha. base is the coset's index in
// the folded (half-sized) codeword; domain is the domain the *unfolded*
// codeword lives on. Shared verbatim between the prover's foldLayer and
// the verifier's per-query fold check so both sides compute the identical
// recombination.
func foldCoset(values [foldingFactor]*core.FieldElement, base int, domain *core.Domain, alpha *core.FieldElement) *core.FieldElement {
	acc := core.F128.Zero()
	weight := core.F128.One()
	xPow := domain.Offset.Mul(domain.Generator.ExpInt(uint64(base)))
	for j := 0; j < foldingFactor; j++ {
		acc = acc.Add(values[j].Mul(weight))
		weight = weight.Mul(alpha).Mul(invOrOne(xPow))
	}
	return acc
}

// foldLayer collapses a codeword of size n into one of size n/foldingFactor
// using the standard FRI fold: group every foldingFactor-th position,
// interpolate the resulting small polynomial in x^foldingFactor and
// evaluate it at alpha.
func foldLayer(codeword []*core.FieldElement, domain *core.Domain, alpha *core.FieldElement) ([]*core.FieldElement, *core.Domain, error) {
	n := len(codeword)
	if n%foldingFactor != 0 {
		return nil, nil, fmt.Errorf("codeword length %d not divisible by folding factor %d", n, foldingFactor)
	}
	half := n / foldingFactor
	folded := make([]*core.FieldElement, half)
	for i := 0; i < half; i++ {
		var values [foldingFactor]*core.FieldElement
		for j := 0; j < foldingFactor; j++ {
			values[j] = codeword[i+j*half]
		}
		folded[i] = foldCoset(values, i, domain, alpha)
	}

	foldedDomain, err := nextDomain(domain)
	if err != nil {
		return nil, nil, err
	}
	return folded, foldedDomain, nil
}

// nextDomain replays foldLayer's domain-shrinking step (halve the
// generator's order by quartering the size, square the offset) without
// needing a codeword, so the verifier can reconstruct every layer's
// domain from nothing but the initial domain and the layer count.
func nextDomain(domain *core.Domain) (*core.Domain, error) {
	foldedSize := domain.Size / foldingFactor
	base, err := core.NewDomain(foldedSize)
	if err != nil {
		return nil, err
	}
	return base.WithOffset(domain.Offset.Mul(domain.Offset)), nil
}

func invOrOne(x *core.FieldElement) *core.FieldElement {
	inv, err := x.Inv()
	if err != nil {
		return core.F128.One()
	}
	return inv
}

func commitCodeword(values []*core.FieldElement) (*core.MerkleTree, error) {
	leaves := make([][]byte, len(values))
	for i, v := range values {
		leaves[i] = v.Bytes()
	}
	return core.NewMerkleTree(leaves)
}

// VerifyFRI checks a FRI proof: every opened layer coset's Merkle paths
// authenticate against its layer's root, each coset folds (spec.md
// §4.5(b)) to exactly the value the next layer opens at the corresponding
// position (or, for the last layer, to the final polynomial evaluated at
// the replayed domain point), the grinding nonce clears the requested
// difficulty, and the final polynomial's degree is below the expected
// bound. Query positions and per-layer folding challenges are re-derived
// from channel rather than trusted from the proof, closing the gap where
// an honest-looking proof could carry unrelated per-layer codewords.
func VerifyFRI(proof *FRIProof, initialDomain *core.Domain, numQueries, grindingBits int, nonce uint64, channel *Channel) ([]int, error) {
	numLayers := len(proof.Roots)
	domains := make([]*core.Domain, numLayers+1)
	domains[0] = initialDomain
	alphas := make([]*core.FieldElement, numLayers)
	for d := 0; d < numLayers; d++ {
		if len(proof.QueryOpenings[d]) == 0 && numQueries > 0 {
			return nil, fmt.Errorf("verification of low-degree proof failed: missing openings at depth %d", d)
		}
		channel.Send(proof.Roots[d])
		alphas[d] = channel.ReceiveRandomFieldElement()
		nd, err := nextDomain(domains[d])
		if err != nil {
			return nil, err
		}
		domains[d+1] = nd
	}

	for _, c := range proof.FinalPoly.Coefficients() {
		channel.Send(c.Bytes())
	}

	if !channel.VerifyGrind(nonce, grindingBits) {
		return nil, fmt.Errorf("verification of low-degree proof failed: proof-of-work insufficient")
	}

	maxFinalDegree := initialDomain.Size
	for i := 0; i < numLayers; i++ {
		maxFinalDegree /= foldingFactor
	}
	if proof.FinalPoly.Degree() >= maxFinalDegree {
		return nil, fmt.Errorf("verification of low-degree proof failed: final polynomial degree %d exceeds bound %d", proof.FinalPoly.Degree(), maxFinalDegree)
	}

	positions, err := channel.ReceiveIndices(numQueries, initialDomain.Size)
	if err != nil {
		return nil, err
	}

	for qi, pos := range positions {
		for depth := 0; depth < numLayers; depth++ {
			layerOpenings := proof.QueryOpenings[depth]
			if qi >= len(layerOpenings) {
				return nil, fmt.Errorf("verification of low-degree proof failed: missing query opening at depth %d", depth)
			}
			o := layerOpenings[qi]
			dom := domains[depth]
			half := dom.Size / foldingFactor
			idx := pos % dom.Size
			base := idx % half
			if o.FoldedIndex != base {
				return nil, fmt.Errorf("verification of low-degree proof failed: unexpected coset index at depth %d", depth)
			}
			for j := 0; j < foldingFactor; j++ {
				coIdx := base + j*half
				if !core.VerifyPath(proof.Roots[depth], o.Values[j].Bytes(), o.Paths[j], coIdx) {
					return nil, fmt.Errorf("verification of low-degree proof failed: evaluations did not match column value at depth %d", depth)
				}
			}

			folded := foldCoset(o.Values, base, dom, alphas[depth])

			if depth+1 < numLayers {
				nextHalf := domains[depth+1].Size / foldingFactor
				nextOpening := proof.QueryOpenings[depth+1][qi]
				nextBase := base % nextHalf
				k := base / nextHalf
				if nextOpening.FoldedIndex != nextBase || k >= foldingFactor {
					return nil, fmt.Errorf("verification of low-degree proof failed: inconsistent coset indexing at depth %d", depth)
				}
				if !folded.Equal(nextOpening.Values[k]) {
					return nil, fmt.Errorf("verification of low-degree proof failed: folded value did not match next layer at depth %d", depth)
				}
			} else {
				x := domains[depth+1].Offset.Mul(domains[depth+1].Generator.ExpInt(uint64(base)))
				expected := proof.FinalPoly.Eval(x)
				if !folded.Equal(expected) {
					return nil, fmt.Errorf("verification of low-degree proof failed: folded value did not match final polynomial at depth %d", depth)
				}
			}
		}
	}

	return positions, nil
}
