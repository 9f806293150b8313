package core

import "fmt"

// SpongeWidth is the number of lanes in the VM's rolling program-hash
// sponge (spec.md §3: "Sponge (4 lanes)").
const SpongeWidth = 4

// HashStateWidth is the width of the state HASHR folds one permutation
// round over (spec.md §4.1: "applies one round ... to the top 6 stack
// cells").
const HashStateWidth = 6

// sboxPower is the Poseidon S-box exponent (teacher's EnhancedPoseidonHash
// defaults to 5 for 128-bit security; kept the same here).
const sboxPower = 5

// Permutation is a fixed-width algebraic permutation built the way the
// teacher's EnhancedPoseidonHash builds Poseidon: round constants plus a
// Cauchy MDS matrix (Cauchy matrices are always MDS), alternating full
// S-box rounds with partial rounds that only hit lane 0. Round-constant
// generation here is a simple deterministic derivation from (width, round,
// lane) rather than the teacher's full Grain-LFSR bitstream — the
// permutation shape is unchanged, only the constant-generation subroutine
// is simplified (see DESIGN.md).
type Permutation struct {
	width          int
	roundsFull     int
	roundsPartial  int
	roundConstants [][]*FieldElement
	mds            [][]*FieldElement
}

// NewPermutation builds the round constants and MDS matrix for the given
// width once; VM execution and program hashing both reuse the same
// instance many times, so this cost is paid only at startup.
func NewPermutation(width, roundsFull, roundsPartial int) *Permutation {
	p := &Permutation{width: width, roundsFull: roundsFull, roundsPartial: roundsPartial}
	p.roundConstants = generateRoundConstants(width, roundsFull+roundsPartial)
	p.mds = generateCauchyMDS(width)
	return p
}

// DefaultSpongePermutation is the width-4 permutation used for rolling
// program-hash state and the final digest.
var DefaultSpongePermutation = NewPermutation(SpongeWidth, 8, 20)

// DefaultHashrPermutation is the width-6 permutation HASHR applies one
// round of.
var DefaultHashrPermutation = NewPermutation(HashStateWidth, 8, 20)

func (p *Permutation) sbox(x *FieldElement) *FieldElement {
	result := x
	for i := 1; i < sboxPower; i++ {
		result = result.Mul(x)
	}
	return result
}

func (p *Permutation) applyMDS(state []*FieldElement) []*FieldElement {
	out := make([]*FieldElement, p.width)
	for i := 0; i < p.width; i++ {
		acc := F128.Zero()
		for j := 0; j < p.width; j++ {
			acc = acc.Add(state[j].Mul(p.mds[i][j]))
		}
		out[i] = acc
	}
	return out
}

// ApplyRound runs exactly one round (full or partial, in the standard
// full/partial/full schedule) of the permutation, selected by roundIndex
// mod the total round count. This is the "apply_round(state, cycle_index)"
// capability spec.md §9 asks for: in the trace, one round is folded in per
// VM cycle rather than a whole permutation at once.
func (p *Permutation) ApplyRound(state []*FieldElement, roundIndex int) []*FieldElement {
	if len(state) != p.width {
		panic(fmt.Sprintf("permutation expects width %d state, got %d", p.width, len(state)))
	}
	total := p.roundsFull + p.roundsPartial
	round := roundIndex % total
	isFull := round < p.roundsFull/2 || round >= p.roundsFull/2+p.roundsPartial

	next := make([]*FieldElement, p.width)
	copy(next, state)
	for i := range next {
		next[i] = next[i].Add(p.roundConstants[round][i])
	}
	if isFull {
		for i := range next {
			next[i] = p.sbox(next[i])
		}
	} else {
		next[0] = p.sbox(next[0])
	}
	return p.applyMDS(next)
}

// FullPermutation runs every round of the permutation in sequence; used by
// HashElements, where the whole sponge is run to completion rather than
// one round per VM cycle.
func (p *Permutation) FullPermutation(state []*FieldElement) []*FieldElement {
	total := p.roundsFull + p.roundsPartial
	for r := 0; r < total; r++ {
		state = p.ApplyRound(state, r)
	}
	return state
}

// generateRoundConstants deterministically derives one field element per
// (round, lane) pair by repeatedly squaring and mixing a width/round/lane
// dependent seed; it has no cryptographic weakness requirements beyond
// looking "random" to the algebra, same role the teacher's Grain LFSR
// plays.
func generateRoundConstants(width, rounds int) [][]*FieldElement {
	out := make([][]*FieldElement, rounds)
	seed := F128.NewElementFromUint64(uint64(width)*1000003 + 7)
	state := seed
	for r := 0; r < rounds; r++ {
		out[r] = make([]*FieldElement, width)
		for i := 0; i < width; i++ {
			state = state.Mul(state).Add(F128.NewElementFromUint64(uint64(r*width + i + 1)))
			out[r][i] = state
		}
	}
	return out
}

// generateCauchyMDS builds an MDS matrix as a Cauchy matrix: M[i][j] =
// 1/(x_i + y_j) for disjoint sequences x, y. Cauchy matrices are always
// maximum-distance-separable.
func generateCauchyMDS(width int) [][]*FieldElement {
	matrix := make([][]*FieldElement, width)
	for i := 0; i < width; i++ {
		matrix[i] = make([]*FieldElement, width)
		x := F128.NewElementFromInt64(int64(i + 1))
		for j := 0; j < width; j++ {
			y := F128.NewElementFromInt64(int64(j + width + 1))
			sum := x.Add(y)
			inv, err := sum.Inv()
			if err != nil {
				panic("cauchy MDS construction hit a zero sum: " + err.Error())
			}
			matrix[i][j] = inv
		}
	}
	return matrix
}

// Digest is the fixed-width, 4-lane output of hashing a program (spec.md
// §3: "Program digest").
type Digest [SpongeWidth]*FieldElement

// Equal reports whether two digests hold equal field elements lane by lane.
func (d Digest) Equal(other Digest) bool {
	for i := range d {
		if !d[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Bytes concatenates each lane's fixed-width byte encoding.
func (d Digest) Bytes() []byte {
	out := make([]byte, 0, SpongeWidth*FieldWidth)
	for _, lane := range d {
		out = append(out, lane.Bytes()...)
	}
	return out
}

// DigestFromBytes inverts Bytes, splitting a SpongeWidth*FieldWidth byte
// string back into its four lanes.
func DigestFromBytes(b []byte) (Digest, error) {
	var d Digest
	if len(b) != SpongeWidth*FieldWidth {
		return d, fmt.Errorf("digest must be %d bytes, got %d", SpongeWidth*FieldWidth, len(b))
	}
	for i := range d {
		d[i] = F128.NewElementFromBytes(b[i*FieldWidth : (i+1)*FieldWidth])
	}
	return d, nil
}

// HashElements runs the field elements through the width-4 sponge and
// returns the resulting digest: absorb each element into lane 0 and run a
// full permutation after every absorption, then read out all four lanes.
// HashBytes (and so the Merkle tree) and the VM's TEND/FEND block hashes
// use it; the program digest uses RollingHash instead.
func HashElements(elements []*FieldElement) Digest {
	state := make([]*FieldElement, SpongeWidth)
	for i := range state {
		state[i] = F128.Zero()
	}
	for _, e := range elements {
		state[0] = state[0].Add(e)
		state = DefaultSpongePermutation.FullPermutation(state)
	}
	var out Digest
	copy(out[:], state)
	return out
}

// RollingHash absorbs elements one at a time into lane 0 of a width-4
// state, applying exactly one permutation round (indexed by absorption
// position) per element rather than a full permutation — the same
// one-round-per-cycle schedule the VM's trace sponge column runs (see
// vm.Program.Digest and vm.Build). The trace absorbs a PUSH together with
// its immediate in one cycle, clears the sponge on BEGIN and replaces it
// on TEND/FEND, so the digest equals the trace's final sponge state only
// for programs that use none of those opcodes.
func RollingHash(elements []*FieldElement) Digest {
	state := make([]*FieldElement, SpongeWidth)
	for i := range state {
		state[i] = F128.Zero()
	}
	for i, e := range elements {
		state[0] = state[0].Add(e)
		state = DefaultSpongePermutation.ApplyRound(state, i)
	}
	var out Digest
	copy(out[:], state)
	return out
}

// HashBytes hashes an arbitrary byte slice by packing it into field
// elements (little-endian, FieldWidth-1 bytes per element; a 16-byte chunk
// can exceed the modulus and is then reduced mod p) and returns the first lane of HashElements, the
// element-sized digest the Merkle tree commits leaves with.
func HashBytes(data []byte) *FieldElement {
	if len(data) == 0 {
		return F128.Zero()
	}
	chunkSize := FieldWidth - 1
	elements := make([]*FieldElement, 0, (len(data)+chunkSize-1)/chunkSize)
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		elements = append(elements, F128.NewElementFromBytes(data[i:end]))
	}
	digest := HashElements(elements)
	return digest[0]
}
