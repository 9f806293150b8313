// Package protocols wires the core primitives and the VM/air packages
// into the actual STARK protocol: domain setup, the Fiat-Shamir
// transcript, composition, FRI, and proof serialization.
package protocols

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"math/bits"

	"golang.org/x/crypto/sha3"

	"github.com/vybium/starkvm/internal/starkvm/core"
)

// Channel is a Fiat-Shamir transcript: the prover "sends" commitments
// into it and "receives" verifier challenges derived deterministically
// from everything sent so far, the same non-interactive simulation the
// teacher's utils.Channel implements, rebuilt over sha3 and this
// module's own core.FieldElement instead of an external field package.
type Channel struct {
	state []byte
	log   []string
}

// NewChannel starts a fresh transcript.
func NewChannel() *Channel {
	return &Channel{state: []byte{0}, log: make([]string, 0, 64)}
}

func (c *Channel) hash(data []byte) []byte {
	h := sha3.Sum256(data)
	return h[:]
}

// Send absorbs data into the transcript (a Merkle root, an out-of-domain
// evaluation, anything the verifier must see before issuing its next
// challenge).
func (c *Channel) Send(data []byte) {
	c.log = append(c.log, fmt.Sprintf("send:%s", hex.EncodeToString(data)))
	c.state = c.hash(append(append([]byte{}, c.state...), data...))
}

// ReceiveRandomInt derives a uniform integer in [min, max] from the
// current transcript state, then advances the state so the next call
// yields an independent value.
func (c *Channel) ReceiveRandomInt(min, max *big.Int) (*big.Int, error) {
	if min.Cmp(max) > 0 {
		return nil, fmt.Errorf("invalid range: min %s > max %s", min, max)
	}
	stateInt := new(big.Int).SetBytes(c.state)
	size := new(big.Int).Sub(max, min)
	size.Add(size, big.NewInt(1))
	random := new(big.Int).Mod(stateInt, size)
	random.Add(random, min)

	c.log = append(c.log, fmt.Sprintf("recv_int:%s", random.String()))
	c.state = c.hash(c.state)
	return random, nil
}

// ReceiveRandomFieldElement derives a uniformly random element of F128,
// the "alpha"/"z" style challenges used by composition and FRI folding.
func (c *Channel) ReceiveRandomFieldElement() *core.FieldElement {
	max := new(big.Int).Sub(core.F128.Modulus(), big.NewInt(1))
	random, _ := c.ReceiveRandomInt(big.NewInt(0), max)
	return core.F128.NewElement(random)
}

// ReceiveIndices derives `count` independent query indices in [0, domainSize).
func (c *Channel) ReceiveIndices(count, domainSize int) ([]int, error) {
	out := make([]int, count)
	for i := range out {
		idx, err := c.ReceiveRandomInt(big.NewInt(0), big.NewInt(int64(domainSize-1)))
		if err != nil {
			return nil, err
		}
		out[i] = int(idx.Int64())
	}
	return out, nil
}

// State returns a defensive copy of the current transcript digest.
func (c *Channel) State() []byte { return append([]byte(nil), c.state...) }

// Grind performs the proof-of-work step spec.md §6 calls "grinding_factor":
// it searches for the smallest nonce such that hashing it against the
// current transcript state produces at least difficultyBits leading zero
// bits, then absorbs the nonce so prover and verifier transcripts stay in
// lockstep. A difficultyBits of 0 or less is a no-op that still absorbs
// nonce 0, keeping the transcript shape identical regardless of whether
// grinding is enabled.
func (c *Channel) Grind(difficultyBits int) (uint64, error) {
	if difficultyBits <= 0 {
		c.Send(nonceBytes(0))
		return 0, nil
	}
	for nonce := uint64(0); ; nonce++ {
		if leadingZeroBits(c.hash(append(append([]byte{}, c.state...), nonceBytes(nonce)...))) >= difficultyBits {
			c.Send(nonceBytes(nonce))
			return nonce, nil
		}
		if nonce == ^uint64(0) {
			return 0, fmt.Errorf("grinding: exhausted nonce space without reaching %d bits of difficulty", difficultyBits)
		}
	}
}

// VerifyGrind checks that nonce satisfies the leading-zero-bit condition
// Grind searched for, then absorbs it identically so the verifier's
// transcript tracks the prover's for every subsequent challenge.
func (c *Channel) VerifyGrind(nonce uint64, difficultyBits int) bool {
	if difficultyBits > 0 {
		if leadingZeroBits(c.hash(append(append([]byte{}, c.state...), nonceBytes(nonce)...))) < difficultyBits {
			return false
		}
	}
	c.Send(nonceBytes(nonce))
	return true
}

func nonceBytes(nonce uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, nonce)
	return b
}

func leadingZeroBits(data []byte) int {
	count := 0
	for _, b := range data {
		if b == 0 {
			count += 8
			continue
		}
		count += bits.LeadingZeros8(b)
		break
	}
	return count
}
