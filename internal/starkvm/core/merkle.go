package core

import "fmt"

// MerkleTree commits to a list of leaves and can produce/verify
// authentication paths for individual leaves. Internal nodes hash their two
// children's digests with the module's sponge-based digest function so that
// the whole commitment chain stays inside the field-friendly hash family
// described in spec.md (rather than reaching for an unrelated hash like
// SHA-256 partway through the protocol).
type MerkleTree struct {
	leaves [][]byte
	levels [][][]byte
}

// NewMerkleTree hashes every leaf and builds the tree bottom-up. An odd
// node at any level is paired with itself, the usual convention.
func NewMerkleTree(data [][]byte) (*MerkleTree, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot build a Merkle tree over no data")
	}
	leaves := make([][]byte, len(data))
	for i, item := range data {
		leaves[i] = leafDigest(item)
	}

	levels := [][][]byte{leaves}
	current := leaves
	for len(current) > 1 {
		next := make([][]byte, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			if i+1 < len(current) {
				next = append(next, nodeDigest(current[i], current[i+1]))
			} else {
				next = append(next, nodeDigest(current[i], current[i]))
			}
		}
		levels = append(levels, next)
		current = next
	}

	return &MerkleTree{leaves: leaves, levels: levels}, nil
}

// Root returns the Merkle root commitment.
func (mt *MerkleTree) Root() []byte {
	top := mt.levels[len(mt.levels)-1]
	return top[0]
}

// AuthPath is one Merkle authentication path: the sibling digest at every
// level from the leaf up to (but not including) the root.
type AuthPath struct {
	Siblings [][]byte
}

// Open returns the authentication path for the leaf at index.
func (mt *MerkleTree) Open(index int) (*AuthPath, error) {
	if index < 0 || index >= len(mt.leaves) {
		return nil, fmt.Errorf("leaf index %d out of range [0, %d)", index, len(mt.leaves))
	}
	path := &AuthPath{}
	idx := index
	for level := 0; level < len(mt.levels)-1; level++ {
		cur := mt.levels[level]
		var sibling int
		if idx%2 == 0 {
			sibling = idx + 1
		} else {
			sibling = idx - 1
		}
		if sibling >= len(cur) {
			sibling = idx
		}
		path.Siblings = append(path.Siblings, cur[sibling])
		idx /= 2
	}
	return path, nil
}

// BatchOpen opens several leaves at once; a thin convenience wrapper since
// FRI and the trace LDE always open several positions per query.
func (mt *MerkleTree) BatchOpen(indices []int) ([]*AuthPath, error) {
	paths := make([]*AuthPath, len(indices))
	for i, idx := range indices {
		p, err := mt.Open(idx)
		if err != nil {
			return nil, err
		}
		paths[i] = p
	}
	return paths, nil
}

// VerifyPath checks that leaf, opened via path at index, authenticates
// against root.
func VerifyPath(root []byte, leaf []byte, path *AuthPath, index int) bool {
	hash := leafDigest(leaf)
	idx := index
	for _, sibling := range path.Siblings {
		if idx%2 == 0 {
			hash = nodeDigest(hash, sibling)
		} else {
			hash = nodeDigest(sibling, hash)
		}
		idx /= 2
	}
	return bytesEqual(hash, root)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func leafDigest(data []byte) []byte {
	return HashBytes(data).Bytes()
}

func nodeDigest(left, right []byte) []byte {
	combined := make([]byte, 0, len(left)+len(right))
	combined = append(combined, left...)
	combined = append(combined, right...)
	return HashBytes(combined).Bytes()
}
