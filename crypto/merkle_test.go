package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMerkleTreeRootAndProof(t *testing.T) {
	items := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e")}
	tree := MerkleTreeFromData(items)
	require.False(t, tree.IsEmpty())
	require.Equal(t, len(items), tree.Len())

	for i := range items {
		proof, err := tree.Proof(i)
		require.NoError(t, err)
		require.True(t, proof.Verify())
		require.True(t, proof.VerifyWithRoot(tree.Root()))
	}
}

func TestMerkleTreeOddLeavesDuplicated(t *testing.T) {
	three := MerkleTreeFromData([][]byte{[]byte("a"), []byte("b"), []byte("c")})
	proof, err := three.Proof(2)
	require.NoError(t, err)
	require.True(t, proof.Verify())
}

func TestMerkleTreeEmpty(t *testing.T) {
	tree := NewMerkleTree(nil)
	require.True(t, tree.IsEmpty())
	require.True(t, tree.Root().IsZero())
	_, err := tree.Proof(0)
	require.Error(t, err)
}

func TestMerkleProofRejectsTamperedLeaf(t *testing.T) {
	tree := MerkleTreeFromData([][]byte{[]byte("a"), []byte("b")})
	proof, err := tree.Proof(0)
	require.NoError(t, err)
	proof.LeafHash = Hash([]byte("tampered"))
	require.False(t, proof.Verify())
}

func TestSparseMerkleTreeUpdateAndProof(t *testing.T) {
	smt := NewSparseMerkleTree(8)
	emptyRoot := smt.Root()

	leaf := Hash([]byte("leaf-value"))
	smt.Update(42, leaf)
	require.NotEqual(t, emptyRoot, smt.Root())

	proof := smt.Proof(42)
	require.Len(t, proof, 8)
	require.True(t, smt.VerifyProof(42, leaf, proof))
	require.False(t, smt.VerifyProof(42, Hash([]byte("other")), proof))
}

func TestSparseMerkleTreeDefaultLeafUnaffectedByOtherUpdates(t *testing.T) {
	smt := NewSparseMerkleTree(4)
	smt.Update(0, Hash([]byte("x")))
	// index 1's proof must still verify against the all-default leaf.
	require.True(t, smt.VerifyProof(1, Hash{}, smt.Proof(1)))
}
