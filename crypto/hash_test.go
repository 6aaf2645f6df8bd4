package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/republic-chain/proof-of-stake/primitives"
)

func TestHashDeterministic(t *testing.T) {
	require.Equal(t, Hash([]byte("x")), Hash([]byte("x")))
	require.NotEqual(t, Hash([]byte("x")), Hash([]byte("y")))
}

func TestHashBuilderMatchesManualConcatenation(t *testing.T) {
	h := primitives.Hash{1, 2, 3}
	a := NewHashBuilder().UpdateHash(h).UpdateU64(7).Finalize()

	var buf []byte
	buf = append(buf, h[:]...)
	var le [8]byte
	putUint64LE(le[:], 7)
	buf = append(buf, le[:]...)
	b := Hash(buf)

	require.Equal(t, b, a)
}

func TestComputeDomainAndSigningRoot(t *testing.T) {
	domainType := [4]byte{1, 0, 0, 0}
	forkVersion := [4]byte{0, 0, 0, 0}
	genesis := Hash([]byte("genesis"))

	d1 := ComputeDomain(domainType, forkVersion, genesis)
	d2 := ComputeDomain(domainType, forkVersion, genesis)
	require.Equal(t, d1, d2)

	otherType := [4]byte{2, 0, 0, 0}
	d3 := ComputeDomain(otherType, forkVersion, genesis)
	require.NotEqual(t, d1, d3)

	root := Hash([]byte("object"))
	sr1 := SigningRoot(root, d1)
	sr2 := SigningRoot(root, d1)
	require.Equal(t, sr1, sr2)
}
