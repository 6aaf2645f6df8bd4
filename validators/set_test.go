package validators

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/consensuserr"
	"github.com/republic-chain/proof-of-stake/primitives"
)

func newTestValidator(seed byte, stake primitives.Amount) *Validator {
	var addr primitives.Address
	addr[0] = seed
	var pub primitives.PublicKey
	pub[0] = seed
	return New(addr, pub, stake, 500, 0, blocks.ValidatorMetadata{Name: "v"})
}

func TestSetAddEnforcesCapacityAndMinStake(t *testing.T) {
	s := NewSet(100, 1, 0)
	require.NoError(t, s.Add(newTestValidator(1, 200)))

	err := s.Add(newTestValidator(2, 200))
	require.Error(t, err)
	require.True(t, consensuserr.Is(err, consensuserr.CapacityExceeded))

	s2 := NewSet(100, 5, 0)
	err = s2.Add(newTestValidator(3, 50))
	require.Error(t, err)
	require.True(t, consensuserr.Is(err, consensuserr.InsufficientStake))
}

func TestSetTotalStakeTracksMembership(t *testing.T) {
	s := NewSet(0, 10, 0)
	require.NoError(t, s.Add(newTestValidator(1, 100)))
	require.NoError(t, s.Add(newTestValidator(2, 300)))
	require.Equal(t, primitives.Amount(400), s.TotalStake())

	v, err := s.Remove(newTestValidator(1, 0).Address)
	require.NoError(t, err)
	require.Equal(t, primitives.Amount(100), v.TotalStake())
	require.Equal(t, primitives.Amount(300), s.TotalStake())

	_, err = s.Remove(v.Address)
	require.Error(t, err)
	require.True(t, consensuserr.Is(err, consensuserr.NotFound))
}

func TestSetActiveValidatorsFiltersByStatusAndStake(t *testing.T) {
	s := NewSet(100, 10, 0)
	active := newTestValidator(1, 200)
	require.NoError(t, s.Add(active))

	jailed := newTestValidator(2, 200)
	jailed.Status = Jailed
	require.NoError(t, s.Add(jailed))

	got := s.ActiveValidators()
	require.Len(t, got, 1)
	require.Equal(t, active.Address, got[0].Address)
}

func TestSlashJailsOnLargePenalty(t *testing.T) {
	s := NewSet(0, 10, 0)
	v := newTestValidator(1, 1000)
	require.NoError(t, s.Add(v))

	require.NoError(t, s.Slash(v.Address, 200, 5))
	require.Equal(t, Jailed, v.Status)
	require.Equal(t, primitives.Amount(800), s.TotalStake())
}

func TestUptimeAndAttestationRatiosDefaultToOne(t *testing.T) {
	v := newTestValidator(1, 100)
	require.Equal(t, 1.0, v.UptimeRatio())
	require.Equal(t, 1.0, v.AttestationRatio())

	v.RecordProposal(true, 1)
	require.Equal(t, 1.0, v.UptimeRatio())
	require.Equal(t, 1.0, v.AttestationRatio())

	v.RecordAttestation(false, 1)
	require.Equal(t, 1.0, v.UptimeRatio())
	require.Equal(t, 0.0, v.AttestationRatio())
}
