package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/republic-chain/proof-of-stake/primitives"
)

func TestAccountStateTransfer(t *testing.T) {
	s := NewAccountState()
	var alice, bob primitives.Address
	alice[0], bob[0] = 1, 2
	s.CreateAccount(alice, 100)

	require.NoError(t, s.Transfer(alice, bob, 40))
	a, _ := s.Account(alice)
	b, _ := s.Account(bob)
	require.Equal(t, primitives.Amount(60), a.Balance)
	require.Equal(t, primitives.Amount(40), b.Balance)

	require.Error(t, s.Transfer(alice, bob, 1000))
}

func TestAccountStateStakeAndUnstake(t *testing.T) {
	s := NewAccountState()
	var delegator, validator primitives.Address
	delegator[0], validator[0] = 1, 2
	s.CreateAccount(delegator, 500)

	require.NoError(t, s.Stake(delegator, validator, 300))
	require.Equal(t, primitives.Amount(300), s.TotalStaked(delegator))
	require.Equal(t, primitives.Amount(300), s.ValidatorTotalStake(validator))

	require.NoError(t, s.Unstake(delegator, validator, 100, 42))
	require.Equal(t, primitives.Amount(200), s.TotalStaked(delegator))
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	m := NewMemory()
	var addr primitives.Address
	addr[0] = 9
	acc := NewAccount(addr, 10)
	require.NoError(t, m.PutAccount(acc))

	got, ok, err := m.GetAccount(addr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, acc.Balance, got.Balance)

	_, ok, err = m.GetAccount(primitives.Address{99})
	require.NoError(t, err)
	require.False(t, ok)
}
