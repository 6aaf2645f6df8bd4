// Package store defines the persistence collaborator's contract
// (put_block/get_block/latest_height/put_account/get_account/
// put_validator/get_validator) plus an in-memory reference
// implementation. The durable store itself (a real embedded/external
// database) is an explicit external collaborator this core does not
// own — see spec.md §1/§6.
package store

import (
	"github.com/republic-chain/proof-of-stake/primitives"
)

// StakeInfo is one delegation record: amount staked by Delegator with
// Validator, with an UnbondingHeight set once unstaking begins.
type StakeInfo struct {
	Amount          primitives.Amount
	Validator       primitives.Address
	Delegator       primitives.Address
	Rewards         primitives.Amount
	UnbondingHeight uint64
	Unbonding       bool
}

// Account is a plain balance-holding account. Code/Storage exist to
// record a ContractPayload's target but are never executed — VM
// execution is an explicit Non-goal.
type Account struct {
	Address primitives.Address
	Balance primitives.Amount
	Nonce   primitives.Nonce
	Code    []byte
	Storage map[primitives.Hash]primitives.Hash
}

// NewAccount returns a fresh, empty Account.
func NewAccount(addr primitives.Address, balance primitives.Amount) *Account {
	return &Account{Address: addr, Balance: balance, Storage: make(map[primitives.Hash]primitives.Hash)}
}

func (a *Account) IsContract() bool { return len(a.Code) > 0 }

// Debit subtracts amount, failing if the balance is insufficient.
func (a *Account) Debit(amount primitives.Amount) error {
	if a.Balance < amount {
		return errInsufficientBalance
	}
	a.Balance -= amount
	return nil
}

func (a *Account) Credit(amount primitives.Amount) { a.Balance += amount }

// AccountState is the full account and stake ledger the transaction
// side-effect pipeline (spec.md §4.5 step 6) mutates.
type AccountState struct {
	accounts    map[primitives.Address]*Account
	stakes      map[primitives.Address][]*StakeInfo
	TotalSupply primitives.Amount
}

// NewAccountState returns an empty ledger.
func NewAccountState() *AccountState {
	return &AccountState{
		accounts: make(map[primitives.Address]*Account),
		stakes:   make(map[primitives.Address][]*StakeInfo),
	}
}

func (s *AccountState) Account(addr primitives.Address) (*Account, bool) {
	a, ok := s.accounts[addr]
	return a, ok
}

// CreateAccount inserts a new account and credits the genesis supply.
func (s *AccountState) CreateAccount(addr primitives.Address, initialBalance primitives.Amount) *Account {
	a := NewAccount(addr, initialBalance)
	s.accounts[addr] = a
	s.TotalSupply += initialBalance
	return a
}

// Transfer moves amount from one account to another, creating the
// recipient if it does not yet exist.
func (s *AccountState) Transfer(from, to primitives.Address, amount primitives.Amount) error {
	sender, ok := s.accounts[from]
	if !ok {
		return errAccountNotFound
	}
	if sender.Balance < amount {
		return errInsufficientBalance
	}
	recipient, ok := s.accounts[to]
	if !ok {
		recipient = s.CreateAccount(to, 0)
	}
	if err := sender.Debit(amount); err != nil {
		return err
	}
	recipient.Credit(amount)
	return nil
}

// Stake debits amount from delegator's balance and records a StakeInfo
// entry against validator.
func (s *AccountState) Stake(delegator, validator primitives.Address, amount primitives.Amount) error {
	account, ok := s.accounts[delegator]
	if !ok {
		return errAccountNotFound
	}
	if err := account.Debit(amount); err != nil {
		return err
	}
	s.stakes[delegator] = append(s.stakes[delegator], &StakeInfo{
		Amount:    amount,
		Validator: validator,
		Delegator: delegator,
	})
	return nil
}

// Unstake begins unbonding up to amount of delegator's active stake
// with validator, oldest entries first. The unbonded portion is
// recorded as a separate Unbonding entry; the rest stays bonded.
func (s *AccountState) Unstake(delegator, validator primitives.Address, amount primitives.Amount, unbondingHeight uint64) error {
	entries, ok := s.stakes[delegator]
	if !ok {
		return errNoStakesFound
	}

	var unbonding []*StakeInfo
	remaining := amount
	for _, stake := range entries {
		if stake.Validator != validator || stake.Unbonding || remaining == 0 {
			continue
		}
		unstakeAmount := remaining
		if stake.Amount < unstakeAmount {
			unstakeAmount = stake.Amount
		}
		stake.Amount -= unstakeAmount
		remaining -= unstakeAmount
		unbonding = append(unbonding, &StakeInfo{
			Amount:          unstakeAmount,
			Validator:       validator,
			Delegator:       delegator,
			Unbonding:       true,
			UnbondingHeight: unbondingHeight,
		})
	}
	if remaining > 0 {
		return errInsufficientStakedAmount
	}

	kept := entries[:0]
	for _, stake := range entries {
		if stake.Amount > 0 {
			kept = append(kept, stake)
		}
	}
	s.stakes[delegator] = append(kept, unbonding...)
	return nil
}

// TotalStaked sums delegator's still-bonded stake across all
// validators.
func (s *AccountState) TotalStaked(delegator primitives.Address) primitives.Amount {
	var total primitives.Amount
	for _, stake := range s.stakes[delegator] {
		if !stake.Unbonding {
			total += stake.Amount
		}
	}
	return total
}

// ValidatorTotalStake sums every still-bonded delegation to validator
// across all delegators.
func (s *AccountState) ValidatorTotalStake(validator primitives.Address) primitives.Amount {
	var total primitives.Amount
	for _, entries := range s.stakes {
		for _, stake := range entries {
			if stake.Validator == validator && !stake.Unbonding {
				total += stake.Amount
			}
		}
	}
	return total
}
