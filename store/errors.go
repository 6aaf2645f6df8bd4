package store

import (
	"github.com/republic-chain/proof-of-stake/consensuserr"
)

var (
	errInsufficientBalance     = consensuserr.New(consensuserr.InsufficientStake, "insufficient balance")
	errAccountNotFound         = consensuserr.New(consensuserr.NotFound, "account not found")
	errNoStakesFound           = consensuserr.New(consensuserr.NotFound, "no stakes found for delegator")
	errInsufficientStakedAmount = consensuserr.New(consensuserr.InsufficientStake, "insufficient staked amount")
)
