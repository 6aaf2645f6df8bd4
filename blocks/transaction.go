package blocks

import (
	"time"

	"github.com/republic-chain/proof-of-stake/crypto"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// PayloadType tags which concrete payload a Transaction carries, in
// place of the original system's free-form data: bytes.
type PayloadType uint8

const (
	PayloadTransfer PayloadType = iota
	PayloadStake
	PayloadUnstake
	PayloadDelegate
	PayloadUndelegate
	PayloadValidatorRegistration
	PayloadValidatorUpdate
	PayloadContract
)

func (t PayloadType) String() string {
	switch t {
	case PayloadTransfer:
		return "transfer"
	case PayloadStake:
		return "stake"
	case PayloadUnstake:
		return "unstake"
	case PayloadDelegate:
		return "delegate"
	case PayloadUndelegate:
		return "undelegate"
	case PayloadValidatorRegistration:
		return "validator_registration"
	case PayloadValidatorUpdate:
		return "validator_update"
	case PayloadContract:
		return "contract"
	default:
		return "unknown"
	}
}

// ValidatorMetadata is free-form validator profile data carried by
// registration/update payloads.
type ValidatorMetadata struct {
	Name        string
	Website     string
	Description string
	Contact     string
}

// TransferPayload moves amount from the transaction sender to To.
type TransferPayload struct {
	To     primitives.Address
	Amount primitives.Amount
}

// StakePayload increases a validator's stake. Delegator is the
// zero address for a self-stake.
type StakePayload struct {
	Validator primitives.Address
	Amount    primitives.Amount
	Delegator primitives.Address
}

// UnstakePayload begins unbonding amount from validator.
type UnstakePayload struct {
	Validator primitives.Address
	Amount    primitives.Amount
	Delegator primitives.Address
}

// DelegatePayload stakes amount on behalf of a delegator distinct from
// the validator.
type DelegatePayload struct {
	Validator primitives.Address
	Delegator primitives.Address
	Amount    primitives.Amount
}

// UndelegatePayload withdraws a delegation.
type UndelegatePayload struct {
	Validator primitives.Address
	Delegator primitives.Address
	Amount    primitives.Amount
}

// ValidatorRegistrationPayload admits a new validator into the set.
type ValidatorRegistrationPayload struct {
	ValidatorKey   primitives.PublicKey
	CommissionRate uint16 // basis points, [0,10000]
	MinimumStake   primitives.Amount
	Metadata       ValidatorMetadata
}

// ValidatorUpdatePayload mutates metadata/commission on an existing
// validator.
type ValidatorUpdatePayload struct {
	Validator      primitives.Address
	CommissionRate uint16
	Metadata       ValidatorMetadata
}

// ContractPayload is hashed and recorded but never executed; VM
// execution is out of scope.
type ContractPayload struct {
	Code []byte
	Args []byte
}

// Transaction is the common envelope every payload type rides in.
type Transaction struct {
	From        primitives.Address
	To          primitives.Address
	Amount      primitives.Amount
	GasLimit    uint64
	GasPrice    uint64
	Nonce       primitives.Nonce
	Type        PayloadType
	Payload     interface{}
	Timestamp   time.Time
	Signature   primitives.Signature
}

// Hash is the SHA-256 of the transaction's signing hash and signature,
// giving each signed transaction a stable identity distinct from its
// pre-signature content.
func (tx *Transaction) Hash() primitives.Hash {
	h := tx.SigningHash()
	return crypto.NewHashBuilder().UpdateHash(h).Update(tx.Signature[:]).Finalize()
}

// SigningHash hashes every field but Signature, in declared field
// order, little-endian, including a type-specific payload digest so
// distinct payloads never collide.
func (tx *Transaction) SigningHash() primitives.Hash {
	b := crypto.NewHashBuilder().
		UpdateAddress(tx.From).
		UpdateAddress(tx.To).
		UpdateU64(uint64(tx.Amount)).
		UpdateU64(tx.GasLimit).
		UpdateU64(tx.GasPrice).
		UpdateU64(uint64(tx.Nonce)).
		Update([]byte{byte(tx.Type)}).
		UpdateHash(tx.payloadHash()).
		UpdateU64(uint64(tx.Timestamp.Unix()))
	return b.Finalize()
}

func (tx *Transaction) payloadHash() primitives.Hash {
	b := crypto.NewHashBuilder()
	switch p := tx.Payload.(type) {
	case *TransferPayload:
		b.UpdateAddress(p.To).UpdateU64(uint64(p.Amount))
	case *StakePayload:
		b.UpdateAddress(p.Validator).UpdateU64(uint64(p.Amount)).UpdateAddress(p.Delegator)
	case *UnstakePayload:
		b.UpdateAddress(p.Validator).UpdateU64(uint64(p.Amount)).UpdateAddress(p.Delegator)
	case *DelegatePayload:
		b.UpdateAddress(p.Validator).UpdateAddress(p.Delegator).UpdateU64(uint64(p.Amount))
	case *UndelegatePayload:
		b.UpdateAddress(p.Validator).UpdateAddress(p.Delegator).UpdateU64(uint64(p.Amount))
	case *ValidatorRegistrationPayload:
		b.Update(p.ValidatorKey[:]).UpdateU32(uint32(p.CommissionRate)).UpdateU64(uint64(p.MinimumStake)).
			Update([]byte(p.Metadata.Name))
	case *ValidatorUpdatePayload:
		b.UpdateAddress(p.Validator).UpdateU32(uint32(p.CommissionRate)).Update([]byte(p.Metadata.Name))
	case *ContractPayload:
		b.Update(p.Code).Update(p.Args)
	}
	return b.Finalize()
}

// Sign fills Signature by signing the transaction's signing hash.
func (tx *Transaction) Sign(priv primitives.PrivateKey) {
	h := tx.SigningHash()
	tx.Signature = crypto.Sign(priv, h[:])
}

// VerifySignature checks Signature against pub.
func (tx *Transaction) VerifySignature(pub primitives.PublicKey) error {
	h := tx.SigningHash()
	return crypto.Verify(pub, h[:], tx.Signature)
}

// Fee is gas_limit * gas_price.
func (tx *Transaction) Fee() uint64 { return tx.GasLimit * tx.GasPrice }

// TotalCost is amount + fee.
func (tx *Transaction) TotalCost() uint64 { return uint64(tx.Amount) + tx.Fee() }

// IsValid applies the transaction validity predicate: no-op
// (zero-amount, payload-less) transactions are rejected, gas parameters
// must be non-zero, and the transaction must not be stale by more than
// 24 hours.
func (tx *Transaction) IsValid(now time.Time) bool {
	if tx.Amount == 0 && tx.Payload == nil {
		return false
	}
	if tx.GasLimit == 0 || tx.GasPrice == 0 {
		return false
	}
	return isWithin24Hours(tx.Timestamp, now)
}
