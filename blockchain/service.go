// Package blockchain implements the consensus engine: the
// single-threaded cooperative actor that owns fork-choice and the
// validator set, and runs process_block/process_attestation/
// finalize_epoch over them. Grounded on
// original_source/src/consensus/mod.rs's ConsensusEngine.
package blockchain

import (
	"context"
	"runtime"
	"time"

	lru "github.com/hashicorp/golang-lru"
	bitfield "github.com/prysmaticlabs/go-bitfield"

	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/consensuserr"
	"github.com/republic-chain/proof-of-stake/crypto"
	"github.com/republic-chain/proof-of-stake/forkchoice"
	"github.com/republic-chain/proof-of-stake/gossipvalidation"
	"github.com/republic-chain/proof-of-stake/metricsutil"
	"github.com/republic-chain/proof-of-stake/params"
	"github.com/republic-chain/proof-of-stake/primitives"
	"github.com/republic-chain/proof-of-stake/selection"
	"github.com/republic-chain/proof-of-stake/slashing"
	"github.com/republic-chain/proof-of-stake/store"
	"github.com/republic-chain/proof-of-stake/validators"
)

// soleCommitteeIndex is the committee index used for the single,
// slot-wide committee this engine assigns attesters from — the
// transaction/attestation formats here carry no committee_index field,
// so every slot has exactly one committee.
const soleCommitteeIndex = 0

// Service holds every piece of state the engine owns exclusively:
// fork-choice, the validator set, the current slot/epoch, and the
// proposer/committee selector. All mutating methods are meant to be
// invoked only from the actor loop in actor.go, which serializes them.
type Service struct {
	clock         *Clock
	forkChoice    *forkchoice.Store
	validatorSet  *validators.Set
	accounts      *store.AccountState
	selector      *selection.Selector
	currentSlot   primitives.Slot
	currentEpoch  primitives.Epoch

	seenProposerHeaders map[proposerSlotKey]*blocks.BlockHeader
	recentAttestations  []*blocks.Attestation
	attestingIndices    map[primitives.Slot][]int
	aggregationBits     map[primitives.Slot]bitfield.Bitlist

	gossipLimiter *gossipvalidation.Limiter
	seenEnvelopes *lru.Cache
}

const defaultSeenEnvelopeCacheSize = 8192

type proposerSlotKey struct {
	proposer primitives.Address
	slot     primitives.Slot
}

// New constructs a Service over an already-populated genesis validator
// set, rooted at genesisRoot.
func New(clock *Clock, genesisRoot primitives.Hash, validatorSet *validators.Set) *Service {
	seen, err := lru.New(defaultSeenEnvelopeCacheSize)
	if err != nil {
		// lru.New only errors on a non-positive size.
		panic(err)
	}
	return &Service{
		clock:               clock,
		forkChoice:          forkchoice.NewStore(genesisRoot),
		validatorSet:        validatorSet,
		accounts:            store.NewAccountState(),
		selector:            selection.NewSelector(),
		currentSlot:         0,
		currentEpoch:        0,
		seenProposerHeaders: make(map[proposerSlotKey]*blocks.BlockHeader),
		attestingIndices:    make(map[primitives.Slot][]int),
		gossipLimiter:       gossipvalidation.NewLimiter(defaultGossipRate, defaultGossipBurst),
		seenEnvelopes:       seen,
	}
}

const (
	defaultGossipRate  = 256.0
	defaultGossipBurst = 512
)

func (s *Service) ForkChoice() *forkchoice.Store  { return s.forkChoice }
func (s *Service) Validators() *validators.Set    { return s.validatorSet }
func (s *Service) Accounts() *store.AccountState  { return s.accounts }
func (s *Service) CurrentSlot() primitives.Slot   { return s.currentSlot }
func (s *Service) CurrentEpoch() primitives.Epoch { return s.currentEpoch }

// ProcessBlock implements §4.5's process_block pipeline, recording the
// outcome (accepted, or rejected by kind) to metricsutil.BlocksProcessed
// / BlocksRejected before returning.
func (s *Service) ProcessBlock(b *blocks.Block) error {
	err := s.processBlock(b)
	if err != nil {
		kind, ok := consensuserr.KindOf(err)
		if !ok {
			kind = consensuserr.IOFailure
		}
		metricsutil.BlocksRejected.WithLabelValues(kind.String()).Inc()
		return err
	}
	metricsutil.BlocksProcessed.Inc()
	if head, ok := s.forkChoice.Block(s.forkChoice.Head()); ok {
		metricsutil.HeadSlot.Set(float64(head.Header.Slot))
	}
	metricsutil.ValidatorSetSize.Set(float64(s.validatorSet.Len()))
	return nil
}

func (s *Service) processBlock(b *blocks.Block) error {
	// 1. Structural validity.
	if err := s.checkStructural(b); err != nil {
		return err
	}

	// 2. Proposer check.
	expected, err := selection.SelectProposer(b.Header.Slot, s.validatorSet)
	if err != nil {
		return consensuserr.Wrap(err, consensuserr.AuthorityMismatch, "no eligible proposer for slot")
	}
	if b.Header.Proposer != expected {
		return consensuserr.New(consensuserr.AuthorityMismatch, "unexpected proposer for slot")
	}

	// 3. Signature check.
	proposer, err := s.validatorSet.Get(b.Header.Proposer)
	if err != nil {
		return consensuserr.Wrap(err, consensuserr.AuthorityMismatch, "proposer not registered")
	}
	if err := b.VerifySignature(proposer.PublicKey); err != nil {
		return consensuserr.Wrap(err, consensuserr.SignatureInvalid, "block signature verification failed")
	}

	// 4. Slot monotonicity.
	if b.Header.Slot <= s.currentSlot {
		return consensuserr.New(consensuserr.NonMonotonic, "block slot did not advance")
	}

	// 5. Epoch derivation.
	if b.Header.Epoch != SlotToEpoch(b.Header.Slot) {
		return consensuserr.New(consensuserr.StructuralInvalid, "epoch does not match slot")
	}

	// 6. Admit.
	s.forkChoice.AddBlock(b)
	if !s.clock.IsTimely(b.Header.Slot, time.Now()) {
		s.forkChoice.ClearProposerBoost()
	}
	leftEpoch := s.currentEpoch
	s.currentSlot = b.Header.Slot
	s.currentEpoch = b.Header.Epoch
	if err := s.applyTransactionEffects(b.Transactions); err != nil {
		return err
	}
	if err := s.validatorSet.RecordProposal(b.Header.Proposer, true, b.Header.Epoch); err != nil {
		return consensuserr.Wrap(err, consensuserr.IOFailure, "recording proposer performance")
	}

	s.detectProposerSlashing(&b.Header)

	// A block landing on the first slot of a new epoch closes out the
	// epoch it left, per spec.md §4.6's epoch-transition trigger.
	if b.Header.Epoch > leftEpoch && IsEpochBoundary(b.Header.Slot) {
		if err := s.FinalizeEpoch(context.Background(), leftEpoch); err != nil {
			return consensuserr.Wrap(err, consensuserr.IOFailure, "auto-finalizing epoch at boundary")
		}
	}
	return nil
}

func (s *Service) checkStructural(b *blocks.Block) error {
	if b.Header.GasUsed > b.Header.GasLimit {
		return consensuserr.New(consensuserr.StructuralInvalid, "gas_used exceeds gas_limit")
	}
	if got := blocks.SumGasUsed(b.Transactions); got != b.Header.GasUsed {
		return consensuserr.New(consensuserr.StructuralInvalid, "gas_used does not match summed transaction gas")
	}
	if got := blocks.ComputeMerkleRoot(b.Transactions); got != b.Header.MerkleRoot {
		return consensuserr.New(consensuserr.StructuralInvalid, "merkle_root mismatch")
	}
	now := s.clock.SlotStart(b.Header.Slot)
	for _, tx := range b.Transactions {
		if !tx.IsValid(now) {
			return consensuserr.New(consensuserr.StructuralInvalid, "transaction failed its validity predicate")
		}
	}
	return nil
}

func (s *Service) detectProposerSlashing(h *blocks.BlockHeader) {
	key := proposerSlotKey{proposer: h.Proposer, slot: h.Slot}
	if prev, ok := s.seenProposerHeaders[key]; ok {
		if ev := slashing.CheckProposerSlashing(prev, h); ev != nil {
			s.slashValidator(ev.Proposer)
		}
		return
	}
	cp := *h
	s.seenProposerHeaders[key] = &cp
}

func (s *Service) slashValidator(addr primitives.Address) {
	v, err := s.validatorSet.Get(addr)
	if err != nil {
		return
	}
	penalty := slashing.Penalty(v.TotalStake())
	_ = s.validatorSet.Slash(addr, penalty, s.currentEpoch)
}

// ProcessAttestation implements §4.5's process_attestation: reject an
// out-of-range validator index, verify the signature over the
// attestation data, confirm the validator is a member of the slot's
// committee, run the slashing detector against recently-seen
// attestations, and forward to fork-choice on success.
func (s *Service) ProcessAttestation(a *blocks.Attestation) error {
	if err := s.processAttestation(a); err != nil {
		kind, ok := consensuserr.KindOf(err)
		if !ok {
			kind = consensuserr.IOFailure
		}
		metricsutil.AttestationsRejected.WithLabelValues(kind.String()).Inc()
		return err
	}
	metricsutil.AttestationsProcessed.Inc()
	return nil
}

func (s *Service) processAttestation(a *blocks.Attestation) error {
	// validator_index is a position within the active-validator
	// ordering, the same index space proposer and committee selection
	// draw from (validators.Set.ActiveValidators).
	active := s.validatorSet.ActiveValidators()
	if uint64(a.ValidatorIndex) >= uint64(len(active)) {
		return consensuserr.New(consensuserr.AuthorityMismatch, "attestation validator_index out of range")
	}

	if err := a.VerifySignature(active[a.ValidatorIndex].PublicKey); err != nil {
		return consensuserr.Wrap(err, consensuserr.SignatureInvalid, "attestation signature verification failed")
	}

	cfg := params.BeaconConfig()
	committee := s.selector.Committee(a.Slot, SlotToEpoch(a.Slot), soleCommitteeIndex, s.validatorSet, cfg.MaxCommitteeSize)
	if !committeeContains(committee, a.ValidatorIndex) {
		return consensuserr.New(consensuserr.AuthorityMismatch, "validator is not a member of the slot's committee")
	}

	for _, prev := range s.recentAttestations {
		if ev := slashing.CheckAttesterSlashing(prev, a); ev != nil {
			for _, idx := range ev.Overlapping {
				if int(idx) < len(active) {
					s.slashValidator(active[idx].Address)
				}
			}
		}
	}
	s.recentAttestations = append(s.recentAttestations, a)
	if len(s.recentAttestations) > maxRecentAttestations {
		s.recentAttestations = s.recentAttestations[len(s.recentAttestations)-maxRecentAttestations:]
	}

	s.forkChoice.AddAttestation(a)
	_ = s.validatorSet.RecordAttestation(active[a.ValidatorIndex].Address, true, SlotToEpoch(a.Slot))
	s.recordAggregationBit(a.Slot, int(a.ValidatorIndex), len(active))
	return nil
}

const maxRecentAttestations = 4096

// ProcessAttestations verifies every attestation's signature
// concurrently via crypto.BatchVerify before forwarding each one
// through ProcessAttestation in order, so a slot with many incoming
// attestations (the common case once a committee is larger than a
// handful of validators) pays for signature verification in parallel
// rather than serially. A batch failure returns the first rejection
// encountered; attestations before it in the slice have already been
// admitted.
func (s *Service) ProcessAttestations(atts []*blocks.Attestation) error {
	active := s.validatorSet.ActiveValidators()
	items := make([]crypto.BatchVerifyItem, 0, len(atts))
	for _, a := range atts {
		if uint64(a.ValidatorIndex) >= uint64(len(active)) {
			return consensuserr.New(consensuserr.AuthorityMismatch, "attestation validator_index out of range")
		}
		h := a.SigningHash()
		items = append(items, crypto.BatchVerifyItem{
			PublicKey: active[a.ValidatorIndex].PublicKey,
			Message:   h[:],
			Signature: a.Signature,
		})
	}
	if err := crypto.BatchVerify(items); err != nil {
		return consensuserr.Wrap(err, consensuserr.SignatureInvalid, "attestation batch signature verification failed")
	}
	for _, a := range atts {
		if err := s.ProcessAttestation(a); err != nil {
			return err
		}
	}
	return nil
}

// IngestEnvelope is the gossip-facing entry point: it validates env,
// applies per-source backpressure (dropping rather than blocking over
// the configured rate), and suppresses duplicates by
// hash(data||sourcePeerID). A nil error with ok=false means the
// envelope was legitimately dropped (stale/oversized/malformed/
// rate-limited/duplicate), not a processing failure.
func (s *Service) IngestEnvelope(env *gossipvalidation.Envelope, sourcePeerID string, now time.Time) (ok bool, err error) {
	defer func() { metricsutil.GossipThroughput.Set(float64(s.gossipLimiter.Throughput())) }()

	if err := env.Validate(now); err != nil {
		metricsutil.GossipDropped.Inc()
		return false, nil
	}
	if !s.gossipLimiter.Allow(sourcePeerID) {
		metricsutil.GossipDropped.Inc()
		return false, nil
	}
	id := env.Identity(sourcePeerID)
	if _, seen := s.seenEnvelopes.Get(id); seen {
		metricsutil.GossipDropped.Inc()
		return false, nil
	}
	s.seenEnvelopes.Add(id, struct{}{})
	return true, nil
}

// GossipThroughput reports the current rolling envelopes/sec figure
// accepted by IngestEnvelope's rate limiter.
func (s *Service) GossipThroughput() int64 {
	return s.gossipLimiter.Throughput()
}

func committeeContains(committee []primitives.ValidatorIndex, idx primitives.ValidatorIndex) bool {
	for _, m := range committee {
		if m == idx {
			return true
		}
	}
	return false
}

func (s *Service) recordAggregationBit(slot primitives.Slot, validatorIndex, setSize int) {
	indices := append(s.attestingIndices[slot], validatorIndex)
	s.attestingIndices[slot] = indices
	if s.aggregationBits == nil {
		s.aggregationBits = make(map[primitives.Slot]bitfield.Bitlist)
	}
	s.aggregationBits[slot] = selection.AggregationBitlist(uint64(setSize), indices)
}

// AggregationBits returns the bitlist of validator-set indices that
// have attested for slot so far.
func (s *Service) AggregationBits(slot primitives.Slot) bitfield.Bitlist {
	return s.aggregationBits[slot]
}

// applyTransactionEffects implements §4.5 step 6's side-effect
// dispatch, per SPEC_FULL.md §4.5's payload-type mapping.
func (s *Service) applyTransactionEffects(txs []*blocks.Transaction) error {
	for _, tx := range txs {
		if err := s.applyOne(tx); err != nil {
			return consensuserr.Wrap(err, consensuserr.StructuralInvalid, "applying transaction side effects")
		}
	}
	return nil
}

func (s *Service) applyOne(tx *blocks.Transaction) error {
	switch p := tx.Payload.(type) {
	case *blocks.TransferPayload:
		return s.accounts.Transfer(tx.From, p.To, p.Amount)
	case *blocks.StakePayload:
		if _, ok := s.accounts.Account(tx.From); !ok {
			s.accounts.CreateAccount(tx.From, 0)
		}
		if err := s.accounts.Stake(tx.From, p.Validator, p.Amount); err != nil {
			return err
		}
		return s.addStakeToValidator(p.Validator, p.Amount)
	case *blocks.UnstakePayload:
		if err := s.accounts.Unstake(tx.From, p.Validator, p.Amount, uint64(s.currentSlot)); err != nil {
			return err
		}
		return s.removeStakeFromValidator(p.Validator, p.Amount)
	case *blocks.DelegatePayload:
		if err := s.accounts.Stake(p.Delegator, p.Validator, p.Amount); err != nil {
			return err
		}
		return s.addStakeToValidator(p.Validator, p.Amount)
	case *blocks.UndelegatePayload:
		if err := s.accounts.Unstake(p.Delegator, p.Validator, p.Amount, uint64(s.currentSlot)); err != nil {
			return err
		}
		return s.removeStakeFromValidator(p.Validator, p.Amount)
	case *blocks.ValidatorRegistrationPayload:
		addr := crypto.AddressFromPublicKey(p.ValidatorKey)
		v := validators.New(addr, p.ValidatorKey, p.MinimumStake, p.CommissionRate, s.currentEpoch, p.Metadata)
		return s.validatorSet.Add(v)
	case *blocks.ValidatorUpdatePayload:
		return s.validatorSet.UpdateMetadata(p.Validator, p.CommissionRate, p.Metadata)
	case *blocks.ContractPayload:
		// Hashed and recorded at the transaction level; never executed.
		return nil
	default:
		// No typed payload: a plain value transfer of tx.Amount, the
		// case IsValid admits when Amount is non-zero.
		if tx.Amount == 0 {
			return nil
		}
		return s.accounts.Transfer(tx.From, tx.To, tx.Amount)
	}
}

func (s *Service) addStakeToValidator(addr primitives.Address, amount primitives.Amount) error {
	return s.validatorSet.AddStake(addr, amount)
}

func (s *Service) removeStakeFromValidator(addr primitives.Address, amount primitives.Amount) error {
	return s.validatorSet.RemoveStake(addr, amount)
}

// validatorsPerYield bounds how many validators FinalizeEpoch processes
// between checks of ctx.Err(), so a large set stays responsive to
// shutdown without splitting the epoch transition's atomicity: the
// yield only ever happens between validators, never mid-update.
const validatorsPerYield = 256

// FinalizeEpoch implements §4.5's finalize_epoch: distribute rewards,
// eject under-stake validators, remove validators past their
// withdrawability delay, and pin the set to e. Slashings are not
// processed here: processBlock and processAttestation slash a validator
// as soon as they detect its equivocation. ctx is
// checked every validatorsPerYield validators so a large validator set
// doesn't block shutdown; a cancelled context aborts the remainder of
// the epoch transition.
func (s *Service) FinalizeEpoch(ctx context.Context, e primitives.Epoch) error {
	if err := s.distributeRewards(ctx, e); err != nil {
		return err
	}
	if err := s.ejectAndExit(ctx, e); err != nil {
		return err
	}
	s.validatorSet.SetEpoch(e)
	return nil
}

func (s *Service) distributeRewards(ctx context.Context, e primitives.Epoch) error {
	cfg := params.BeaconConfig()
	totalRewards := cfg.TotalRewardsPerEpoch
	totalStake := s.validatorSet.TotalStake()
	if totalStake == 0 {
		return nil
	}

	for i, v := range s.validatorSet.ActiveValidators() {
		if i > 0 && i%validatorsPerYield == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			runtime.Gosched()
		}
		base := uint64(v.TotalStake()) * totalRewards / uint64(totalStake)
		reward := float64(base) * v.UptimeRatio() * v.AttestationRatio()
		_ = s.validatorSet.AddReward(v.Address, primitives.Amount(reward))
	}
	return nil
}

func (s *Service) ejectAndExit(ctx context.Context, e primitives.Epoch) error {
	cfg := params.BeaconConfig()
	var toRemove []primitives.Address

	for i, v := range s.validatorSet.All() {
		if i > 0 && i%validatorsPerYield == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			runtime.Gosched()
		}
		if v.TotalStake() < primitives.Amount(cfg.EjectionBalance) && v.Status != validators.Exiting && v.Status != validators.Exited {
			_ = s.validatorSet.SetExiting(v.Address)
		}
		if v.Status == validators.Exiting {
			if uint64(e) >= uint64(v.LastActiveEpoch)+cfg.MinValidatorWithdrawabilityDelay {
				toRemove = append(toRemove, v.Address)
			}
		}
	}
	for _, addr := range toRemove {
		_ = s.validatorSet.RemoveExited(addr)
	}
	return nil
}
