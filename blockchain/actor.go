package blockchain

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/gossipvalidation"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// engineCmd is one variant of the actor's command queue: every state
// mutation the engine performs flows through exactly one of these,
// executed on the actor's own goroutine so Service's exclusively-owned
// fields never need a lock.
type engineCmd interface {
	execute(ctx context.Context, s *Service) error
}

type processBlockCmd struct{ block *blocks.Block }

func (c *processBlockCmd) execute(_ context.Context, s *Service) error {
	return s.ProcessBlock(c.block)
}

type processAttestationCmd struct{ attestation *blocks.Attestation }

func (c *processAttestationCmd) execute(_ context.Context, s *Service) error {
	return s.ProcessAttestation(c.attestation)
}

type processAttestationsCmd struct{ attestations []*blocks.Attestation }

func (c *processAttestationsCmd) execute(_ context.Context, s *Service) error {
	return s.ProcessAttestations(c.attestations)
}

type finalizeEpochCmd struct{ epoch primitives.Epoch }

func (c *finalizeEpochCmd) execute(ctx context.Context, s *Service) error {
	return s.FinalizeEpoch(ctx, c.epoch)
}

type shutdownCmd struct{}

func (c *shutdownCmd) execute(context.Context, *Service) error { return nil }

type actorRequest struct {
	cmd   engineCmd
	reply chan error
}

// Actor serializes every mutation to a Service through a single
// goroutine reading an unbuffered command channel, per spec.md §5: the
// engine itself is single-threaded, while producers (gossip ingestion,
// an RPC collaborator, a test harness) submit from any number of
// goroutines.
type Actor struct {
	svc  *Service
	cmds chan actorRequest
}

// NewActor wraps svc in a command-queue actor. svc must not be mutated
// by any caller other than through the returned Actor once Run starts.
func NewActor(svc *Service) *Actor {
	return &Actor{svc: svc, cmds: make(chan actorRequest)}
}

// Run drains the command queue until ctx is cancelled or a shutdown
// command is received. It is meant to be the sole goroutine that ever
// calls into svc's mutating methods.
func (a *Actor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-a.cmds:
			err := req.cmd.execute(ctx, a.svc)
			req.reply <- err
			if _, ok := req.cmd.(*shutdownCmd); ok {
				return nil
			}
		}
	}
}

func (a *Actor) submit(ctx context.Context, cmd engineCmd) error {
	reply := make(chan error, 1)
	select {
	case a.cmds <- actorRequest{cmd: cmd, reply: reply}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProcessBlock submits b to the actor and blocks until it has been
// admitted or rejected.
func (a *Actor) ProcessBlock(ctx context.Context, b *blocks.Block) error {
	return a.submit(ctx, &processBlockCmd{block: b})
}

// ProcessAttestation submits att to the actor.
func (a *Actor) ProcessAttestation(ctx context.Context, att *blocks.Attestation) error {
	return a.submit(ctx, &processAttestationCmd{attestation: att})
}

// ProcessAttestations submits a batch of attestations to the actor,
// which verifies their signatures concurrently before admitting them
// in order. Use this over repeated ProcessAttestation calls whenever
// several attestations for the same slot arrive together, e.g. from an
// aggregator gossip message.
func (a *Actor) ProcessAttestations(ctx context.Context, atts []*blocks.Attestation) error {
	return a.submit(ctx, &processAttestationsCmd{attestations: atts})
}

// FinalizeEpoch submits an epoch-finalization to the actor.
func (a *Actor) FinalizeEpoch(ctx context.Context, epoch primitives.Epoch) error {
	return a.submit(ctx, &finalizeEpochCmd{epoch: epoch})
}

// Shutdown asks the actor's Run loop to exit after its current command,
// and waits for acknowledgement.
func (a *Actor) Shutdown(ctx context.Context) error {
	return a.submit(ctx, &shutdownCmd{})
}

// GossipMessage pairs a validated-at-the-transport-layer envelope with
// the peer it arrived from.
type GossipMessage struct {
	Envelope     *gossipvalidation.Envelope
	SourcePeerID string
}

// ConsumeGossip reads envelopes from in and, for each one admitted by
// the engine's rate limiter and dedup cache, decodes and submits it to
// the actor. Admission control (IngestEnvelope) touches only the
// Service's gossip-facing fields, which are safe for concurrent use
// independent of the actor's command queue, so this can run as its own
// errgroup member alongside Run without funneling through it.
func (a *Actor) ConsumeGossip(ctx context.Context, in <-chan GossipMessage) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			admitted, err := a.svc.IngestEnvelope(msg.Envelope, msg.SourcePeerID, time.Now())
			if err != nil || !admitted {
				continue
			}
			// A rejected or malformed block is the gossiping peer's
			// fault, not ours: only ctx cancellation (surfaced through
			// ProcessBlock once the actor or group shuts down) ends
			// this loop.
			if err := a.dispatchEnvelope(ctx, msg.Envelope); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

func (a *Actor) dispatchEnvelope(ctx context.Context, env *gossipvalidation.Envelope) error {
	switch env.MsgType {
	case gossipvalidation.MsgBlock:
		var b blocks.Block
		if err := json.Unmarshal(env.Data, &b); err != nil {
			return nil
		}
		return a.ProcessBlock(ctx, &b)
	case gossipvalidation.MsgTransaction, gossipvalidation.MsgPing:
		// Mempool admission and liveness pings are external
		// collaborators (spec.md §6); the engine's concern ends at
		// admission control.
		return nil
	default:
		return nil
	}
}

// RunEngine drives the actor's command loop and its gossip consumer
// under a shared errgroup so a panic or early return in either
// propagates to both via the group's derived context, per spec.md §5.
func RunEngine(ctx context.Context, actor *Actor, gossip <-chan GossipMessage) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return actor.Run(gctx) })
	g.Go(func() error { return actor.ConsumeGossip(gctx, gossip) })
	return g.Wait()
}
