package blockchain

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/republic-chain/proof-of-stake/gossipvalidation"
)

func TestActorProcessesBlockAndShutsDown(t *testing.T) {
	svc, set, keys := newTestFixture(t, 2, 100)
	actor := NewActor(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- actor.Run(ctx) }()

	b := signedBlockForSlot(t, svc, set, keys, 1)
	require.NoError(t, actor.ProcessBlock(ctx, b))
	require.Equal(t, uint64(1), uint64(svc.CurrentSlot()))

	require.NoError(t, actor.Shutdown(ctx))
	require.NoError(t, <-done)
}

func TestActorRejectsAfterContextCancellation(t *testing.T) {
	svc, _, _ := newTestFixture(t, 1, 10)
	actor := NewActor(svc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := actor.ProcessBlock(ctx, nil)
	require.Error(t, err)
}

func TestConsumeGossipIgnoresRejectedBlocksAndKeepsRunning(t *testing.T) {
	svc, set, keys := newTestFixture(t, 2, 100)
	actor := NewActor(svc)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- actor.Run(ctx) }()

	consumeDone := make(chan error, 1)
	msgs := make(chan GossipMessage, 4)
	go func() { consumeDone <- actor.ConsumeGossip(ctx, msgs) }()

	// A well-formed envelope whose block decodes but is not the slot's
	// proposer: should be dropped by the engine, not crash the consumer.
	b := signedBlockForSlot(t, svc, set, keys, 1)
	wrong := keys[0]
	if b.Header.Proposer == wrong.Address {
		wrong = keys[1]
	}
	b.Header.Proposer = wrong.Address
	b.Sign(wrong.Private) // well-signed, but not the slot's expected proposer
	raw, err := json.Marshal(b)
	require.NoError(t, err)

	msgs <- GossipMessage{
		Envelope: &gossipvalidation.Envelope{
			MsgType:     gossipvalidation.MsgBlock,
			Data:        raw,
			TimestampMS: uint64(time.Now().UnixMilli()),
		},
		SourcePeerID: "peer-a",
	}
	msgs <- GossipMessage{
		Envelope: &gossipvalidation.Envelope{
			MsgType:     gossipvalidation.MsgPing,
			TimestampMS: uint64(time.Now().UnixMilli()),
		},
		SourcePeerID: "peer-a",
	}

	// Give the consumer goroutine a moment to process both messages,
	// then confirm it and the actor are both still alive.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, actor.Shutdown(ctx))
	require.NoError(t, <-runDone)

	cancel()
	<-consumeDone
}
