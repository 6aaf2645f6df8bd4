package gossipvalidation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/republic-chain/proof-of-stake/blocks"
)

func TestValidateRejectsStaleEnvelope(t *testing.T) {
	e := &Envelope{MsgType: MsgPing, TimestampMS: uint64(time.Now().Add(-10 * time.Minute).UnixMilli())}
	require.Error(t, e.Validate(time.Now()))
}

func TestValidateRejectsOversizedEnvelope(t *testing.T) {
	e := &Envelope{
		MsgType:     MsgTransaction,
		Data:        make([]byte, maxDataSize+1),
		TimestampMS: uint64(time.Now().UnixMilli()),
	}
	require.Error(t, e.Validate(time.Now()))
}

func TestValidatePingRequiresEmptyData(t *testing.T) {
	e := &Envelope{MsgType: MsgPing, Data: []byte("x"), TimestampMS: uint64(time.Now().UnixMilli())}
	require.Error(t, e.Validate(time.Now()))

	ok := &Envelope{MsgType: MsgPing, TimestampMS: uint64(time.Now().UnixMilli())}
	require.NoError(t, ok.Validate(time.Now()))
}

func TestValidateBlockRequiresDecodableData(t *testing.T) {
	bad := &Envelope{MsgType: MsgBlock, Data: []byte("not json"), TimestampMS: uint64(time.Now().UnixMilli())}
	require.Error(t, bad.Validate(time.Now()))

	b := &blocks.Block{}
	raw, err := json.Marshal(b)
	require.NoError(t, err)
	good := &Envelope{MsgType: MsgBlock, Data: raw, TimestampMS: uint64(time.Now().UnixMilli())}
	require.NoError(t, good.Validate(time.Now()))
}

func TestIdentityIsStableForSameInputs(t *testing.T) {
	e := &Envelope{Data: []byte("payload")}
	require.Equal(t, e.Identity("peer-1"), e.Identity("peer-1"))
	require.NotEqual(t, e.Identity("peer-1"), e.Identity("peer-2"))
}

func TestLimiterDropsOverBurst(t *testing.T) {
	l := NewLimiter(1, 2)
	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow("peer") {
			allowed++
		}
	}
	require.LessOrEqual(t, allowed, 2)
}
