// Package gossipvalidation implements the envelope validation contract
// the engine applies to every message the gossip collaborator hands it
// (spec.md §6): staleness/size/decode-shape rejection and duplicate
// suppression. The gossip transport itself (peer discovery, stream
// muxing) is an external collaborator this core does not own.
package gossipvalidation

import (
	"encoding/json"
	"time"

	"github.com/republic-chain/proof-of-stake/blocks"
	"github.com/republic-chain/proof-of-stake/consensuserr"
	"github.com/republic-chain/proof-of-stake/crypto"
	"github.com/republic-chain/proof-of-stake/primitives"
)

// MsgType identifies an envelope's payload shape.
type MsgType uint8

const (
	MsgBlock MsgType = iota
	MsgTransaction
	MsgPing
)

const (
	maxAge      = 5 * time.Minute
	maxDataSize = 10 * 1024 * 1024 // 10 MiB
)

// Envelope is the framed gossip message: {msg_type, data, timestamp_ms}.
type Envelope struct {
	MsgType     MsgType
	Data        []byte
	TimestampMS uint64
}

// Validate rejects envelopes older than 5 minutes (relative to now),
// over the 10 MiB size cap, or whose data fails to decode for its
// declared type. Ping envelopes must carry empty data.
func (e *Envelope) Validate(now time.Time) error {
	age := now.Sub(time.UnixMilli(int64(e.TimestampMS)))
	if age < 0 {
		age = -age
	}
	if age > maxAge {
		return consensuserr.New(consensuserr.StructuralInvalid, "gossip envelope is stale")
	}
	if len(e.Data) > maxDataSize {
		return consensuserr.New(consensuserr.StructuralInvalid, "gossip envelope exceeds max size")
	}

	switch e.MsgType {
	case MsgBlock:
		if len(e.Data) == 0 {
			return consensuserr.New(consensuserr.StructuralInvalid, "block envelope data is empty")
		}
		var b blocks.Block
		if err := json.Unmarshal(e.Data, &b); err != nil {
			return consensuserr.Wrap(err, consensuserr.StructuralInvalid, "invalid block envelope data")
		}
	case MsgTransaction:
		if len(e.Data) == 0 {
			return consensuserr.New(consensuserr.StructuralInvalid, "transaction envelope data is empty")
		}
		var tx blocks.Transaction
		if err := json.Unmarshal(e.Data, &tx); err != nil {
			return consensuserr.Wrap(err, consensuserr.StructuralInvalid, "invalid transaction envelope data")
		}
	case MsgPing:
		if len(e.Data) != 0 {
			return consensuserr.New(consensuserr.StructuralInvalid, "ping envelope must carry empty data")
		}
	default:
		return consensuserr.New(consensuserr.StructuralInvalid, "unknown gossip message type")
	}
	return nil
}

// Identity is the envelope's de-duplication key: hash(data ||
// source_peer_id).
func (e *Envelope) Identity(sourcePeerID string) primitives.Hash {
	return crypto.NewHashBuilder().Update(e.Data).Update([]byte(sourcePeerID)).Finalize()
}
