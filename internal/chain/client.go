// Package chain reads confirmed transactions from a Solana RPC node and
// turns them into verified transfer facts. It is the platform's only source
// of truth for payment amounts and parties; nothing a client declares about
// a payment is trusted without being checked against what this package reads.
package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TxResult is a confirmed transaction normalized to the few fields payment
// verification needs.
type TxResult struct {
	Slot         uint64
	BlockTime    time.Time
	Failed       bool
	AccountKeys  []string
	PreBalances  []uint64
	PostBalances []uint64
}

// Client is the read-only chain query surface. A nil result with a nil error
// means the transaction is unknown or not yet confirmed.
type Client interface {
	GetConfirmedTransaction(ctx context.Context, signature string) (*TxResult, error)
}

// RPCClient implements Client over a Solana JSON-RPC endpoint.
type RPCClient struct {
	rpc *rpc.Client
}

func NewRPCClient(endpoint string) *RPCClient {
	return &RPCClient{rpc: rpc.New(endpoint)}
}

func (c *RPCClient) GetConfirmedTransaction(ctx context.Context, signature string) (*TxResult, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction signature: %w", err)
	}

	// Versioned (v0) transactions are rejected by default; opt in explicitly.
	maxVersion := uint64(0)
	out, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("rpc getTransaction: %w", err)
	}
	if out == nil || out.Meta == nil {
		return nil, nil
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	keys := make([]string, 0, len(tx.Message.AccountKeys))
	for _, k := range tx.Message.AccountKeys {
		keys = append(keys, k.String())
	}

	result := &TxResult{
		Slot:         out.Slot,
		Failed:       out.Meta.Err != nil,
		AccountKeys:  keys,
		PreBalances:  out.Meta.PreBalances,
		PostBalances: out.Meta.PostBalances,
	}
	if out.BlockTime != nil {
		result.BlockTime = out.BlockTime.Time()
	}
	return result, nil
}
