package chain

import (
	"context"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Transfer is the outcome of verifying one claimed payment. When Valid is
// false the remaining fields are zero; callers must not act on them.
type Transfer struct {
	Valid     bool
	From      string
	To        string
	Amount    float64 // SOL
	Lamports  uint64
	Slot      uint64
	BlockTime time.Time
}

// TransferVerifier resolves a transaction signature into a trusted transfer.
type TransferVerifier struct {
	client Client
}

func NewTransferVerifier(client Client) *TransferVerifier {
	return &TransferVerifier{client: client}
}

// Verify looks up a confirmed transaction and extracts sender, recipient and
// transferred amount. This is a trust boundary and fails closed: RPC errors,
// missing transactions, on-chain execution failures and malformed shapes all
// come back as an invalid transfer, never an error or a panic. A timeout on
// the RPC side is indistinguishable from "not found" on purpose.
func (v *TransferVerifier) Verify(ctx context.Context, txHash string) Transfer {
	tx, err := v.client.GetConfirmedTransaction(ctx, txHash)
	if err != nil {
		slog.Warn("chain lookup failed", "tx_hash", txHash, "error", err)
		return Transfer{}
	}
	if tx == nil || tx.Failed {
		return Transfer{}
	}

	// System transfers list the funding account first and the destination
	// second. Anything shorter is not a payment shape we accept.
	if len(tx.AccountKeys) < 2 || len(tx.PreBalances) < 1 || len(tx.PostBalances) < 1 {
		return Transfer{}
	}
	if tx.PreBalances[0] < tx.PostBalances[0] {
		// Sender balance went up; not an outgoing transfer.
		return Transfer{}
	}

	lamports := tx.PreBalances[0] - tx.PostBalances[0]
	return Transfer{
		Valid:     true,
		From:      tx.AccountKeys[0],
		To:        tx.AccountKeys[1],
		Amount:    float64(lamports) / float64(solana.LAMPORTS_PER_SOL),
		Lamports:  lamports,
		Slot:      tx.Slot,
		BlockTime: tx.BlockTime,
	}
}
