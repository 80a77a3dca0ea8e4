package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/launchloop/launchloop-backend/internal/chain"
	"github.com/launchloop/launchloop-backend/internal/dto"
	"github.com/launchloop/launchloop-backend/internal/models"
	"github.com/launchloop/launchloop-backend/internal/store"
	"gorm.io/datatypes"
)

var (
	ErrInvalidTransaction = errors.New("transaction not found, not confirmed, or failed on chain")
	ErrRecipientMismatch  = errors.New("on-chain recipient does not match the expected recipient")
	ErrAmountMismatch     = errors.New("on-chain amount does not match the expected amount")
)

const (
	// Reputation accrual per SOL transferred; the sender earns half of what
	// the recipient earns.
	pointsPerSOL = 10

	// Fraction of the expected amount tolerated as fee-rounding slack.
	amountTolerance = 0.01
)

// TransferVerifier resolves a transaction signature into a trusted transfer.
// Satisfied by chain.TransferVerifier.
type TransferVerifier interface {
	Verify(ctx context.Context, txHash string) chain.Transfer
}

// PaymentService turns a claimed on-chain payment into an exactly-once ledger
// row plus reputation side effects. platformWallet is the expected recipient
// for platform-bound payments, used when a request names none.
type PaymentService struct {
	store          store.IdentityStore
	verifier       TransferVerifier
	platformWallet string
}

func NewPaymentService(st store.IdentityStore, verifier TransferVerifier, platformWallet string) *PaymentService {
	return &PaymentService{store: st, verifier: verifier, platformWallet: platformWallet}
}

// VerifyAndRecord is the idempotency-critical path. A request with no
// recipient is treated as platform-bound and checked against the configured
// platform wallet. The early duplicate check
// short-circuits replays before the chain query; the unique constraint on
// tx_hash inside InsertPaymentRecord is the actual race-safety guard for
// concurrent duplicate submissions. Reputation accrual after the insert is
// best-effort: a failure there is logged and reported but never rolls back
// the committed ledger row.
func (s *PaymentService) VerifyAndRecord(ctx context.Context, userID uuid.UUID, req *dto.PaymentRequest) (*models.PaymentRecord, error) {
	exists, err := s.store.PaymentExists(ctx, req.TxHash)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing payment: %w", err)
	}
	if exists {
		return nil, store.ErrDuplicateTransaction
	}

	transfer := s.verifier.Verify(ctx, req.TxHash)
	if !transfer.Valid {
		return nil, ErrInvalidTransaction
	}

	expected := req.Recipient
	if expected == "" {
		expected = s.platformWallet
	}
	if expected == "" || transfer.To != expected {
		slog.Warn("payment recipient mismatch",
			"tx_hash", req.TxHash, "user_id", userID,
			"expected", expected, "actual", transfer.To)
		sentry.CaptureMessage(fmt.Sprintf("payment recipient mismatch for tx %s", req.TxHash))
		return nil, ErrRecipientMismatch
	}

	if math.Abs(transfer.Amount-req.Amount) > req.Amount*amountTolerance {
		slog.Warn("payment amount mismatch",
			"tx_hash", req.TxHash, "user_id", userID,
			"expected", req.Amount, "actual", transfer.Amount)
		sentry.CaptureMessage(fmt.Sprintf("payment amount mismatch for tx %s", req.TxHash))
		return nil, ErrAmountMismatch
	}

	record := &models.PaymentRecord{
		ID:         uuid.New(),
		TxHash:     req.TxHash,
		FromWallet: transfer.From,
		ToWallet:   transfer.To,
		Amount:     transfer.Amount,
		Type:       req.Type,
		ProjectID:  req.ProjectID,
		CommentID:  req.CommentID,
		UserID:     userID,
		Status:     models.PaymentStatusConfirmed,
		Chain:      chainSnapshot(transfer),
	}
	if err := s.store.InsertPaymentRecord(ctx, record); err != nil {
		return nil, err
	}

	s.applyReputation(ctx, userID, transfer)
	return record, nil
}

// ListPayments returns the caller's own ledger rows.
func (s *PaymentService) ListPayments(ctx context.Context, userID uuid.UUID, limit, offset int) (*dto.PaymentListResponse, error) {
	records, total, err := s.store.ListPaymentsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return &dto.PaymentListResponse{Payments: records, Total: total}, nil
}

// applyReputation awards points to recipient and sender. The recipient is
// resolved by wallet address; an unregistered recipient simply earns nothing.
// Failures here are an accepted inconsistency window, not a rollback trigger.
func (s *PaymentService) applyReputation(ctx context.Context, senderID uuid.UUID, transfer chain.Transfer) {
	recipientPoints := int(math.Floor(transfer.Amount * pointsPerSOL))
	senderPoints := recipientPoints / 2
	if recipientPoints <= 0 {
		return
	}

	recipient, err := s.store.FindByWallet(ctx, transfer.To)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		slog.Info("payment recipient has no account, skipping reputation", "wallet", transfer.To)
	case err != nil:
		slog.Error("failed to resolve payment recipient", "wallet", transfer.To, "error", err)
		sentry.CaptureException(err)
	default:
		if err := s.store.AddReputationPoints(ctx, recipient.ID, recipientPoints); err != nil {
			slog.Error("failed to award recipient reputation",
				"user_id", recipient.ID, "points", recipientPoints, "error", err)
			sentry.CaptureException(err)
		}
	}

	if senderPoints > 0 {
		if err := s.store.AddReputationPoints(ctx, senderID, senderPoints); err != nil {
			slog.Error("failed to award sender reputation",
				"user_id", senderID, "points", senderPoints, "error", err)
			sentry.CaptureException(err)
		}
	}
}

func chainSnapshot(transfer chain.Transfer) datatypes.JSON {
	b, err := json.Marshal(map[string]interface{}{
		"slot":       transfer.Slot,
		"lamports":   transfer.Lamports,
		"block_time": transfer.BlockTime,
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
