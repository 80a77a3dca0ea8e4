package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/launchloop/launchloop-backend/internal/chain"
	"github.com/launchloop/launchloop-backend/internal/dto"
	"github.com/launchloop/launchloop-backend/internal/models"
	"github.com/launchloop/launchloop-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	transfers map[string]chain.Transfer
}

func (f *fakeVerifier) Verify(_ context.Context, txHash string) chain.Transfer {
	return f.transfers[txHash]
}

func paymentFixture(t *testing.T) (*PaymentService, store.IdentityStore, *fakeVerifier, *models.User, *models.User) {
	t.Helper()
	st := newTestStore(t)
	ctx := context.Background()

	sender, _, err := st.FindOrCreateByWallet(ctx, "senderWallet1111")
	require.NoError(t, err)
	recipient, _, err := st.FindOrCreateByWallet(ctx, "recipientWallet222")
	require.NoError(t, err)

	fv := &fakeVerifier{transfers: map[string]chain.Transfer{}}
	return NewPaymentService(st, fv, "platformWallet999"), st, fv, sender, recipient
}

func confirmedTransfer(amount float64) chain.Transfer {
	return chain.Transfer{
		Valid:     true,
		From:      "senderWallet1111",
		To:        "recipientWallet222",
		Amount:    amount,
		Lamports:  uint64(amount * 1e9),
		Slot:      301442210,
		BlockTime: time.Date(2026, 2, 14, 8, 30, 0, 0, time.UTC),
	}
}

func TestVerifyAndRecord_Success(t *testing.T) {
	svc, st, fv, sender, recipient := paymentFixture(t)
	ctx := context.Background()
	fv.transfers["abc"] = confirmedTransfer(0.5)

	rec, err := svc.VerifyAndRecord(ctx, sender.ID, &dto.PaymentRequest{
		TxHash:    "abc",
		Recipient: "recipientWallet222",
		Amount:    0.5,
		Type:      models.PaymentTypeTip,
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.TxHash)
	assert.Equal(t, "senderWallet1111", rec.FromWallet)
	assert.Equal(t, "recipientWallet222", rec.ToWallet)
	assert.InDelta(t, 0.5, rec.Amount, 1e-9)
	assert.Equal(t, models.PaymentStatusConfirmed, rec.Status)
	assert.NotEmpty(t, rec.Chain)

	// floor(0.5 * 10) = 5 for the recipient, half for the sender.
	gotRecipient, err := st.FindByID(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, gotRecipient.Reputation)

	gotSender, err := st.FindByID(ctx, sender.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, gotSender.Reputation)
}

func TestVerifyAndRecord_DuplicateTransaction(t *testing.T) {
	svc, st, fv, sender, recipient := paymentFixture(t)
	ctx := context.Background()
	fv.transfers["abc"] = confirmedTransfer(0.5)

	req := &dto.PaymentRequest{
		TxHash:    "abc",
		Recipient: "recipientWallet222",
		Amount:    0.5,
		Type:      models.PaymentTypeTip,
	}
	_, err := svc.VerifyAndRecord(ctx, sender.ID, req)
	require.NoError(t, err)

	_, err = svc.VerifyAndRecord(ctx, sender.ID, req)
	assert.ErrorIs(t, err, store.ErrDuplicateTransaction)

	// Exactly one ledger row and no double reputation.
	_, total, err := st.ListPaymentsByUser(ctx, sender.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	gotRecipient, err := st.FindByID(ctx, recipient.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, gotRecipient.Reputation)
}

func TestVerifyAndRecord_InvalidTransaction(t *testing.T) {
	svc, _, _, sender, _ := paymentFixture(t)

	_, err := svc.VerifyAndRecord(context.Background(), sender.ID, &dto.PaymentRequest{
		TxHash:    "unknown",
		Recipient: "recipientWallet222",
		Amount:    1,
		Type:      models.PaymentTypeTip,
	})
	assert.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestVerifyAndRecord_RecipientMismatch(t *testing.T) {
	svc, st, fv, sender, _ := paymentFixture(t)
	ctx := context.Background()
	fv.transfers["abc"] = confirmedTransfer(0.5)

	_, err := svc.VerifyAndRecord(ctx, sender.ID, &dto.PaymentRequest{
		TxHash:    "abc",
		Recipient: "attackerWallet333",
		Amount:    0.5,
		Type:      models.PaymentTypeTip,
	})
	assert.ErrorIs(t, err, ErrRecipientMismatch)

	// Rejected payments leave no ledger row.
	exists, err := st.PaymentExists(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestVerifyAndRecord_PlatformRecipientDefault(t *testing.T) {
	svc, _, fv, sender, _ := paymentFixture(t)
	ctx := context.Background()

	// No recipient in the request: the payment must land on the platform
	// wallet.
	transfer := confirmedTransfer(1.0)
	transfer.To = "platformWallet999"
	fv.transfers["bounty"] = transfer

	rec, err := svc.VerifyAndRecord(ctx, sender.ID, &dto.PaymentRequest{
		TxHash: "bounty",
		Amount: 1.0,
		Type:   models.PaymentTypeBounty,
	})
	require.NoError(t, err)
	assert.Equal(t, "platformWallet999", rec.ToWallet)

	// Same shape of request, but the transfer went somewhere else.
	fv.transfers["misdirected"] = confirmedTransfer(1.0)
	_, err = svc.VerifyAndRecord(ctx, sender.ID, &dto.PaymentRequest{
		TxHash: "misdirected",
		Amount: 1.0,
		Type:   models.PaymentTypeBounty,
	})
	assert.ErrorIs(t, err, ErrRecipientMismatch)
}

func TestVerifyAndRecord_AmountTolerance(t *testing.T) {
	svc, _, fv, sender, _ := paymentFixture(t)
	ctx := context.Background()

	// Chain says 0.995 against a claim of 1.0: within the 1% slack.
	fv.transfers["close"] = confirmedTransfer(0.995)
	_, err := svc.VerifyAndRecord(ctx, sender.ID, &dto.PaymentRequest{
		TxHash:    "close",
		Recipient: "recipientWallet222",
		Amount:    1.0,
		Type:      models.PaymentTypeBounty,
	})
	assert.NoError(t, err)

	// 5% off is rejected.
	fv.transfers["far"] = confirmedTransfer(0.95)
	_, err = svc.VerifyAndRecord(ctx, sender.ID, &dto.PaymentRequest{
		TxHash:    "far",
		Recipient: "recipientWallet222",
		Amount:    1.0,
		Type:      models.PaymentTypeBounty,
	})
	assert.ErrorIs(t, err, ErrAmountMismatch)
}

func TestVerifyAndRecord_UnregisteredRecipient(t *testing.T) {
	svc, st, fv, sender, _ := paymentFixture(t)
	ctx := context.Background()

	transfer := confirmedTransfer(1.0)
	transfer.To = "strangerWallet444"
	fv.transfers["abc"] = transfer

	rec, err := svc.VerifyAndRecord(ctx, sender.ID, &dto.PaymentRequest{
		TxHash:    "abc",
		Recipient: "strangerWallet444",
		Amount:    1.0,
		Type:      models.PaymentTypeReward,
	})
	require.NoError(t, err)
	assert.Equal(t, "strangerWallet444", rec.ToWallet)

	// Sender still earns: floor(1.0*10)/2 = 5.
	gotSender, err := st.FindByID(ctx, sender.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, gotSender.Reputation)
}

func TestListPayments(t *testing.T) {
	svc, _, fv, sender, _ := paymentFixture(t)
	ctx := context.Background()
	fv.transfers["t1"] = confirmedTransfer(0.1)
	fv.transfers["t2"] = confirmedTransfer(0.2)

	for _, h := range []string{"t1", "t2"} {
		_, err := svc.VerifyAndRecord(ctx, sender.ID, &dto.PaymentRequest{
			TxHash:    h,
			Recipient: "recipientWallet222",
			Amount:    fv.transfers[h].Amount,
			Type:      models.PaymentTypeTip,
		})
		require.NoError(t, err)
	}

	resp, err := svc.ListPayments(ctx, sender.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Total)
	assert.Len(t, resp.Payments, 2)

	other, err := svc.ListPayments(ctx, uuid.New(), 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, other.Total)
}
