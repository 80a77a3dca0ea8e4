package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/launchloop/launchloop-backend/internal/config"
	"github.com/launchloop/launchloop-backend/internal/dto"
	"github.com/launchloop/launchloop-backend/internal/store"
	"github.com/launchloop/launchloop-backend/internal/wallet"
)

var (
	// ErrInvalidSignature covers every authentication failure: forged
	// signature, malformed input, stale or mismatched challenge. Callers get
	// one generic rejection so probing reveals nothing about which check
	// failed.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrDataConsistency means the store returned a shape that should be
	// impossible, e.g. an authenticated user's row vanished mid-flow.
	ErrDataConsistency = errors.New("account data is inconsistent")
)

// AuthService coordinates signature verification, identity resolution and
// token minting for the two credential families.
type AuthService struct {
	store  store.IdentityStore
	tokens *TokenIssuer
	window time.Duration
}

func NewAuthService(st store.IdentityStore, tokens *TokenIssuer, cfg *config.Config) *AuthService {
	return &AuthService{store: st, tokens: tokens, window: cfg.ChallengeWindow}
}

// LoginWithWallet performs SIWS: the wallet address doubles as the Ed25519
// public key, so a valid signature over the challenge proves control of the
// wallet. First login creates the account; later logins bump the counter via
// the store's atomic increment.
func (s *AuthService) LoginWithWallet(ctx context.Context, publicKey, signature, message string) (*dto.AuthResponse, error) {
	if err := wallet.ValidateLoginMessage(message, publicKey, s.window, time.Now()); err != nil {
		slog.Info("login challenge rejected", "wallet", publicKey, "error", err)
		return nil, ErrInvalidSignature
	}
	if !wallet.VerifyEd25519(publicKey, signature, message) {
		return nil, ErrInvalidSignature
	}

	user, created, err := s.store.FindOrCreateByWallet(ctx, publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wallet user: %w", err)
	}
	if !created {
		if err := s.store.IncrementLogin(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to record login: %w", err)
		}
		user.LoginCount++
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token:     token,
		User:      dto.NewUserResponse(user),
		IsNewUser: created,
	}, nil
}

// LoginWithEmail resolves an external-provider identity. Resolution is a
// single atomic find-or-create keyed by email, so two simultaneous first
// logins cannot create two rows. New accounts come back flagged for wallet
// linking.
func (s *AuthService) LoginWithEmail(ctx context.Context, email, providerID, username string) (*dto.AuthResponse, error) {
	user, created, err := s.store.FindOrCreateByEmail(ctx, email, providerID, username)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve email user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token:     token,
		User:      dto.NewUserResponse(user),
		IsNewUser: created,
	}, nil
}

// LinkWallet attaches a wallet to the authenticated account after verifying
// a challenge signed by that wallet's credential. The store decides between
// plain link, orphan merge, and rejection; the merged flag tells the caller
// whether history was absorbed from a previous anonymous account.
func (s *AuthService) LinkWallet(ctx context.Context, userID uuid.UUID, walletAddress, message string, cred wallet.Credential) (*dto.LinkWalletResponse, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			slog.Error("authenticated user missing during wallet link", "user_id", userID)
			return nil, ErrDataConsistency
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := wallet.ValidateLinkMessage(message, walletAddress, user.EmailOrEmpty(), s.window, time.Now()); err != nil {
		slog.Info("link challenge rejected", "user_id", userID, "wallet", walletAddress, "error", err)
		return nil, ErrInvalidSignature
	}

	// A raw-key credential must be the key of the wallet being linked; a
	// passkey signs on behalf of a smart wallet whose address differs from
	// the P-256 key, so no such equality holds there.
	if cred.Kind == wallet.KindEd25519 {
		if cred.Ed25519 == nil || cred.Ed25519.PublicKey != walletAddress {
			return nil, ErrInvalidSignature
		}
	}
	if !cred.Verify(message) {
		return nil, ErrInvalidSignature
	}

	linked, merged, err := s.store.LinkWalletWithMerge(ctx, userID, walletAddress)
	if err != nil {
		if errors.Is(err, store.ErrWalletAlreadyLinked) {
			return nil, store.ErrWalletAlreadyLinked
		}
		if errors.Is(err, store.ErrUserNotFound) {
			slog.Error("user vanished during wallet link", "user_id", userID)
			return nil, ErrDataConsistency
		}
		return nil, fmt.Errorf("failed to link wallet: %w", err)
	}

	msg := "Wallet linked"
	if merged {
		msg = "Wallet linked; activity from your previous wallet login was merged into this account"
	}
	return &dto.LinkWalletResponse{
		User:    dto.NewUserResponse(linked),
		Merged:  merged,
		Message: msg,
	}, nil
}
