package wallet

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Challenge messages are built client-side from these exact templates and
// signed as-is; verification is over the byte-for-byte text, so both sides
// must agree on the format. Each message embeds its issue time.
//
// The upstream flow carried no nonce or single-use marker. Rather than keep a
// server-side ledger of consumed challenges, validation bounds the embedded
// timestamp to a short window, which caps how long a captured signature stays
// replayable while keeping the server stateless.
const (
	loginTemplate  = "Sign in to LaunchLoop with wallet %s\n\nIssued At: %s"
	linkTemplate   = "Link wallet %s to your LaunchLoop account %s\n\nIssued At: %s"
	changeTemplate = "Change the wallet on your LaunchLoop account %s to %s\n\nIssued At: %s"

	// Tolerated forward clock skew between client and server.
	maxClockSkew = time.Minute
)

var (
	ErrMalformedChallenge = errors.New("challenge message does not match the expected format")
	ErrChallengeExpired   = errors.New("challenge message timestamp is outside the validity window")
)

// LoginMessage returns the sign-in challenge for a wallet, issued now.
func LoginMessage(walletAddress string, now time.Time) string {
	return fmt.Sprintf(loginTemplate, walletAddress, now.UTC().Format(time.RFC3339))
}

// LinkMessage returns the wallet-link challenge. It embeds both the wallet
// and the account email so a signed message cannot be replayed against a
// different account.
func LinkMessage(walletAddress, email string, now time.Time) string {
	return fmt.Sprintf(linkTemplate, walletAddress, email, now.UTC().Format(time.RFC3339))
}

// ChangeMessage returns the wallet-change challenge, same binding as
// LinkMessage but explicitly superseding an already linked wallet.
func ChangeMessage(walletAddress, email string, now time.Time) string {
	return fmt.Sprintf(changeTemplate, email, walletAddress, now.UTC().Format(time.RFC3339))
}

// ValidateLoginMessage checks that message is a login challenge for
// walletAddress issued within window of now.
func ValidateLoginMessage(message, walletAddress string, window time.Duration, now time.Time) error {
	prefix := fmt.Sprintf("Sign in to LaunchLoop with wallet %s\n\nIssued At: ", walletAddress)
	return validate(message, prefix, window, now)
}

// ValidateLinkMessage checks that message is a link or change challenge
// binding walletAddress to email, issued within window of now. Link and
// change messages are both accepted: which one applies is decided by whether
// the account already has a wallet, not by the message text.
func ValidateLinkMessage(message, walletAddress, email string, window time.Duration, now time.Time) error {
	linkPrefix := fmt.Sprintf("Link wallet %s to your LaunchLoop account %s\n\nIssued At: ", walletAddress, email)
	changePrefix := fmt.Sprintf("Change the wallet on your LaunchLoop account %s to %s\n\nIssued At: ", email, walletAddress)

	if err := validate(message, linkPrefix, window, now); !errors.Is(err, ErrMalformedChallenge) {
		return err
	}
	return validate(message, changePrefix, window, now)
}

func validate(message, prefix string, window time.Duration, now time.Time) error {
	rest, ok := strings.CutPrefix(message, prefix)
	if !ok {
		return ErrMalformedChallenge
	}

	issued, err := time.Parse(time.RFC3339, rest)
	if err != nil {
		return ErrMalformedChallenge
	}

	if window <= 0 {
		// Window disabled: timestamp is audit data only.
		return nil
	}
	if issued.After(now.Add(maxClockSkew)) || now.Sub(issued) > window {
		return ErrChallengeExpired
	}
	return nil
}
