// Package wallet verifies wallet-control proofs: detached Ed25519 signatures
// from raw Solana wallets and P-256 WebAuthn assertions from passkey smart
// wallets. All inputs arrive from untrusted clients; every decode or shape
// failure degrades to a verification failure, never a panic.
package wallet

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"

	"github.com/mr-tron/base58"
)

// VerifyEd25519 checks a detached signature over the exact UTF-8 bytes of
// message. The public key and signature are base58 as produced by Solana
// wallet adapters. Malformed input of any kind returns false.
func VerifyEd25519(publicKey, signature, message string) bool {
	pub, err := base58.Decode(publicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := base58.Decode(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), []byte(message), sig)
}

// PasskeyAssertion carries the raw pieces of a WebAuthn get() ceremony as the
// browser hands them out. PublicKey is the base58 P-256 key registered for
// the smart wallet (33-byte compressed or 65-byte uncompressed SEC1 point);
// the remaining fields are base64url.
type PasskeyAssertion struct {
	PublicKey         string `json:"public_key"`
	AuthenticatorData string `json:"authenticator_data"`
	ClientDataJSON    string `json:"client_data_json"`
	Signature         string `json:"signature"`
}

type clientData struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
}

// VerifyPasskey checks a P-256 assertion over message. The authenticator
// signs authenticatorData || SHA-256(clientDataJSON); the client data must be
// a webauthn.get ceremony whose challenge is the base64url message bytes,
// which ties the assertion to the challenge text the user approved.
func VerifyPasskey(a PasskeyAssertion, message string) bool {
	pub := decodeP256PublicKey(a.PublicKey)
	if pub == nil {
		return false
	}

	authData, err := base64.RawURLEncoding.DecodeString(a.AuthenticatorData)
	if err != nil || len(authData) < 37 {
		return false
	}
	clientJSON, err := base64.RawURLEncoding.DecodeString(a.ClientDataJSON)
	if err != nil {
		return false
	}
	sig, err := base64.RawURLEncoding.DecodeString(a.Signature)
	if err != nil {
		return false
	}

	var cd clientData
	if err := json.Unmarshal(clientJSON, &cd); err != nil {
		return false
	}
	if cd.Type != "webauthn.get" {
		return false
	}
	if cd.Challenge != base64.RawURLEncoding.EncodeToString([]byte(message)) {
		return false
	}

	clientHash := sha256.Sum256(clientJSON)
	signed := sha256.Sum256(append(authData, clientHash[:]...))
	return ecdsa.VerifyASN1(pub, signed[:], sig)
}

func decodeP256PublicKey(encoded string) *ecdsa.PublicKey {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil
	}

	var x, y *big.Int
	switch len(raw) {
	case 33:
		x, y = elliptic.UnmarshalCompressed(elliptic.P256(), raw)
	case 65:
		x, y = elliptic.Unmarshal(elliptic.P256(), raw)
	default:
		return nil
	}
	if x == nil {
		return nil
	}
	return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
}
