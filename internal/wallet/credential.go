package wallet

// Kind discriminates the two credential families a wallet can present.
type Kind string

const (
	KindEd25519 Kind = "ed25519"
	KindPasskey Kind = "passkey"
)

// Credential is a tagged variant: exactly one of Ed25519 or Passkey is set,
// selected by Kind.
type Credential struct {
	Kind    Kind
	Ed25519 *Ed25519Credential
	Passkey *PasskeyAssertion
}

// Ed25519Credential is a detached signature from a raw wallet keypair.
type Ed25519Credential struct {
	PublicKey string
	Signature string
}

// Verify dispatches to the verifier matching the credential kind. An unknown
// kind or a missing payload verifies as false.
func (c Credential) Verify(message string) bool {
	switch c.Kind {
	case KindEd25519:
		if c.Ed25519 == nil {
			return false
		}
		return VerifyEd25519(c.Ed25519.PublicKey, c.Ed25519.Signature, message)
	case KindPasskey:
		if c.Passkey == nil {
			return false
		}
		return VerifyPasskey(*c.Passkey, message)
	default:
		return false
	}
}
