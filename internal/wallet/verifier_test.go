package wallet

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signEd25519(t *testing.T, message string) (pubB58, sigB58 string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sig := ed25519.Sign(priv, []byte(message))
	return base58.Encode(pub), base58.Encode(sig)
}

func TestVerifyEd25519_ValidSignature(t *testing.T) {
	msg := "Sign in to LaunchLoop with wallet abc\n\nIssued At: 2026-01-02T15:04:05Z"
	pub, sig := signEd25519(t, msg)

	assert.True(t, VerifyEd25519(pub, sig, msg))
}

func TestVerifyEd25519_TamperedSignature(t *testing.T) {
	msg := "hello launchloop"
	pub, sigB58 := signEd25519(t, msg)

	sig, err := base58.Decode(sigB58)
	require.NoError(t, err)
	sig[0] ^= 0x01
	assert.False(t, VerifyEd25519(pub, base58.Encode(sig), msg))
}

func TestVerifyEd25519_TamperedMessage(t *testing.T) {
	msg := "hello launchloop"
	pub, sig := signEd25519(t, msg)

	assert.False(t, VerifyEd25519(pub, sig, msg+" "))
}

func TestVerifyEd25519_MalformedInput(t *testing.T) {
	msg := "msg"
	pub, sig := signEd25519(t, msg)

	cases := []struct {
		name     string
		pub, sig string
	}{
		{"bad base58 pubkey", "not-base58-0OIl", sig},
		{"bad base58 signature", pub, "not-base58-0OIl"},
		{"short pubkey", base58.Encode([]byte{1, 2, 3}), sig},
		{"short signature", pub, base58.Encode([]byte{1, 2, 3})},
		{"empty pubkey", "", sig},
		{"empty signature", pub, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, VerifyEd25519(tc.pub, tc.sig, msg))
		})
	}
}

func makeAssertion(t *testing.T, priv *ecdsa.PrivateKey, message string, compressed bool) PasskeyAssertion {
	t.Helper()

	authData := make([]byte, 37)
	authData[32] = 0x01 // user present

	cd, err := json.Marshal(map[string]string{
		"type":      "webauthn.get",
		"challenge": base64.RawURLEncoding.EncodeToString([]byte(message)),
		"origin":    "https://launchloop.app",
	})
	require.NoError(t, err)

	clientHash := sha256.Sum256(cd)
	signed := sha256.Sum256(append(authData, clientHash[:]...))
	sig, err := ecdsa.SignASN1(rand.Reader, priv, signed[:])
	require.NoError(t, err)

	var pubRaw []byte
	if compressed {
		pubRaw = elliptic.MarshalCompressed(elliptic.P256(), priv.X, priv.Y)
	} else {
		pubRaw = elliptic.Marshal(elliptic.P256(), priv.X, priv.Y)
	}

	return PasskeyAssertion{
		PublicKey:         base58.Encode(pubRaw),
		AuthenticatorData: base64.RawURLEncoding.EncodeToString(authData),
		ClientDataJSON:    base64.RawURLEncoding.EncodeToString(cd),
		Signature:         base64.RawURLEncoding.EncodeToString(sig),
	}
}

func TestVerifyPasskey_ValidAssertion(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	msg := "link wallet challenge"

	assert.True(t, VerifyPasskey(makeAssertion(t, priv, msg, false), msg))
	assert.True(t, VerifyPasskey(makeAssertion(t, priv, msg, true), msg))
}

func TestVerifyPasskey_WrongMessage(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	a := makeAssertion(t, priv, "challenge A", false)
	assert.False(t, VerifyPasskey(a, "challenge B"))
}

func TestVerifyPasskey_TamperedSignature(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	msg := "challenge"

	a := makeAssertion(t, priv, msg, false)
	raw, err := base64.RawURLEncoding.DecodeString(a.Signature)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	a.Signature = base64.RawURLEncoding.EncodeToString(raw)

	assert.False(t, VerifyPasskey(a, msg))
}

func TestVerifyPasskey_WrongCeremonyType(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	msg := "challenge"

	a := makeAssertion(t, priv, msg, false)
	cd, err := json.Marshal(map[string]string{
		"type":      "webauthn.create",
		"challenge": base64.RawURLEncoding.EncodeToString([]byte(msg)),
	})
	require.NoError(t, err)
	a.ClientDataJSON = base64.RawURLEncoding.EncodeToString(cd)

	assert.False(t, VerifyPasskey(a, msg))
}

func TestVerifyPasskey_MalformedInput(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	msg := "challenge"
	valid := makeAssertion(t, priv, msg, false)

	mutate := func(fn func(a *PasskeyAssertion)) PasskeyAssertion {
		a := valid
		fn(&a)
		return a
	}

	cases := []struct {
		name string
		a    PasskeyAssertion
	}{
		{"bad pubkey encoding", mutate(func(a *PasskeyAssertion) { a.PublicKey = "0OIl" })},
		{"truncated pubkey", mutate(func(a *PasskeyAssertion) { a.PublicKey = base58.Encode([]byte{4, 2}) })},
		{"bad auth data", mutate(func(a *PasskeyAssertion) { a.AuthenticatorData = "!!!" })},
		{"short auth data", mutate(func(a *PasskeyAssertion) { a.AuthenticatorData = base64.RawURLEncoding.EncodeToString([]byte{1}) })},
		{"bad client data", mutate(func(a *PasskeyAssertion) { a.ClientDataJSON = "!!!" })},
		{"client data not json", mutate(func(a *PasskeyAssertion) { a.ClientDataJSON = base64.RawURLEncoding.EncodeToString([]byte("nope")) })},
		{"bad signature encoding", mutate(func(a *PasskeyAssertion) { a.Signature = "!!!" })},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, VerifyPasskey(tc.a, msg))
		})
	}
}

func TestCredential_Dispatch(t *testing.T) {
	msg := "dispatch message"
	pub, sig := signEd25519(t, msg)

	ed := Credential{Kind: KindEd25519, Ed25519: &Ed25519Credential{PublicKey: pub, Signature: sig}}
	assert.True(t, ed.Verify(msg))

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	a := makeAssertion(t, priv, msg, true)
	pk := Credential{Kind: KindPasskey, Passkey: &a}
	assert.True(t, pk.Verify(msg))

	// Cross-kind payloads and unknown kinds reject.
	assert.False(t, Credential{Kind: KindEd25519}.Verify(msg))
	assert.False(t, Credential{Kind: KindPasskey}.Verify(msg))
	assert.False(t, Credential{Kind: "webauthn2"}.Verify(msg))
}
