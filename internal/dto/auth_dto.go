package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/launchloop/launchloop-backend/internal/models"
)

type WalletLoginRequest struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
	Message   string `json:"message"`
}

type EmailLoginRequest struct {
	Email      string `json:"email"`
	ProviderID string `json:"provider_id"`
	Username   string `json:"username,omitempty"`
}

// LinkWalletRequest carries either a raw Ed25519 signature or a passkey
// assertion, selected by CredentialKind.
type LinkWalletRequest struct {
	WalletAddress  string            `json:"wallet_address"`
	Message        string            `json:"message"`
	CredentialKind string            `json:"credential_kind"`
	PublicKey      string            `json:"public_key,omitempty"`
	Signature      string            `json:"signature,omitempty"`
	Passkey        *PasskeyAssertion `json:"passkey,omitempty"`
}

type PasskeyAssertion struct {
	PublicKey         string `json:"public_key"`
	AuthenticatorData string `json:"authenticator_data"`
	ClientDataJSON    string `json:"client_data_json"`
	Signature         string `json:"signature"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	User      UserResponse `json:"user"`
	IsNewUser bool         `json:"is_new_user"`
}

type LinkWalletResponse struct {
	User    UserResponse `json:"user"`
	Merged  bool         `json:"merged"`
	Message string       `json:"message"`
}

type ChallengeResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	ID                 uuid.UUID `json:"id"`
	WalletAddress      string    `json:"wallet_address,omitempty"`
	Email              string    `json:"email,omitempty"`
	Username           string    `json:"username"`
	Reputation         int       `json:"reputation"`
	LoginCount         int       `json:"login_count"`
	NeedsWalletConnect bool      `json:"needs_wallet_connect"`
	CreatedAt          time.Time `json:"created_at"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		WalletAddress:      u.Wallet(),
		Email:              u.EmailOrEmpty(),
		Username:           u.Username,
		Reputation:         u.Reputation,
		LoginCount:         u.LoginCount,
		NeedsWalletConnect: u.NeedsWalletConnect,
		CreatedAt:          u.CreatedAt,
	}
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
