package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity anchor. An account may carry a wallet, an email, or
// both; wallet-only rows created by anonymous wallet logins stay around until
// an email identity claims (merges) them.
type User struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WalletAddress      *string   `gorm:"size:64;uniqueIndex" json:"wallet_address"`
	Email              *string   `gorm:"size:255;uniqueIndex" json:"email"`
	ProviderID         string    `gorm:"size:255;index" json:"-"`
	Username           string    `gorm:"size:100;not null" json:"username"`
	Reputation         int       `gorm:"not null;default:0" json:"reputation"`
	LoginCount         int       `gorm:"not null;default:0" json:"login_count"`
	LastLoginAt        time.Time `json:"last_login_at"`
	NeedsWalletConnect bool      `gorm:"not null;default:false" json:"needs_wallet_connect"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Wallet returns the linked wallet address or "".
func (u *User) Wallet() string {
	if u.WalletAddress == nil {
		return ""
	}
	return *u.WalletAddress
}

// EmailOrEmpty returns the linked email or "".
func (u *User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// IsOrphanWallet reports whether this is a wallet-only account never claimed
// by an email identity. Such accounts are eligible to be merged away.
func (u *User) IsOrphanWallet() bool {
	return u.WalletAddress != nil && u.Email == nil
}
