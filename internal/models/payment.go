package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Payment types.
const (
	PaymentTypeTip    = "tip"
	PaymentTypeBounty = "bounty"
	PaymentTypeReward = "reward"
)

// PaymentStatusConfirmed is the only persisted status: verification is
// synchronous and all-or-nothing, so no pending state ever hits the table.
const PaymentStatusConfirmed = "confirmed"

// PaymentRecord is the ledger row for one on-chain transaction. The unique
// index on TxHash is the idempotency boundary: concurrent duplicate
// submissions race on the constraint, not on application code. Rows are
// immutable once created.
type PaymentRecord struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TxHash     string         `gorm:"size:128;not null;uniqueIndex" json:"tx_hash"`
	FromWallet string         `gorm:"size:64;not null" json:"from_wallet"`
	ToWallet   string         `gorm:"size:64;not null" json:"to_wallet"`
	Amount     float64        `gorm:"not null" json:"amount"`
	Type       string         `gorm:"size:20;not null" json:"type"`
	ProjectID  *uuid.UUID     `gorm:"type:uuid;index" json:"project_id,omitempty"`
	CommentID  *uuid.UUID     `gorm:"type:uuid" json:"comment_id,omitempty"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Status     string         `gorm:"size:20;not null" json:"status"`
	Chain      datatypes.JSON `json:"chain,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
