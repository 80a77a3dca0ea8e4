package dto

import (
	"github.com/google/uuid"
	"github.com/launchloop/launchloop-backend/internal/models"
)

// PaymentRequest declares a payment the caller believes they made. Recipient
// and amount are expectations to verify against the chain, never facts to
// record as-is.
type PaymentRequest struct {
	TxHash    string     `json:"tx_hash"`
	Recipient string     `json:"recipient"`
	Amount    float64    `json:"amount"`
	Type      string     `json:"type"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	CommentID *uuid.UUID `json:"comment_id,omitempty"`
}

type PaymentListResponse struct {
	Payments []models.PaymentRecord `json:"payments"`
	Total    int64                  `json:"total"`
}

type LeaderboardResponse struct {
	Users []UserResponse `json:"users"`
}
