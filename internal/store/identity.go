// Package store owns every durable identity and ledger operation. Each
// method is a single atomic primitive: cross-request invariants (wallet and
// email uniqueness, one ledger row per transaction hash, no lost reputation
// updates) live in database constraints and single-statement updates, not in
// application-side locking, because multiple server instances run at once.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/launchloop/launchloop-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrWalletAlreadyLinked  = errors.New("wallet is already linked to another account")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
)

// IdentityStore is the durable-state surface the orchestrators run against.
type IdentityStore interface {
	FindOrCreateByWallet(ctx context.Context, walletAddress string) (user *models.User, created bool, err error)
	FindOrCreateByEmail(ctx context.Context, email, providerID, username string) (user *models.User, created bool, err error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByWallet(ctx context.Context, walletAddress string) (*models.User, error)
	IncrementLogin(ctx context.Context, id uuid.UUID) error
	LinkWalletWithMerge(ctx context.Context, id uuid.UUID, walletAddress string) (user *models.User, merged bool, err error)
	AddReputationPoints(ctx context.Context, id uuid.UUID, points int) error
	InsertPaymentRecord(ctx context.Context, rec *models.PaymentRecord) error
	PaymentExists(ctx context.Context, txHash string) (bool, error)
	ListPaymentsByUser(ctx context.Context, id uuid.UUID, limit, offset int) ([]models.PaymentRecord, int64, error)
	TopByReputation(ctx context.Context, limit int) ([]models.User, error)
}

// GormStore implements IdentityStore on PostgreSQL (SQLite in tests).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DefaultUsername derives a display name from a wallet address prefix.
func DefaultUsername(walletAddress string) string {
	prefix := walletAddress
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return "user_" + prefix
}

// FindOrCreateByWallet resolves the account owning walletAddress, creating a
// wallet-only account on first login. Creation races on the unique wallet
// index (INSERT ... ON CONFLICT DO NOTHING), so two simultaneous first logins
// from the same wallet resolve to one row.
func (s *GormStore) FindOrCreateByWallet(ctx context.Context, walletAddress string) (*models.User, bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&user).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up wallet: %w", err)
	}

	user = models.User{
		ID:            uuid.New(),
		WalletAddress: &walletAddress,
		Username:      DefaultUsername(walletAddress),
		LoginCount:    1,
		LastLoginAt:   time.Now().UTC(),
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "wallet_address"}}, DoNothing: true}).
		Create(&user)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create wallet user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Lost the race; the row the winner created is the account.
		if err := s.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&user).Error; err != nil {
			return nil, false, fmt.Errorf("failed to fetch wallet user after conflict: %w", err)
		}
		return &user, false, nil
	}
	return &user, true, nil
}

// FindOrCreateByEmail resolves the account for an external-provider email
// login. New accounts start with NeedsWalletConnect set so the client can
// prompt for wallet linking.
func (s *GormStore) FindOrCreateByEmail(ctx context.Context, email, providerID, username string) (*models.User, bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		if err := s.IncrementLogin(ctx, user.ID); err != nil {
			return nil, false, err
		}
		user.LoginCount++
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up email: %w", err)
	}

	if username == "" {
		username = strings.Split(email, "@")[0]
	}
	user = models.User{
		ID:                 uuid.New(),
		Email:              &email,
		ProviderID:         providerID,
		Username:           username,
		LoginCount:         1,
		LastLoginAt:        time.Now().UTC(),
		NeedsWalletConnect: true,
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&user)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create email user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
			return nil, false, fmt.Errorf("failed to fetch email user after conflict: %w", err)
		}
		return &user, false, nil
	}
	return &user, true, nil
}

func (s *GormStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormStore) FindByWallet(ctx context.Context, walletAddress string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("wallet_address = ?", walletAddress).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// IncrementLogin bumps the login counter in a single UPDATE so concurrent
// logins from the same wallet never lose a count to read-modify-write.
func (s *GormStore) IncrementLogin(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"login_count":   gorm.Expr("login_count + 1"),
			"last_login_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to increment login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// LinkWalletWithMerge attaches walletAddress to the account id. If the wallet
// already belongs to a wallet-only orphan account, that account's history
// (reputation, login counts, payment records) is absorbed and the orphan row
// removed; if it belongs to any fully formed account the link is rejected.
// The whole merge-or-reject runs in one transaction so no partial merge state
// is ever observable, and counter columns are only ever incremented, never
// written back from a stale read.
func (s *GormStore) LinkWalletWithMerge(ctx context.Context, id uuid.UUID, walletAddress string) (*models.User, bool, error) {
	var target models.User
	merged := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&target, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		updates := map[string]interface{}{
			"wallet_address":       walletAddress,
			"needs_wallet_connect": false,
		}

		var owner models.User
		err := tx.Where("wallet_address = ?", walletAddress).First(&owner).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Wallet is free.
		case err != nil:
			return err
		case owner.ID == target.ID:
			// Already linked to this account; nothing to do.
			return nil
		case owner.IsOrphanWallet():
			if err := tx.Model(&models.PaymentRecord{}).
				Where("user_id = ?", owner.ID).
				Update("user_id", target.ID).Error; err != nil {
				return fmt.Errorf("failed to move payment records: %w", err)
			}
			// Release the unique wallet index before the target claims it.
			if err := tx.Model(&models.User{}).Where("id = ?", owner.ID).
				Update("wallet_address", nil).Error; err != nil {
				return fmt.Errorf("failed to release orphan wallet: %w", err)
			}
			if err := tx.Delete(&models.User{}, "id = ?", owner.ID).Error; err != nil {
				return fmt.Errorf("failed to remove orphan account: %w", err)
			}
			// Fold the orphan's history in as in-database increments; an
			// absolute write would erase any award that landed since the
			// target row was read.
			updates["reputation"] = gorm.Expr("reputation + ?", owner.Reputation)
			updates["login_count"] = gorm.Expr("login_count + ?", owner.LoginCount)
			merged = true
		default:
			return ErrWalletAlreadyLinked
		}

		if err := tx.Model(&models.User{}).Where("id = ?", target.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&target, "id = ?", target.ID).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &target, merged, nil
}

// AddReputationPoints applies an atomic increment; callers may run
// concurrently against the same user without losing updates.
func (s *GormStore) AddReputationPoints(ctx context.Context, id uuid.UUID, points int) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("reputation", gorm.Expr("reputation + ?", points))
	if result.Error != nil {
		return fmt.Errorf("failed to add reputation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// InsertPaymentRecord creates the ledger row. The unique index on tx_hash is
// the idempotency guard: a second insert for the same hash comes back as
// ErrDuplicateTransaction no matter how the calls interleave.
func (s *GormStore) InsertPaymentRecord(ctx context.Context, rec *models.PaymentRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to insert payment record: %w", err)
	}
	return nil
}

func (s *GormStore) PaymentExists(ctx context.Context, txHash string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.PaymentRecord{}).
		Where("tx_hash = ?", txHash).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check payment record: %w", err)
	}
	return count > 0, nil
}

func (s *GormStore) ListPaymentsByUser(ctx context.Context, id uuid.UUID, limit, offset int) ([]models.PaymentRecord, int64, error) {
	var records []models.PaymentRecord
	var total int64

	q := s.db.WithContext(ctx).Model(&models.PaymentRecord{}).Where("user_id = ?", id)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&records).Error
	return records, total, err
}

func (s *GormStore) TopByReputation(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Order("reputation DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}
