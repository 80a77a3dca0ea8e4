package services

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	"github.com/launchloop/launchloop-backend/internal/config"
	"github.com/launchloop/launchloop-backend/internal/models"
	"github.com/launchloop/launchloop-backend/internal/store"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) store.IdentityStore {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.PaymentRecord{}))
	return store.NewGormStore(db)
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		JWTExpiry:       time.Hour,
		ChallengeWindow: 5 * time.Minute,
	}
}

// testWalletKey is a generated keypair whose base58 public key doubles as the
// wallet address, matching how Solana wallets present themselves.
type testWalletKey struct {
	Address string
	priv    ed25519.PrivateKey
}

func newTestWalletKey(t *testing.T) testWalletKey {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return testWalletKey{Address: base58.Encode(pub), priv: priv}
}

func (k testWalletKey) Sign(message string) string {
	return base58.Encode(ed25519.Sign(k.priv, []byte(message)))
}
