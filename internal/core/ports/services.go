package ports

import (
	"context"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
)

// WalletService is the ledger engine consumed by the HTTP adapter.
// All amounts are normalized Money values; shapes of the raw request
// (required fields, decimal format) are validated before these calls.
type WalletService interface {
	CreateWallet(ctx context.Context, ownerID string) (*domain.Wallet, error)
	GetBalance(ctx context.Context, walletID uuid.UUID) (domain.Money, error)
	GetHistoricalBalance(ctx context.Context, walletID uuid.UUID, at time.Time) (domain.Money, error)
	Deposit(ctx context.Context, walletID uuid.UUID, amount domain.Money) (domain.Money, error)
	Withdraw(ctx context.Context, walletID uuid.UUID, amount domain.Money) (domain.Money, error)
	Transfer(ctx context.Context, sourceID, targetID uuid.UUID, amount domain.Money) error
	ListTransactions(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error)
}
