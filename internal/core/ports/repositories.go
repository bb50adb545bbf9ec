package ports

import (
	"context"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside a caller-demarcated unit of work;
// GetByIDForUpdate additionally takes an exclusive row lock.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	// UpdateBalance persists wallet.Balance guarded by wallet.Version and, on
	// success, refreshes wallet.Version and wallet.UpdatedAt from the store.
	// Returns domain.ErrVersionConflict if the row changed since load.
	UpdateBalance(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
}

// TransactionRepository defines persistence operations for the append-only
// audit trail. Records are inserted exactly once and never mutated.
type TransactionRepository interface {
	// Create appends the record and fills in txn.Seq from the store.
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	// FindLatestAtOrBefore returns the transaction with the greatest
	// (created_at, seq) not after ts, or nil if the wallet has none.
	FindLatestAtOrBefore(ctx context.Context, walletID uuid.UUID, ts time.Time) (*domain.Transaction, error)
	// ListByWallet returns the wallet's full history, newest first.
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
