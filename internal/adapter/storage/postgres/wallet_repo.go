package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
//
// The wallets table enforces balance >= 0 with a CHECK constraint, so even a
// write that bypasses the engine's own check cannot persist a negative
// balance.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const walletColumns = `id, owner_id, balance, version, created_at, updated_at`

// Create inserts a new wallet.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, owner_id, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.OwnerID, w.Balance, w.Version, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, id), "get wallet by id")
}

// GetByIDTx fetches a wallet inside a unit of work, without locking. The
// optimistic version check in UpdateBalance is the conflict detector here.
func (r *WalletRepo) GetByIDTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`
	return scanWallet(tx.QueryRow(ctx, query, id), "get wallet in tx")
}

// GetByIDForUpdate fetches a wallet with an exclusive row lock, held until
// the surrounding transaction ends. MUST be called within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1 FOR UPDATE`
	return scanWallet(tx.QueryRow(ctx, query, id), "get wallet for update")
}

// UpdateBalance persists the wallet's balance guarded by its version token.
// On success the wallet's Version and UpdatedAt are refreshed from the row
// the store actually wrote. Zero matched rows means another operation moved
// the version since load: domain.ErrVersionConflict.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `UPDATE wallets
		SET balance = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3
		RETURNING version, updated_at`

	err := tx.QueryRow(ctx, query, w.Balance, w.ID, w.Version).Scan(&w.Version, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("update wallet balance: %w", err)
	}
	return nil
}

func scanWallet(row pgx.Row, op string) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(&w.ID, &w.OwnerID, &w.Balance, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return w, nil
}
