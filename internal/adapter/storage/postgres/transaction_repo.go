package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository. The transactions
// table is append-only: there is no UPDATE or DELETE statement here, and the
// schema backs that with amount > 0 and balance_after >= 0 constraints.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `seq, id, wallet_id, type, amount, balance_after, related_wallet_id, created_at`

// Create appends an audit record within a unit of work and fills in the
// store-assigned insertion sequence.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, wallet_id, type, amount, balance_after, related_wallet_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq`

	err := tx.QueryRow(ctx, query,
		t.ID, t.WalletID, t.Type, t.Amount, t.BalanceAfter, t.RelatedWalletID, t.CreatedAt,
	).Scan(&t.Seq)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// FindLatestAtOrBefore returns the wallet's transaction with the greatest
// (created_at, seq) not after ts, or nil if none exists.
func (r *TransactionRepo) FindLatestAtOrBefore(ctx context.Context, walletID uuid.UUID, ts time.Time) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE wallet_id = $1 AND created_at <= $2
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`

	t := &domain.Transaction{}
	err := r.pool.QueryRow(ctx, query, walletID, ts).Scan(
		&t.Seq, &t.ID, &t.WalletID, &t.Type, &t.Amount, &t.BalanceAfter, &t.RelatedWalletID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find latest transaction: %w", err)
	}
	return t, nil
}

// ListByWallet returns the wallet's full audit history, newest first.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, seq DESC`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var result []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.Seq, &t.ID, &t.WalletID, &t.Type, &t.Amount, &t.BalanceAfter, &t.RelatedWalletID, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return result, nil
}
