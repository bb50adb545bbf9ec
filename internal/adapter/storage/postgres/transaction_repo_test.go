package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-ledger-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction(walletID uuid.UUID) *domain.Transaction {
	return &domain.Transaction{
		ID:           uuid.New(),
		WalletID:     walletID,
		Type:         domain.TransactionTypeDeposit,
		Amount:       domain.MustMoney("25.00"),
		BalanceAfter: domain.MustMoney("125.00"),
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func transactionColumnNames() []string {
	return []string{"seq", "id", "wallet_id", "type", "amount", "balance_after", "related_wallet_id", "created_at"}
}

func transactionRow(seq int64, t *domain.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows(transactionColumnNames()).AddRow(
		seq, t.ID, t.WalletID, string(t.Type), t.Amount.String(), t.BalanceAfter.String(),
		t.RelatedWalletID, t.CreatedAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO transactions .+ RETURNING seq").
		WithArgs(txn.ID, txn.WalletID, txn.Type, txn.Amount, txn.BalanceAfter, txn.RelatedWalletID, txn.CreatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"seq"}).AddRow(int64(7)))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, txn)
	require.NoError(t, err)
	assert.Equal(t, int64(7), txn.Seq)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_FindLatestAtOrBefore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()
	txn := newTestTransaction(walletID)
	ts := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE wallet_id .+ created_at <= .+ ORDER BY created_at DESC, seq DESC LIMIT 1").
		WithArgs(walletID, ts).
		WillReturnRows(transactionRow(4, txn))

	result, err := repo.FindLatestAtOrBefore(context.Background(), walletID, ts)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(4), result.Seq)
	assert.Equal(t, txn.ID, result.ID)
	assert.True(t, txn.BalanceAfter.Equal(result.BalanceAfter))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_FindLatestAtOrBefore_None(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()
	ts := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE wallet_id").
		WithArgs(walletID, ts).
		WillReturnRows(pgxmock.NewRows(transactionColumnNames()))

	result, err := repo.FindLatestAtOrBefore(context.Background(), walletID, ts)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_ListByWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	walletID := uuid.New()
	related := uuid.New()

	rows := pgxmock.NewRows(transactionColumnNames()).
		AddRow(int64(2), uuid.New(), walletID, string(domain.TransactionTypeTransferOut),
			"30.00", "70.00", &related, time.Now().UTC()).
		AddRow(int64(1), uuid.New(), walletID, string(domain.TransactionTypeDeposit),
			"100.00", "100.00", (*uuid.UUID)(nil), time.Now().UTC().Add(-time.Minute))

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE wallet_id .+ ORDER BY created_at DESC, seq DESC").
		WithArgs(walletID).
		WillReturnRows(rows)

	result, err := repo.ListByWallet(context.Background(), walletID)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, domain.TransactionTypeTransferOut, result[0].Type)
	require.NotNil(t, result[0].RelatedWalletID)
	assert.Equal(t, related, *result[0].RelatedWalletID)
	assert.Nil(t, result[1].RelatedWalletID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
