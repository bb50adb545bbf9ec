package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService.
//
// Concurrency model: Deposit and Withdraw touch one wallet and rely on the
// store's optimistic version check, re-run by the retry coordinator on
// conflict. Transfer makes a coordinated decision across two wallets and
// takes exclusive row locks instead, always in wallet-ID order.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	retry      RetryPolicy
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	retry RetryPolicy,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		retry:      retry.withDefaults(),
		log:        log,
	}
}

// CreateWallet creates a wallet with a zero balance and version zero.
func (s *WalletServiceImpl) CreateWallet(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	wallet := domain.NewWallet(ownerID)

	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("owner_id", ownerID).
		Msg("wallet created")

	return wallet, nil
}

// GetBalance returns the wallet's live balance. Plain read, no locks.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, walletID uuid.UUID) (domain.Money, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return domain.Money{}, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return domain.Money{}, apperror.ErrWalletNotFound(walletID.String())
	}
	return wallet.Balance, nil
}

// GetHistoricalBalance reconstructs the wallet's balance at the given
// instant from the audit trail. A timestamp before the wallet's creation
// answers zero; so does a wallet that existed but had no transactions yet.
func (s *WalletServiceImpl) GetHistoricalBalance(ctx context.Context, walletID uuid.UUID, at time.Time) (domain.Money, error) {
	if at.After(time.Now()) {
		return domain.Money{}, apperror.ErrFutureTimestamp()
	}

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return domain.Money{}, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return domain.Money{}, apperror.ErrWalletNotFound(walletID.String())
	}

	if wallet.CreatedAt.After(at) {
		return domain.ZeroMoney(), nil
	}

	last, err := s.txRepo.FindLatestAtOrBefore(ctx, walletID, at)
	if err != nil {
		return domain.Money{}, apperror.InternalError(fmt.Errorf("find latest transaction: %w", err))
	}
	if last == nil {
		return domain.ZeroMoney(), nil
	}
	return last.BalanceAfter, nil
}

// Deposit credits the wallet and appends a DEPOSIT audit record.
func (s *WalletServiceImpl) Deposit(ctx context.Context, walletID uuid.UUID, amount domain.Money) (domain.Money, error) {
	if err := validateAmount(amount); err != nil {
		return domain.Money{}, err
	}

	var newBalance domain.Money
	err := s.withConflictRetry(ctx, "deposit", func(ctx context.Context) error {
		balance, err := s.applySingleWallet(ctx, walletID, domain.TransactionTypeDeposit, amount)
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	if err != nil {
		return domain.Money{}, err
	}

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Str("amount", amount.String()).
		Str("new_balance", newBalance.String()).
		Msg("deposit completed")

	return newBalance, nil
}

// Withdraw debits the wallet and appends a WITHDRAW audit record. The
// funds check happens before any mutation; a failed withdrawal leaves no
// partial writes.
func (s *WalletServiceImpl) Withdraw(ctx context.Context, walletID uuid.UUID, amount domain.Money) (domain.Money, error) {
	if err := validateAmount(amount); err != nil {
		return domain.Money{}, err
	}

	var newBalance domain.Money
	err := s.withConflictRetry(ctx, "withdraw", func(ctx context.Context) error {
		balance, err := s.applySingleWallet(ctx, walletID, domain.TransactionTypeWithdraw, amount)
		if err != nil {
			return err
		}
		newBalance = balance
		return nil
	})
	if err != nil {
		return domain.Money{}, err
	}

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Str("amount", amount.String()).
		Str("new_balance", newBalance.String()).
		Msg("withdrawal completed")

	return newBalance, nil
}

// applySingleWallet runs one optimistically-guarded deposit or withdrawal
// inside its own unit of work. A version conflict from UpdateBalance
// propagates to the retry coordinator, which re-runs the whole body.
func (s *WalletServiceImpl) applySingleWallet(ctx context.Context, walletID uuid.UUID, txType domain.TransactionType, amount domain.Money) (domain.Money, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return domain.Money{}, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDTx(ctx, dbTx, walletID)
	if err != nil {
		return domain.Money{}, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return domain.Money{}, apperror.ErrWalletNotFound(walletID.String())
	}

	var newBalance domain.Money
	switch txType {
	case domain.TransactionTypeDeposit:
		newBalance = wallet.Balance.Add(amount)
	case domain.TransactionTypeWithdraw:
		if wallet.Balance.LessThan(amount) {
			return domain.Money{}, apperror.ErrInsufficientFunds(wallet.Balance, amount)
		}
		newBalance = wallet.Balance.Sub(amount)
	default:
		return domain.Money{}, apperror.InternalError(fmt.Errorf("unsupported single-wallet transaction type %s", txType))
	}

	// Unreachable given the funds check above; guards the store constraint.
	if newBalance.IsNegative() {
		return domain.Money{}, apperror.InternalError(fmt.Errorf("balance would go negative: %s", newBalance))
	}

	wallet.Balance = newBalance
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return domain.Money{}, err
		}
		return domain.Money{}, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	// The record describes the post-update row: CreatedAt is the updated_at
	// the store assigned in the same UPDATE.
	txn := &domain.Transaction{
		ID:           uuid.New(),
		WalletID:     wallet.ID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: newBalance,
		CreatedAt:    wallet.UpdatedAt,
	}
	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return domain.Money{}, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return domain.Money{}, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return newBalance, nil
}

// Transfer moves amount between two wallets atomically. Both rows and both
// audit records commit together or not at all.
func (s *WalletServiceImpl) Transfer(ctx context.Context, sourceID, targetID uuid.UUID, amount domain.Money) error {
	if sourceID == targetID {
		return apperror.ErrSameWalletTransfer()
	}
	if err := validateAmount(amount); err != nil {
		return err
	}

	err := s.withConflictRetry(ctx, "transfer", func(ctx context.Context) error {
		return s.applyTransfer(ctx, sourceID, targetID, amount)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("source_wallet_id", sourceID.String()).
		Str("target_wallet_id", targetID.String()).
		Str("amount", amount.String()).
		Msg("transfer completed")

	return nil
}

func (s *WalletServiceImpl) applyTransfer(ctx context.Context, sourceID, targetID uuid.UUID, amount domain.Money) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Exclusive locks in wallet-ID order, regardless of direction. Two
	// opposing transfers between the same pair always lock the same wallet
	// first, so neither can wait on a lock the other already holds.
	firstID, secondID := sourceID, targetID
	if domain.WalletIDLess(targetID, sourceID) {
		firstID, secondID = targetID, sourceID
	}

	first, err := s.lockWallet(ctx, dbTx, firstID)
	if err != nil {
		return err
	}
	second, err := s.lockWallet(ctx, dbTx, secondID)
	if err != nil {
		return err
	}

	// Re-derive which locked wallet is logically the source.
	source, target := first, second
	if first.ID != sourceID {
		source, target = second, first
	}

	if source.Balance.LessThan(amount) {
		return apperror.ErrInsufficientFunds(source.Balance, amount)
	}

	sourceNewBalance := source.Balance.Sub(amount)
	targetNewBalance := target.Balance.Add(amount)
	if sourceNewBalance.IsNegative() || targetNewBalance.IsNegative() {
		return apperror.InternalError(fmt.Errorf("transfer would produce negative balance: source %s, target %s",
			sourceNewBalance, targetNewBalance))
	}

	source.Balance = sourceNewBalance
	if err := s.updateLockedWallet(ctx, dbTx, source); err != nil {
		return err
	}
	target.Balance = targetNewBalance
	if err := s.updateLockedWallet(ctx, dbTx, target); err != nil {
		return err
	}

	outTxn := &domain.Transaction{
		ID:              uuid.New(),
		WalletID:        source.ID,
		Type:            domain.TransactionTypeTransferOut,
		Amount:          amount,
		BalanceAfter:    sourceNewBalance,
		RelatedWalletID: &target.ID,
		CreatedAt:       source.UpdatedAt,
	}
	if err := s.txRepo.Create(ctx, dbTx, outTxn); err != nil {
		return apperror.InternalError(fmt.Errorf("create transfer-out transaction: %w", err))
	}

	inTxn := &domain.Transaction{
		ID:              uuid.New(),
		WalletID:        target.ID,
		Type:            domain.TransactionTypeTransferIn,
		Amount:          amount,
		BalanceAfter:    targetNewBalance,
		RelatedWalletID: &source.ID,
		CreatedAt:       target.UpdatedAt,
	}
	if err := s.txRepo.Create(ctx, dbTx, inTxn); err != nil {
		return apperror.InternalError(fmt.Errorf("create transfer-in transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

func (s *WalletServiceImpl) lockWallet(ctx context.Context, dbTx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound(id.String())
	}
	return wallet, nil
}

func (s *WalletServiceImpl) updateLockedWallet(ctx context.Context, dbTx pgx.Tx, wallet *domain.Wallet) error {
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			// Cannot happen while the row lock is held, but keep the retry
			// path uniform with the optimistic operations.
			return err
		}
		return apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}
	return nil
}

// ListTransactions returns the wallet's audit history, newest first.
func (s *WalletServiceImpl) ListTransactions(ctx context.Context, walletID uuid.UUID) ([]domain.Transaction, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound(walletID.String())
	}

	txns, err := s.txRepo.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, nil
}

// validateAmount rejects amounts below the minimum positive unit before any
// mutation happens.
func validateAmount(amount domain.Money) error {
	if amount.LessThan(domain.MinUnit()) {
		return apperror.ErrInvalidAmount(amount.String())
	}
	return nil
}
