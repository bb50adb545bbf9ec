package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType is the closed set of balance-changing event kinds.
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "DEPOSIT"
	TransactionTypeWithdraw    TransactionType = "WITHDRAW"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
)

// Transaction is the immutable audit record of one balance-changing event.
// Records are written once and never updated or deleted.
type Transaction struct {
	// Seq is assigned by the store on insert and breaks CreatedAt ties when
	// reconstructing a wallet's history.
	Seq             int64           `json:"-"`
	ID              uuid.UUID       `json:"id"`
	WalletID        uuid.UUID       `json:"wallet_id"`
	Type            TransactionType `json:"type"`
	Amount          Money           `json:"amount"`
	BalanceAfter    Money           `json:"balance_after"`
	RelatedWalletID *uuid.UUID      `json:"related_wallet_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// IsTransfer reports whether the record is one leg of a transfer.
func (t *Transaction) IsTransfer() bool {
	return t.Type == TransactionTypeTransferIn || t.Type == TransactionTypeTransferOut
}
