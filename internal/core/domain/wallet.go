package domain

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Wallet holds a single non-negative money balance for one owner.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Balance   Money     `json:"balance"`
	Version   int64     `json:"-"` // Optimistic concurrency token, +1 per balance mutation
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWallet creates a wallet with a zero balance and version zero.
func NewWallet(ownerID string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Balance:   ZeroMoney(),
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WalletIDLess is the total order over wallet IDs used for transfer lock
// acquisition. Both sides of a concurrent transfer pair observe the same
// order, so lock waits can never form a cycle.
func WalletIDLess(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
