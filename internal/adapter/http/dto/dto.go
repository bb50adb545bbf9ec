package dto

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	OwnerID string `json:"owner_id" binding:"required,min=1,max=100,safe_id"`
}

// AmountRequest is the request body for deposits and withdrawals.
// Amounts travel as decimal strings so binary floating point never
// touches monetary values.
type AmountRequest struct {
	Amount string `json:"amount" binding:"required,max=32"`
}

// TransferRequest is the request body for transfers between wallets.
type TransferRequest struct {
	SourceWalletID string `json:"source_wallet_id" binding:"required,uuid"`
	TargetWalletID string `json:"target_wallet_id" binding:"required,uuid"`
	Amount         string `json:"amount" binding:"required,max=32"`
}

// WalletResponse is the response body for wallet state.
type WalletResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// BalanceResponse is the response for balance queries, current or historical.
type BalanceResponse struct {
	WalletID  string `json:"wallet_id"`
	Balance   string `json:"balance"`
	Timestamp string `json:"timestamp,omitempty"` // set for historical queries
}

// TransactionResponse is one entry of a wallet's audit trail.
type TransactionResponse struct {
	ID              string  `json:"id"`
	WalletID        string  `json:"wallet_id"`
	Type            string  `json:"type"`
	Amount          string  `json:"amount"`
	BalanceAfter    string  `json:"balance_after"`
	RelatedWalletID *string `json:"related_wallet_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// TransactionListResponse wraps a wallet's transaction history.
type TransactionListResponse struct {
	WalletID string                `json:"wallet_id"`
	Items    []TransactionResponse `json:"items"`
	Total    int                   `json:"total"`
}
