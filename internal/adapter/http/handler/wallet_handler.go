package handler

import (
	"context"
	"time"

	"wallet-ledger-service/internal/adapter/http/dto"
	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"
	"wallet-ledger-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet and ledger endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// CreateWallet handles POST /api/v1/wallets.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.walletSvc.CreateWallet(c.Request.Context(), req.OwnerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWalletResponse(wallet))
}

// GetBalance handles GET /api/v1/wallets/:id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	walletID, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	balance, err := h.walletSvc.GetBalance(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		WalletID: walletID.String(),
		Balance:  balance.String(),
	})
}

// GetHistoricalBalance handles GET /api/v1/wallets/:id/balance/history.
// The query parameter "timestamp" is an RFC 3339 instant.
func (h *WalletHandler) GetHistoricalBalance(c *gin.Context) {
	walletID, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	raw := c.Query("timestamp")
	if raw == "" {
		response.Error(c, apperror.Validation("query parameter 'timestamp' is required"))
		return
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.Error(c, apperror.Validation("timestamp must be RFC 3339, e.g. 2024-01-15T10:00:00Z"))
		return
	}

	balance, err := h.walletSvc.GetHistoricalBalance(c.Request.Context(), walletID, at)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		WalletID:  walletID.String(),
		Balance:   balance.String(),
		Timestamp: at.UTC().Format(time.RFC3339),
	})
}

// Deposit handles POST /api/v1/wallets/:id/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	h.applyAmountOp(c, h.walletSvc.Deposit)
}

// Withdraw handles POST /api/v1/wallets/:id/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	h.applyAmountOp(c, h.walletSvc.Withdraw)
}

// applyAmountOp runs a single-wallet balance operation and responds
// with the resulting balance.
func (h *WalletHandler) applyAmountOp(
	c *gin.Context,
	op func(ctx context.Context, walletID uuid.UUID, amount domain.Money) (domain.Money, error),
) {
	walletID, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	balance, err := op(c.Request.Context(), walletID, amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		WalletID: walletID.String(),
		Balance:  balance.String(),
	})
}

// Transfer handles POST /api/v1/transfers.
func (h *WalletHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	sourceID, err := uuid.Parse(req.SourceWalletID)
	if err != nil {
		response.Error(c, apperror.Validation("source_wallet_id must be a UUID"))
		return
	}
	targetID, err := uuid.Parse(req.TargetWalletID)
	if err != nil {
		response.Error(c, apperror.Validation("target_wallet_id must be a UUID"))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.walletSvc.Transfer(c.Request.Context(), sourceID, targetID, amount); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{
		"status":           "completed",
		"source_wallet_id": sourceID.String(),
		"target_wallet_id": targetID.String(),
		"amount":           amount.String(),
	})
}

// ListTransactions handles GET /api/v1/wallets/:id/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	walletID, err := parseWalletID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	txns, err := h.walletSvc.ListTransactions(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}

	response.OK(c, dto.TransactionListResponse{
		WalletID: walletID.String(),
		Items:    items,
		Total:    len(items),
	})
}

func parseWalletID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("wallet id must be a UUID")
	}
	return id, nil
}

// parseAmount converts a request amount string into Money. Unparseable
// input gets the same error code as an amount below the minimum unit.
func parseAmount(raw string) (domain.Money, error) {
	amount, err := domain.MoneyFromString(raw)
	if err != nil {
		return domain.ZeroMoney(), apperror.ErrInvalidAmount(raw)
	}
	return amount, nil
}

func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:        w.ID.String(),
		OwnerID:   w.OwnerID,
		Balance:   w.Balance.String(),
		CreatedAt: w.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: w.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:           t.ID.String(),
		WalletID:     t.WalletID.String(),
		Type:         string(t.Type),
		Amount:       t.Amount.String(),
		BalanceAfter: t.BalanceAfter.String(),
		CreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.RelatedWalletID != nil {
		related := t.RelatedWalletID.String()
		resp.RelatedWalletID = &related
	}
	return resp
}
