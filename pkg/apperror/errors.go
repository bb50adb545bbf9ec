package apperror

import (
	"fmt"
	"net/http"

	"wallet-ledger-service/internal/core/domain"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Ledger Business Rules (WAL) ----

func ErrWalletNotFound(walletID string) *AppError {
	return New("WAL_001", fmt.Sprintf("Wallet not found: %s", walletID), http.StatusNotFound)
}

func ErrInvalidAmount(amount string) *AppError {
	return New("WAL_002",
		fmt.Sprintf("Amount must be at least %s: got %s", domain.MinUnit(), amount),
		http.StatusBadRequest)
}

// ErrInsufficientFunds carries the current balance and the requested amount
// so callers can report the shortfall without another read.
func ErrInsufficientFunds(balance, requested domain.Money) *AppError {
	return New("WAL_003",
		fmt.Sprintf("Insufficient funds: current balance %s, requested amount %s", balance, requested),
		http.StatusPaymentRequired)
}

func ErrSameWalletTransfer() *AppError {
	return New("WAL_004", "Source and target wallets cannot be the same", http.StatusBadRequest)
}

func ErrFutureTimestamp() *AppError {
	return New("WAL_005", "Cannot retrieve historical balance for a future timestamp", http.StatusBadRequest)
}

// ErrConcurrencyExhausted is the only way an optimistic-lock conflict becomes
// visible outside the engine: the retry coordinator ran out of attempts.
func ErrConcurrencyExhausted(err error) *AppError {
	return Wrap("WAL_006", "Operation aborted after repeated concurrent updates, please retry", http.StatusConflict, err)
}

// ErrRateLimitExceeded signals the client exceeded its request budget.
func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Too many requests, please slow down", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps a store or infrastructure fault.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request-shape validation error.
func Validation(message string) *AppError {
	return New("WAL_002", message, http.StatusBadRequest)
}
