package apperror

import (
	"errors"
	"fmt"
	"net/http"
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

// GetAppError extracts an *AppError from an error chain.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ---- Validation (VAL) ----

// Validation returns a generic bad-input error with a specific message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrSameAccountTransfer() *AppError {
	return New("VAL_003", "Source and destination accounts must differ", http.StatusBadRequest)
}

// ---- Accounts & Ledger (ACC) ----

func ErrAccountNotFound() *AppError {
	return New("ACC_001", "Account not found", http.StatusNotFound)
}

func ErrDuplicateAccountNumber() *AppError {
	return New("ACC_002", "Account number already exists", http.StatusConflict)
}

func ErrInsufficientFunds() *AppError {
	return New("ACC_003", "Insufficient funds in source account", http.StatusPaymentRequired)
}

func ErrAccountNotActive() *AppError {
	return New("ACC_004", "Account is not active", http.StatusUnprocessableEntity)
}

func ErrTransactionNotFound() *AppError {
	return New("ACC_005", "Transaction not found", http.StatusNotFound)
}

func ErrTransactionNotReversible() *AppError {
	return New("ACC_006", "Transaction is not reversible", http.StatusUnprocessableEntity)
}

// ---- Cryptography (CRY) ----

func ErrMalformedToken() *AppError {
	return New("CRY_001", "Ciphertext token is malformed", http.StatusInternalServerError)
}

func ErrUnknownKey(keyID string) *AppError {
	return New("CRY_002", fmt.Sprintf("Encryption key %q is not in the keyring", keyID), http.StatusInternalServerError)
}

func ErrAuthenticationFailed() *AppError {
	return New("CRY_003", "Ciphertext failed authentication", http.StatusInternalServerError)
}

func ErrEmptyPlaintext() *AppError {
	return New("CRY_004", "Plaintext must not be empty", http.StatusBadRequest)
}

func ErrNoActiveKey() *AppError {
	return New("CRY_005", "No active encryption key configured", http.StatusInternalServerError)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("CRY_006", "Encryption service failure", http.StatusInternalServerError, err)
}

// ---- Identifier generation (GEN) ----

func ErrExhaustedRetries(what string) *AppError {
	return New("GEN_001", fmt.Sprintf("Could not generate a unique %s within the retry budget", what), http.StatusInternalServerError)
}

func ErrDuplicateCardNumber() *AppError {
	return New("GEN_002", "Card number already exists", http.StatusConflict)
}

// ---- Authentication & Authorization (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailExists() *AppError {
	return New("AUTH_002", "Email address already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_004", "You do not have access to this resource", http.StatusForbidden)
}

func ErrAccountLocked(reason string) *AppError {
	msg := "Account is locked"
	if reason != "" {
		msg = fmt.Sprintf("Account is locked: %s", reason)
	}
	return New("AUTH_005", msg, http.StatusForbidden)
}

// ---- Admin workflows (ADM) ----

func ErrUserNotFound() *AppError {
	return New("ADM_001", "User not found", http.StatusNotFound)
}

func ErrInvalidKYCTransition(from, to string) *AppError {
	return New("ADM_002", fmt.Sprintf("KYC status cannot move from %s to %s", from, to), http.StatusUnprocessableEntity)
}

func ErrUserNotVerified() *AppError {
	return New("ADM_003", "User has not been verified for banking", http.StatusUnprocessableEntity)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
// The wrapped cause is logged, never returned to the client.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_002", "Internal database error", http.StatusInternalServerError, err)
}
