package handler

import (
	"corebank/internal/adapter/http/dto"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles deposit, withdrawal, and reversal endpoints.
type LedgerHandler struct {
	ledgerSvc ports.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerSvc ports.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc}
}

// Deposit handles POST /api/v1/deposits.
func (h *LedgerHandler) Deposit(c *gin.Context) {
	req, ok := h.bindMutation(c)
	if !ok {
		return
	}

	txn, err := h.ledgerSvc.Deposit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// Withdraw handles POST /api/v1/withdrawals.
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	req, ok := h.bindMutation(c)
	if !ok {
		return
	}

	txn, err := h.ledgerSvc.Withdraw(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// ListUserTransactions handles GET /api/v1/transactions: the caller's
// ledger entries across all of their accounts, newest first.
func (h *LedgerHandler) ListUserTransactions(c *gin.Context) {
	params := bindTransactionListParams(c)

	txns, total, err := h.ledgerSvc.ListUserTransactions(c.Request.Context(), mustUserID(c), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}
	response.OK(c, dto.ListResponse[dto.TransactionResponse]{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages(total, params.PageSize),
	})
}

// GetTransaction handles GET /api/v1/transactions/:id.
func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.ledgerSvc.GetTransaction(c.Request.Context(), mustUserID(c), transactionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionResponse(txn))
}

// Reverse handles POST /api/v1/transactions/:id/reverse. The original
// entry is never edited; an offsetting entry is appended instead.
func (h *LedgerHandler) Reverse(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	offset, err := h.ledgerSvc.Reverse(c.Request.Context(), mustUserID(c), transactionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(offset))
}

func (h *LedgerHandler) bindMutation(c *gin.Context) (ports.MutationRequest, bool) {
	var req dto.MutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return ports.MutationRequest{}, false
	}
	dto.SanitizeStruct(&req)

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid account id"))
		return ports.MutationRequest{}, false
	}

	return ports.MutationRequest{
		UserID:      mustUserID(c),
		AccountID:   accountID,
		Amount:      req.Amount,
		Description: req.Description,
	}, true
}
