package handler

import (
	"corebank/internal/adapter/http/dto"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler handles transfer endpoints.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// Transfer handles POST /api/v1/transfers. The idempotency key may be
// supplied in the body or via the Idempotency-Key header; the header
// wins when both are present.
func (h *TransferHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	fromID, err := uuid.Parse(req.FromAccountID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid source account id"))
		return
	}
	toID, err := uuid.Parse(req.ToAccountID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid destination account id"))
		return
	}

	idemKey := req.IdempotencyKey
	if header := c.GetHeader("Idempotency-Key"); header != "" {
		idemKey = header
	}

	result, err := h.transferSvc.Transfer(c.Request.Context(), ports.TransferRequest{
		UserID:         mustUserID(c),
		FromAccountID:  fromID,
		ToAccountID:    toID,
		Amount:         req.Amount,
		Description:    req.Description,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.TransferResponse{
		TransferID:    result.TransferID.String(),
		DebitEntry:    toTransactionResponse(result.DebitEntry),
		CreditEntry:   toTransactionResponse(result.CreditEntry),
		FromAccount:   toAccountResponse(result.FromAccount),
		ToAccount:     toAccountResponse(result.ToAccount),
		IdempotentHit: result.IdempotentHit,
	}
	if result.IdempotentHit {
		response.OK(c, resp)
		return
	}
	response.Created(c, resp)
}
