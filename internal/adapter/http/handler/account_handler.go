package handler

import (
	"math"
	"strconv"

	"corebank/internal/adapter/http/dto"
	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountHandler handles account endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
	ledgerSvc  ports.LedgerService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService, ledgerSvc ports.LedgerService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc, ledgerSvc: ledgerSvc}
}

// Open handles POST /api/v1/accounts.
func (h *AccountHandler) Open(c *gin.Context) {
	var req dto.OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	account, err := h.accountSvc.OpenAccount(c.Request.Context(), ports.OpenAccountRequest{
		UserID:         mustUserID(c),
		AccountType:    domain.AccountType(req.AccountType),
		InitialDeposit: req.InitialDeposit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toAccountResponse(account))
}

// List handles GET /api/v1/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.accountSvc.ListAccounts(c.Request.Context(), mustUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		items = append(items, toAccountResponse(&accounts[i]))
	}
	response.OK(c, items)
}

// Get handles GET /api/v1/accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid account id"))
		return
	}

	account, err := h.accountSvc.GetAccount(c.Request.Context(), mustUserID(c), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toAccountResponse(account))
}

// ListTransactions handles GET /api/v1/accounts/:id/transactions.
func (h *AccountHandler) ListTransactions(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid account id"))
		return
	}

	params := bindTransactionListParams(c)
	params.AccountID = accountID

	txns, total, err := h.ledgerSvc.ListTransactions(c.Request.Context(), mustUserID(c), params)
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

// bindTransactionListParams parses the shared listing query string
// (type, status, from, to, page, page_size). Scope is set by callers.
func bindTransactionListParams(c *gin.Context) ports.TransactionListParams {
	params := ports.TransactionListParams{
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := c.Query("type"); raw != "" {
		t := domain.TransactionType(raw)
		params.Type = &t
	}
	if raw := c.Query("status"); raw != "" {
		s := domain.TransactionStatus(raw)
		params.Status = &s
	}
	if raw := c.Query("from"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			params.From = &v
		}
	}
	if raw := c.Query("to"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			params.To = &v
		}
	}
	return params
}

func toAccountResponse(a *domain.Account) dto.AccountResponse {
	return dto.AccountResponse{
		ID:            a.ID.String(),
		AccountNumber: a.AccountNumber,
		RoutingNumber: a.RoutingNumber,
		AccountType:   string(a.AccountType),
		Balance:       a.Balance,
		Currency:      a.Currency,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:              t.ID.String(),
		AccountID:       t.AccountID.String(),
		TransactionType: string(t.TransactionType),
		Amount:          t.Amount,
		Description:     t.Description,
		Category:        t.Category,
		Status:          string(t.Status),
		CreatedAt:       t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if t.CounterpartyAccountID != nil {
		s := t.CounterpartyAccountID.String()
		resp.CounterpartyAccountID = &s
	}
	if t.TransferID != nil {
		s := t.TransferID.String()
		resp.TransferID = &s
	}
	if t.OriginalTransactionID != nil {
		s := t.OriginalTransactionID.String()
		resp.OriginalTransactionID = &s
	}
	if t.ProcessedAt != nil {
		s := t.ProcessedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.ProcessedAt = &s
	}
	return resp
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil || v < 1 {
		return def
	}
	return v
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}
