package handler

import (
	"corebank/internal/adapter/http/dto"
	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles administrative endpoints. All routes are gated
// by the admin role middleware.
type AdminHandler struct {
	adminSvc ports.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminSvc ports.AdminService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

// ListUsers handles GET /api/v1/admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	users, total, err := h.adminSvc.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	type userSummary struct {
		ID           string `json:"id"`
		MemberNumber int64  `json:"member_number"`
		Email        string `json:"email"`
		DisplayName  string `json:"display_name"`
		Role         string `json:"role"`
		Verified     bool   `json:"verified"`
		Locked       bool   `json:"locked"`
		KYCStatus    string `json:"kyc_status"`
		CreatedAt    string `json:"created_at"`
	}

	items := make([]userSummary, 0, len(users))
	for i := range users {
		u := &users[i]
		items = append(items, userSummary{
			ID:           u.ID.String(),
			MemberNumber: u.MemberNumber,
			Email:        u.Email,
			DisplayName:  u.DisplayName,
			Role:         string(u.Role),
			Verified:     u.Verified,
			Locked:       u.Locked,
			KYCStatus:    string(u.KYCStatus),
			CreatedAt:    u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	response.OK(c, dto.ListResponse[userSummary]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	})
}

// GetUser handles GET /api/v1/admin/users/:id. PII is returned masked.
func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	profile, err := h.adminSvc.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toProfileResponse(profile))
}

// VerifyUser handles POST /api/v1/admin/users/:id/verify.
func (h *AdminHandler) VerifyUser(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	if err := h.adminSvc.VerifyUser(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"id": userID.String(), "verified": true})
}

// LockUser handles POST /api/v1/admin/users/:id/lock.
func (h *AdminHandler) LockUser(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req dto.LockUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if err := h.adminSvc.LockUser(c.Request.Context(), userID, req.Reason); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"id": userID.String(), "locked": true})
}

// UnlockUser handles POST /api/v1/admin/users/:id/unlock.
func (h *AdminHandler) UnlockUser(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	if err := h.adminSvc.UnlockUser(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"id": userID.String(), "locked": false})
}

// UpdateKYC handles PATCH /api/v1/admin/users/:id/kyc.
func (h *AdminHandler) UpdateKYC(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateKYCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.adminSvc.UpdateKYC(c.Request.Context(), userID, domain.KYCStatus(req.Status)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"id": userID.String(), "kyc_status": req.Status})
}

// AdjustBalance handles POST /api/v1/admin/users/:id/adjust-balance.
// There is no direct balance write: the adjustment lands as a ledger
// entry with the admin adjustment category.
func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req dto.AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid account id"))
		return
	}

	txn, err := h.adminSvc.AdjustBalance(c.Request.Context(), mustUserID(c), ports.MutationRequest{
		UserID:      userID,
		AccountID:   accountID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// SetAccountStatus handles PATCH /api/v1/admin/accounts/:id/status.
func (h *AdminHandler) SetAccountStatus(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid account id"))
		return
	}

	var req dto.UpdateAccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.adminSvc.SetAccountStatus(c.Request.Context(), accountID, domain.AccountStatus(req.Status)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"id": accountID.String(), "status": req.Status})
}

// RotateKeys handles POST /api/v1/admin/rotate-keys. Old tokens stay
// decryptable; new encryptions use the new key.
func (h *AdminHandler) RotateKeys(c *gin.Context) {
	var req dto.RotateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.adminSvc.RotateEncryptionKey(c.Request.Context(), req.KeyID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"active_key_id": req.KeyID})
}

// Stats handles GET /api/v1/admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminSvc.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	byType := make(map[string]int64, len(stats.Transactions.CountByType))
	for t, n := range stats.Transactions.CountByType {
		byType[string(t)] = n
	}
	response.OK(c, dto.AdminStatsResponse{
		TotalUsers:         stats.Users.Total,
		VerifiedUsers:      stats.Users.Verified,
		LockedUsers:        stats.Users.Locked,
		TotalAccounts:      stats.Accounts.Total,
		TotalBalance:       stats.Accounts.TotalBalance,
		TotalTransactions:  stats.Transactions.TotalCount,
		TransactionVolume:  stats.Transactions.TotalVolume,
		TransactionsByType: byType,
	})
}

func pathUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid user id"))
		return uuid.Nil, false
	}
	return userID, true
}
