package handler

import (
	"net/http"

	"corebank/internal/adapter/http/dto"
	"corebank/internal/adapter/http/middleware"
	"corebank/internal/core/ports"
	"corebank/pkg/apperror"
	"corebank/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler handles authentication and profile endpoints.
type AuthHandler struct {
	authSvc ports.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	user, err := h.authSvc.Register(c.Request.Context(), ports.RegisterRequest{
		Email:          req.Email,
		Password:       req.Password,
		DisplayName:    req.DisplayName,
		Phone:          req.Phone,
		SSN:            req.SSN,
		DateOfBirth:    req.DateOfBirth,
		Street:         req.Street,
		City:           req.City,
		State:          req.State,
		Zip:            req.Zip,
		MarketingOptIn: req.MarketingOptIn,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"id":            user.ID.String(),
		"member_number": user.MemberNumber,
		"email":         user.Email,
		"kyc_status":    string(user.KYCStatus),
	})
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	token, expiry, _, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.LoginResponse{
		Token:  token,
		Expiry: expiry.Unix(),
	})
}

// GetProfile handles GET /api/v1/profile. PII is decrypted server-side
// and only masked values leave the process.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := mustUserID(c)

	profile, err := h.authSvc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toProfileResponse(profile))
}

func toProfileResponse(p *ports.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:           p.User.ID.String(),
		MemberNumber: p.User.MemberNumber,
		Email:        p.User.Email,
		DisplayName:  p.User.DisplayName,
		Role:         string(p.User.Role),
		Verified:     p.User.Verified,
		KYCStatus:    string(p.User.KYCStatus),
		MaskedPhone:  p.MaskedPhone,
		MaskedSSN:    p.MaskedSSN,
		MaskedDOB:    p.MaskedDOB,
		MaskedAddr:   p.MaskedAddr,
		CreatedAt:    p.User.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// mustUserID returns the authenticated user's id. JWTAuth guarantees
// the context value exists on protected routes.
func mustUserID(c *gin.Context) uuid.UUID {
	uid, _ := c.Get(middleware.CtxUserID)
	id, _ := uid.(uuid.UUID)
	return id
}

// HealthCheck handles GET /health — deep health check verifying all dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
