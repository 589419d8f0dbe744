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

// CardHandler handles card endpoints.
type CardHandler struct {
	cardSvc ports.CardService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardSvc ports.CardService) *CardHandler {
	return &CardHandler{cardSvc: cardSvc}
}

// Issue handles POST /api/v1/cards. The plaintext card number appears
// in this response only; afterwards only the masked form is available.
func (h *CardHandler) Issue(c *gin.Context) {
	var req dto.IssueCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid account id"))
		return
	}

	card, pan, err := h.cardSvc.IssueCard(c.Request.Context(), mustUserID(c), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.IssueCardResponse{
		Card:       toCardResponse(card, ""),
		CardNumber: pan,
	})
}

// List handles GET /api/v1/cards.
func (h *CardHandler) List(c *gin.Context) {
	views, err := h.cardSvc.ListCards(c.Request.Context(), mustUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.CardResponse, 0, len(views))
	for i := range views {
		items = append(items, toCardResponse(&views[i].Card, views[i].MaskedNumber))
	}
	response.OK(c, items)
}

// UpdateStatus handles PATCH /api/v1/cards/:id/status.
func (h *CardHandler) UpdateStatus(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid card id"))
		return
	}

	var req dto.UpdateCardStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.cardSvc.UpdateStatus(c.Request.Context(), mustUserID(c), cardID, domain.CardStatus(req.Status)); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"id": cardID.String(), "status": req.Status})
}

func toCardResponse(card *domain.Card, maskedNumber string) dto.CardResponse {
	return dto.CardResponse{
		ID:           card.ID.String(),
		AccountID:    card.AccountID.String(),
		MaskedNumber: maskedNumber,
		Last4:        card.Last4,
		Status:       string(card.Status),
		CreatedAt:    card.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
