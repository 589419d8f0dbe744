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

// NotificationHandler handles notification endpoints.
type NotificationHandler struct {
	dispatcher ports.NotificationDispatcher
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(dispatcher ports.NotificationDispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

// List handles GET /api/v1/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	notifications, total, err := h.dispatcher.ListForUser(c.Request.Context(), mustUserID(c), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, toNotificationResponse(&notifications[i]))
	}
	response.OK(c, dto.ListResponse[dto.NotificationResponse]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	})
}

// MarkRead handles POST /api/v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid notification id"))
		return
	}

	if err := h.dispatcher.MarkRead(c.Request.Context(), mustUserID(c), notificationID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"id": notificationID.String(), "read": true})
}

// UnreadCount handles GET /api/v1/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.dispatcher.CountUnread(c.Request.Context(), mustUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"unread": count})
}

func toNotificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:           n.ID.String(),
		AccountID:    n.AccountID.String(),
		Type:         string(n.Type),
		Amount:       n.Amount,
		BalanceAfter: n.BalanceAfter,
		Description:  n.Description,
		Read:         n.Read,
		CreatedAt:    n.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
