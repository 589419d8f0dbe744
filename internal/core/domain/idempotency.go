package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyLog represents a cached transfer result to prevent
// double-processing of client retries.
type IdempotencyLog struct {
	Key          string    `json:"key"` // Format: "user_id:client_key"
	TransferID   uuid.UUID `json:"transfer_id"`
	ResponseJSON []byte    `json:"response_json"` // Cached response to return
	CreatedAt    time.Time `json:"created_at"`
}

// BuildTransferIdempotencyKey constructs the standard key format,
// scoping client-supplied keys to the calling user.
func BuildTransferIdempotencyKey(userID uuid.UUID, clientKey string) string {
	return userID.String() + ":" + clientKey
}
