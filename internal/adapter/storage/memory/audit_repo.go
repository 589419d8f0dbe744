package memory

import (
	"context"

	"corebank/internal/core/domain"
	"corebank/internal/core/ports"
)

type auditRepo struct {
	store *Store
}

// NewAuditRepository creates a memory-backed AuditRepository.
func NewAuditRepository(store *Store) ports.AuditRepository {
	return &auditRepo{store: store}
}

func (r *auditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cp := *log
	r.store.auditLogs = append(r.store.auditLogs, &cp)
	return nil
}
