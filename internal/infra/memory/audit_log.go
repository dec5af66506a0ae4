package memory

import (
	"context"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"
)

type auditLogRepo struct {
	s *Store
}

func (r *auditLogRepo) Create(ctx context.Context, log model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.auditSeq++
	log.ID = r.s.auditSeq
	if log.CreatedAt.IsZero() {
		log.CreatedAt = r.s.now()
	}
	r.s.audits = append(r.s.audits, log)
	return nil
}

// 新しい順
func (r *auditLogRepo) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	limit, offset := f.Window()

	out := []model.AuditLog{}
	skipped := 0
	for i := len(r.s.audits) - 1; i >= 0 && len(out) < limit; i-- {
		l := r.s.audits[i]
		if f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID {
			continue
		}
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
			continue
		}
		if f.CreatedFrom != nil && l.CreatedAt.Before(*f.CreatedFrom) {
			continue
		}
		if f.CreatedTo != nil && l.CreatedAt.After(*f.CreatedTo) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
