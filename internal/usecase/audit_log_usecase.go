package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"
)

type AuditLogUsecase struct {
	logs repo.AuditLogRepository
}

func NewAuditLogUsecase(logs repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{logs: logs}
}

// 文字列はhandlerから素のまま来る
type AuditLogListInput struct {
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   string
	From         string
	To           string
	Limit        int
	Offset       int
}

// 管理者操作ログの一覧（新しい順）
func (u *AuditLogUsecase) List(ctx context.Context, in AuditLogListInput) ([]model.AuditLog, error) {
	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		Limit:       in.Limit,
		Offset:      in.Offset,
	}
	if f.Limit == 0 {
		f.Limit = repo.AuditLogDefaultLimit
	}
	if f.Limit < 1 || f.Limit > repo.AuditLogMaxLimit {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}

	if a := strings.TrimSpace(in.Action); a != "" {
		action := model.AuditAction(strings.ToUpper(a))
		switch action {
		case model.AuditActionUpdateOrderStatus, model.AuditActionDeleteOrder, model.AuditActionUpdateTableStatus:
		default:
			return nil, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		f.Action = &action
	}
	if r := strings.TrimSpace(in.ResourceType); r != "" {
		rt := model.AuditResourceType(strings.ToLower(r))
		if rt != model.AuditResourceOrder && rt != model.AuditResourceTable {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid resourceType")
		}
		f.ResourceType = &rt
	}
	if id := strings.TrimSpace(in.ResourceID); id != "" {
		f.ResourceID = &id
	}

	var ok bool
	if in.From != "" {
		if f.CreatedFrom, ok = parseDateTimeRFC3339(in.From); !ok {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid from")
		}
	}
	if in.To != "" {
		if f.CreatedTo, ok = parseDateTimeRFC3339(in.To); !ok {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid to")
		}
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return nil, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	logs, err := u.logs.List(ctx, f)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return logs, nil
}

func parseDateTimeRFC3339(s string) (*time.Time, bool) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return nil, false
	}
	return &t, true
}
