package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type historyRepository struct {
	db *gorm.DB
}

func (r *historyRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	model := historyModel{
		TicketID:   history.TicketID,
		ChangedBy:  history.ChangedBy,
		ChangeType: string(history.ChangeType),
		OldValue:   history.OldValue,
		NewValue:   history.NewValue,
		CreatedAt:  dbTime(history.CreatedAt),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	history.ID = model.ID
	return nil
}

func (r *historyRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.TicketHistory, error) {
	var models []historyModel
	if err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("created_at ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]domain.TicketHistory, 0, len(models))
	for _, m := range models {
		result = append(result, domain.TicketHistory{
			ID:         m.ID,
			TicketID:   m.TicketID,
			ChangedBy:  m.ChangedBy,
			ChangeType: domain.TicketChangeType(m.ChangeType),
			OldValue:   m.OldValue,
			NewValue:   m.NewValue,
			CreatedAt:  m.CreatedAt,
		})
	}
	return result, nil
}
