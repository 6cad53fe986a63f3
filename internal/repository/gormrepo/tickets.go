package gormrepo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type ticketRepository struct {
	db *gorm.DB
}

// Create relies on gorm filling the generated id after the insert.
func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	model := ticketFromDomain(ticket)
	model.ID = 0
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translate(err)
	}
	ticket.ID = model.ID
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	var model ticketModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		return nil, translate(err)
	}
	ticket := model.toDomain()
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tx := r.db.WithContext(ctx).Model(&ticketModel{})
	if filter.RequesterID != nil {
		tx = tx.Where("requester_id = ?", *filter.RequesterID)
	}
	if filter.AssigneeID != nil {
		tx = tx.Where("assignee_id = ?", *filter.AssigneeID)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		tx = tx.Where("status IN ?", statuses)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var models []ticketModel
	if err := tx.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]domain.Ticket, 0, len(models))
	for i := range models {
		result = append(result, models[i].toDomain())
	}
	return result, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	res := r.db.WithContext(ctx).Model(&ticketModel{}).Where("id = ?", ticket.ID).Updates(map[string]any{
		"assignee_id":  ticket.AssigneeID,
		"title":        ticket.Title,
		"description":  ticket.Description,
		"status":       string(ticket.Status),
		"priority":     string(ticket.Priority),
		"scheduled_at": dbTimePtr(ticket.ScheduledAt),
		"updated_at":   dbTime(ticket.UpdatedAt),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ticketRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ticketModel{}).
		Where("created_at >= ? AND created_at < ?", dbTime(from), dbTime(to)).
		Count(&count).Error
	return int(count), err
}

func (r *ticketRepository) ListByTicketNumber(ctx context.Context, number int) ([]domain.TicketRef, error) {
	var models []ticketModel
	err := r.db.WithContext(ctx).
		Select("id", "ticket_number", "created_at").
		Where("ticket_number = ?", number).
		Order("created_at DESC, id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	result := make([]domain.TicketRef, 0, len(models))
	for _, m := range models {
		result = append(result, domain.TicketRef{ID: m.ID, TicketNumber: m.TicketNumber, CreatedAt: m.CreatedAt})
	}
	return result, nil
}

func (r *ticketRepository) TransitionStatus(ctx context.Context, id int64, from, to domain.TicketStatus, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&ticketModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": dbTime(now)})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ticketRepository) ResolveClosedBefore(ctx context.Context, cutoff, now time.Time) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&ticketModel{}).
			Where("status = ? AND updated_at < ?", string(domain.TicketStatusClosed), dbTime(cutoff)).
			Order("id ASC").
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&ticketModel{}).
			Where("id IN ? AND status = ?", ids, string(domain.TicketStatusClosed)).
			Updates(map[string]any{
				"status":     string(domain.TicketStatusResolved),
				"updated_at": dbTime(now),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
