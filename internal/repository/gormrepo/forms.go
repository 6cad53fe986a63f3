package gormrepo

import (
	"context"

	"gorm.io/gorm"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type formRepository struct {
	db *gorm.DB
}

func (r *formRepository) Create(ctx context.Context, form *domain.Form) error {
	model := formModel{
		Name:            form.Name,
		ApprovalUserID:  form.ApprovalUserID,
		ApprovalGroupID: form.ApprovalGroupID,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return translate(err)
	}
	form.ID = model.ID
	return nil
}

func (r *formRepository) GetByID(ctx context.Context, id int64) (*domain.Form, error) {
	var model formModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		return nil, translate(err)
	}
	return &domain.Form{
		ID:              model.ID,
		Name:            model.Name,
		ApprovalUserID:  model.ApprovalUserID,
		ApprovalGroupID: model.ApprovalGroupID,
	}, nil
}
