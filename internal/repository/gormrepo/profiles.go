package gormrepo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type profileRepository struct {
	db *gorm.DB
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.AccessProfile) error {
	model := profileModel{Name: profile.Name, Description: profile.Description}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return translate(err)
	}
	*profile = model.toDomain()
	return nil
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.AccessProfile) error {
	res := r.db.WithContext(ctx).Model(&profileModel{}).Where("id = ?", profile.ID).
		Updates(map[string]any{"name": profile.Name, "description": profile.Description})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the profile together with its grants, pages and memberships.
func (r *profileRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&grantModel{}, &profilePageModel{}, &membershipModel{}} {
			if err := tx.Where("profile_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&profileModel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *profileRepository) GetByID(ctx context.Context, id int64) (*domain.AccessProfile, error) {
	var model profileModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		return nil, translate(err)
	}
	profile := model.toDomain()
	return &profile, nil
}

func (r *profileRepository) List(ctx context.Context) ([]domain.AccessProfile, error) {
	var models []profileModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return profilesToDomain(models), nil
}

func (r *profileRepository) ListGrants(ctx context.Context, profileID int64) ([]domain.Grant, error) {
	var models []grantModel
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("resource ASC, action ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return grantsToDomain(models), nil
}

func (r *profileRepository) AddGrant(ctx context.Context, grant domain.Grant) error {
	model := grantModel{ProfileID: grant.ProfileID, Resource: string(grant.Resource), Action: string(grant.Action)}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
}

func (r *profileRepository) RemoveGrant(ctx context.Context, grant domain.Grant) error {
	return r.db.WithContext(ctx).
		Where("profile_id = ? AND resource = ? AND action = ?", grant.ProfileID, string(grant.Resource), string(grant.Action)).
		Delete(&grantModel{}).Error
}

func (r *profileRepository) ReplaceGrants(ctx context.Context, profileID int64, grants []domain.Grant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", profileID).Delete(&grantModel{}).Error; err != nil {
			return err
		}
		for _, grant := range grants {
			model := grantModel{ProfileID: profileID, Resource: string(grant.Resource), Action: string(grant.Action)}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *profileRepository) ListPages(ctx context.Context, profileID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&profilePageModel{}).
		Where("profile_id = ?", profileID).
		Order("page_id ASC").
		Pluck("page_id", &ids).Error
	return ids, err
}

func (r *profileRepository) ReplacePages(ctx context.Context, profileID int64, pageIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", profileID).Delete(&profilePageModel{}).Error; err != nil {
			return err
		}
		for _, pageID := range pageIDs {
			model := profilePageModel{ProfileID: profileID, PageID: pageID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *profileRepository) LinkUser(ctx context.Context, userID, profileID int64) error {
	model := membershipModel{UserID: userID, ProfileID: profileID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
}

func (r *profileRepository) UnlinkUser(ctx context.Context, userID, profileID int64) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND profile_id = ?", userID, profileID).
		Delete(&membershipModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *profileRepository) ListForUser(ctx context.Context, userID int64) ([]domain.AccessProfile, error) {
	var models []profileModel
	err := r.db.WithContext(ctx).
		Joins("JOIN user_access_profiles up ON up.profile_id = access_profiles.id").
		Where("up.user_id = ?", userID).
		Order("access_profiles.name ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return profilesToDomain(models), nil
}

func (r *profileRepository) ListMemberIDs(ctx context.Context, profileID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&membershipModel{}).
		Where("profile_id = ?", profileID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *profileRepository) ListGrantsForUser(ctx context.Context, userID int64) ([]domain.Grant, error) {
	var models []grantModel
	err := r.db.WithContext(ctx).
		Joins("JOIN user_access_profiles up ON up.profile_id = profile_grants.profile_id").
		Where("up.user_id = ?", userID).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return grantsToDomain(models), nil
}

func profilesToDomain(models []profileModel) []domain.AccessProfile {
	result := make([]domain.AccessProfile, 0, len(models))
	for i := range models {
		result = append(result, models[i].toDomain())
	}
	return result
}

func grantsToDomain(models []grantModel) []domain.Grant {
	result := make([]domain.Grant, 0, len(models))
	for _, m := range models {
		result = append(result, domain.Grant{
			ProfileID: m.ProfileID,
			Resource:  domain.Resource(m.Resource),
			Action:    domain.Action(m.Action),
		})
	}
	return result
}
