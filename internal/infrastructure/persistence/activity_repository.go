package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/gmja/storefront/internal/domain/activity"
	"github.com/gmja/storefront/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormActionRepository implements activity.ActionRepository using GORM
type GormActionRepository struct {
	db *gorm.DB
}

// NewGormActionRepository creates a new GormActionRepository
func NewGormActionRepository(db *gorm.DB) *GormActionRepository {
	return &GormActionRepository{db: db}
}

// Create inserts an action
func (r *GormActionRepository) Create(ctx context.Context, action *activity.Action) error {
	return r.db.WithContext(ctx).Create(action).Error
}

// FindByID finds an action by its ID
func (r *GormActionRepository) FindByID(ctx context.Context, id uint) (*activity.Action, error) {
	var action activity.Action
	if err := r.db.WithContext(ctx).First(&action, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &action, nil
}

// Delete removes an action
func (r *GormActionRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&activity.Action{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByActor lists public actions performed by ref
func (r *GormActionRepository) FindByActor(ctx context.Context, ref activity.Ref, filter shared.Filter) ([]activity.Action, int64, error) {
	query := r.db.WithContext(ctx).Model(&activity.Action{}).
		Where("public = ? AND actor_type = ? AND actor_id = ?", true, ref.Type, ref.ID)
	return r.find(query, filter)
}

// FindForFollows lists public actions touching any followed object
func (r *GormActionRepository) FindForFollows(ctx context.Context, follows []activity.Follow, filter shared.Filter) ([]activity.Action, int64, error) {
	if len(follows) == 0 {
		return []activity.Action{}, 0, nil
	}

	conds := make([]string, 0, len(follows)*3)
	args := make([]any, 0, len(follows)*6)
	for _, f := range follows {
		conds = append(conds, "(actor_type = ? AND actor_id = ?)")
		args = append(args, f.ObjectType, f.ObjectID)
		if !f.ActorOnly {
			conds = append(conds, "(target_type = ? AND target_id = ?)", "(object_type = ? AND object_id = ?)")
			args = append(args, f.ObjectType, f.ObjectID, f.ObjectType, f.ObjectID)
		}
	}

	query := r.db.WithContext(ctx).Model(&activity.Action{}).
		Where("public = ?", true).
		Where(strings.Join(conds, " OR "), args...)
	return r.find(query, filter)
}

// FindAll lists every action; Search matches the verb
func (r *GormActionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]activity.Action, int64, error) {
	query := r.db.WithContext(ctx).Model(&activity.Action{})
	if filter.Search != "" {
		query = query.Where(`LOWER(verb) LIKE ? ESCAPE '\'`, likePattern(filter.Search))
	}
	return r.find(query, filter)
}

func (r *GormActionRepository) find(query *gorm.DB, filter shared.Filter) ([]activity.Action, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var actions []activity.Action
	query = applySort(query, filter, ActionSortFields, "timestamp")
	if err := paginate(query, filter).Find(&actions).Error; err != nil {
		return nil, 0, err
	}
	return actions, total, nil
}

// Count returns the number of actions
func (r *GormActionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&activity.Action{}).Count(&count).Error
	return count, err
}

// GormFollowRepository implements activity.FollowRepository using GORM
type GormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GormFollowRepository
func NewGormFollowRepository(db *gorm.DB) *GormFollowRepository {
	return &GormFollowRepository{db: db}
}

// Create inserts the follow unless it exists and reports whether it was new
func (r *GormFollowRepository) Create(ctx context.Context, follow *activity.Follow) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(follow)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete removes the follow if present
func (r *GormFollowRepository) Delete(ctx context.Context, userID uint, object activity.Ref) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND object_type = ? AND object_id = ?", userID, object.Type, object.ID).
		Delete(&activity.Follow{}).Error
}

// Exists reports whether userID follows object
func (r *GormFollowRepository) Exists(ctx context.Context, userID uint, object activity.Ref) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&activity.Follow{}).
		Where("user_id = ? AND object_type = ? AND object_id = ?", userID, object.Type, object.ID).
		Count(&count).Error
	return count > 0, err
}

// FindByObject lists the follows of an object, oldest first
func (r *GormFollowRepository) FindByObject(ctx context.Context, object activity.Ref, filter shared.Filter) ([]activity.Follow, int64, error) {
	query := r.db.WithContext(ctx).Model(&activity.Follow{}).
		Where("object_type = ? AND object_id = ?", object.Type, object.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var follows []activity.Follow
	if err := paginate(query.Order("started ASC, id ASC"), filter).Find(&follows).Error; err != nil {
		return nil, 0, err
	}
	return follows, total, nil
}

// FindByUser lists everything a user follows
func (r *GormFollowRepository) FindByUser(ctx context.Context, userID uint) ([]activity.Follow, error) {
	var follows []activity.Follow
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("started ASC, id ASC").Find(&follows).Error
	return follows, err
}

var (
	_ activity.ActionRepository = (*GormActionRepository)(nil)
	_ activity.FollowRepository = (*GormFollowRepository)(nil)
)
