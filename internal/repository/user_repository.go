package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"notify-relay/internal/model"
)

// UserRepository handles CRUD for registered users. Every method is a
// single statement committed on its own.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert registers userID with status pending, or only refreshes the
// username when the user already exists.
func (r *UserRepository) Upsert(ctx context.Context, userID int64, username string) error {
	user := model.User{
		UserID:             userID,
		Username:           nullable(username),
		NotificationStatus: model.StatusPending,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username"}),
	}).Create(&user).Error
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// Delete removes the user and reports whether a row existed.
func (r *UserRepository) Delete(ctx context.Context, userID int64) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.User{})
	if res.Error != nil {
		return false, fmt.Errorf("delete user: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// FindByID loads a single user. A missing row yields an error wrapping
// gorm.ErrRecordNotFound.
func (r *UserRepository) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}
	return &user, nil
}

// ListAll returns every user in storage order.
func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListPendingNotifications returns ids of users waiting for delivery.
func (r *UserRepository) ListPendingNotifications(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("notification_status = ?", model.StatusReadyToNotify).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list pending notifications: %w", err)
	}
	return ids, nil
}

// MarkSent records delivery. Marking twice is harmless.
func (r *UserRepository) MarkSent(ctx context.Context, userID int64) error {
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("user_id = ?", userID).
		Update("notification_status", model.StatusSent).Error
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

// MarkReady queues a notification for a pending user. It returns false when
// the user is unknown or no longer pending.
func (r *UserRepository) MarkReady(ctx context.Context, userID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("user_id = ? AND notification_status = ?", userID, model.StatusPending).
		Update("notification_status", model.StatusReadyToNotify)
	if res.Error != nil {
		return false, fmt.Errorf("mark ready: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
