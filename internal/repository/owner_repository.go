package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"study-companion/internal/model"
)

// ErrChatNotOwner is returned when another chat already owns the state.
var ErrChatNotOwner = errors.New("chat is not the owner")

// OwnerRepository tracks which Telegram chat owns the application state.
type OwnerRepository struct {
	db *gorm.DB
}

func NewOwnerRepository(db *gorm.DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

// Claim binds telegramID as the owner when no owner exists yet and refreshes
// the stored names when it already is the owner.
func (r *OwnerRepository) Claim(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.Owner, error) {
	var owner model.Owner
	db := r.db.WithContext(ctx)
	err := db.Order("id ASC").First(&owner).Error
	switch {
	case err == nil:
		if owner.TelegramID != telegramID {
			return nil, ErrChatNotOwner
		}
		updates := map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"username":   username,
		}
		if err := db.Model(&owner).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update owner: %w", err)
		}
		return &owner, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		owner = model.Owner{
			TelegramID: telegramID,
			FirstName:  firstName,
			LastName:   lastName,
			Username:   username,
		}
		if err := db.Create(&owner).Error; err != nil {
			return nil, fmt.Errorf("create owner: %w", err)
		}
		return &owner, nil
	default:
		return nil, fmt.Errorf("find owner: %w", err)
	}
}

// IsOwner reports whether telegramID is the bound owner.
func (r *OwnerRepository) IsOwner(ctx context.Context, telegramID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Owner{}).Where("telegram_id = ?", telegramID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *OwnerRepository) ListAll(ctx context.Context) ([]model.Owner, error) {
	var owners []model.Owner
	if err := r.db.WithContext(ctx).Find(&owners).Error; err != nil {
		return nil, err
	}
	return owners, nil
}
