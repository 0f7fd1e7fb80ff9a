package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"study-companion/internal/model"
)

// DefaultStateKey is the storage key used when none is configured.
const DefaultStateKey = "study_companion_state_v1"

// StateRepository loads and saves the whole AppState as one JSON document.
type StateRepository struct {
	db  *gorm.DB
	key string
}

func NewStateRepository(db *gorm.DB, key string) *StateRepository {
	if key == "" {
		key = DefaultStateKey
	}
	return &StateRepository{db: db, key: key}
}

// Load returns the stored state. A missing or unreadable document yields the
// default state; only database failures are reported as errors.
func (r *StateRepository) Load(ctx context.Context) (model.AppState, error) {
	var record model.StateRecord
	err := r.db.WithContext(ctx).Where(&model.StateRecord{Key: r.key}).First(&record).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.DefaultState(), nil
	case err != nil:
		return model.DefaultState(), fmt.Errorf("find state: %w", err)
	}

	state := model.DefaultState()
	if err := json.Unmarshal(record.Data, &state); err != nil {
		log.Printf("decode state %q: %v, starting from defaults", r.key, err)
		return model.DefaultState(), nil
	}
	state.Normalize()
	return state, nil
}

// Save replaces the stored document with state.
func (r *StateRepository) Save(ctx context.Context, state model.AppState) error {
	state.Normalize()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	record := model.StateRecord{Key: r.key, Data: data}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
