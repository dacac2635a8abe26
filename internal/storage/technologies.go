package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"projecthub/internal/models"
)

// ListTechnologies retrieves the technology catalog ordered by name.
func (s *Store) ListTechnologies(ctx context.Context) ([]models.Technology, error) {
	techs := []models.Technology{}
	if err := s.db.WithContext(ctx).Order("name").Find(&techs).Error; err != nil {
		return nil, fmt.Errorf("list technologies: %w", err)
	}
	return techs, nil
}

// GetTechnology fetches a single technology by id.
func (s *Store) GetTechnology(ctx context.Context, id int64) (models.Technology, error) {
	var t models.Technology
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return models.Technology{}, lookupErr(err, "technology")
	}
	return t, nil
}

// CreateTechnology adds a catalog entry with a unique name.
func (s *Store) CreateTechnology(ctx context.Context, t models.Technology) (models.Technology, error) {
	if err := t.Validate(); err != nil {
		return models.Technology{}, err
	}
	t.ID = 0
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := checkTechnologyName(tx, t.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(&t).Error; err != nil {
			if isDuplicate(err) {
				return models.Invalid("name", "a technology named %q already exists", t.Name)
			}
			return fmt.Errorf("insert technology: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Technology{}, err
	}
	return t, nil
}

// UpdateTechnology replaces a catalog entry.
func (s *Store) UpdateTechnology(ctx context.Context, id int64, t models.Technology) (models.Technology, error) {
	if err := t.Validate(); err != nil {
		return models.Technology{}, err
	}
	t.ID = id
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Technology{}, id, "technology"); err != nil {
			return err
		}
		if err := checkTechnologyName(tx, t.Name, id); err != nil {
			return err
		}
		if err := tx.Save(&t).Error; err != nil {
			if isDuplicate(err) {
				return models.Invalid("name", "a technology named %q already exists", t.Name)
			}
			return fmt.Errorf("update technology: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Technology{}, err
	}
	return t, nil
}

// DeleteTechnology removes a catalog entry and its project links.
func (s *Store) DeleteTechnology(ctx context.Context, id int64) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Technology{}, id, "technology"); err != nil {
			return err
		}
		if err := tx.Where("technology_id = ?", id).Delete(&models.ProjectTechnology{}).Error; err != nil {
			return fmt.Errorf("unlink technology: %w", err)
		}
		if err := tx.Delete(&models.Technology{}, id).Error; err != nil {
			return fmt.Errorf("delete technology: %w", err)
		}
		return nil
	})
}

func checkTechnologyName(tx *gorm.DB, name string, excludeID int64) error {
	var count int64
	q := tx.Model(&models.Technology{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check technology name: %w", err)
	}
	if count > 0 {
		return models.Invalid("name", "a technology named %q already exists", name)
	}
	return nil
}
