package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"projecthub/internal/models"
)

var (
	projectStatuses = []string{models.ProjectPlanning, models.ProjectInProgress, models.ProjectCompleted, models.ProjectOnHold}
	taskStatuses    = []string{models.TaskToDo, models.TaskInProgress, models.TaskReview, models.TaskCompleted}
	taskPriorities  = []string{models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical}
)

// ensureLookups inserts any missing status and priority rows.
func (s *Store) ensureLookups() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, name := range projectStatuses {
			if err := tx.Where(models.ProjectStatus{Name: name}).FirstOrCreate(&models.ProjectStatus{}).Error; err != nil {
				return fmt.Errorf("seed project status %s: %w", name, err)
			}
		}
		for i, name := range taskStatuses {
			row := models.TaskStatus{Name: name, Level: i + 1}
			if err := tx.Where(models.TaskStatus{Name: name}).Attrs(row).FirstOrCreate(&models.TaskStatus{}).Error; err != nil {
				return fmt.Errorf("seed task status %s: %w", name, err)
			}
		}
		for i, name := range taskPriorities {
			row := models.TaskPriority{Name: name, Level: i + 1}
			if err := tx.Where(models.TaskPriority{Name: name}).Attrs(row).FirstOrCreate(&models.TaskPriority{}).Error; err != nil {
				return fmt.Errorf("seed task priority %s: %w", name, err)
			}
		}
		return nil
	})
}

// ListProjectStatuses returns the project status lookup table.
func (s *Store) ListProjectStatuses(ctx context.Context) ([]models.ProjectStatus, error) {
	var rows []models.ProjectStatus
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list project statuses: %w", err)
	}
	return rows, nil
}

// ListTaskStatuses returns the task status lookup table ordered by level.
func (s *Store) ListTaskStatuses(ctx context.Context) ([]models.TaskStatus, error) {
	var rows []models.TaskStatus
	if err := s.db.WithContext(ctx).Order("level").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list task statuses: %w", err)
	}
	return rows, nil
}

// ListTaskPriorities returns the task priority lookup table ordered by level.
func (s *Store) ListTaskPriorities(ctx context.Context) ([]models.TaskPriority, error) {
	var rows []models.TaskPriority
	if err := s.db.WithContext(ctx).Order("level").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list task priorities: %w", err)
	}
	return rows, nil
}

// ProjectStatusID resolves a project status name.
func (s *Store) ProjectStatusID(ctx context.Context, name string) (int64, error) {
	return lookupID(s.db.WithContext(ctx), &models.ProjectStatus{}, "status", name)
}

// TaskStatusID resolves a task status name.
func (s *Store) TaskStatusID(ctx context.Context, name string) (int64, error) {
	return lookupID(s.db.WithContext(ctx), &models.TaskStatus{}, "status", name)
}

// TaskPriorityID resolves a task priority name.
func (s *Store) TaskPriorityID(ctx context.Context, name string) (int64, error) {
	return lookupID(s.db.WithContext(ctx), &models.TaskPriority{}, "priority", name)
}

func lookupID(tx *gorm.DB, model any, field, name string) (int64, error) {
	var id int64
	err := tx.Model(model).Select("id").Where("name = ?", name).Limit(1).Scan(&id).Error
	if err != nil {
		return 0, fmt.Errorf("lookup %s: %w", field, err)
	}
	if id == 0 {
		return 0, models.Invalid(field, "unknown %s %q", field, name)
	}
	return id, nil
}

// checkLookup verifies that id is a row of the lookup table behind model.
func checkLookup(tx *gorm.DB, model any, field string, id int64) error {
	err := exists(tx, model, id, field)
	if errors.Is(err, models.ErrNotFound) {
		return models.Invalid(field, "unknown %s id %d", field, id)
	}
	return err
}
