package storage

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"projecthub/internal/models"
)

func taskRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Status").Preload("Priority").Preload("Assignee")
}

func (s *Store) deriveTasks(tasks []models.Task) {
	now := s.now()
	for i := range tasks {
		tasks[i].Derive(now)
	}
}

// ListTasks returns every task ordered by due date.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := s.db.WithContext(ctx).Scopes(taskRelations).Order("due_date, id").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	s.deriveTasks(tasks)
	return tasks, nil
}

// ListTasksByProject returns the tasks of a project ordered by due date.
func (s *Store) ListTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, &models.Project{}, projectID, "project"); err != nil {
		return nil, err
	}
	tasks := []models.Task{}
	err := db.Scopes(taskRelations).
		Preload("Progress", orderBy("created_at DESC, id DESC")).
		Where("project_id = ?", projectID).
		Order("due_date, id").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list project tasks: %w", err)
	}
	s.deriveTasks(tasks)
	return tasks, nil
}

// ListTasksByDeveloper returns the tasks assigned to a user.
func (s *Store) ListTasksByDeveloper(ctx context.Context, developerID int64) ([]models.Task, error) {
	tasks := []models.Task{}
	err := s.db.WithContext(ctx).Scopes(taskRelations).
		Preload("Progress", orderBy("created_at DESC, id DESC")).
		Where("assignee_id = ?", developerID).
		Order("due_date, id").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("list developer tasks: %w", err)
	}
	s.deriveTasks(tasks)
	return tasks, nil
}

// GetTask retrieves a task with its progress log.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	return s.getTask(s.db.WithContext(ctx), id)
}

func (s *Store) getTask(db *gorm.DB, id int64) (models.Task, error) {
	var t models.Task
	err := db.Scopes(taskRelations).
		Preload("Progress", orderBy("created_at DESC, id DESC")).
		Preload("Progress.User").
		First(&t, id).Error
	if err != nil {
		return models.Task{}, lookupErr(err, "task")
	}
	t.Derive(s.now())
	return t, nil
}

// CreateTask inserts a task together with its initial progress entry and,
// when the task has an assignee, an assignment notification.
func (s *Store) CreateTask(ctx context.Context, t models.Task, actorID int64) (models.Task, error) {
	var created models.Task
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var project models.Project
		if t.ProjectID != 0 {
			if err := tx.First(&project, t.ProjectID).Error; err != nil {
				return lookupErr(err, "project")
			}
		}
		if err := s.prepareTask(tx, &t); err != nil {
			return err
		}
		if err := s.stampEndDate(tx, &t); err != nil {
			return err
		}
		t.ID = 0
		if err := tx.Omit(clause.Associations).Create(&t).Error; err != nil {
			return fmt.Errorf("insert task: %w", err)
		}

		initial := models.TaskProgress{
			TaskID:      t.ID,
			UserID:      actorID,
			Description: "Task created",
			Percentage:  0,
			CreatedAt:   s.now(),
		}
		if err := tx.Omit(clause.Associations).Create(&initial).Error; err != nil {
			return fmt.Errorf("insert initial progress: %w", err)
		}

		if t.AssigneeID != nil {
			err := s.notify(tx, models.Notification{
				UserID:    *t.AssigneeID,
				SenderID:  &actorID,
				ProjectID: &project.ID,
				Message:   fmt.Sprintf("You have been assigned task %q in project %q", t.Title, project.Name),
			})
			if err != nil {
				return err
			}
		}
		var err error
		created, err = s.getTask(tx, t.ID)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	return created, nil
}

// UpdateTask replaces the editable fields of a task. The owning project
// never changes.
func (s *Store) UpdateTask(ctx context.Context, id int64, t models.Task) (models.Task, error) {
	var updated models.Task
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var current models.Task
		if err := tx.Preload("Status").First(&current, id).Error; err != nil {
			return lookupErr(err, "task")
		}
		t.ID = id
		t.ProjectID = current.ProjectID
		t.CreatedAt = current.CreatedAt
		if t.StatusID == 0 {
			t.StatusID = current.StatusID
		}
		if err := s.prepareTask(tx, &t); err != nil {
			return err
		}
		if t.StatusID != current.StatusID {
			if err := s.stampEndDate(tx, &t); err != nil {
				return err
			}
		} else if t.EndDate == nil {
			t.EndDate = current.EndDate
		}
		if err := tx.Omit(clause.Associations).Save(&t).Error; err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		var err error
		updated, err = s.getTask(tx, id)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	return updated, nil
}

// UpdateTaskStatus moves a task to the named status. Any status may follow
// any other.
func (s *Store) UpdateTaskStatus(ctx context.Context, id int64, status string) (models.Task, error) {
	var updated models.Task
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var t models.Task
		if err := tx.First(&t, id).Error; err != nil {
			return lookupErr(err, "task")
		}
		statusID, err := lookupID(tx, &models.TaskStatus{}, "status", strings.TrimSpace(status))
		if err != nil {
			return err
		}
		if statusID != t.StatusID {
			t.StatusID = statusID
			if err := s.stampEndDate(tx, &t); err != nil {
				return err
			}
			err := tx.Model(&models.Task{}).Where("id = ?", id).Updates(map[string]any{
				"status_id":  t.StatusID,
				"end_date":   t.EndDate,
				"updated_at": s.now(),
			}).Error
			if err != nil {
				return fmt.Errorf("update task status: %w", err)
			}
		}
		updated, err = s.getTask(tx, id)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	return updated, nil
}

// AssignTask changes or clears the assignee of a task.
func (s *Store) AssignTask(ctx context.Context, id int64, assigneeID *int64) (models.Task, error) {
	var updated models.Task
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Task{}, id, "task"); err != nil {
			return err
		}
		if assigneeID != nil {
			if _, err := requireRole(tx, *assigneeID, models.RoleDeveloper, "assigneeId"); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", id).Updates(map[string]any{
			"assignee_id": assigneeID,
			"updated_at":  s.now(),
		}).Error; err != nil {
			return fmt.Errorf("assign task: %w", err)
		}
		var err error
		updated, err = s.getTask(tx, id)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	return updated, nil
}

// DeleteTask removes a task together with its progress log and comments.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Task{}, id, "task"); err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskProgress{}).Error; err != nil {
			return fmt.Errorf("delete task progress: %w", err)
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskComment{}).Error; err != nil {
			return fmt.Errorf("delete task comments: %w", err)
		}
		if err := tx.Delete(&models.Task{}, id).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

// AddProgress appends a progress entry reported by the task's assignee and
// notifies the project manager. Earlier entries are never touched.
func (s *Store) AddProgress(ctx context.Context, taskID int64, entry models.TaskProgress) (models.TaskProgress, error) {
	if err := entry.Validate(); err != nil {
		return models.TaskProgress{}, err
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var t models.Task
		if err := tx.First(&t, taskID).Error; err != nil {
			return lookupErr(err, "task")
		}
		if t.AssigneeID == nil || *t.AssigneeID != entry.UserID {
			return fmt.Errorf("report progress on task %d: %w", taskID, models.ErrForbidden)
		}
		var project models.Project
		if err := tx.First(&project, t.ProjectID).Error; err != nil {
			return lookupErr(err, "project")
		}

		entry.ID = 0
		entry.TaskID = taskID
		entry.User = nil
		entry.CreatedAt = s.now()
		if err := tx.Omit(clause.Associations).Create(&entry).Error; err != nil {
			return fmt.Errorf("insert progress: %w", err)
		}

		if project.ManagerID != nil {
			var reporter models.User
			if err := tx.First(&reporter, entry.UserID).Error; err != nil {
				return lookupErr(err, "user")
			}
			err := s.notify(tx, models.Notification{
				UserID:    *project.ManagerID,
				SenderID:  &entry.UserID,
				ProjectID: &project.ID,
				Message: fmt.Sprintf("%s reported %d%% progress on task %q",
					reporter.DisplayName(), entry.Percentage, t.Title),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.TaskProgress{}, err
	}
	return entry, nil
}

// ListProgress returns the progress log of a task, newest first.
func (s *Store) ListProgress(ctx context.Context, taskID int64) ([]models.TaskProgress, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, &models.Task{}, taskID, "task"); err != nil {
		return nil, err
	}
	entries := []models.TaskProgress{}
	err := db.Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return entries, nil
}

// AddComment attaches a comment to a task.
func (s *Store) AddComment(ctx context.Context, taskID int64, c models.TaskComment) (models.TaskComment, error) {
	c.Content = strings.TrimSpace(c.Content)
	if c.Content == "" {
		return models.TaskComment{}, models.Invalid("content", "comment must not be empty")
	}
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Task{}, taskID, "task"); err != nil {
			return err
		}
		var author models.User
		if err := tx.First(&author, c.AuthorID).Error; err != nil {
			return lookupErr(err, "user")
		}
		c.ID = 0
		c.TaskID = taskID
		c.Author = nil
		c.CreatedAt = s.now()
		if err := tx.Omit(clause.Associations).Create(&c).Error; err != nil {
			return fmt.Errorf("insert comment: %w", err)
		}
		c.Author = &author
		return nil
	})
	if err != nil {
		return models.TaskComment{}, err
	}
	return c, nil
}

// ListComments returns the comments of a task, oldest first.
func (s *Store) ListComments(ctx context.Context, taskID int64) ([]models.TaskComment, error) {
	db := s.db.WithContext(ctx)
	if err := exists(db, &models.Task{}, taskID, "task"); err != nil {
		return nil, err
	}
	comments := []models.TaskComment{}
	err := db.Preload("Author").
		Where("task_id = ?", taskID).
		Order("created_at, id").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// prepareTask fills defaults and validates the references of t.
func (s *Store) prepareTask(tx *gorm.DB, t *models.Task) error {
	t.Status, t.Priority, t.Assignee = nil, nil, nil
	t.Progress, t.Comments = nil, nil

	if err := t.Validate(); err != nil {
		return err
	}
	if err := exists(tx, &models.Project{}, t.ProjectID, "project"); err != nil {
		return err
	}
	if t.StatusID == 0 {
		id, err := lookupID(tx, &models.TaskStatus{}, "status", models.TaskToDo)
		if err != nil {
			return err
		}
		t.StatusID = id
	} else if err := checkLookup(tx, &models.TaskStatus{}, "status", t.StatusID); err != nil {
		return err
	}
	if t.PriorityID == 0 {
		id, err := lookupID(tx, &models.TaskPriority{}, "priority", models.PriorityMedium)
		if err != nil {
			return err
		}
		t.PriorityID = id
	} else if err := checkLookup(tx, &models.TaskPriority{}, "priority", t.PriorityID); err != nil {
		return err
	}
	if t.AssigneeID != nil {
		if _, err := requireRole(tx, *t.AssigneeID, models.RoleDeveloper, "assigneeId"); err != nil {
			return err
		}
	}
	return nil
}

// stampEndDate sets the end date when t enters Completed and clears it when
// t leaves it.
func (s *Store) stampEndDate(tx *gorm.DB, t *models.Task) error {
	var status models.TaskStatus
	if err := tx.First(&status, t.StatusID).Error; err != nil {
		return lookupErr(err, "status")
	}
	if status.Name == models.TaskCompleted {
		now := s.now()
		t.EndDate = &now
	} else {
		t.EndDate = nil
	}
	return nil
}
