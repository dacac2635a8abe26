package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"projecthub/internal/models"
)

func orderBy(order string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB { return db.Order(order) }
}

// projectSummary loads what list views and the completion percentage need.
func projectSummary(db *gorm.DB) *gorm.DB {
	return db.Preload("Status").
		Preload("Manager").
		Preload("Director").
		Preload("Tasks", orderBy("due_date, id")).
		Preload("Tasks.Status")
}

// projectDetail loads the full project graph for the detail view.
func projectDetail(db *gorm.DB) *gorm.DB {
	return projectSummary(db).
		Preload("Developers", orderBy("assigned_at, developer_id")).
		Preload("Developers.Developer").
		Preload("Technologies").
		Preload("Technologies.Technology").
		Preload("Tasks.Priority").
		Preload("Tasks.Assignee").
		Preload("Tasks.Progress", orderBy("created_at DESC, id DESC"))
}

func (s *Store) deriveProjects(projects []models.Project) {
	now := s.now()
	for i := range projects {
		projects[i].Derive(now)
	}
}

// ListProjects retrieves all projects ordered by creation date.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects := []models.Project{}
	if err := s.db.WithContext(ctx).Scopes(projectSummary).Order("created_at, id").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	s.deriveProjects(projects)
	return projects, nil
}

// ListProjectsByManager retrieves the projects managed by a user.
func (s *Store) ListProjectsByManager(ctx context.Context, managerID int64) ([]models.Project, error) {
	projects := []models.Project{}
	err := s.db.WithContext(ctx).Scopes(projectSummary).
		Where("manager_id = ?", managerID).
		Order("created_at, id").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list manager projects: %w", err)
	}
	s.deriveProjects(projects)
	return projects, nil
}

// ListProjectsByDeveloper retrieves the projects whose team includes a user.
func (s *Store) ListProjectsByDeveloper(ctx context.Context, developerID int64) ([]models.Project, error) {
	db := s.db.WithContext(ctx)
	member := db.Model(&models.ProjectDeveloper{}).Select("project_id").Where("developer_id = ?", developerID)
	projects := []models.Project{}
	err := db.Scopes(projectSummary).
		Where("id IN (?)", member).
		Order("created_at, id").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list developer projects: %w", err)
	}
	s.deriveProjects(projects)
	return projects, nil
}

// GetProject fetches a project with its team, technologies and tasks.
func (s *Store) GetProject(ctx context.Context, id int64) (models.Project, error) {
	return s.getProject(s.db.WithContext(ctx), id)
}

func (s *Store) getProject(db *gorm.DB, id int64) (models.Project, error) {
	var p models.Project
	if err := db.Scopes(projectDetail).First(&p, id).Error; err != nil {
		return models.Project{}, lookupErr(err, "project")
	}
	p.Derive(s.now())
	return p, nil
}

// CreateProject persists a new project and notifies its manager, if one is set.
func (s *Store) CreateProject(ctx context.Context, p models.Project, actorID int64) (models.Project, error) {
	var created models.Project
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := s.prepareProject(tx, &p, 0); err != nil {
			return err
		}
		p.ID = 0
		if err := tx.Omit(clause.Associations).Create(&p).Error; err != nil {
			if isDuplicate(err) {
				return models.Invalid("name", "a project named %q already exists", p.Name)
			}
			return fmt.Errorf("insert project: %w", err)
		}
		if p.ManagerID != nil {
			if err := s.notifyManagerAssigned(tx, p, actorID); err != nil {
				return err
			}
		}
		var err error
		created, err = s.getProject(tx, p.ID)
		return err
	})
	if err != nil {
		return models.Project{}, err
	}
	return created, nil
}

// UpdateProject replaces the editable fields of an existing project. The
// director and manager never change here; the manager moves only through
// AssignManager. Team, technologies and tasks have their own operations too.
// A zero StatusID keeps the current status.
func (s *Store) UpdateProject(ctx context.Context, id int64, p models.Project) (models.Project, error) {
	var updated models.Project
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var current models.Project
		if err := tx.First(&current, id).Error; err != nil {
			return lookupErr(err, "project")
		}
		p.DirectorID = current.DirectorID
		p.ManagerID = current.ManagerID
		if p.StatusID == 0 {
			p.StatusID = current.StatusID
		}
		if err := s.prepareProject(tx, &p, id); err != nil {
			return err
		}
		p.ID = id
		p.CreatedAt = current.CreatedAt
		p.MeetingDate = current.MeetingDate
		if err := tx.Omit(clause.Associations).Save(&p).Error; err != nil {
			if isDuplicate(err) {
				return models.Invalid("name", "a project named %q already exists", p.Name)
			}
			return fmt.Errorf("update project: %w", err)
		}
		var err error
		updated, err = s.getProject(tx, id)
		return err
	})
	if err != nil {
		return models.Project{}, err
	}
	return updated, nil
}

// prepareProject validates p and every record it references.
func (s *Store) prepareProject(tx *gorm.DB, p *models.Project, excludeID int64) error {
	p.Status, p.Manager, p.Director = nil, nil, nil
	p.Developers, p.Technologies, p.Tasks = nil, nil, nil

	if err := p.Validate(); err != nil {
		return err
	}
	if err := checkProjectName(tx, p.Name, excludeID); err != nil {
		return err
	}
	if p.StatusID == 0 {
		id, err := lookupID(tx, &models.ProjectStatus{}, "status", models.ProjectPlanning)
		if err != nil {
			return err
		}
		p.StatusID = id
	} else if err := checkLookup(tx, &models.ProjectStatus{}, "status", p.StatusID); err != nil {
		return err
	}
	if _, err := requireRole(tx, p.DirectorID, models.RoleDirector, "directorId"); err != nil {
		return err
	}
	if p.ManagerID != nil {
		if _, err := requireRole(tx, *p.ManagerID, models.RoleManager, "managerId"); err != nil {
			return err
		}
	}
	return nil
}

func checkProjectName(tx *gorm.DB, name string, excludeID int64) error {
	var count int64
	q := tx.Model(&models.Project{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("check project name: %w", err)
	}
	if count > 0 {
		return models.Invalid("name", "a project named %q already exists", name)
	}
	return nil
}

// DeleteProject removes a project along with its tasks, their progress and
// comments, and its team and technology links. Notifications about the
// project are kept but lose the project reference.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	return s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Project{}, id, "project"); err != nil {
			return err
		}
		tasks := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)
		steps := []struct {
			what string
			run  func() error
		}{
			{"task progress", func() error {
				return tx.Where("task_id IN (?)", tasks).Delete(&models.TaskProgress{}).Error
			}},
			{"task comments", func() error {
				return tx.Where("task_id IN (?)", tasks).Delete(&models.TaskComment{}).Error
			}},
			{"tasks", func() error {
				return tx.Where("project_id = ?", id).Delete(&models.Task{}).Error
			}},
			{"team", func() error {
				return tx.Where("project_id = ?", id).Delete(&models.ProjectDeveloper{}).Error
			}},
			{"technologies", func() error {
				return tx.Where("project_id = ?", id).Delete(&models.ProjectTechnology{}).Error
			}},
			{"notifications", func() error {
				return tx.Model(&models.Notification{}).Where("project_id = ?", id).Update("project_id", nil).Error
			}},
			{"project", func() error {
				return tx.Delete(&models.Project{}, id).Error
			}},
		}
		for _, step := range steps {
			if err := step.run(); err != nil {
				return fmt.Errorf("delete project %s: %w", step.what, err)
			}
		}
		return nil
	})
}

// AssignManager sets the manager of a project and notifies them.
func (s *Store) AssignManager(ctx context.Context, projectID, managerID, actorID int64) (models.Project, error) {
	var updated models.Project
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p models.Project
		if err := tx.First(&p, projectID).Error; err != nil {
			return lookupErr(err, "project")
		}
		if _, err := requireRole(tx, managerID, models.RoleManager, "managerId"); err != nil {
			return err
		}
		if err := tx.Model(&p).Update("manager_id", managerID).Error; err != nil {
			return fmt.Errorf("assign manager: %w", err)
		}
		p.ManagerID = &managerID
		if err := s.notifyManagerAssigned(tx, p, actorID); err != nil {
			return err
		}
		var err error
		updated, err = s.getProject(tx, projectID)
		return err
	})
	if err != nil {
		return models.Project{}, err
	}
	return updated, nil
}

// AssignTechnologies replaces the technology links of a project.
func (s *Store) AssignTechnologies(ctx context.Context, projectID int64, technologyIDs []int64) (models.Project, error) {
	ids := uniqueIDs(technologyIDs)
	var updated models.Project
	err := s.tx(ctx, func(tx *gorm.DB) error {
		if err := exists(tx, &models.Project{}, projectID, "project"); err != nil {
			return err
		}
		if len(ids) > 0 {
			var count int64
			if err := tx.Model(&models.Technology{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
				return fmt.Errorf("check technologies: %w", err)
			}
			if count != int64(len(ids)) {
				return models.Invalid("technologyIds", "unknown technology in %v", ids)
			}
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectTechnology{}).Error; err != nil {
			return fmt.Errorf("clear technologies: %w", err)
		}
		if len(ids) > 0 {
			links := make([]models.ProjectTechnology, 0, len(ids))
			for _, id := range ids {
				links = append(links, models.ProjectTechnology{ProjectID: projectID, TechnologyID: id})
			}
			if err := tx.Omit(clause.Associations).Create(&links).Error; err != nil {
				return fmt.Errorf("link technologies: %w", err)
			}
		}
		var err error
		updated, err = s.getProject(tx, projectID)
		return err
	})
	if err != nil {
		return models.Project{}, err
	}
	return updated, nil
}

// AssignTeam replaces the whole team of a project. When meeting is set it is
// stored on the project and every member is notified.
func (s *Store) AssignTeam(ctx context.Context, projectID int64, developerIDs []int64, meeting *time.Time, actorID int64) (models.Project, error) {
	ids := uniqueIDs(developerIDs)
	var updated models.Project
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p models.Project
		if err := tx.First(&p, projectID).Error; err != nil {
			return lookupErr(err, "project")
		}
		for _, id := range ids {
			if _, err := requireRole(tx, id, models.RoleDeveloper, "developerIds"); err != nil {
				return err
			}
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.ProjectDeveloper{}).Error; err != nil {
			return fmt.Errorf("clear team: %w", err)
		}
		if len(ids) > 0 {
			now := s.now()
			members := make([]models.ProjectDeveloper, 0, len(ids))
			for _, id := range ids {
				members = append(members, models.ProjectDeveloper{ProjectID: projectID, DeveloperID: id, AssignedAt: now})
			}
			if err := tx.Omit(clause.Associations).Create(&members).Error; err != nil {
				return fmt.Errorf("add team members: %w", err)
			}
		}
		if meeting != nil {
			if err := s.setMeeting(tx, p, ids, *meeting, actorID); err != nil {
				return err
			}
		}
		var err error
		updated, err = s.getProject(tx, projectID)
		return err
	})
	if err != nil {
		return models.Project{}, err
	}
	return updated, nil
}

// ScheduleMeeting stores the meeting date of a project and notifies the team.
func (s *Store) ScheduleMeeting(ctx context.Context, projectID int64, date time.Time, actorID int64) (models.Project, error) {
	if date.IsZero() {
		return models.Project{}, models.Invalid("date", "meeting date is required")
	}
	var updated models.Project
	err := s.tx(ctx, func(tx *gorm.DB) error {
		var p models.Project
		if err := tx.First(&p, projectID).Error; err != nil {
			return lookupErr(err, "project")
		}
		var team []int64
		if err := tx.Model(&models.ProjectDeveloper{}).Where("project_id = ?", projectID).Order("developer_id").Pluck("developer_id", &team).Error; err != nil {
			return fmt.Errorf("load team: %w", err)
		}
		if err := s.setMeeting(tx, p, team, date, actorID); err != nil {
			return err
		}
		var err error
		updated, err = s.getProject(tx, projectID)
		return err
	})
	if err != nil {
		return models.Project{}, err
	}
	return updated, nil
}

func (s *Store) setMeeting(tx *gorm.DB, p models.Project, team []int64, date time.Time, actorID int64) error {
	date = date.UTC()
	if err := tx.Model(&models.Project{}).Where("id = ?", p.ID).Update("meeting_date", date).Error; err != nil {
		return fmt.Errorf("set meeting date: %w", err)
	}
	msg := fmt.Sprintf("A meeting for project %q is scheduled on %s", p.Name, date.Format("2006-01-02 15:04 MST"))
	for _, id := range team {
		err := s.notify(tx, models.Notification{
			UserID:    id,
			SenderID:  &actorID,
			ProjectID: &p.ID,
			Message:   msg,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) notifyManagerAssigned(tx *gorm.DB, p models.Project, actorID int64) error {
	return s.notify(tx, models.Notification{
		UserID:    *p.ManagerID,
		SenderID:  &actorID,
		ProjectID: &p.ID,
		Message:   fmt.Sprintf("You have been assigned as manager of project %q", p.Name),
	})
}
