package storage

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"projecthub/internal/models"
)

//go:embed seed.yaml
var defaultFixture []byte

const fixtureDate = "2006-01-02"

// Fixture is the demo data set loaded into an empty database.
type Fixture struct {
	Users        []FixtureUser       `yaml:"users"`
	Technologies []models.Technology `yaml:"technologies"`
	Projects     []FixtureProject    `yaml:"projects"`
}

// FixtureUser is a demo account. Role holds one of the API role names.
type FixtureUser struct {
	Username  string   `yaml:"username"`
	Email     string   `yaml:"email"`
	Password  string   `yaml:"password"`
	Role      string   `yaml:"role"`
	FirstName string   `yaml:"firstName"`
	LastName  string   `yaml:"lastName"`
	Bio       string   `yaml:"bio"`
	Skills    []string `yaml:"skills"`
}

// FixtureProject refers to its people by email and to technologies by name.
// Dates use the 2006-01-02 layout.
type FixtureProject struct {
	Name         string        `yaml:"name"`
	Description  string        `yaml:"description"`
	Client       string        `yaml:"client"`
	Status       string        `yaml:"status"`
	Director     string        `yaml:"director"`
	Manager      string        `yaml:"manager"`
	Start        string        `yaml:"start"`
	Deadline     string        `yaml:"deadline"`
	Developers   []string      `yaml:"developers"`
	Technologies []string      `yaml:"technologies"`
	Tasks        []FixtureTask `yaml:"tasks"`
}

// FixtureTask is a task of a fixture project. Assignee is an email.
type FixtureTask struct {
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	Status         string   `yaml:"status"`
	Priority       string   `yaml:"priority"`
	Due            string   `yaml:"due"`
	Assignee       string   `yaml:"assignee"`
	EstimatedHours *float64 `yaml:"estimatedHours"`
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if len(f.Users) == 0 {
		return nil, fmt.Errorf("fixture has no users")
	}
	return &f, nil
}

// Seed loads the embedded demo data when the database has no users yet.
// It reports whether anything was loaded.
func (s *Store) Seed(ctx context.Context) (bool, error) {
	f, err := ParseFixture(defaultFixture)
	if err != nil {
		return false, err
	}
	return s.SeedFixture(ctx, f)
}

// SeedFixture loads f when the database has no users yet.
func (s *Store) SeedFixture(ctx context.Context, f *Fixture) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	users := make(map[string]int64, len(f.Users))
	for _, fu := range f.Users {
		u, err := s.CreateUser(ctx, models.User{
			Username:  fu.Username,
			Email:     fu.Email,
			Role:      models.Role(fu.Role),
			FirstName: fu.FirstName,
			LastName:  fu.LastName,
			Bio:       fu.Bio,
			Skills:    fu.Skills,
		}, fu.Password)
		if err != nil {
			return false, fmt.Errorf("seed user %s: %w", fu.Email, err)
		}
		users[u.Email] = u.ID
	}

	techs := make(map[string]int64, len(f.Technologies))
	for _, ft := range f.Technologies {
		t, err := s.CreateTechnology(ctx, ft)
		if err != nil {
			return false, fmt.Errorf("seed technology %s: %w", ft.Name, err)
		}
		techs[t.Name] = t.ID
	}

	for _, fp := range f.Projects {
		if err := s.seedProject(ctx, fp, users, techs); err != nil {
			return false, fmt.Errorf("seed project %s: %w", fp.Name, err)
		}
	}

	s.logger.Info("loaded demo data",
		zap.Int("users", len(f.Users)),
		zap.Int("technologies", len(f.Technologies)),
		zap.Int("projects", len(f.Projects)))
	return true, nil
}

func (s *Store) seedProject(ctx context.Context, fp FixtureProject, users, techs map[string]int64) error {
	start, err := time.Parse(fixtureDate, fp.Start)
	if err != nil {
		return err
	}
	deadline, err := time.Parse(fixtureDate, fp.Deadline)
	if err != nil {
		return err
	}
	director := users[fp.Director]

	p := models.Project{
		Name:        fp.Name,
		Description: fp.Description,
		ClientName:  fp.Client,
		StartDate:   start,
		Deadline:    deadline,
		DirectorID:  director,
	}
	if fp.Status != "" {
		if p.StatusID, err = s.ProjectStatusID(ctx, fp.Status); err != nil {
			return err
		}
	}
	if id, ok := users[fp.Manager]; ok {
		p.ManagerID = &id
	}
	created, err := s.CreateProject(ctx, p, director)
	if err != nil {
		return err
	}

	var techIDs []int64
	for _, name := range fp.Technologies {
		techIDs = append(techIDs, techs[name])
	}
	if _, err := s.AssignTechnologies(ctx, created.ID, techIDs); err != nil {
		return err
	}

	actor := director
	if created.ManagerID != nil {
		actor = *created.ManagerID
	}
	var team []int64
	for _, email := range fp.Developers {
		team = append(team, users[email])
	}
	if _, err := s.AssignTeam(ctx, created.ID, team, nil, actor); err != nil {
		return err
	}

	for _, ft := range fp.Tasks {
		due, err := time.Parse(fixtureDate, ft.Due)
		if err != nil {
			return err
		}
		t := models.Task{
			Title:          ft.Title,
			Description:    ft.Description,
			DueDate:        due,
			ProjectID:      created.ID,
			EstimatedHours: ft.EstimatedHours,
		}
		if ft.Status != "" {
			if t.StatusID, err = s.TaskStatusID(ctx, ft.Status); err != nil {
				return err
			}
		}
		if ft.Priority != "" {
			if t.PriorityID, err = s.TaskPriorityID(ctx, ft.Priority); err != nil {
				return err
			}
		}
		if id, ok := users[ft.Assignee]; ok {
			t.AssigneeID = &id
		}
		if _, err := s.CreateTask(ctx, t, actor); err != nil {
			return err
		}
	}
	return nil
}
