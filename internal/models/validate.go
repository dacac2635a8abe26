package models

import (
	"net/mail"
	"strings"
)

// Validate checks the fields a project must carry before it is stored.
func (p *Project) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Invalid("name", "project name must not be empty")
	}
	if p.StartDate.IsZero() {
		return Invalid("startDate", "start date is required")
	}
	if p.Deadline.IsZero() {
		return Invalid("deadline", "deadline is required")
	}
	if p.Deadline.Before(p.StartDate) {
		return Invalid("deadline", "deadline must not be before the start date")
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return Invalid("endDate", "end date must not be before the start date")
	}
	if p.DirectorID == 0 {
		return Invalid("directorId", "director is required")
	}
	return nil
}

// Validate checks the fields a task must carry before it is stored.
func (t *Task) Validate() error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return Invalid("title", "task title must not be empty")
	}
	if t.ProjectID == 0 {
		return Invalid("projectId", "project is required")
	}
	if t.DueDate.IsZero() {
		return Invalid("dueDate", "due date is required")
	}
	if t.EstimatedHours != nil && *t.EstimatedHours < 0 {
		return Invalid("estimatedHours", "estimated hours must not be negative")
	}
	if t.ActualHours != nil && *t.ActualHours < 0 {
		return Invalid("actualHours", "actual hours must not be negative")
	}
	return nil
}

// Validate checks a progress entry before it is appended.
func (p *TaskProgress) Validate() error {
	if p.Percentage < 0 || p.Percentage > 100 {
		return Invalid("percentageComplete", "must be between 0 and 100")
	}
	p.Description = strings.TrimSpace(p.Description)
	return nil
}

// Validate checks the identity fields of a user.
func (u *User) Validate() error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Username == "" {
		return Invalid("username", "username must not be empty")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return Invalid("email", "invalid email address")
	}
	role, err := ParseRole(string(u.Role))
	if err != nil {
		return err
	}
	u.Role = role
	return nil
}

// Validate checks a catalog technology.
func (t *Technology) Validate() error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return Invalid("name", "technology name must not be empty")
	}
	return nil
}
