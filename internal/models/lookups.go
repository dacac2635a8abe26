package models

import "time"

// Project status names.
const (
	ProjectPlanning   = "Planning"
	ProjectInProgress = "InProgress"
	ProjectCompleted  = "Completed"
	ProjectOnHold     = "OnHold"
)

// Task status names, in workflow order.
const (
	TaskToDo       = "ToDo"
	TaskInProgress = "InProgress"
	TaskReview     = "Review"
	TaskCompleted  = "Completed"
)

// Task priority names, lowest first.
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

// ProjectStatus is a row of the project status lookup table.
type ProjectStatus struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;not null;uniqueIndex" json:"name"`
}

// TaskStatus is a row of the task status lookup table.
type TaskStatus struct {
	ID    int64  `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Level int    `gorm:"not null" json:"level"`
}

// TaskPriority is a row of the task priority lookup table.
type TaskPriority struct {
	ID    int64  `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Level int    `gorm:"not null" json:"level"`
}

// Completed reports whether the task sits in the Completed status.
func (t *Task) Completed() bool {
	return t.Status != nil && t.Status.Name == TaskCompleted
}

// Overdue reports whether the due date has passed on an unfinished task.
func (t *Task) Overdue(now time.Time) bool {
	if t.Completed() || t.DueDate.IsZero() {
		return false
	}
	return now.After(t.DueDate)
}

// Derive fills the computed fields of the task and its sub-entities.
func (t *Task) Derive(now time.Time) {
	t.IsCompleted = t.Completed()
	t.IsOverdue = t.Overdue(now)
	if t.Status != nil {
		t.StatusLevel = t.Status.Level
	}
	if t.Priority != nil {
		t.PriorityLevel = t.Priority.Level
	}
}

// Completion returns the completion percentage of the project.
//
// Completed projects are at 100, Planning projects and projects without
// tasks are at 0, everything else is the share of completed tasks with the
// fraction truncated. Tasks and statuses must be loaded.
func (p *Project) Completion() int {
	if p.Status != nil {
		switch p.Status.Name {
		case ProjectCompleted:
			return 100
		case ProjectPlanning:
			return 0
		}
	}
	if len(p.Tasks) == 0 {
		return 0
	}
	done := 0
	for i := range p.Tasks {
		if p.Tasks[i].Completed() {
			done++
		}
	}
	pct := done * 100 / len(p.Tasks)
	if pct >= 100 {
		// only a Completed project reports 100
		return 99
	}
	return pct
}

// Derive fills the computed fields of the project and its tasks.
func (p *Project) Derive(now time.Time) {
	for i := range p.Tasks {
		p.Tasks[i].Derive(now)
	}
	p.CompletionPercentage = p.Completion()
}
