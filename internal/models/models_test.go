package models

import (
	"testing"
	"time"
)

func tasksWith(statuses ...string) []Task {
	tasks := make([]Task, 0, len(statuses))
	for _, s := range statuses {
		tasks = append(tasks, Task{Status: &TaskStatus{Name: s}})
	}
	return tasks
}

func TestProjectCompletion(t *testing.T) {
	cases := []struct {
		name   string
		status string
		tasks  []Task
		want   int
	}{
		{"completed project", ProjectCompleted, tasksWith(TaskToDo), 100},
		{"planning project", ProjectPlanning, tasksWith(TaskCompleted), 0},
		{"no tasks", ProjectInProgress, nil, 0},
		{"one of three", ProjectInProgress, tasksWith(TaskCompleted, TaskToDo, TaskReview), 33},
		{"half", ProjectOnHold, tasksWith(TaskCompleted, TaskInProgress), 50},
		{"all done but open", ProjectInProgress, tasksWith(TaskCompleted, TaskCompleted), 99},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Project{Status: &ProjectStatus{Name: tc.status}, Tasks: tc.tasks}
			got := p.Completion()
			if got != tc.want {
				t.Fatalf("completion = %d, want %d", got, tc.want)
			}
			if got < 0 || got > 100 {
				t.Fatalf("completion out of range: %d", got)
			}
			if (got == 100) != (tc.status == ProjectCompleted) {
				t.Fatalf("100%% must only be reported for completed projects")
			}
		})
	}
}

func TestTaskDerive(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	task := Task{
		DueDate:  now.Add(-time.Hour),
		Status:   &TaskStatus{Name: TaskReview, Level: 3},
		Priority: &TaskPriority{Name: PriorityHigh, Level: 3},
	}
	task.Derive(now)
	if !task.IsOverdue || task.IsCompleted {
		t.Fatalf("expected overdue and not completed: %+v", task)
	}
	if task.StatusLevel != 3 || task.PriorityLevel != 3 {
		t.Fatalf("unexpected levels: %d %d", task.StatusLevel, task.PriorityLevel)
	}

	task.Status = &TaskStatus{Name: TaskCompleted, Level: 4}
	task.Derive(now)
	if task.IsOverdue || !task.IsCompleted {
		t.Fatalf("completed task must not be overdue: %+v", task)
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("director"); err != nil || r != RoleDirector {
		t.Fatalf("ParseRole(director) = %q, %v", r, err)
	}
	if _, err := ParseRole("Directeur"); !IsValidation(err) {
		t.Fatalf("misspelled role must be rejected, got %v", err)
	}
}

func TestRolePermissions(t *testing.T) {
	if !RoleDirector.Can(PermCreateProject) || RoleManager.Can(PermCreateProject) {
		t.Fatalf("only directors create projects")
	}
	if !RoleManager.Can(PermManageTeam) || RoleDirector.Can(PermManageTeam) {
		t.Fatalf("only managers assign teams")
	}
	if !RoleDeveloper.Can(PermReportProgress) || RoleManager.Can(PermReportProgress) {
		t.Fatalf("only developers report progress")
	}
	if Role("Directeur").Can(PermListProjects) {
		t.Fatalf("unknown roles must not be granted anything")
	}
}

func TestProjectValidate(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Project{Name: "  Apollo ", StartDate: start, Deadline: start.AddDate(0, 1, 0), DirectorID: 1}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid project rejected: %v", err)
	}
	if p.Name != "Apollo" {
		t.Fatalf("name not trimmed: %q", p.Name)
	}

	early := start.AddDate(0, 0, -1)
	p.EndDate = &early
	if err := p.Validate(); !IsValidation(err) {
		t.Fatalf("end before start must fail, got %v", err)
	}
}

func TestProgressValidate(t *testing.T) {
	for _, pct := range []int{-1, 101} {
		p := TaskProgress{Percentage: pct}
		if err := p.Validate(); !IsValidation(err) {
			t.Fatalf("percentage %d accepted", pct)
		}
	}
	p := TaskProgress{Percentage: 100}
	if err := p.Validate(); err != nil {
		t.Fatalf("100 rejected: %v", err)
	}
}

func TestNotificationFlatten(t *testing.T) {
	n := Notification{
		Project: &Project{Name: "Apollo", ClientName: "NASA"},
		Sender:  &User{Username: "mgr", FirstName: "Mia", LastName: "Grant"},
	}
	n.Flatten()
	if n.ProjectName != "Apollo" || n.ClientName != "NASA" || n.SenderName != "Mia Grant" {
		t.Fatalf("unexpected flatten result: %+v", n)
	}
}
