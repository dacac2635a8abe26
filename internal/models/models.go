package models

import (
	"strings"
	"time"
)

// User is a person that can sign in. The role decides what the user may do.
type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"size:32;not null;index" json:"role"`
	FirstName    string    `gorm:"size:100" json:"firstName"`
	LastName     string    `gorm:"size:100" json:"lastName"`
	Bio          string    `json:"bio,omitempty"`
	PictureURL   string    `json:"pictureUrl,omitempty"`
	Skills       []string  `gorm:"serializer:json" json:"skills"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DisplayName returns "First Last", falling back to the username.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Technology is a catalog entry that projects can reference.
type Technology struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string `json:"description"`
	Category    string `gorm:"size:100" json:"category"`
}

// Project groups tasks and a team under a director and an optional manager.
type Project struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;not null;uniqueIndex" json:"name"`
	Description string         `json:"description"`
	StartDate   time.Time      `json:"startDate"`
	Deadline    time.Time      `json:"deadline"`
	EndDate     *time.Time     `json:"endDate,omitempty"`
	StatusID    int64          `gorm:"not null" json:"statusId"`
	Status      *ProjectStatus `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	ManagerID   *int64         `gorm:"index" json:"managerId,omitempty"`
	Manager     *User          `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	DirectorID  int64          `gorm:"not null;index" json:"directorId"`
	Director    *User          `gorm:"foreignKey:DirectorID" json:"director,omitempty"`
	ClientName  string         `gorm:"size:200" json:"clientName"`
	MeetingDate *time.Time     `json:"meetingDate,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	Developers   []ProjectDeveloper  `gorm:"foreignKey:ProjectID" json:"developers,omitempty"`
	Technologies []ProjectTechnology `gorm:"foreignKey:ProjectID" json:"technologies,omitempty"`
	Tasks        []Task              `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`

	CompletionPercentage int `gorm:"-" json:"completionPercentage"`
}

// ProjectDeveloper is the team membership join record.
type ProjectDeveloper struct {
	ProjectID   int64     `gorm:"primaryKey;autoIncrement:false" json:"projectId"`
	DeveloperID int64     `gorm:"primaryKey;autoIncrement:false" json:"developerId"`
	Developer   *User     `gorm:"foreignKey:DeveloperID" json:"developer,omitempty"`
	AssignedAt  time.Time `gorm:"not null" json:"assignedAt"`
}

// ProjectTechnology links a project to a catalog technology.
type ProjectTechnology struct {
	ProjectID    int64       `gorm:"primaryKey;autoIncrement:false" json:"projectId"`
	TechnologyID int64       `gorm:"primaryKey;autoIncrement:false" json:"technologyId"`
	Technology   *Technology `gorm:"foreignKey:TechnologyID" json:"technology,omitempty"`
}

// Task is a unit of work inside a project.
type Task struct {
	ID             int64         `gorm:"primaryKey" json:"id"`
	Title          string        `gorm:"size:200;not null" json:"title"`
	Description    string        `json:"description"`
	PriorityID     int64         `gorm:"not null" json:"priorityId"`
	Priority       *TaskPriority `gorm:"foreignKey:PriorityID" json:"priority,omitempty"`
	StatusID       int64         `gorm:"not null;index" json:"statusId"`
	Status         *TaskStatus   `gorm:"foreignKey:StatusID" json:"status,omitempty"`
	DueDate        time.Time     `json:"dueDate"`
	EndDate        *time.Time    `json:"endDate,omitempty"`
	AssigneeID     *int64        `gorm:"index" json:"assigneeId,omitempty"`
	Assignee       *User         `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	ProjectID      int64         `gorm:"not null;index" json:"projectId"`
	EstimatedHours *float64      `json:"estimatedHours,omitempty"`
	ActualHours    *float64      `json:"actualHours,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`

	Progress []TaskProgress `gorm:"foreignKey:TaskID" json:"progress,omitempty"`
	Comments []TaskComment  `gorm:"foreignKey:TaskID" json:"comments,omitempty"`

	IsCompleted   bool `gorm:"-" json:"isCompleted"`
	IsOverdue     bool `gorm:"-" json:"isOverdue"`
	PriorityLevel int  `gorm:"-" json:"priorityLevel"`
	StatusLevel   int  `gorm:"-" json:"statusLevel"`
}

// TaskProgress is an append-only progress report on a task.
type TaskProgress struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	TaskID      int64     `gorm:"not null;index" json:"taskId"`
	UserID      int64     `gorm:"not null" json:"userId"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Description string    `json:"description"`
	Percentage  int       `gorm:"not null" json:"percentageComplete"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TaskComment is a free-form note left on a task.
type TaskComment struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	TaskID    int64     `gorm:"not null;index" json:"taskId"`
	AuthorID  int64     `gorm:"not null" json:"authorId"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content   string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notification is a message addressed to one user. Notifications are only
// produced as a side effect of project and task operations.
type Notification struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"userId"`
	SenderID  *int64    `json:"senderId,omitempty"`
	Sender    *User     `gorm:"foreignKey:SenderID" json:"-"`
	ProjectID *int64    `gorm:"index" json:"projectId,omitempty"`
	Project   *Project  `gorm:"foreignKey:ProjectID" json:"-"`
	Message   string    `gorm:"not null" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"createdAt"`

	ProjectName string `gorm:"-" json:"projectName,omitempty"`
	ClientName  string `gorm:"-" json:"clientName,omitempty"`
	SenderName  string `gorm:"-" json:"senderName,omitempty"`
}

// Flatten copies display fields from the loaded relations.
func (n *Notification) Flatten() {
	if n.Project != nil {
		n.ProjectName = n.Project.Name
		n.ClientName = n.Project.ClientName
	}
	if n.Sender != nil {
		n.SenderName = n.Sender.DisplayName()
	}
}
