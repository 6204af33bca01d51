package models

import "time"

// Status of a task through its lifecycle.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Kind distinguishes the task variants the client renders.
type Kind string

const (
	KindAssignment Kind = "assignment"
	KindChecklist  Kind = "checklist"
	KindNote       Kind = "note"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (k Kind) Valid() bool {
	switch k {
	case KindAssignment, KindChecklist, KindNote:
		return true
	}
	return false
}

// Task belongs to one circle. A nil AssigneeID on an assignment means
// the task is assigned to everyone in the circle.
type Task struct {
	ID          int64
	CircleID    int64
	Title       string
	Description string
	AssigneeID  *int64
	CreatedBy   int64
	Status      Status
	Kind        Kind
	CreatedAt   time.Time
}

// ChecklistItem is one line of a checklist task.
type ChecklistItem struct {
	ID        int64
	TaskID    int64
	Content   string
	IsChecked bool
}
