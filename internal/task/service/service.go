package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"circles/internal/realtime/event"
	"circles/internal/task/models"
	"circles/internal/task/store"
	dErrors "circles/pkg/domain-errors"
)

// CircleDirectory is the membership view the task domain needs.
// *circle/service.Service satisfies it.
type CircleDirectory interface {
	IsMember(ctx context.Context, circleID, userID int64) (bool, error)
	MemberIDs(ctx context.Context, circleID int64) ([]int64, error)
}

// Broadcaster pushes realtime signals after a write has been acked.
// Implementations must be fire-and-forget. *router.Router satisfies it.
type Broadcaster interface {
	BroadcastTaskUpdate(circleID int64, action string)
	NotifyUser(userID int64, data event.NotificationData)
}

// Service owns the task lifecycle. Every successful write signals the
// circle's chat subscribers so clients refetch the task list.
type Service struct {
	tasks       store.TaskStore
	circles     CircleDirectory
	broadcaster Broadcaster
	logger      *slog.Logger
}

func New(tasks store.TaskStore, circles CircleDirectory, broadcaster Broadcaster, logger *slog.Logger) *Service {
	return &Service{
		tasks:       tasks,
		circles:     circles,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "task_service")),
	}
}

// CreateInput carries everything needed to open a task. A nil
// AssigneeID on an assignment means everyone in the circle.
type CreateInput struct {
	CircleID       int64
	Title          string
	Description    string
	AssigneeID     *int64
	Kind           models.Kind
	ChecklistItems []string
}

// Create validates, persists, then signals. The assignee (or every
// member except the creator) also receives a targeted notification.
func (s *Service) Create(ctx context.Context, creatorID int64, creatorName string, in CreateInput) (models.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Task{}, dErrors.New(dErrors.CodeValidation, "task title required")
	}
	kind := in.Kind
	if kind == "" {
		kind = models.KindAssignment
	}
	if !kind.Valid() {
		return models.Task{}, dErrors.Newf(dErrors.CodeValidation, "unknown task kind %q", kind)
	}
	ok, err := s.circles.IsMember(ctx, in.CircleID, creatorID)
	if err != nil {
		return models.Task{}, err
	}
	if !ok {
		return models.Task{}, dErrors.New(dErrors.CodeForbidden, "not a member of this circle")
	}
	if in.AssigneeID != nil {
		assigned, err := s.circles.IsMember(ctx, in.CircleID, *in.AssigneeID)
		if err != nil {
			return models.Task{}, err
		}
		if !assigned {
			return models.Task{}, dErrors.New(dErrors.CodeValidation, "assignee is not a member of this circle")
		}
	}

	task := &models.Task{
		CircleID:    in.CircleID,
		Title:       in.Title,
		Description: in.Description,
		AssigneeID:  in.AssigneeID,
		CreatedBy:   creatorID,
		Status:      models.StatusTodo,
		Kind:        kind,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return models.Task{}, err
	}
	for _, content := range in.ChecklistItems {
		item := &models.ChecklistItem{TaskID: task.ID, Content: content}
		if err := s.tasks.AddChecklistItem(ctx, item); err != nil {
			return models.Task{}, err
		}
	}

	s.broadcaster.BroadcastTaskUpdate(task.CircleID, "create")
	s.notifyAssignment(ctx, *task, creatorID, creatorName)
	return *task, nil
}

func (s *Service) notifyAssignment(ctx context.Context, task models.Task, creatorID int64, creatorName string) {
	if task.Kind != models.KindAssignment {
		return
	}
	if task.AssigneeID != nil {
		if *task.AssigneeID == creatorID {
			return
		}
		s.broadcaster.NotifyUser(*task.AssigneeID, event.NotificationData{
			Kind:     "task_assigned",
			Sender:   creatorName,
			CircleID: task.CircleID,
			TaskID:   task.ID,
			Message:  fmt.Sprintf("Assigned you to task: %s", task.Title),
		})
		return
	}

	memberIDs, err := s.circles.MemberIDs(ctx, task.CircleID)
	if err != nil {
		s.logger.WarnContext(ctx, "assignment fan-out skipped", "circle_id", task.CircleID, "error", err)
		return
	}
	for _, id := range memberIDs {
		if id == creatorID {
			continue
		}
		s.broadcaster.NotifyUser(id, event.NotificationData{
			Kind:     "task_assigned",
			Sender:   creatorName,
			CircleID: task.CircleID,
			TaskID:   task.ID,
			Message:  fmt.Sprintf("Assigned everyone to task: %s", task.Title),
		})
	}
}

// Get returns a task with its checklist when the caller belongs to the
// task's circle.
func (s *Service) Get(ctx context.Context, userID, taskID int64) (models.Task, []models.ChecklistItem, error) {
	task, err := s.authorizedTask(ctx, userID, taskID)
	if err != nil {
		return models.Task{}, nil, err
	}
	items, err := s.tasks.ListChecklistItems(ctx, task.ID)
	if err != nil {
		return models.Task{}, nil, err
	}
	return task, items, nil
}

// List returns the circle's tasks, restricted to members.
func (s *Service) List(ctx context.Context, userID, circleID int64) ([]models.Task, error) {
	ok, err := s.circles.IsMember(ctx, circleID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeForbidden, "not a member of this circle")
	}
	return s.tasks.ListByCircle(ctx, circleID)
}

// UpdateInput applies partial changes; nil fields are left untouched.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *models.Status
	AssigneeID  *int64
}

// Update applies the change and signals the circle. Changing the status
// of an assigned task is reserved to the assignee.
func (s *Service) Update(ctx context.Context, actorID int64, taskID int64, in UpdateInput) (models.Task, error) {
	task, err := s.authorizedTask(ctx, actorID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	if in.Status != nil {
		if !in.Status.Valid() {
			return models.Task{}, dErrors.Newf(dErrors.CodeValidation, "unknown task status %q", *in.Status)
		}
		if task.Kind == models.KindAssignment && task.AssigneeID != nil && *task.AssigneeID != actorID {
			return models.Task{}, dErrors.New(dErrors.CodeForbidden, "only the assigned user can update the status of this task")
		}
		task.Status = *in.Status
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return models.Task{}, dErrors.New(dErrors.CodeValidation, "task title required")
		}
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.AssigneeID != nil {
		assigned, err := s.circles.IsMember(ctx, task.CircleID, *in.AssigneeID)
		if err != nil {
			return models.Task{}, err
		}
		if !assigned {
			return models.Task{}, dErrors.New(dErrors.CodeValidation, "assignee is not a member of this circle")
		}
		task.AssigneeID = in.AssigneeID
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return models.Task{}, err
	}
	s.broadcaster.BroadcastTaskUpdate(task.CircleID, "update")
	return task, nil
}

// Delete removes a task. Only its creator may do so.
func (s *Service) Delete(ctx context.Context, actorID, taskID int64) error {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.CreatedBy != actorID {
		return dErrors.New(dErrors.CodeForbidden, "you can only delete tasks you created")
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return err
	}
	s.broadcaster.BroadcastTaskUpdate(task.CircleID, "delete")
	return nil
}

// ToggleCheck flips one checklist item and reports its new state.
func (s *Service) ToggleCheck(ctx context.Context, actorID, taskID, itemID int64) (bool, error) {
	task, err := s.authorizedTask(ctx, actorID, taskID)
	if err != nil {
		return false, err
	}
	item, err := s.tasks.FindChecklistItem(ctx, itemID, taskID)
	if err != nil {
		return false, err
	}
	item.IsChecked = !item.IsChecked
	if err := s.tasks.UpdateChecklistItem(ctx, item); err != nil {
		return false, err
	}
	s.broadcaster.BroadcastTaskUpdate(task.CircleID, "update")
	return item.IsChecked, nil
}

// authorizedTask loads the task and verifies circle membership.
func (s *Service) authorizedTask(ctx context.Context, userID, taskID int64) (models.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	ok, err := s.circles.IsMember(ctx, task.CircleID, userID)
	if err != nil {
		return models.Task{}, err
	}
	if !ok {
		return models.Task{}, dErrors.New(dErrors.CodeForbidden, "not a member of this circle")
	}
	return task, nil
}
