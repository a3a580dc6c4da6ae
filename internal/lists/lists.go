// Package lists binds the generic list controller to categories and tasks.
package lists

import (
	"context"
	"errors"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/listctl"
	"github.com/Joseda-hg/lazytodo/internal/model"
)

var (
	ErrNameRequired  = errors.New("name is required")
	ErrTitleRequired = errors.New("title is required")
)

type (
	Categories    = listctl.Controller[model.Category, model.CategoryInput, model.CategoryPatch]
	CategoryState = listctl.State[model.Category, model.CategoryPatch]
	TaskState     = listctl.State[model.Task, model.TaskPatch]
)

var categoryMessages = listctl.Messages{
	Load:   "Failed to load categories",
	Create: "Failed to create category",
	Update: "Failed to update category",
	Delete: "Failed to delete category",
}

var taskMessages = listctl.Messages{
	Load:   "Failed to load tasks",
	Create: "Failed to create task",
	Update: "Failed to update task",
	Delete: "Failed to delete task",
}

type categorySource struct {
	svc *api.CategoryService
}

func (s categorySource) List(ctx context.Context) ([]model.Category, error) {
	return s.svc.List(ctx)
}

func (s categorySource) Create(ctx context.Context, input model.CategoryInput) (model.Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	return s.svc.Create(ctx, input)
}

func (s categorySource) Update(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	return s.svc.Update(ctx, id, patch)
}

func (s categorySource) Remove(ctx context.Context, id string) error {
	_, err := s.svc.Remove(ctx, id)
	return err
}

func NewCategories(svc *api.CategoryService) *Categories {
	return listctl.New[model.Category, model.CategoryInput, model.CategoryPatch](categorySource{svc: svc}, listctl.Binding[model.Category, model.CategoryInput, model.CategoryPatch]{
		ID:    func(c model.Category) string { return c.ID },
		Label: func(c model.Category) string { return c.Name },
		Draft: CategoryDraft,
		Validate: func(input model.CategoryInput) error {
			if strings.TrimSpace(input.Name) == "" {
				return ErrNameRequired
			}
			return nil
		},
		Messages: categoryMessages,
	})
}

// CategoryDraft carries both editable fields, as the edit form sends them.
func CategoryDraft(c model.Category) model.CategoryPatch {
	name, description := c.Name, c.Description
	return model.CategoryPatch{Name: &name, Description: &description}
}

type taskSource struct {
	svc        *api.TaskService
	categoryID string
}

func (s taskSource) List(ctx context.Context) ([]model.Task, error) {
	return s.svc.ListByCategory(ctx, s.categoryID)
}

func (s taskSource) Create(ctx context.Context, input model.TaskInput) (model.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Priority = input.Priority.OrDefault()
	return s.svc.Create(ctx, s.categoryID, input)
}

func (s taskSource) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	return s.svc.Update(ctx, id, patch)
}

func (s taskSource) Remove(ctx context.Context, id string) error {
	_, err := s.svc.Remove(ctx, id)
	return err
}

// Tasks is the task list of one category.
type Tasks struct {
	*listctl.Controller[model.Task, model.TaskInput, model.TaskPatch]

	CategoryID string
}

func NewTasks(svc *api.TaskService, categoryID string) *Tasks {
	controller := listctl.New[model.Task, model.TaskInput, model.TaskPatch](taskSource{svc: svc, categoryID: categoryID}, listctl.Binding[model.Task, model.TaskInput, model.TaskPatch]{
		ID:    func(t model.Task) string { return t.ID },
		Label: func(t model.Task) string { return t.Title },
		Draft: TaskDraft,
		Validate: func(input model.TaskInput) error {
			if strings.TrimSpace(input.Title) == "" {
				return ErrTitleRequired
			}
			return nil
		},
		Messages: taskMessages,
	})
	return &Tasks{Controller: controller, CategoryID: categoryID}
}

func TaskDraft(t model.Task) model.TaskPatch {
	title, description, priority, completed := t.Title, t.Description, t.Priority.OrDefault(), t.IsCompleted
	return model.TaskPatch{Title: &title, Description: &description, Priority: &priority, IsCompleted: &completed}
}

// ToggleComplete flips the completion flag and sends nothing else.
func (t *Tasks) ToggleComplete(ctx context.Context, task model.Task) (model.Task, error) {
	completed := !task.IsCompleted
	return t.Patch(ctx, task.ID, model.TaskPatch{IsCompleted: &completed})
}
