package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

type TaskService struct {
	client *Client
}

func NewTaskService(client *Client) *TaskService {
	return &TaskService{client: client}
}

func (s *TaskService) ListByCategory(ctx context.Context, categoryID string) ([]model.Task, error) {
	var raw json.RawMessage
	if err := s.client.do(ctx, http.MethodGet, taskCategoryPath(categoryID), nil, &raw); err != nil {
		return nil, err
	}
	tasks, err := decodeList[model.Task](raw)
	if err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (model.Task, error) {
	var task model.Task
	if err := s.client.do(ctx, http.MethodGet, taskPath(id), nil, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (s *TaskService) Create(ctx context.Context, categoryID string, input model.TaskInput) (model.Task, error) {
	var task model.Task
	if err := s.client.do(ctx, http.MethodPost, taskCategoryPath(categoryID), input, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, id string, patch model.TaskPatch) (model.Task, error) {
	var task model.Task
	if err := s.client.do(ctx, http.MethodPut, taskPath(id), patch, &task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (s *TaskService) Remove(ctx context.Context, id string) (model.DeleteResult, error) {
	var result model.DeleteResult
	if err := s.client.do(ctx, http.MethodDelete, taskPath(id), nil, &result); err != nil {
		return model.DeleteResult{}, err
	}
	return result, nil
}

func taskPath(id string) string {
	return "/task/" + url.PathEscape(id)
}

func taskCategoryPath(categoryID string) string {
	return "/task/category/" + url.PathEscape(categoryID)
}
