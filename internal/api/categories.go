package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

type CategoryService struct {
	client *Client
}

func NewCategoryService(client *Client) *CategoryService {
	return &CategoryService{client: client}
}

// List returns the categories of the signed-in user. The server answers
// {count, category} or {Message} when there are none; both become a slice.
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	var raw json.RawMessage
	if err := s.client.do(ctx, http.MethodGet, "/category", nil, &raw); err != nil {
		return nil, err
	}
	categories, err := decodeCategoryList(raw)
	if err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (model.Category, error) {
	var category model.Category
	if err := s.client.do(ctx, http.MethodGet, categoryPath(id), nil, &category); err != nil {
		return model.Category{}, err
	}
	return category, nil
}

func (s *CategoryService) Create(ctx context.Context, input model.CategoryInput) (model.Category, error) {
	var category model.Category
	if err := s.client.do(ctx, http.MethodPost, "/category", input, &category); err != nil {
		return model.Category{}, err
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	var category model.Category
	if err := s.client.do(ctx, http.MethodPut, categoryPath(id), patch, &category); err != nil {
		return model.Category{}, err
	}
	return category, nil
}

func (s *CategoryService) Remove(ctx context.Context, id string) (model.DeleteResult, error) {
	var result model.DeleteResult
	if err := s.client.do(ctx, http.MethodDelete, categoryPath(id), nil, &result); err != nil {
		return model.DeleteResult{}, err
	}
	return result, nil
}

func categoryPath(id string) string {
	return "/category/" + url.PathEscape(id)
}

func decodeCategoryList(raw []byte) ([]model.Category, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []model.Category{}, nil
	}
	switch trimmed[0] {
	case '[':
		return decodeList[model.Category](trimmed)
	case '{':
	default:
		return []model.Category{}, nil
	}

	var envelope struct {
		Category json.RawMessage `json:"category"`
		Message  any             `json:"Message"`
	}
	if err := sonic.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	if messageText(envelope.Message) != "" {
		return []model.Category{}, nil
	}
	list := bytes.TrimSpace(envelope.Category)
	if len(list) == 0 || list[0] != '[' {
		return []model.Category{}, nil
	}
	return decodeList[model.Category](list)
}

// decodeList never returns a nil slice on success.
func decodeList[T any](raw []byte) ([]T, error) {
	items := []T{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return items, nil
	}
	if err := sonic.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
