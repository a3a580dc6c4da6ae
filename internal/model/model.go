package model

import (
	"encoding/json"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

// Category.Description travels as "discription" on the wire.
type Category struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"discription,omitempty"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"discription,omitempty"`
}

type CategoryPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"discription,omitempty"`
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func ParsePriority(value string) (Priority, bool) {
	normalized := Priority(strings.TrimSpace(strings.ToLower(value)))
	for _, p := range priorities {
		if p == normalized {
			return p, true
		}
	}
	return "", false
}

func (p Priority) OrDefault() Priority {
	if parsed, ok := ParsePriority(string(p)); ok {
		return parsed
	}
	return PriorityLow
}

func (p Priority) Next() Priority {
	return p.cycle(1)
}

func (p Priority) Prev() Priority {
	return p.cycle(-1)
}

func (p Priority) cycle(delta int) Priority {
	current := p.OrDefault()
	index := 0
	for i, candidate := range priorities {
		if candidate == current {
			index = i
			break
		}
	}
	index = (index + delta + len(priorities)) % len(priorities)
	return priorities[index]
}

type Task struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    Priority  `json:"priority"`
	IsCompleted bool      `json:"isCompleted"`
	UserID      string    `json:"userId"`
	CategoryID  string    `json:"categoryId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type TaskInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
}

// TaskPatch has no category field: a task never moves between categories.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	IsCompleted *bool     `json:"isCompleted,omitempty"`
}

type DeleteResult struct {
	Message string          `json:"Message,omitempty"`
	Data    json.RawMessage `json:"Data,omitempty"`
}
