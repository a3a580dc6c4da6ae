package fakeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

func (s *Server) login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[strings.ToLower(req.Email)]
	if !ok || acc.password != req.Password {
		return errorJSON(c, http.StatusUnauthorized, "Invalid credentials")
	}
	resp := model.AuthResponse{AccessToken: s.issueTokenLocked(acc.user)}
	if !s.OmitLoginUser {
		user := acc.user
		resp.User = &user
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) signUp(c echo.Context) error {
	var req model.SignUpRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}

	var problems []string
	if strings.TrimSpace(req.Name) == "" {
		problems = append(problems, "name should not be empty")
	}
	if !strings.Contains(req.Email, "@") {
		problems = append(problems, "email must be an email")
	}
	if len(req.Password) < 6 {
		problems = append(problems, "password must be longer than or equal to 6 characters")
	}
	if len(problems) > 0 {
		return errorJSON(c, http.StatusBadRequest, problems)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[strings.ToLower(req.Email)]; exists {
		return errorJSON(c, http.StatusConflict, "Email already exists")
	}
	acc := s.addAccountLocked(req.Name, req.Email, req.Password, req.Role)
	user := acc.user
	return c.JSON(http.StatusCreated, model.AuthResponse{AccessToken: s.issueTokenLocked(user), User: &user})
}

func (s *Server) listCategories(c echo.Context) error {
	owner := userID(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := []model.Category{}
	for _, category := range s.categories {
		if category.UserID == owner {
			owned = append(owned, category)
		}
	}
	if len(owned) == 0 && s.EmptyCategoriesAsMessage {
		return c.JSON(http.StatusOK, map[string]any{"Message": "No categories found"})
	}
	return c.JSON(http.StatusOK, map[string]any{"count": len(owned), "category": owned})
}

func (s *Server) getCategory(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.categoryIndexLocked(userID(c), c.Param("id"))
	if index < 0 {
		return errorJSON(c, http.StatusNotFound, "Category not found")
	}
	return c.JSON(http.StatusOK, s.categories[index])
}

func (s *Server) createCategory(c echo.Context) error {
	var req model.CategoryInput
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return errorJSON(c, http.StatusBadRequest, []string{"name should not be empty"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusCreated, s.addCategoryLocked(userID(c), req.Name, req.Description))
}

func (s *Server) updateCategory(c echo.Context) error {
	var req model.CategoryPatch
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return errorJSON(c, http.StatusBadRequest, []string{"name should not be empty"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.categoryIndexLocked(userID(c), c.Param("id"))
	if index < 0 {
		return errorJSON(c, http.StatusNotFound, "Category not found")
	}
	category := &s.categories[index]
	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	category.UpdatedAt = time.Now().UTC()
	return c.JSON(http.StatusOK, *category)
}

func (s *Server) deleteCategory(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.categoryIndexLocked(userID(c), c.Param("id"))
	if index < 0 {
		return errorJSON(c, http.StatusNotFound, "Category not found")
	}
	removed := s.categories[index]
	s.categories = append(s.categories[:index], s.categories[index+1:]...)

	kept := s.tasks[:0]
	for _, task := range s.tasks {
		if task.CategoryID != removed.ID {
			kept = append(kept, task)
		}
	}
	s.tasks = kept
	return c.JSON(http.StatusOK, map[string]any{"Message": "Category deleted successfully", "Data": removed})
}

func (s *Server) listTasks(c echo.Context) error {
	owner := userID(c)
	categoryID := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := []model.Task{}
	for _, task := range s.tasks {
		if task.UserID == owner && task.CategoryID == categoryID {
			tasks = append(tasks, task)
		}
	}
	return c.JSON(http.StatusOK, tasks)
}

func (s *Server) getTask(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.taskIndexLocked(userID(c), c.Param("id"))
	if index < 0 {
		return errorJSON(c, http.StatusNotFound, "Task not found")
	}
	return c.JSON(http.StatusOK, s.tasks[index])
}

func (s *Server) createTask(c echo.Context) error {
	var req model.TaskInput
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return errorJSON(c, http.StatusBadRequest, []string{"title should not be empty"})
	}
	if req.Priority != "" {
		if _, ok := model.ParsePriority(string(req.Priority)); !ok {
			return errorJSON(c, http.StatusBadRequest, []string{"priority must be one of the following values: low, medium, high"})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	owner := userID(c)
	categoryID := c.Param("id")
	if s.categoryIndexLocked(owner, categoryID) < 0 {
		return errorJSON(c, http.StatusNotFound, "Category not found")
	}
	return c.JSON(http.StatusCreated, s.addTaskLocked(owner, categoryID, req))
}

func (s *Server) updateTask(c echo.Context) error {
	var req model.TaskPatch
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.taskIndexLocked(userID(c), c.Param("id"))
	if index < 0 {
		return errorJSON(c, http.StatusNotFound, "Task not found")
	}
	task := &s.tasks[index]
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = req.Priority.OrDefault()
	}
	if req.IsCompleted != nil {
		task.IsCompleted = *req.IsCompleted
	}
	task.UpdatedAt = time.Now().UTC()
	return c.JSON(http.StatusOK, *task)
}

func (s *Server) deleteTask(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := s.taskIndexLocked(userID(c), c.Param("id"))
	if index < 0 {
		return errorJSON(c, http.StatusNotFound, "Task not found")
	}
	removed := s.tasks[index]
	s.tasks = append(s.tasks[:index], s.tasks[index+1:]...)
	return c.JSON(http.StatusOK, map[string]any{"Message": "Task deleted successfully", "Data": removed})
}

func (s *Server) categoryIndexLocked(owner, id string) int {
	for i, category := range s.categories {
		if category.ID == id && category.UserID == owner {
			return i
		}
	}
	return -1
}

func (s *Server) taskIndexLocked(owner, id string) int {
	for i, task := range s.tasks {
		if task.ID == id && task.UserID == owner {
			return i
		}
	}
	return -1
}
