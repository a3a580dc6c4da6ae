// Package fakeapi is an in-memory stand-in for the todo REST API. Tests
// start it on a loopback listener; the demo mode serves it on a local port.
package fakeapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

const (
	jwtSecret  = "fakeapi-secret"
	ctxUserKey = "userID"
)

// Request is one request as received by the server.
type Request struct {
	Method        string
	Path          string
	Authorization string
	Body          []byte
}

type failure struct {
	status  int
	message string
}

type account struct {
	user     model.User
	password string
}

type Server struct {
	URL string

	// EmptyCategoriesAsMessage answers an empty category list with
	// {"Message": ...} instead of {"count": 0, "category": []}.
	EmptyCategoriesAsMessage bool
	// OmitLoginUser leaves "user" out of login responses.
	OmitLoginUser bool

	handler http.Handler
	test    *httptest.Server

	mu         sync.Mutex
	accounts   map[string]*account
	tokens     map[string]string
	categories []model.Category
	tasks      []model.Task
	failures   map[string]failure
	requests   []Request
	nextID     int
}

// New returns a server that is not listening yet. Serve it with Handler.
func New() *Server {
	s := &Server{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		failures: make(map[string]failure),
	}
	s.handler = s.routes()
	return s
}

// NewServer starts a server on a loopback address. Close it when done.
func NewServer() *Server {
	s := New()
	s.test = httptest.NewServer(s.handler)
	s.URL = s.test.URL
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Close() {
	if s.test != nil {
		s.test.Close()
	}
}

func (s *Server) routes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.record, s.injectFailures)

	e.POST("/auth/login", s.login)
	e.POST("/auth/signUp", s.signUp)

	category := e.Group("/category", s.requireAuth)
	category.GET("", s.listCategories)
	category.POST("", s.createCategory)
	category.GET("/:id", s.getCategory)
	category.PUT("/:id", s.updateCategory)
	category.DELETE("/:id", s.deleteCategory)

	task := e.Group("/task", s.requireAuth)
	task.GET("/category/:id", s.listTasks)
	task.POST("/category/:id", s.createTask)
	task.GET("/:id", s.getTask)
	task.PUT("/:id", s.updateTask)
	task.DELETE("/:id", s.deleteTask)

	return e
}

// FailNext makes the next request matching method and path answer with
// status and message.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// AddUser registers an account and returns a token for it.
func (s *Server) AddUser(name, email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.addAccountLocked(name, email, password, model.RoleUser)
	return s.issueTokenLocked(acc.user)
}

func (s *Server) SeedCategory(token, name, description string) model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCategoryLocked(s.tokens[token], name, description)
}

func (s *Server) SeedTask(token, categoryID, title string, priority model.Priority) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTaskLocked(s.tokens[token], categoryID, model.TaskInput{Title: title, Priority: priority})
}

func (s *Server) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
			req.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        req.Method,
			Path:          req.URL.Path,
			Authorization: req.Header.Get(echo.HeaderAuthorization),
			Body:          body,
		})
		s.mu.Unlock()
		return next(c)
	}
}

func (s *Server) injectFailures(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Method + " " + c.Request().URL.Path
		s.mu.Lock()
		f, ok := s.failures[key]
		if ok {
			delete(s.failures, key)
		}
		s.mu.Unlock()
		if ok {
			return c.JSON(f.status, map[string]any{"message": f.message, "statusCode": f.status})
		}
		return next(c)
	}
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		s.mu.Lock()
		userID, known := s.tokens[token]
		s.mu.Unlock()
		if !ok || !known {
			return c.JSON(http.StatusUnauthorized, map[string]any{"message": "Unauthorized", "statusCode": http.StatusUnauthorized})
		}
		c.Set(ctxUserKey, userID)
		return next(c)
	}
}

func (s *Server) newIDLocked() string {
	s.nextID++
	return fmt.Sprintf("%024x", s.nextID)
}

func (s *Server) addAccountLocked(name, email, password string, role model.Role) *account {
	now := time.Now().UTC()
	if role == "" {
		role = model.RoleUser
	}
	acc := &account{
		user:     model.User{ID: s.newIDLocked(), Name: name, Email: email, Role: role, CreatedAt: now, UpdatedAt: now},
		password: password,
	}
	s.accounts[strings.ToLower(email)] = acc
	return acc
}

func (s *Server) issueTokenLocked(user model.User) string {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"name":  user.Name,
		"role":  string(user.Role),
		"iat":   time.Now().Unix(),
		"jti":   s.newIDLocked(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	if err != nil {
		panic(fmt.Sprintf("fakeapi: sign token: %v", err))
	}
	s.tokens[signed] = user.ID
	return signed
}

func (s *Server) addCategoryLocked(userID, name, description string) model.Category {
	now := time.Now().UTC()
	category := model.Category{
		ID:          s.newIDLocked(),
		Name:        name,
		Description: description,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.categories = append(s.categories, category)
	return category
}

func (s *Server) addTaskLocked(userID, categoryID string, input model.TaskInput) model.Task {
	now := time.Now().UTC()
	task := model.Task{
		ID:          s.newIDLocked(),
		Title:       input.Title,
		Description: input.Description,
		Priority:    input.Priority.OrDefault(),
		UserID:      userID,
		CategoryID:  categoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks = append(s.tasks, task)
	return task
}

func userID(c echo.Context) string {
	id, _ := c.Get(ctxUserKey).(string)
	return id
}

func errorJSON(c echo.Context, status int, message any) error {
	return c.JSON(status, map[string]any{"message": message, "statusCode": status})
}
