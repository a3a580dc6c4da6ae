package lists

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/fakeapi"
	"github.com/Joseda-hg/lazytodo/internal/listctl"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/session"
)

type fixture struct {
	server  *fakeapi.Server
	session *session.Session
	client  *api.Client
	token   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	server := fakeapi.NewServer()
	t.Cleanup(server.Close)

	sess := session.New(session.NewMemoryBackend())
	token := server.AddUser("Ada", "ada@example.com", "secret1")
	if err := sess.SetToken(context.Background(), token); err != nil {
		t.Fatalf("set token: %v", err)
	}
	return &fixture{server: server, session: sess, client: api.New(server.URL, sess), token: token}
}

func TestCategoriesFetchEmpty(t *testing.T) {
	f := newFixture(t)
	categories := NewCategories(api.NewCategoryService(f.client))

	if err := categories.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	state := categories.Snapshot()
	if state.Items == nil || len(state.Items) != 0 || state.Status != listctl.StatusLoaded {
		t.Fatalf("expected empty loaded list, got %+v", state)
	}
}

func TestCategoriesFetchMessageShape(t *testing.T) {
	f := newFixture(t)
	f.server.EmptyCategoriesAsMessage = true
	categories := NewCategories(api.NewCategoryService(f.client))

	if err := categories.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if state := categories.Snapshot(); state.Items == nil || len(state.Items) != 0 {
		t.Fatalf("expected empty list for message response, got %#v", state.Items)
	}
}

func TestCategoriesCreateWork(t *testing.T) {
	f := newFixture(t)
	categories := NewCategories(api.NewCategoryService(f.client))
	ctx := context.Background()
	if err := categories.Fetch(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if _, err := categories.Create(ctx, model.CategoryInput{Name: "Work"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	state := categories.Snapshot()
	if len(state.Items) != 1 || state.Items[0].Name != "Work" {
		t.Fatalf("expected [Work], got %#v", state.Items)
	}
	if state.Status == listctl.StatusLoading {
		t.Fatalf("expected loading to end after create")
	}
}

func TestCategoriesCreateRequiresName(t *testing.T) {
	f := newFixture(t)
	categories := NewCategories(api.NewCategoryService(f.client))
	before := len(f.server.Requests())

	_, err := categories.Create(context.Background(), model.CategoryInput{Name: "   "})
	if !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if len(f.server.Requests()) != before {
		t.Fatalf("expected no request for a blank name")
	}
	if categories.Snapshot().Error == "" {
		t.Fatalf("expected validation message in state")
	}
}

func TestCategoriesCreateFailureUsesServerMessage(t *testing.T) {
	f := newFixture(t)
	categories := NewCategories(api.NewCategoryService(f.client))
	f.server.FailNext(http.MethodPost, "/category", http.StatusBadRequest, "Category already exists")

	if _, err := categories.Create(context.Background(), model.CategoryInput{Name: "Work"}); err == nil {
		t.Fatalf("expected create failure")
	}
	if got := categories.Snapshot().Error; got != "Category already exists" {
		t.Fatalf("expected server message, got %q", got)
	}
}

func TestCategoriesFetchFailureUsesFallback(t *testing.T) {
	f := newFixture(t)
	categories := NewCategories(api.NewCategoryService(f.client))
	f.server.Close()

	if err := categories.Fetch(context.Background()); err == nil {
		t.Fatalf("expected fetch failure")
	}
	state := categories.Snapshot()
	if state.Error != "Failed to load categories" || state.Status != listctl.StatusError {
		t.Fatalf("expected fallback message, got %s %q", state.Status, state.Error)
	}
}

func TestCategoriesEditSendsNameAndDescription(t *testing.T) {
	f := newFixture(t)
	f.server.SeedCategory(f.token, "Home", "Chores")
	f.server.SeedCategory(f.token, "Work", "")
	categories := NewCategories(api.NewCategoryService(f.client))
	ctx := context.Background()
	if err := categories.Fetch(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	before := categories.Snapshot().Items

	categories.BeginEdit(before[0])
	if err := categories.EditDraft(func(p *model.CategoryPatch) {
		name := "House"
		p.Name = &name
	}); err != nil {
		t.Fatalf("edit draft: %v", err)
	}
	if _, err := categories.CommitEdit(ctx, before[0].ID); err != nil {
		t.Fatalf("commit: %v", err)
	}

	req, _ := f.server.LastRequest()
	var body map[string]any
	if err := sonic.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["name"] != "House" || body["discription"] != "Chores" {
		t.Fatalf("expected name and discription sent, got %v", body)
	}

	state := categories.Snapshot()
	if len(state.Items) != 2 || state.Items[0].Name != "House" || state.Items[1] != before[1] {
		t.Fatalf("expected in-place update, got %#v", state.Items)
	}
}

func TestTasksToggleCompleteSendsOnlyFlag(t *testing.T) {
	f := newFixture(t)
	category := f.server.SeedCategory(f.token, "Home", "")
	seeded := f.server.SeedTask(f.token, category.ID, "Dishes", model.PriorityMedium)
	tasks := NewTasks(api.NewTaskService(f.client), category.ID)
	ctx := context.Background()
	if err := tasks.Fetch(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if _, err := tasks.ToggleComplete(ctx, tasks.Snapshot().Items[0]); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	req, _ := f.server.LastRequest()
	var body map[string]any
	if err := sonic.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body) != 1 || body["isCompleted"] != true {
		t.Fatalf("expected {isCompleted: true} only, got %v", body)
	}

	got := tasks.Snapshot().Items[0]
	if !got.IsCompleted || got.Title != seeded.Title || got.Priority != seeded.Priority || got.ID != seeded.ID {
		t.Fatalf("expected only completion to change, got %+v", got)
	}
}

func TestTasksDeleteFailureKeepsTask(t *testing.T) {
	f := newFixture(t)
	category := f.server.SeedCategory(f.token, "Home", "")
	seeded := f.server.SeedTask(f.token, category.ID, "Dishes", model.PriorityLow)
	tasks := NewTasks(api.NewTaskService(f.client), category.ID)
	ctx := context.Background()
	if err := tasks.Fetch(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	tasks.RequestDelete(tasks.Snapshot().Items[0])
	if pending := tasks.Snapshot().PendingDelete; pending == nil || pending.ID != seeded.ID {
		t.Fatalf("expected %s staged, got %+v", seeded.ID, pending)
	}
	f.server.FailNext(http.MethodDelete, "/task/"+seeded.ID, http.StatusServiceUnavailable, "")

	if err := tasks.ConfirmDelete(ctx); err == nil {
		t.Fatalf("expected delete failure")
	}
	state := tasks.Snapshot()
	if state.PendingDelete != nil {
		t.Fatalf("expected stage cleared")
	}
	if state.Error != "Failed to delete task" {
		t.Fatalf("expected fallback delete message, got %q", state.Error)
	}
	if len(state.Items) != 1 || state.Items[0].ID != seeded.ID {
		t.Fatalf("expected task still present, got %#v", state.Items)
	}
}

func TestTasksCreateDefaultsPriority(t *testing.T) {
	f := newFixture(t)
	category := f.server.SeedCategory(f.token, "Home", "")
	tasks := NewTasks(api.NewTaskService(f.client), category.ID)
	ctx := context.Background()

	created, err := tasks.Create(ctx, model.TaskInput{Title: "  Laundry "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Priority != model.PriorityLow || created.Title != "Laundry" {
		t.Fatalf("unexpected created task %+v", created)
	}
	req, _ := f.server.LastRequest()
	if req.Path != "/task/category/"+category.ID {
		t.Fatalf("expected task created under category, got %s", req.Path)
	}
	if tasks.CategoryID != category.ID {
		t.Fatalf("expected category id kept on controller")
	}
}

func TestLogoutThenFetchSendsNoAuthorization(t *testing.T) {
	f := newFixture(t)
	auth := api.NewAuthService(f.client, f.session)
	categories := NewCategories(api.NewCategoryService(f.client))
	ctx := context.Background()

	if err := auth.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := categories.Fetch(ctx); err == nil {
		t.Fatalf("expected unauthorized fetch")
	}
	req, _ := f.server.LastRequest()
	if req.Authorization != "" {
		t.Fatalf("expected no Authorization header, got %q", req.Authorization)
	}
	if got := categories.Snapshot().Error; got != "Unauthorized" {
		t.Fatalf("expected server message, got %q", got)
	}
}
