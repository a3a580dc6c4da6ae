package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

func TestHandlerServesWithoutListener(t *testing.T) {
	s := New()
	token := s.AddUser("Ada", "ada@example.com", "secret1")

	req := httptest.NewRequest(http.MethodGet, "/category", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"category":[]`) {
		t.Fatalf("expected empty category envelope, got %s", rec.Body.String())
	}
	s.Close()
}

func TestRequiresBearerToken(t *testing.T) {
	s := New()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/task/category/x", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got, ok := s.LastRequest(); !ok || got.Authorization != "" {
		t.Fatalf("expected recorded request without header, got %+v", got)
	}
}

func TestDeleteCategoryDropsItsTasks(t *testing.T) {
	s := New()
	token := s.AddUser("Ada", "ada@example.com", "secret1")
	home := s.SeedCategory(token, "Home", "")
	work := s.SeedCategory(token, "Work", "")
	s.SeedTask(token, home.ID, "Dishes", model.PriorityLow)
	s.SeedTask(token, work.ID, "Report", model.PriorityHigh)

	req := httptest.NewRequest(http.MethodDelete, "/category/"+home.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].CategoryID != work.ID {
		t.Fatalf("expected only the Work task left, got %#v", tasks)
	}
}

func TestFailNextAppliesOnce(t *testing.T) {
	s := New()
	s.FailNext(http.MethodPost, "/auth/login", http.StatusServiceUnavailable, "down")

	body := `{"email":"nobody@example.com","password":"x"}`
	for i, want := range []int{http.StatusServiceUnavailable, http.StatusUnauthorized} {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}
