package api

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Joseda-hg/lazytodo/internal/fakeapi"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/session"
)

func newAuthFixture(t *testing.T) (*AuthService, *session.Session, *fakeapi.Server) {
	t.Helper()
	server := fakeapi.NewServer()
	t.Cleanup(server.Close)
	sess := session.New(session.NewMemoryBackend())
	return NewAuthService(New(server.URL, sess), sess), sess, server
}

func TestLoginPersistsToken(t *testing.T) {
	auth, sess, server := newAuthFixture(t)
	server.AddUser("Ada", "ada@example.com", "secret1")

	resp, err := auth.Login(context.Background(), "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	token, ok := sess.Token()
	if !ok || token != resp.AccessToken {
		t.Fatalf("expected session token %q, got %q", resp.AccessToken, token)
	}
	user, ok := sess.User()
	if !ok || user.Email != "ada@example.com" {
		t.Fatalf("expected profile from response, got %+v (ok=%v)", user, ok)
	}
}

func TestLoginReadsProfileFromTokenClaims(t *testing.T) {
	auth, sess, server := newAuthFixture(t)
	server.OmitLoginUser = true
	server.AddUser("Grace", "grace@example.com", "secret1")

	if _, err := auth.Login(context.Background(), "grace@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	user, ok := sess.User()
	if !ok {
		t.Fatalf("expected profile decoded from token")
	}
	if user.Name != "Grace" || user.Email != "grace@example.com" || user.ID == "" {
		t.Fatalf("unexpected profile %+v", user)
	}
}

func TestLoginFailureLeavesSessionEmpty(t *testing.T) {
	auth, sess, server := newAuthFixture(t)
	server.AddUser("Ada", "ada@example.com", "secret1")

	_, err := auth.Login(context.Background(), "ada@example.com", "wrong")
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if MessageOr(err, "") != "Invalid credentials" {
		t.Fatalf("expected server message, got %q", MessageOr(err, ""))
	}
	if _, ok := sess.Token(); ok {
		t.Fatalf("expected no token after failed login")
	}
}

func TestSignUpPersistsTokenAndSendsRole(t *testing.T) {
	auth, sess, server := newAuthFixture(t)

	resp, err := auth.SignUp(context.Background(), "Linus", "linus@example.com", "secret1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if resp.User == nil || resp.User.Role != model.RoleAdmin {
		t.Fatalf("expected admin user in response, got %+v", resp.User)
	}
	if token, ok := sess.Token(); !ok || token != resp.AccessToken {
		t.Fatalf("expected token persisted after signup")
	}
	req, _ := server.LastRequest()
	if req.Path != "/auth/signUp" {
		t.Fatalf("expected /auth/signUp, got %s", req.Path)
	}
}

func TestLogoutDropsAuthorizationHeader(t *testing.T) {
	auth, sess, server := newAuthFixture(t)
	server.AddUser("Ada", "ada@example.com", "secret1")
	ctx := context.Background()

	if _, err := auth.Login(ctx, "ada@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := auth.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sess.Token(); ok {
		t.Fatalf("expected token cleared")
	}

	categories := NewCategoryService(auth.client)
	if _, err := categories.List(ctx); !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
	req, _ := server.LastRequest()
	if req.Authorization != "" {
		t.Fatalf("expected no Authorization header after logout, got %q", req.Authorization)
	}
}

type recordingStore struct {
	token string
	user  *model.User
}

func (r *recordingStore) SetToken(ctx context.Context, token string) error {
	r.token = token
	return nil
}

func (r *recordingStore) SetUser(user *model.User) { r.user = user }

func (r *recordingStore) Clear(ctx context.Context) error {
	r.token, r.user = "", nil
	return nil
}

func TestPersistRejectsMissingToken(t *testing.T) {
	store := &recordingStore{}
	auth := NewAuthService(New("http://unused", nil), store)

	_, err := auth.persist(context.Background(), model.AuthResponse{})
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
	if store.token != "" {
		t.Fatalf("expected nothing stored, got %q", store.token)
	}
}

func TestUserFromTokenIgnoresSignature(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"_id":      "u1",
		"username": "hopper",
		"role":     "user",
	}).SignedString([]byte("someone-elses-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	user := userFromToken(signed)
	if user == nil || user.ID != "u1" || user.Name != "hopper" || user.Role != model.RoleUser {
		t.Fatalf("unexpected user %+v", user)
	}
	if userFromToken("not-a-jwt") != nil {
		t.Fatalf("expected nil user for malformed token")
	}
}
