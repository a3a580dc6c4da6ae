package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

var ErrMissingToken = errors.New("auth response carried no access token")

// TokenStore is the writable side of the session.
type TokenStore interface {
	SetToken(ctx context.Context, token string) error
	SetUser(user *model.User)
	Clear(ctx context.Context) error
}

type AuthService struct {
	client *Client
	store  TokenStore
}

func NewAuthService(client *Client, store TokenStore) *AuthService {
	return &AuthService{client: client, store: store}
}

// Login posts the credentials and persists the returned token before
// returning the response.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.AuthResponse, error) {
	var resp model.AuthResponse
	req := model.LoginRequest{Email: email, Password: password}
	if err := s.client.do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return model.AuthResponse{}, err
	}
	return s.persist(ctx, resp)
}

func (s *AuthService) SignUp(ctx context.Context, name, email, password string, role model.Role) (model.AuthResponse, error) {
	var resp model.AuthResponse
	req := model.SignUpRequest{Name: name, Email: email, Password: password, Role: role}
	if err := s.client.do(ctx, http.MethodPost, "/auth/signUp", req, &resp); err != nil {
		return model.AuthResponse{}, err
	}
	return s.persist(ctx, resp)
}

// Logout forgets the session locally. The server is not contacted.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func (s *AuthService) persist(ctx context.Context, resp model.AuthResponse) (model.AuthResponse, error) {
	if strings.TrimSpace(resp.AccessToken) == "" {
		return resp, ErrMissingToken
	}
	if err := s.store.SetToken(ctx, resp.AccessToken); err != nil {
		return resp, err
	}

	user := resp.User
	if user == nil {
		user = userFromToken(resp.AccessToken)
	}
	s.store.SetUser(user)
	return resp, nil
}

// userFromToken reads display fields from the token claims. The signature
// is not verified; the server remains the authority.
func userFromToken(token string) *model.User {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}

	user := model.User{
		ID:    firstClaim(claims, "sub", "_id", "id", "userId"),
		Name:  firstClaim(claims, "name", "username"),
		Email: firstClaim(claims, "email"),
		Role:  model.Role(firstClaim(claims, "role")),
	}
	if user.ID == "" && user.Email == "" && user.Name == "" {
		return nil
	}
	return &user
}

func firstClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if value, ok := claims[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}
