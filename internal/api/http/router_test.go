package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nile-labs/registration-service/internal/api/http/handlers"
	"github.com/nile-labs/registration-service/internal/auth"
	"github.com/nile-labs/registration-service/internal/config"
	"github.com/nile-labs/registration-service/internal/domain"
	"github.com/nile-labs/registration-service/internal/observability"
	"github.com/nile-labs/registration-service/internal/persistence"
	"github.com/nile-labs/registration-service/internal/repository"
	"github.com/nile-labs/registration-service/internal/service"
	"github.com/nile-labs/registration-service/pkg/validation"
)

type stubGeocoder struct {
	city string
}

func (s *stubGeocoder) ResolveCity(_ context.Context, _, _ float64) (string, error) {
	return s.city, nil
}

func newTestApp(t *testing.T) (*fiber.App, *repository.InMemoryUserRepository, *service.AuthService) {
	t.Helper()

	repo := repository.NewInMemoryUserRepository(bcrypt.MinCost)
	authService := service.NewAuthService(config.AuthConfig{
		JWTSecret:  "test-secret",
		BcryptCost: bcrypt.MinCost,
	}, repo)
	userService := service.NewUserService(repo)
	registrationService := service.NewRegistrationService(repo, &stubGeocoder{city: "Cairo"}, nil)
	validate := validation.New()

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Users:          handlers.NewUsersHandler(registrationService, userService, validate),
		Auth:           handlers.NewAuthHandler(authService, userService, validate),
		AuthMiddleware: auth.NewMiddleware(authService.TokenManager()),
	})

	return app, repo, authService
}

func seedUser(t *testing.T, repo *repository.InMemoryUserRepository, email string, role domain.Role) *domain.User {
	t.Helper()
	user, err := repo.Create(context.Background(), repository.CreateUserParams{
		Name:      "Khaled",
		Email:     email,
		Password:  "Password123",
		Latitude:  30.0444,
		Longitude: 31.2357,
		City:      "Cairo",
		Role:      role,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return user
}

func bearerToken(t *testing.T, authService *service.AuthService, user *domain.User) string {
	t.Helper()
	token, err := authService.IssueToken(user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any, authHeader string) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("invalid response body %q: %v", raw, err)
		}
	}
	return resp, decoded
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %v", body)
	}
	code, _ := errObj["code"].(string)
	return code
}

func registerPayload(email string) map[string]any {
	return map[string]any{
		"name":      "Khaled",
		"email":     email,
		"password":  "Password123",
		"latitude":  30.0444,
		"longitude": 31.2357,
	}
}

func TestRegisterEndpoint(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/users/register", registerPayload("k@example.com"), "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data envelope, got %v", body)
	}
	if data["city"] != "Cairo" {
		t.Errorf("expected city Cairo, got %v", data["city"])
	}
	if _, exists := data["password"]; exists {
		t.Errorf("password leaked in response")
	}
	if _, exists := data["password_hash"]; exists {
		t.Errorf("password hash leaked in response")
	}
}

func TestRegisterEndpointMissingFields(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/users/register", map[string]any{
		"email": "k@example.com",
	}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
	if code := errorCode(t, body); code != "VALIDATION_FAILED" {
		t.Errorf("expected code VALIDATION_FAILED, got %q", code)
	}
}

func TestRegisterEndpointOutOfBounds(t *testing.T) {
	app, _, _ := newTestApp(t)

	payload := registerPayload("k@example.com")
	payload["latitude"] = 40.0
	payload["longitude"] = 31.0

	resp, body := doJSON(t, app, http.MethodPost, "/users/register", payload, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
	if code := errorCode(t, body); code != "OUT_OF_SERVICE_AREA" {
		t.Errorf("expected code OUT_OF_SERVICE_AREA, got %q", code)
	}
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/users/register", registerPayload("k@example.com"), "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.StatusCode)
	}

	resp, body := doJSON(t, app, http.MethodPost, "/users/register", registerPayload("k@example.com"), "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
	if code := errorCode(t, body); code != "DUPLICATE_EMAIL" {
		t.Errorf("expected code DUPLICATE_EMAIL, got %q", code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	app, repo, _ := newTestApp(t)
	seedUser(t, repo, "k@example.com", domain.RoleMember)

	resp, body := doJSON(t, app, http.MethodPost, "/auth/login", map[string]any{
		"email":    "k@example.com",
		"password": "Password123",
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("expected a non-empty access_token")
	}
}

func TestLoginEndpointUnknownEmail(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/auth/login", map[string]any{
		"email":    "missing@example.com",
		"password": "Password123",
	}, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
	if code := errorCode(t, body); code != "UNKNOWN_EMAIL" {
		t.Errorf("expected code UNKNOWN_EMAIL, got %q", code)
	}
}

func TestLoginEndpointWrongPassword(t *testing.T) {
	app, repo, _ := newTestApp(t)
	seedUser(t, repo, "k@example.com", domain.RoleMember)

	resp, body := doJSON(t, app, http.MethodPost, "/auth/login", map[string]any{
		"email":    "k@example.com",
		"password": "Password124",
	}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.StatusCode)
	}
	if code := errorCode(t, body); code != "INVALID_CREDENTIALS" {
		t.Errorf("expected code INVALID_CREDENTIALS, got %q", code)
	}
}

func TestListUsersRequiresToken(t *testing.T) {
	app, _, _ := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/users", nil, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.StatusCode)
	}
	if code := errorCode(t, body); code != "UNAUTHORIZED" {
		t.Errorf("expected code UNAUTHORIZED, got %q", code)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/users", nil, "Bearer not-a-token")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for malformed token, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/users", nil, "Basic abc123")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for non-bearer scheme, got %d", resp.StatusCode)
	}
}

func TestListUsersForbiddenForMember(t *testing.T) {
	app, repo, authService := newTestApp(t)
	member := seedUser(t, repo, "member@example.com", domain.RoleMember)

	resp, body := doJSON(t, app, http.MethodGet, "/users", nil, bearerToken(t, authService, member))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.StatusCode)
	}
	if code := errorCode(t, body); code != "FORBIDDEN" {
		t.Errorf("expected code FORBIDDEN, got %q", code)
	}
}

func TestListUsersAsAdmin(t *testing.T) {
	app, repo, authService := newTestApp(t)
	seedUser(t, repo, "member@example.com", domain.RoleMember)
	admin := seedUser(t, repo, "admin@example.com", domain.RoleAdmin)

	resp, body := doJSON(t, app, http.MethodGet, "/users", nil, bearerToken(t, authService, admin))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	data, ok := body["data"].([]any)
	if !ok {
		t.Fatalf("expected data array, got %v", body)
	}
	if len(data) != 2 {
		t.Errorf("expected 2 users, got %d", len(data))
	}
}

func TestGetUserByID(t *testing.T) {
	app, repo, authService := newTestApp(t)
	member := seedUser(t, repo, "member@example.com", domain.RoleMember)

	resp, body := doJSON(t, app, http.MethodGet, fmt.Sprintf("/users/%d", member.ID), nil, bearerToken(t, authService, member))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data envelope, got %v", body)
	}
	if data["email"] != "member@example.com" || data["city"] != "Cairo" {
		t.Errorf("unexpected record: %v", data)
	}
}

func TestGetUserByIDNotFound(t *testing.T) {
	app, repo, authService := newTestApp(t)
	member := seedUser(t, repo, "member@example.com", domain.RoleMember)

	resp, body := doJSON(t, app, http.MethodGet, "/users/999", nil, bearerToken(t, authService, member))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}
	if code := errorCode(t, body); code != "NOT_FOUND" {
		t.Errorf("expected code NOT_FOUND, got %q", code)
	}
}

func TestCurrentUserEndpoint(t *testing.T) {
	app, repo, authService := newTestApp(t)
	member := seedUser(t, repo, "member@example.com", domain.RoleMember)

	resp, body := doJSON(t, app, http.MethodGet, "/auth/user", nil, bearerToken(t, authService, member))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data envelope, got %v", body)
	}
	if data["email"] != "member@example.com" {
		t.Errorf("unexpected record: %v", data)
	}
}
