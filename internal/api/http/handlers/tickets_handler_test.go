package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apihttp "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
)

// newTestApp assembles the full HTTP stack on in-memory stores, the same
// wiring main.go uses when no database is configured.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 5,
			BcryptCost:            4,
		},
	}

	userRepo := repository.NewMemoryUserRepository()
	ticketRepo := repository.NewMemoryTicketRepository()
	sessions := auth.NewMemorySessionStore()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:     userRepo,
		SessionStore: sessions,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
	})

	app := fiber.New()
	apihttp.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second)
	apihttp.RegisterRoutes(app, apihttp.RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk", "test", nil, nil),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), sessions, userRepo),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	var parsed map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("%s %s: decode body: %v", method, path, err)
	}
	_ = resp.Body.Close()
	return resp, parsed
}

func registerUser(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	resp, body := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"name":     "Test " + username,
		"password": "password123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, body %v", resp.StatusCode, body)
	}
	token, _ := dig(body, "data", "auth", "token").(string)
	if token == "" {
		t.Fatalf("register returned no token: %v", body)
	}
	return token
}

// dig walks nested JSON maps; returns nil when any key is missing.
func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, key := range keys {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = asMap[key]
	}
	return cur
}

func errorCode(body map[string]any) string {
	code, _ := dig(body, "error", "code").(string)
	return code
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("live status = %d", resp.StatusCode)
	}
	if body["status"] != "alive" {
		t.Fatalf("live body = %v", body)
	}

	resp, body = doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready status = %d", resp.StatusCode)
	}
	if got := dig(body, "dependencies", "postgres"); got != "in-memory" {
		t.Fatalf("postgres dependency = %v, want in-memory", got)
	}
}

func TestTicketRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/tickets", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if errorCode(body) != "UNAUTHORIZED" {
		t.Fatalf("error code = %q, want UNAUTHORIZED", errorCode(body))
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/tickets", "not-a-real-token", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", resp.StatusCode)
	}
}

func TestTicketLifecycle(t *testing.T) {
	app := newTestApp(t)
	token := registerUser(t, app, "alice")

	resp, body := doJSON(t, app, http.MethodPost, "/tickets", token, map[string]any{
		"title":       "Cannot log in",
		"description": "Login fails with a 500 after password reset.",
		"category":    "Authentication",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, body)
	}
	if got := dig(body, "data", "ticketId"); got != "TKT-001" {
		t.Fatalf("ticketId = %v, want TKT-001", got)
	}
	if got := dig(body, "data", "status"); got != "open" {
		t.Fatalf("status = %v, want open", got)
	}
	if got := dig(body, "data", "priority"); got != "medium" {
		t.Fatalf("default priority = %v, want medium", got)
	}
	if got := dig(body, "data", "createdBy", "username"); got != "alice" {
		t.Fatalf("createdBy.username = %v, want alice", got)
	}
	id, _ := dig(body, "data", "id").(string)
	if id == "" {
		t.Fatalf("create returned no id: %v", body)
	}

	resp, body = doJSON(t, app, http.MethodGet, "/tickets", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	items, _ := body["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("list returned %d tickets, want 1", len(items))
	}

	resp, body = doJSON(t, app, http.MethodPut, "/tickets/"+id, token, map[string]any{
		"status":   "resolved",
		"priority": "high",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, body %v", resp.StatusCode, body)
	}
	if got := dig(body, "data", "status"); got != "resolved" {
		t.Fatalf("updated status = %v, want resolved", got)
	}
	if got := dig(body, "data", "ticketId"); got != "TKT-001" {
		t.Fatalf("ticketId changed on update: %v", got)
	}
	if got := dig(body, "data", "title"); got != "Cannot log in" {
		t.Fatalf("title changed on partial update: %v", got)
	}

	resp, body = doJSON(t, app, http.MethodPost, "/tickets/"+id+"/comments", token, map[string]any{
		"message": "Cleared the stale session, please retry.",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("comment status = %d, body %v", resp.StatusCode, body)
	}
	comments, _ := dig(body, "data", "comments").([]any)
	if len(comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(comments))
	}

	resp, body = doJSON(t, app, http.MethodDelete, "/tickets/"+id, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, body %v", resp.StatusCode, body)
	}
	if got := dig(body, "data", "message"); got != "ticket deleted" {
		t.Fatalf("delete message = %v", got)
	}

	resp, body = doJSON(t, app, http.MethodDelete, "/tickets/"+id, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", resp.StatusCode)
	}
	if errorCode(body) != "NOT_FOUND" {
		t.Fatalf("second delete error code = %q", errorCode(body))
	}
}

func TestCreateTicketValidation(t *testing.T) {
	app := newTestApp(t)
	token := registerUser(t, app, "bob")

	resp, body := doJSON(t, app, http.MethodPost, "/tickets", token, map[string]any{
		"description": "no title here",
		"category":    "Billing",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if errorCode(body) != "VALIDATION_FAILED" {
		t.Fatalf("error code = %q, want VALIDATION_FAILED", errorCode(body))
	}

	resp, _ = doJSON(t, app, http.MethodGet, "/tickets", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	app := newTestApp(t)
	token := registerUser(t, app, "carol")

	resp, body := doJSON(t, app, http.MethodGet, "/auth/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d", resp.StatusCode)
	}
	if got := dig(body, "data", "username"); got != "carol" {
		t.Fatalf("me username = %v", got)
	}

	resp, _ = doJSON(t, app, http.MethodPost, "/auth/logout", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}

	resp, body = doJSON(t, app, http.MethodGet, "/auth/me", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("revoked token status = %d, want 401", resp.StatusCode)
	}
	if got := dig(body, "error", "message"); got != "session revoked" {
		t.Fatalf("revoked message = %v", got)
	}

	// A fresh login mints a new session that is not revoked.
	resp, body = doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]any{
		"username": "carol",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body %v", resp.StatusCode, body)
	}
	fresh, _ := dig(body, "data", "auth", "token").(string)
	if fresh == "" {
		t.Fatalf("login returned no token")
	}
	resp, _ = doJSON(t, app, http.MethodGet, "/auth/me", fresh, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fresh token status = %d, want 200", resp.StatusCode)
	}
}

func TestRegisterConflicts(t *testing.T) {
	app := newTestApp(t)
	registerUser(t, app, "dave")

	resp, body := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "dave",
		"email":    "other@example.com",
		"name":     "Dave Again",
		"password": "password123",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate username status = %d, want 409", resp.StatusCode)
	}
	if errorCode(body) != "CONFLICT" {
		t.Fatalf("error code = %q, want CONFLICT", errorCode(body))
	}
}
