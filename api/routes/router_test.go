package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/verdantlabs/farmpilot-backend/internal/profile"
	pkgAuth "github.com/verdantlabs/farmpilot-backend/pkg/auth"
	"github.com/verdantlabs/farmpilot-backend/pkg/config"
	"github.com/verdantlabs/farmpilot-backend/pkg/enums"
	"github.com/verdantlabs/farmpilot-backend/pkg/geometry"
	"github.com/verdantlabs/farmpilot-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubProfiles struct{}

func (stubProfiles) GetProfile(ctx context.Context, accountID string) (*profile.FarmProfile, error) {
	return profile.NewFarmProfile(accountID, time.Now()), nil
}

func (stubProfiles) UpdateProfile(ctx context.Context, accountID string, update profile.Update) (*profile.FarmProfile, error) {
	return profile.NewFarmProfile(accountID, time.Now()), nil
}

func (stubProfiles) SetBoundary(ctx context.Context, accountID string, boundary *geometry.Polygon) (*profile.FarmProfile, error) {
	return profile.NewFarmProfile(accountID, time.Now()), nil
}

func (stubProfiles) ToggleCollectionMember(ctx context.Context, accountID, collection, value string) (*profile.FarmProfile, error) {
	return profile.NewFarmProfile(accountID, time.Now()), nil
}

func (stubProfiles) CompleteOnboarding(ctx context.Context, accountID string) (*profile.FarmProfile, error) {
	return profile.NewFarmProfile(accountID, time.Now()), nil
}

func (stubProfiles) ListTasks(ctx context.Context, accountID string) ([]profile.Task, error) {
	return nil, nil
}

func (stubProfiles) AddTask(ctx context.Context, accountID, title, dueDate string, priority enums.TaskPriority) (profile.Task, error) {
	return profile.Task{}, nil
}

func (stubProfiles) ToggleTask(ctx context.Context, accountID string, taskID uuid.UUID) (profile.Task, error) {
	return profile.Task{}, nil
}

func (stubProfiles) ReplaceInsightTasks(ctx context.Context, accountID string, tasks []profile.Task) (*profile.FarmProfile, error) {
	return profile.NewFarmProfile(accountID, time.Now()), nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "farmpilot"},
		Copilot: config.CopilotConfig{
			ChatRateLimit:  20,
			ChatRateWindow: time.Minute,
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(Deps{
		Config:   testConfig(),
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:       stubPinger{},
		Profiles: stubProfiles{},
	})
}

func bearerToken(t *testing.T, cfg *config.Config, accountID string) string {
	t.Helper()
	claims := pkgAuth.AccessTokenClaims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return signed
}

func TestHealthAndPublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready", "/api/public/ping"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestPrivateRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	paths := map[string]string{
		http.MethodGet:  "/api/v1/profile",
		http.MethodPost: "/api/v1/profile/complete",
	}
	for method, path := range paths {
		req := httptest.NewRequest(method, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", method, path, resp.Code)
		}
	}
}

func TestAuthedProfileFetch(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(Deps{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:       stubPinger{},
		Profiles: stubProfiles{},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+bearerToken(t, cfg, "acct-7"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			AccountID string `json:"account_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.AccountID != "acct-7" {
		t.Fatalf("expected claims account to flow through, got %q", envelope.Data.AccountID)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
