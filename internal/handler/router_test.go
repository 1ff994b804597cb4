package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/playdex/internal/metrics"
	"github.com/hitoshi/playdex/internal/middleware"
	"github.com/hitoshi/playdex/internal/model"
	"github.com/hitoshi/playdex/internal/repository"
)

// fakeHealthChecker はHealthCheckerのテスト用フェイク。
type fakeHealthChecker struct {
	err error
}

func (f *fakeHealthChecker) PingContext(_ context.Context) error {
	return f.err
}

func newTestRouter(t *testing.T, dirSvc DirectoryServiceInterface, regSvc RegistryServiceInterface, trackSvc TrackingServiceInterface, health HealthChecker) http.Handler {
	t.Helper()

	reg := prometheus.NewRegistry()
	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(1000, 1000))
	t.Cleanup(rl.Stop)

	return NewRouter(&RouterDeps{
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		Metrics:           metrics.NewCollector(reg),
		Gatherer:          reg,
		DirectoryService:  dirSvc,
		DirectoryConfig:   testDirectoryConfig(),
		RegistryService:   regSvc,
		TrackingService:   trackSvc,
		HealthChecker:     health,
	})
}

// 全ルートが配線されていることをエンドツーエンドで検証
func TestRouter_RoutesWired(t *testing.T) {
	dirSvc := &mockDirectoryService{
		listFn: func(ctx context.Context, params repository.DirectoryParams) ([]model.DirectoryEntry, error) {
			if params.ServerID != "server-1" {
				t.Errorf("ServerID = %q, want %q", params.ServerID, "server-1")
			}
			return []model.DirectoryEntry{{PlayerID: "player-1", Name: "Alice"}}, nil
		},
	}
	router := newTestRouter(t, dirSvc, &mockRegistryService{}, &mockTrackingService{}, &fakeHealthChecker{})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"directory", http.MethodGet, "/api/servers/server-1/players", "", http.StatusOK},
		{"activity", http.MethodGet, "/api/servers/server-1/activity/online", "", http.StatusOK},
		{"get_server", http.MethodGet, "/api/servers/server-1", "", http.StatusOK},
		{"player_profile", http.MethodGet, "/api/players/player-1", "", http.StatusOK},
		{"register_server", http.MethodPost, "/api/servers", `{"name":"Survival"}`, http.StatusCreated},
		{"register_player", http.MethodPost, "/api/players", `{"name":"Alice"}`, http.StatusCreated},
		{"join", http.MethodPost, "/api/servers/server-1/members", `{"player_id":"player-1"}`, http.StatusCreated},
		{"ban", http.MethodPut, "/api/servers/server-1/members/player-1/ban", `{"banned":true}`, http.StatusOK},
		{"session", http.MethodPost, "/api/servers/server-1/sessions", `{"player_id":"player-1","session_start":0,"session_end":100}`, http.StatusCreated},
		{"geolocation", http.MethodPost, "/api/players/player-1/geolocations", `{"geolocation":"Japan"}`, http.StatusCreated},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"unknown", http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = bytes.NewBufferString(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.RemoteAddr = "192.0.2.1:1000"
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

// ディレクトリレスポンスがルーター経由でも正しく返ることを検証
func TestRouter_DirectoryResponse(t *testing.T) {
	lastSeen := int64(1700000000000)
	dirSvc := &mockDirectoryService{
		listFn: func(ctx context.Context, params repository.DirectoryParams) ([]model.DirectoryEntry, error) {
			return []model.DirectoryEntry{
				{PlayerID: "player-1", Name: "Alice", LastSeen: &lastSeen, Score: 3.5},
			}, nil
		},
	}
	router := newTestRouter(t, dirSvc, &mockRegistryService{}, &mockTrackingService{}, &fakeHealthChecker{})

	req := httptest.NewRequest(http.MethodGet, "/api/servers/server-1/players?limit=10", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	var body directoryListResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Players) != 1 {
		t.Fatalf("len(Players) = %d, want 1", len(body.Players))
	}
	if body.Players[0].Name != "Alice" || body.Players[0].Score != 3.5 {
		t.Errorf("entry = %+v", body.Players[0])
	}
}

// データベース疎通不可でヘルスチェックが503になることを検証
func TestRouter_HealthUnhealthy(t *testing.T) {
	router := newTestRouter(t, &mockDirectoryService{}, &mockRegistryService{}, &mockTrackingService{},
		&fakeHealthChecker{err: context.DeadlineExceeded})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
