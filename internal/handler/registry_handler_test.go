package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/playdex/internal/model"
)

// mockRegistryService はRegistryServiceInterfaceのモック実装。
type mockRegistryService struct {
	registerServerFn func(ctx context.Context, name string) (*model.Server, error)
	registerPlayerFn func(ctx context.Context, name string) (*model.Player, error)
	joinFn           func(ctx context.Context, serverID, playerID string) (*model.Membership, error)
	setBannedFn      func(ctx context.Context, serverID, playerID string, banned bool) error
	getServerFn      func(ctx context.Context, serverID string) (*model.Server, error)
	getProfileFn     func(ctx context.Context, playerID string) (*model.PlayerProfile, error)
}

func (m *mockRegistryService) RegisterServer(ctx context.Context, name string) (*model.Server, error) {
	if m.registerServerFn != nil {
		return m.registerServerFn(ctx, name)
	}
	return &model.Server{ID: "server-new", Name: name}, nil
}

func (m *mockRegistryService) RegisterPlayer(ctx context.Context, name string) (*model.Player, error) {
	if m.registerPlayerFn != nil {
		return m.registerPlayerFn(ctx, name)
	}
	return &model.Player{ID: "player-new", Name: name}, nil
}

func (m *mockRegistryService) Join(ctx context.Context, serverID, playerID string) (*model.Membership, error) {
	if m.joinFn != nil {
		return m.joinFn(ctx, serverID, playerID)
	}
	return &model.Membership{ServerID: serverID, PlayerID: playerID}, nil
}

func (m *mockRegistryService) SetBanned(ctx context.Context, serverID, playerID string, banned bool) error {
	if m.setBannedFn != nil {
		return m.setBannedFn(ctx, serverID, playerID, banned)
	}
	return nil
}

func (m *mockRegistryService) GetServer(ctx context.Context, serverID string) (*model.Server, error) {
	if m.getServerFn != nil {
		return m.getServerFn(ctx, serverID)
	}
	return &model.Server{ID: serverID}, nil
}

func (m *mockRegistryService) GetPlayerProfile(ctx context.Context, playerID string) (*model.PlayerProfile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, playerID)
	}
	return &model.PlayerProfile{Player: model.Player{ID: playerID}}, nil
}

// --- POST /api/servers テスト ---

func TestRegistryHandler_RegisterServer_Success(t *testing.T) {
	svc := &mockRegistryService{
		registerServerFn: func(ctx context.Context, name string) (*model.Server, error) {
			if name != "Survival" {
				t.Errorf("name = %q, want %q", name, "Survival")
			}
			return &model.Server{ID: "server-new", Name: "Survival", CreatedAt: 1700000000000}, nil
		},
	}
	h := NewRegistryHandler(svc)

	body := bytes.NewBufferString(`{"name":"Survival"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/servers", body)
	w := httptest.NewRecorder()

	h.RegisterServer(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	var resp serverResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "server-new" || resp.Name != "Survival" {
		t.Errorf("response = %+v", resp)
	}
}

func TestRegistryHandler_RegisterServer_InvalidBody(t *testing.T) {
	h := NewRegistryHandler(&mockRegistryService{})

	req := httptest.NewRequest(http.MethodPost, "/api/servers", bytes.NewBufferString("{invalid"))
	w := httptest.NewRecorder()

	h.RegisterServer(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRegistryHandler_RegisterServer_EmptyName(t *testing.T) {
	svc := &mockRegistryService{
		registerServerFn: func(ctx context.Context, name string) (*model.Server, error) {
			return nil, model.NewInvalidRequestError("サーバー名が空です")
		},
	}
	h := NewRegistryHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/servers", bytes.NewBufferString(`{"name":""}`))
	w := httptest.NewRecorder()

	h.RegisterServer(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	body := parseAPIErrorResponse(t, w)
	if body["code"] != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", body["code"], model.ErrCodeInvalidRequest)
	}
}

// --- POST /api/servers/:serverID/members テスト ---

func TestRegistryHandler_Join_Success(t *testing.T) {
	svc := &mockRegistryService{
		joinFn: func(ctx context.Context, serverID, playerID string) (*model.Membership, error) {
			return &model.Membership{
				ServerID: serverID,
				PlayerID: playerID,
				JoinedAt: 1700000000000,
			}, nil
		},
	}
	h := NewRegistryHandler(svc)

	body := bytes.NewBufferString(`{"player_id":"player-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/servers/server-1/members", body)
	req = withChiURLParam(req, "serverID", "server-1")
	w := httptest.NewRecorder()

	h.Join(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	var resp membershipResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ServerID != "server-1" || resp.PlayerID != "player-1" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Banned {
		t.Error("new member should not be banned")
	}
}

func TestRegistryHandler_Join_MissingPlayerID(t *testing.T) {
	h := NewRegistryHandler(&mockRegistryService{})

	req := httptest.NewRequest(http.MethodPost, "/api/servers/server-1/members", bytes.NewBufferString(`{}`))
	req = withChiURLParam(req, "serverID", "server-1")
	w := httptest.NewRecorder()

	h.Join(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRegistryHandler_Join_ServerNotFound(t *testing.T) {
	svc := &mockRegistryService{
		joinFn: func(ctx context.Context, serverID, playerID string) (*model.Membership, error) {
			return nil, model.NewServerNotFoundError(serverID)
		},
	}
	h := NewRegistryHandler(svc)

	body := bytes.NewBufferString(`{"player_id":"player-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/servers/missing/members", body)
	req = withChiURLParam(req, "serverID", "missing")
	w := httptest.NewRecorder()

	h.Join(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	respBody := parseAPIErrorResponse(t, w)
	if respBody["code"] != model.ErrCodeServerNotFound {
		t.Errorf("code = %q, want %q", respBody["code"], model.ErrCodeServerNotFound)
	}
}

// --- PUT /api/servers/:serverID/members/:playerID/ban テスト ---

func TestRegistryHandler_SetBanned_Success(t *testing.T) {
	var capturedBanned bool
	svc := &mockRegistryService{
		setBannedFn: func(ctx context.Context, serverID, playerID string, banned bool) error {
			capturedBanned = banned
			return nil
		},
	}
	h := NewRegistryHandler(svc)

	body := bytes.NewBufferString(`{"banned":true}`)
	req := httptest.NewRequest(http.MethodPut, "/api/servers/server-1/members/player-1/ban", body)
	req = withChiURLParam(req, "serverID", "server-1")
	req = withChiURLParam(req, "playerID", "player-1")
	w := httptest.NewRecorder()

	h.SetBanned(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !capturedBanned {
		t.Error("banned = false, want true")
	}
}

func TestRegistryHandler_SetBanned_MemberNotFound(t *testing.T) {
	svc := &mockRegistryService{
		setBannedFn: func(ctx context.Context, serverID, playerID string, banned bool) error {
			return model.NewMemberNotFoundError(serverID, playerID)
		},
	}
	h := NewRegistryHandler(svc)

	body := bytes.NewBufferString(`{"banned":true}`)
	req := httptest.NewRequest(http.MethodPut, "/api/servers/server-1/members/stranger/ban", body)
	req = withChiURLParam(req, "serverID", "server-1")
	req = withChiURLParam(req, "playerID", "stranger")
	w := httptest.NewRecorder()

	h.SetBanned(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// --- GET /api/players/:playerID テスト ---

func TestRegistryHandler_GetPlayerProfile_Success(t *testing.T) {
	svc := &mockRegistryService{
		getProfileFn: func(ctx context.Context, playerID string) (*model.PlayerProfile, error) {
			return &model.PlayerProfile{
				Player:      model.Player{ID: playerID, Name: "Alice", RegisteredAt: 1690000000000},
				Geolocation: "Japan",
			}, nil
		},
	}
	h := NewRegistryHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/players/player-1", nil)
	req = withChiURLParam(req, "playerID", "player-1")
	w := httptest.NewRecorder()

	h.GetPlayerProfile(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp playerProfileResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "player-1" || resp.Geolocation != "Japan" {
		t.Errorf("response = %+v", resp)
	}
}

func TestRegistryHandler_GetPlayerProfile_NotFound(t *testing.T) {
	svc := &mockRegistryService{
		getProfileFn: func(ctx context.Context, playerID string) (*model.PlayerProfile, error) {
			return nil, model.NewPlayerNotFoundError(playerID)
		},
	}
	h := NewRegistryHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/players/missing", nil)
	req = withChiURLParam(req, "playerID", "missing")
	w := httptest.NewRecorder()

	h.GetPlayerProfile(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
