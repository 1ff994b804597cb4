package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/playdex/internal/model"
)

// RegistryServiceInterface は登録ハンドラーが必要とするサービスインターフェース。
type RegistryServiceInterface interface {
	// RegisterServer はサーバーを新規登録する。
	RegisterServer(ctx context.Context, name string) (*model.Server, error)
	// RegisterPlayer はプレイヤーを新規登録する。
	RegisterPlayer(ctx context.Context, name string) (*model.Player, error)
	// Join はプレイヤーをサーバーのメンバーとして登録する。
	Join(ctx context.Context, serverID, playerID string) (*model.Membership, error)
	// SetBanned はメンバーのBANフラグを更新する。
	SetBanned(ctx context.Context, serverID, playerID string, banned bool) error
	// GetServer はサーバーを取得する。
	GetServer(ctx context.Context, serverID string) (*model.Server, error)
	// GetPlayerProfile はプレイヤーの識別情報と最新の観測位置を返す。
	GetPlayerProfile(ctx context.Context, playerID string) (*model.PlayerProfile, error)
}

// RegistryHandler は登録系のHTTPハンドラー。
type RegistryHandler struct {
	service RegistryServiceInterface
}

// NewRegistryHandler はRegistryHandlerを生成する。
func NewRegistryHandler(service RegistryServiceInterface) *RegistryHandler {
	return &RegistryHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// registerRequest は登録リクエストのボディ。
type registerRequest struct {
	Name string `json:"name"`
}

// serverResponse はサーバーのレスポンス。
type serverResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// playerResponse はプレイヤーのレスポンス。
type playerResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RegisteredAt int64  `json:"registered_at"`
}

// playerProfileResponse はプレイヤープロフィールのレスポンス。
type playerProfileResponse struct {
	playerResponse
	Geolocation string `json:"geolocation"`
}

// joinRequest はメンバー登録リクエストのボディ。
type joinRequest struct {
	PlayerID string `json:"player_id"`
}

// membershipResponse はメンバーシップのレスポンス。
type membershipResponse struct {
	ServerID string `json:"server_id"`
	PlayerID string `json:"player_id"`
	Banned   bool   `json:"banned"`
	JoinedAt int64  `json:"joined_at"`
}

// banRequest はBANフラグ更新リクエストのボディ。
type banRequest struct {
	Banned bool `json:"banned"`
}

// RegisterServer はサーバーを新規登録する。
// POST /api/servers
func (h *RegistryHandler) RegisterServer(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	server, err := h.service.RegisterServer(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(serverResponse{
		ID:        server.ID,
		Name:      server.Name,
		CreatedAt: server.CreatedAt,
	})
}

// GetServer はサーバーを取得する。
// GET /api/servers/:serverID
func (h *RegistryHandler) GetServer(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "serverID")

	server, err := h.service.GetServer(r.Context(), serverID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(serverResponse{
		ID:        server.ID,
		Name:      server.Name,
		CreatedAt: server.CreatedAt,
	})
}

// RegisterPlayer はプレイヤーを新規登録する。
// POST /api/players
func (h *RegistryHandler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	player, err := h.service.RegisterPlayer(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(playerResponse{
		ID:           player.ID,
		Name:         player.Name,
		RegisteredAt: player.RegisteredAt,
	})
}

// GetPlayerProfile はプレイヤーの識別情報と最新の観測位置を取得する。
// GET /api/players/:playerID
func (h *RegistryHandler) GetPlayerProfile(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	profile, err := h.service.GetPlayerProfile(r.Context(), playerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(playerProfileResponse{
		playerResponse: playerResponse{
			ID:           profile.ID,
			Name:         profile.Name,
			RegisteredAt: profile.RegisteredAt,
		},
		Geolocation: profile.Geolocation,
	})
}

// Join はプレイヤーをサーバーのメンバーとして登録する。冪等。
// POST /api/servers/:serverID/members
func (h *RegistryHandler) Join(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "serverID")

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}
	if req.PlayerID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("player_idを指定してください"))
		return
	}

	m, err := h.service.Join(r.Context(), serverID, req.PlayerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(membershipResponse{
		ServerID: m.ServerID,
		PlayerID: m.PlayerID,
		Banned:   m.Banned,
		JoinedAt: m.JoinedAt,
	})
}

// SetBanned はメンバーのBANフラグを更新する。
// PUT /api/servers/:serverID/members/:playerID/ban
func (h *RegistryHandler) SetBanned(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "serverID")
	playerID := chi.URLParam(r, "playerID")

	var req banRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	if err := h.service.SetBanned(r.Context(), serverID, playerID, req.Banned); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"banned": req.Banned})
}
