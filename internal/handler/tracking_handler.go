package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/playdex/internal/model"
)

// TrackingServiceInterface は記録ハンドラーが必要とするサービスインターフェース。
type TrackingServiceInterface interface {
	// RecordSession は終了済みセッションを1件記録する。
	RecordSession(ctx context.Context, session *model.Session) error
	// RecordGeolocation はプレイヤーの位置情報の観測を1件記録する。
	RecordGeolocation(ctx context.Context, playerID, geolocation string, lastUsed int64) (*model.GeoObservation, error)
}

// TrackingHandler はプレイ履歴記録のHTTPハンドラー。
type TrackingHandler struct {
	service TrackingServiceInterface
}

// NewTrackingHandler はTrackingHandlerを生成する。
func NewTrackingHandler(service TrackingServiceInterface) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// sessionRequest はセッション記録リクエストのボディ。
type sessionRequest struct {
	PlayerID     string `json:"player_id"`
	SessionStart int64  `json:"session_start"`
	SessionEnd   int64  `json:"session_end"`
	AFKMs        int64  `json:"afk_ms"`
}

// sessionResponse はセッション記録のレスポンス。
type sessionResponse struct {
	ID           int64  `json:"id"`
	ServerID     string `json:"server_id"`
	PlayerID     string `json:"player_id"`
	SessionStart int64  `json:"session_start"`
	SessionEnd   int64  `json:"session_end"`
	AFKMs        int64  `json:"afk_ms"`
}

// geolocationRequest は位置情報記録リクエストのボディ。
type geolocationRequest struct {
	Geolocation string `json:"geolocation"`
	LastUsed    int64  `json:"last_used,omitempty"`
}

// geolocationResponse は位置情報記録のレスポンス。
type geolocationResponse struct {
	ID          int64  `json:"id"`
	PlayerID    string `json:"player_id"`
	Geolocation string `json:"geolocation"`
	LastUsed    int64  `json:"last_used"`
}

// RecordSession は終了済みセッションを記録する。
// POST /api/servers/:serverID/sessions
//
// 未登録のプレイヤーIDも受理する。該当する行はディレクトリの
// 左結合で不可視になるだけで、インジェストは失敗しない。
func (h *TrackingHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "serverID")

	var req sessionRequest
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

	session := &model.Session{
		ServerID: serverID,
		PlayerID: req.PlayerID,
		Start:    req.SessionStart,
		End:      req.SessionEnd,
		AFKMs:    req.AFKMs,
	}
	if err := h.service.RecordSession(r.Context(), session); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sessionResponse{
		ID:           session.ID,
		ServerID:     session.ServerID,
		PlayerID:     session.PlayerID,
		SessionStart: session.Start,
		SessionEnd:   session.End,
		AFKMs:        session.AFKMs,
	})
}

// RecordGeolocation はプレイヤーの位置情報の観測を記録する。
// POST /api/players/:playerID/geolocations
func (h *TrackingHandler) RecordGeolocation(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	var req geolocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("リクエストボディの解析に失敗しました"))
		return
	}

	o, err := h.service.RecordGeolocation(r.Context(), playerID, req.Geolocation, req.LastUsed)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(geolocationResponse{
		ID:          o.ID,
		PlayerID:    o.PlayerID,
		Geolocation: o.Geolocation,
		LastUsed:    o.LastUsed,
	})
}
