// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/playdex/internal/model"
	"github.com/hitoshi/playdex/internal/repository"
)

// DirectoryServiceInterface はディレクトリハンドラーが必要とするサービスインターフェース。
type DirectoryServiceInterface interface {
	// ListServerPlayers はサーバーのプレイヤーディレクトリを返す。
	ListServerPlayers(ctx context.Context, params repository.DirectoryParams) ([]model.DirectoryEntry, error)
	// OnlineActivity はサーバーの直近days日分の日別アクティビティを返す。
	OnlineActivity(ctx context.Context, serverID string, days int) ([]model.OnlineActivityPoint, error)
}

// DirectoryHandlerConfig はディレクトリハンドラーの設定。
type DirectoryHandlerConfig struct {
	DefaultLimit       int   // limitパラメータ省略時の件数
	DefaultThresholdMs int64 // thresholdパラメータ省略時のしきい値（ms）
}

// DirectoryHandler はディレクトリ読み取りのHTTPハンドラー。
type DirectoryHandler struct {
	service DirectoryServiceInterface
	config  DirectoryHandlerConfig
}

// NewDirectoryHandler はDirectoryHandlerを生成する。
func NewDirectoryHandler(service DirectoryServiceInterface, config DirectoryHandlerConfig) *DirectoryHandler {
	return &DirectoryHandler{
		service: service,
		config:  config,
	}
}

// --- レスポンス型 ---

// directoryEntryResponse はディレクトリ1エントリのレスポンス。
type directoryEntryResponse struct {
	PlayerID       string  `json:"player_id"`
	Name           string  `json:"name"`
	Geolocation    string  `json:"geolocation"`
	RegisteredAt   int64   `json:"registered_at"`
	LastSeen       *int64  `json:"last_seen"`
	SessionCount   int     `json:"session_count"`
	ActivePlaytime int64   `json:"active_playtime_ms"`
	Score          float64 `json:"score"`
	ScoreDate      int64   `json:"score_date"`
	Banned         bool    `json:"banned"`
}

// directoryListResponse はディレクトリ一覧のレスポンス。
type directoryListResponse struct {
	Players []directoryEntryResponse `json:"players"`
}

// activityPointResponse は日別アクティビティ1日分のレスポンス。
type activityPointResponse struct {
	Date           int64 `json:"date"`
	UniquePlayers  int   `json:"unique_players"`
	ActivePlaytime int64 `json:"active_playtime_ms"`
}

// activityResponse は日別アクティビティのレスポンス。
type activityResponse struct {
	Points []activityPointResponse `json:"points"`
}

// ListServerPlayers はサーバーのプレイヤーディレクトリを取得する。
// GET /api/servers/:serverID/players?limit=&date=&threshold=
//
// limitを明示的に0以下で指定した場合は空の一覧を返す（エラーではない）。
// dateとthresholdは省略時にそれぞれ現在時刻とデフォルトしきい値を使用し、
// 負値も解釈せずそのまま通す。解釈はスコア供給元に委ねる。
func (h *DirectoryHandler) ListServerPlayers(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "serverID")
	query := r.URL.Query()

	limit := h.config.DefaultLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("limitは整数で指定してください"))
			return
		}
		limit = parsed
	}

	date := time.Now().UnixMilli()
	if raw := query.Get("date"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("dateはepochミリ秒で指定してください"))
			return
		}
		date = parsed
	}

	thresholdMs := h.config.DefaultThresholdMs
	if raw := query.Get("threshold"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("thresholdはミリ秒の整数で指定してください"))
			return
		}
		thresholdMs = parsed
	}

	entries, err := h.service.ListServerPlayers(r.Context(), repository.DirectoryParams{
		ServerID:    serverID,
		Date:        date,
		ThresholdMs: thresholdMs,
		Limit:       limit,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	players := make([]directoryEntryResponse, len(entries))
	for i, e := range entries {
		players[i] = directoryEntryResponse{
			PlayerID:       e.PlayerID,
			Name:           e.Name,
			Geolocation:    e.Geolocation,
			RegisteredAt:   e.RegisteredAt,
			LastSeen:       e.LastSeen,
			SessionCount:   e.SessionCount,
			ActivePlaytime: e.ActivePlaytime,
			Score:          e.Score,
			ScoreDate:      e.ScoreDate,
			Banned:         e.Banned,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(directoryListResponse{Players: players})
}

// OnlineActivity はサーバーの日別アクティビティを取得する。
// GET /api/servers/:serverID/activity/online?days=
func (h *DirectoryHandler) OnlineActivity(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "serverID")

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("daysは整数で指定してください"))
			return
		}
		days = parsed
	}

	points, err := h.service.OnlineActivity(r.Context(), serverID, days)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := activityResponse{Points: make([]activityPointResponse, len(points))}
	for i, p := range points {
		resp.Points[i] = activityPointResponse{
			Date:           p.Date,
			UniquePlayers:  p.UniquePlayers,
			ActivePlaytime: p.ActivePlaytime,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- 共通ヘルパー ---

// apiErrorResponse はAPIエラーレスポンスの統一フォーマット。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeServerNotFound, model.ErrCodePlayerNotFound, model.ErrCodeMemberNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidSession:
		return http.StatusBadRequest
	case model.ErrCodeStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
