// Package registry はサーバー・プレイヤー登録とメンバーシップ管理を提供する。
package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/playdex/internal/model"
	"github.com/hitoshi/playdex/internal/repository"
	"github.com/hitoshi/playdex/internal/security"
)

// Service は登録系のサービス層。
// 表示名のサニタイズ、ID採番、存在チェックを担当する。
type Service struct {
	serverRepo repository.ServerRepository
	playerRepo repository.PlayerRepository
	memberRepo repository.MemberRepository
	sanitizer  security.NameSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	serverRepo repository.ServerRepository,
	playerRepo repository.PlayerRepository,
	memberRepo repository.MemberRepository,
	sanitizer security.NameSanitizerService,
) *Service {
	return &Service{
		serverRepo: serverRepo,
		playerRepo: playerRepo,
		memberRepo: memberRepo,
		sanitizer:  sanitizer,
	}
}

// RegisterServer はサーバーを新規登録する。
// 名前はサニタイズされ、空になった場合はInvalidRequestエラーを返す。
func (s *Service) RegisterServer(ctx context.Context, name string) (*model.Server, error) {
	cleaned := s.sanitizer.Sanitize(name)
	if cleaned == "" {
		return nil, model.NewInvalidRequestError("サーバー名が空です")
	}

	server := &model.Server{
		ID:        uuid.NewString(),
		Name:      cleaned,
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := s.serverRepo.Create(ctx, server); err != nil {
		slog.Error("サーバーの登録に失敗しました", "name", cleaned, "error", err)
		return nil, model.NewStorageUnavailableError()
	}

	return server, nil
}

// RegisterPlayer はプレイヤーを新規登録する。
func (s *Service) RegisterPlayer(ctx context.Context, name string) (*model.Player, error) {
	cleaned := s.sanitizer.Sanitize(name)
	if cleaned == "" {
		return nil, model.NewInvalidRequestError("プレイヤー名が空です")
	}

	player := &model.Player{
		ID:           uuid.NewString(),
		Name:         cleaned,
		RegisteredAt: time.Now().UnixMilli(),
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		slog.Error("プレイヤーの登録に失敗しました", "name", cleaned, "error", err)
		return nil, model.NewStorageUnavailableError()
	}

	return player, nil
}

// Join はプレイヤーをサーバーのメンバーとして登録する。
// サーバー・プレイヤーの存在を事前にチェックし、登録は冪等。
func (s *Service) Join(ctx context.Context, serverID, playerID string) (*model.Membership, error) {
	server, err := s.serverRepo.FindByID(ctx, serverID)
	if err != nil {
		slog.Error("サーバーの取得に失敗しました", "server_id", serverID, "error", err)
		return nil, model.NewStorageUnavailableError()
	}
	if server == nil {
		return nil, model.NewServerNotFoundError(serverID)
	}

	player, err := s.playerRepo.FindByID(ctx, playerID)
	if err != nil {
		slog.Error("プレイヤーの取得に失敗しました", "player_id", playerID, "error", err)
		return nil, model.NewStorageUnavailableError()
	}
	if player == nil {
		return nil, model.NewPlayerNotFoundError(playerID)
	}

	m := &model.Membership{
		ServerID: serverID,
		PlayerID: playerID,
		Banned:   false,
		JoinedAt: time.Now().UnixMilli(),
	}
	if err := s.memberRepo.Join(ctx, m); err != nil {
		slog.Error("メンバー登録に失敗しました",
			"server_id", serverID,
			"player_id", playerID,
			"error", err)
		return nil, model.NewStorageUnavailableError()
	}

	return m, nil
}

// SetBanned はメンバーのBANフラグを更新する。
// 対象メンバーが存在しない場合はMemberNotFoundエラーを返す。
func (s *Service) SetBanned(ctx context.Context, serverID, playerID string, banned bool) error {
	found, err := s.memberRepo.SetBanned(ctx, serverID, playerID, banned)
	if err != nil {
		slog.Error("BANフラグの更新に失敗しました",
			"server_id", serverID,
			"player_id", playerID,
			"error", err)
		return model.NewStorageUnavailableError()
	}
	if !found {
		return model.NewMemberNotFoundError(serverID, playerID)
	}

	return nil
}

// GetServer はサーバーを取得する。見つからない場合はServerNotFoundエラーを返す。
func (s *Service) GetServer(ctx context.Context, serverID string) (*model.Server, error) {
	server, err := s.serverRepo.FindByID(ctx, serverID)
	if err != nil {
		slog.Error("サーバーの取得に失敗しました", "server_id", serverID, "error", err)
		return nil, model.NewStorageUnavailableError()
	}
	if server == nil {
		return nil, model.NewServerNotFoundError(serverID)
	}
	return server, nil
}

// GetPlayerProfile はプレイヤーの識別情報と最新の観測位置を返す。
// 見つからない場合はPlayerNotFoundエラーを返す。
func (s *Service) GetPlayerProfile(ctx context.Context, playerID string) (*model.PlayerProfile, error) {
	profile, err := s.playerRepo.FindProfile(ctx, playerID)
	if err != nil {
		slog.Error("プレイヤープロフィールの取得に失敗しました", "player_id", playerID, "error", err)
		return nil, model.NewStorageUnavailableError()
	}
	if profile == nil {
		return nil, model.NewPlayerNotFoundError(playerID)
	}
	return profile, nil
}
