// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/playdex/internal/model"
)

// DirectoryParams はサーバープレイヤーディレクトリの取得条件。
type DirectoryParams struct {
	ServerID    string
	Date        int64 // スコア算出の基準日（epoch ms）
	ThresholdMs int64 // 「アクティブ」を定義するプレイ時間しきい値（ms）
	Limit       int   // 返却するエントリ数の上限
}

// DirectoryRepository はディレクトリ系の読み取りクエリのインターフェース。
// すべて副作用のない読み取りで、結果はクエリ実行ごとに再計算される。
type DirectoryRepository interface {
	// ListServerPlayers はサーバーのプレイヤーディレクトリを返す。
	// 最終セッション終了時刻の降順で、セッション履歴のないプレイヤーは末尾に並ぶ。
	// Limitが0以下の場合はストアに問い合わせず空の結果を返す。
	ListServerPlayers(ctx context.Context, params DirectoryParams) ([]model.DirectoryEntry, error)

	// OnlineActivity はsince以降のセッションを日単位で集計して返す。
	OnlineActivity(ctx context.Context, serverID string, since int64) ([]model.OnlineActivityPoint, error)
}

// ServerRepository はサーバーデータの永続化インターフェース。
type ServerRepository interface {
	// Create はサーバーを登録する。
	Create(ctx context.Context, server *model.Server) error
	// FindByID は指定IDのサーバーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Server, error)
}

// PlayerRepository はプレイヤーデータの永続化インターフェース。
type PlayerRepository interface {
	// Create はプレイヤーを登録する。
	Create(ctx context.Context, player *model.Player) error
	// FindByID は指定IDのプレイヤーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Player, error)
	// FindProfile はプレイヤーの識別情報と最新の観測位置を取得する。
	// 見つからない場合はnilを返す。
	FindProfile(ctx context.Context, id string) (*model.PlayerProfile, error)
}

// MemberRepository はサーバー所属データの永続化インターフェース。
type MemberRepository interface {
	// Join はプレイヤーをサーバーのメンバーとして登録する。
	Join(ctx context.Context, m *model.Membership) error
	// SetBanned はメンバーのBANフラグを更新する。
	// 対象メンバーが存在しない場合はfalseを返す。
	SetBanned(ctx context.Context, serverID, playerID string, banned bool) (bool, error)
}

// SessionRepository はセッション履歴の永続化インターフェース。履歴は追記専用。
type SessionRepository interface {
	// Record は終了済みセッションを1件追記する。
	Record(ctx context.Context, s *model.Session) error
	// DeleteEndedBefore はcutoffより前に終了したセッションを削除し、削除件数を返す。
	DeleteEndedBefore(ctx context.Context, cutoff int64) (int64, error)
}

// GeoRepository は位置情報観測履歴の永続化インターフェース。履歴は追記専用。
type GeoRepository interface {
	// Observe は位置情報の観測を1件追記する。
	Observe(ctx context.Context, o *model.GeoObservation) error
	// DeleteObservedBefore はcutoffより前に観測された行を削除し、削除件数を返す。
	DeleteObservedBefore(ctx context.Context, cutoff int64) (int64, error)
}
