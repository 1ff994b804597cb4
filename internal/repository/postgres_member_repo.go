package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/playdex/internal/model"
)

// PostgresMemberRepo はPostgreSQLを使用したサーバー所属リポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

// Join はプレイヤーをサーバーのメンバーとして登録する。
// すでにメンバーの場合は何もしない（冪等）。
func (r *PostgresMemberRepo) Join(ctx context.Context, m *model.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO server_members (server_id, player_id, banned, joined_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (server_id, player_id) DO NOTHING`,
		m.ServerID, m.PlayerID, m.Banned, m.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("メンバー登録に失敗しました: %w", err)
	}
	return nil
}

// SetBanned はメンバーのBANフラグを更新する。
// 対象メンバーが存在しない場合はfalseを返す。
func (r *PostgresMemberRepo) SetBanned(ctx context.Context, serverID, playerID string, banned bool) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE server_members SET banned = $3 WHERE server_id = $1 AND player_id = $2`,
		serverID, playerID, banned,
	)
	if err != nil {
		return false, fmt.Errorf("BANフラグの更新に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("BANフラグ更新の結果取得に失敗しました: %w", err)
	}

	return affected > 0, nil
}

// compile-time interface check
var _ MemberRepository = (*PostgresMemberRepo)(nil)
