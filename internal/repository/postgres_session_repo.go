package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/playdex/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッション履歴リポジトリ。
// セッション履歴は追記専用で、更新・個別削除は提供しない。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Record は終了済みセッションを1件追記する。
// 時系列の不変条件（end >= start >= 0、afk <= end - start）はDB制約でも守られる。
func (r *PostgresSessionRepo) Record(ctx context.Context, s *model.Session) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (server_id, player_id, session_start, session_end, afk_ms)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		s.ServerID, s.PlayerID, s.Start, s.End, s.AFKMs,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("セッションの記録に失敗しました: %w", err)
	}
	return nil
}

// DeleteEndedBefore はcutoffより前に終了したセッションを削除し、削除件数を返す。
// 保持期間を超えた履歴のクリーンアップ用。
func (r *PostgresSessionRepo) DeleteEndedBefore(ctx context.Context, cutoff int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_end < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("セッション履歴の削除に失敗しました: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("セッション削除の結果取得に失敗しました: %w", err)
	}

	return deleted, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
