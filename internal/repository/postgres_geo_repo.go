package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/playdex/internal/model"
)

// PostgresGeoRepo はPostgreSQLを使用した位置情報観測履歴リポジトリ。
// 観測履歴は追記専用で、「現在値」フラグは持たない。
type PostgresGeoRepo struct {
	db *sql.DB
}

// NewPostgresGeoRepo はPostgresGeoRepoを生成する。
func NewPostgresGeoRepo(db *sql.DB) *PostgresGeoRepo {
	return &PostgresGeoRepo{db: db}
}

// Observe は位置情報の観測を1件追記する。
func (r *PostgresGeoRepo) Observe(ctx context.Context, o *model.GeoObservation) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO geolocations (player_id, geolocation, last_used)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		o.PlayerID, o.Geolocation, o.LastUsed,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("位置情報の記録に失敗しました: %w", err)
	}
	return nil
}

// DeleteObservedBefore はcutoffより前に観測された行を削除し、削除件数を返す。
// ただし各プレイヤーの最新行は保持期間を過ぎても削除しない
// （ディレクトリの「最新位置」が消えないようにするため）。
func (r *PostgresGeoRepo) DeleteObservedBefore(ctx context.Context, cutoff int64) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM geolocations g
		 WHERE g.last_used < $1
		   AND EXISTS (
		       SELECT 1 FROM geolocations newer
		       WHERE newer.player_id = g.player_id
		         AND (newer.last_used > g.last_used
		              OR (newer.last_used = g.last_used AND newer.id > g.id))
		   )`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("位置情報履歴の削除に失敗しました: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("位置情報削除の結果取得に失敗しました: %w", err)
	}

	return deleted, nil
}

// compile-time interface check
var _ GeoRepository = (*PostgresGeoRepo)(nil)
