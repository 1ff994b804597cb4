package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/playdex/internal/model"
)

// PostgresPlayerRepo はPostgreSQLを使用したプレイヤーリポジトリ。
type PostgresPlayerRepo struct {
	db *sql.DB
}

// NewPostgresPlayerRepo はPostgresPlayerRepoを生成する。
func NewPostgresPlayerRepo(db *sql.DB) *PostgresPlayerRepo {
	return &PostgresPlayerRepo{db: db}
}

// Create はプレイヤーを登録する。
func (r *PostgresPlayerRepo) Create(ctx context.Context, player *model.Player) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO players (id, name, registered_at) VALUES ($1, $2, $3)`,
		player.ID, player.Name, player.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("プレイヤーの登録に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのプレイヤーを取得する。見つからない場合はnilを返す。
func (r *PostgresPlayerRepo) FindByID(ctx context.Context, id string) (*model.Player, error) {
	player := &model.Player{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, registered_at FROM players WHERE id = $1`,
		id,
	).Scan(&player.ID, &player.Name, &player.RegisteredAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プレイヤーの取得に失敗しました: %w", err)
	}

	return player, nil
}

// FindProfile はプレイヤーの識別情報と最新の観測位置を取得する。
// 最新位置の選択はディレクトリクエリと同じアンチジョインを単体で使用する。
// 観測履歴がない場合のGeolocationは空文字列。見つからない場合はnilを返す。
func (r *PostgresPlayerRepo) FindProfile(ctx context.Context, id string) (*model.PlayerProfile, error) {
	profile := &model.PlayerProfile{}
	var geolocation sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT u.id, u.name, u.registered_at, geo.geolocation
		 FROM players u
		 LEFT JOIN (`+latestGeolocationSQL+`) geo ON geo.player_id = u.id
		 WHERE u.id = $1`,
		id,
	).Scan(&profile.ID, &profile.Name, &profile.RegisteredAt, &geolocation)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("プレイヤープロフィールの取得に失敗しました: %w", err)
	}

	if geolocation.Valid {
		profile.Geolocation = geolocation.String
	}

	return profile, nil
}

// compile-time interface check
var _ PlayerRepository = (*PostgresPlayerRepo)(nil)
