package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/playdex/internal/model"
)

// PostgresServerRepo はPostgreSQLを使用したサーバーリポジトリ。
type PostgresServerRepo struct {
	db *sql.DB
}

// NewPostgresServerRepo はPostgresServerRepoを生成する。
func NewPostgresServerRepo(db *sql.DB) *PostgresServerRepo {
	return &PostgresServerRepo{db: db}
}

// Create はサーバーを登録する。
func (r *PostgresServerRepo) Create(ctx context.Context, server *model.Server) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO servers (id, name, created_at) VALUES ($1, $2, $3)`,
		server.ID, server.Name, server.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("サーバーの登録に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのサーバーを取得する。見つからない場合はnilを返す。
func (r *PostgresServerRepo) FindByID(ctx context.Context, id string) (*model.Server, error) {
	server := &model.Server{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM servers WHERE id = $1`,
		id,
	).Scan(&server.ID, &server.Name, &server.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("サーバーの取得に失敗しました: %w", err)
	}

	return server, nil
}

// compile-time interface check
var _ ServerRepository = (*PostgresServerRepo)(nil)
