package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/playdex/internal/activity"
	"github.com/hitoshi/playdex/internal/model"
)

// latestGeolocationSQL はプレイヤーごとに最新の位置情報観測1行を選ぶサブクエリ。
//
// 自己LEFT JOINによるアンチジョインで最大値を選ぶ: 各行aに対して、同じ
// プレイヤーでより新しい行bを結合し、bが存在しない（b.id IS NULL）行だけを
// 残す。GROUP BY + 再結合の2往復を避けて選択をストア側に押し込む。
// last_usedが同時刻の行はidの大きい方（後に挿入された観測）を最新とみなす
// ことで、プレイヤーごとに必ず1行に定まる。
const latestGeolocationSQL = `SELECT a.player_id, a.geolocation
		FROM geolocations a
		LEFT JOIN geolocations b
		  ON a.player_id = b.player_id
		 AND (a.last_used < b.last_used OR (a.last_used = b.last_used AND a.id < b.id))
		WHERE b.id IS NULL`

// sessionAggregateSQL はサーバー内のプレイヤーごとのセッション集計サブクエリ。
// セッションが1件もないプレイヤーは出力に現れない（合成側でデフォルトを適用する）。
// 時間の合算はBIGINT（int64）で行い、現実的なデータ量ではオーバーフローしない。
const sessionAggregateSQL = `SELECT s.player_id,
		       MAX(s.session_end) AS last_seen,
		       COUNT(1) AS session_count,
		       SUM(s.session_end - s.session_start - s.afk_ms) AS active_playtime
		FROM sessions s
		WHERE s.server_id = $2
		GROUP BY s.player_id`

// PostgresDirectoryRepo はPostgreSQLを使用したディレクトリクエリの実装。
// 1回のディレクトリ取得はストアへの1往復（合成クエリ1本）で完結する。
type PostgresDirectoryRepo struct {
	db     *sql.DB
	scores activity.ScoreSource
}

// NewPostgresDirectoryRepo はPostgresDirectoryRepoを生成する。
// scoresはアクティビティスコアのサブクエリ供給元を指定する。
func NewPostgresDirectoryRepo(db *sql.DB, scores activity.ScoreSource) *PostgresDirectoryRepo {
	return &PostgresDirectoryRepo{db: db, scores: scores}
}

// ListServerPlayers はサーバーのプレイヤーディレクトリを1本の合成クエリで取得する。
//
// ベースとなるplayersとserver_membersのINNER JOIN（サーバー絞り込みとBANフラグ）に、
// 最新位置情報・セッション集計・アクティビティスコアの3サブクエリをプレイヤーIDで
// LEFT JOINする。履歴のないプレイヤーも行として残り、欠損値はスキャン時に
// デフォルトへ変換される。孤児行（identityのないセッション・位置情報）は
// LEFT JOINの向きにより結果へ現れない。
//
// 並び順は最終セッション終了時刻の降順。PostgreSQLのDESCはNULLS FIRSTが
// 既定のため、NULLS LASTを明示してセッション履歴のないプレイヤーを末尾に置く。
// 同率時は名前の昇順で安定させる。
func (r *PostgresDirectoryRepo) ListServerPlayers(ctx context.Context, params DirectoryParams) ([]model.DirectoryEntry, error) {
	// 0以下のlimitはエラーではなく空の結果として扱う
	if params.Limit <= 0 {
		return []model.DirectoryEntry{}, nil
	}

	// $1: メンバーシップのサーバー絞り込み、$2: セッション集計のサーバー絞り込み、
	// $3以降: スコアサブクエリの引数、最後がLIMIT
	scoreSQL, scoreArgs := r.scores.Subquery(3, params.ServerID, params.Date, params.ThresholdMs)

	args := make([]any, 0, 3+len(scoreArgs))
	args = append(args, params.ServerID, params.ServerID)
	args = append(args, scoreArgs...)
	limitIndex := len(args) + 1
	args = append(args, params.Limit)

	query := fmt.Sprintf(`SELECT u.id, u.name, u.registered_at, m.banned,
		       geo.geolocation,
		       ses.last_seen, ses.session_count, ses.active_playtime,
		       act.score
		FROM players u
		INNER JOIN server_members m ON m.player_id = u.id AND m.server_id = $1
		LEFT JOIN (%s) geo ON geo.player_id = u.id
		LEFT JOIN (%s) ses ON ses.player_id = u.id
		LEFT JOIN (%s) act ON act.player_id = u.id
		ORDER BY ses.last_seen DESC NULLS LAST, u.name ASC
		LIMIT $%d`,
		latestGeolocationSQL, sessionAggregateSQL, scoreSQL, limitIndex)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("プレイヤーディレクトリの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	entries := []model.DirectoryEntry{}
	for rows.Next() {
		entry, err := scanDirectoryEntry(rows, params.Date)
		if err != nil {
			return nil, fmt.Errorf("ディレクトリ行の読み取りに失敗しました: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プレイヤーディレクトリの走査に失敗しました: %w", err)
	}

	return entries, nil
}

// scanDirectoryEntry は合成クエリの1行をDirectoryEntryに変換する。
// 欠損値のデフォルト: 位置情報なし→空文字列、セッション集計なし→
// 件数0・プレイ時間0・最終ログインnil、スコアなし→0（基準日は常に付与）。
// BANフラグはメンバーシップ行の値をそのまま反映し、デフォルトは適用しない。
func scanDirectoryEntry(rows *sql.Rows, scoreDate int64) (model.DirectoryEntry, error) {
	var entry model.DirectoryEntry
	var geolocation sql.NullString
	var lastSeen, sessionCount, activePlaytime sql.NullInt64
	var score sql.NullFloat64

	if err := rows.Scan(
		&entry.PlayerID, &entry.Name, &entry.RegisteredAt, &entry.Banned,
		&geolocation,
		&lastSeen, &sessionCount, &activePlaytime,
		&score,
	); err != nil {
		return model.DirectoryEntry{}, err
	}

	if geolocation.Valid {
		entry.Geolocation = geolocation.String
	}
	if lastSeen.Valid {
		v := lastSeen.Int64
		entry.LastSeen = &v
	}
	if sessionCount.Valid {
		entry.SessionCount = int(sessionCount.Int64)
	}
	if activePlaytime.Valid {
		entry.ActivePlaytime = activePlaytime.Int64
	}
	if score.Valid {
		entry.Score = score.Float64
	}
	entry.ScoreDate = scoreDate

	return entry, nil
}

// OnlineActivity はsince以降のセッションをUTC日単位で集計して返す。
// 各日のユニークプレイヤー数と合計アクティブプレイ時間を古い日付順に並べる。
func (r *PostgresDirectoryRepo) OnlineActivity(ctx context.Context, serverID string, since int64) ([]model.OnlineActivityPoint, error) {
	const dayMs = 24 * 60 * 60 * 1000

	rows, err := r.db.QueryContext(ctx,
		`SELECT (s.session_end / $3) * $3 AS day,
		        COUNT(DISTINCT s.player_id) AS unique_players,
		        SUM(s.session_end - s.session_start - s.afk_ms) AS active_playtime
		 FROM sessions s
		 WHERE s.server_id = $1 AND s.session_end >= $2
		 GROUP BY (s.session_end / $3)
		 ORDER BY day ASC`,
		serverID, since, int64(dayMs),
	)
	if err != nil {
		return nil, fmt.Errorf("オンラインアクティビティの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	points := []model.OnlineActivityPoint{}
	for rows.Next() {
		var p model.OnlineActivityPoint
		if err := rows.Scan(&p.Date, &p.UniquePlayers, &p.ActivePlaytime); err != nil {
			return nil, fmt.Errorf("オンラインアクティビティ行の読み取りに失敗しました: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("オンラインアクティビティの走査に失敗しました: %w", err)
	}

	return points, nil
}

// compile-time interface check
var _ DirectoryRepository = (*PostgresDirectoryRepo)(nil)
