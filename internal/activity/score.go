// Package activity はプレイヤーのアクティビティスコア算出を提供する。
// スコアの算出ロジックはディレクトリ合成クエリから独立しており、
// ScoreSourceを差し替えることで変更できる。
package activity

import "fmt"

const (
	weekMs = 7 * 24 * 60 * 60 * 1000

	// スコア算出の対象期間: 基準日からさかのぼって3週間
	windowWeeks = 3
	windowMs    = windowWeeks * weekMs

	// MaxScore はスコアの上限値。
	MaxScore = 5.0
)

// ScoreSource は(player_id, score)の組を生成するサブクエリの供給元。
// ディレクトリ合成クエリはこのサブクエリを不透明なLEFT JOINとして埋め込む。
//
// Subqueryはプレースホルダ番号argIndexから始まるSQL断片と、
// その断片に束縛する引数を返す。引数の個数は断片内で使用した
// プレースホルダの種類数と一致しなければならない。
type ScoreSource interface {
	Subquery(argIndex int, serverID string, date int64, thresholdMs int64) (string, []any)
}

// PlaytimeScoreSource はアクティブプレイ時間ベースのスコア算出実装。
//
// 基準日から3週間をさかのぼり、1週間ごとのアクティブプレイ時間を
// しきい値で正規化（上限1.0）して合算する。結果は0..5の指数になる:
//
//	score = Σ_week min(playtime_week / threshold, 1.0) * 5 / 3
//
// しきい値を毎週満たすプレイヤーが5.0、直近3週間にセッションが
// ないプレイヤーはサブクエリの出力に現れない（合成側でデフォルト0）。
type PlaytimeScoreSource struct{}

// NewPlaytimeScoreSource はPlaytimeScoreSourceを生成する。
func NewPlaytimeScoreSource() *PlaytimeScoreSource {
	return &PlaytimeScoreSource{}
}

// Subquery はスコアサブクエリのSQL断片と引数を返す。
// 引数は (serverID, date, thresholdMs) の3個。dateはバケット分割と
// 期間境界の両方で同じプレースホルダを再利用する。
func (s *PlaytimeScoreSource) Subquery(argIndex int, serverID string, date int64, thresholdMs int64) (string, []any) {
	server := argIndex
	dateArg := argIndex + 1
	threshold := argIndex + 2

	query := fmt.Sprintf(`SELECT q.player_id,
		       SUM(LEAST(q.playtime / GREATEST(CAST($%d AS double precision), 1.0), 1.0)) * %.1f / %d AS score
		FROM (
		    SELECT s.player_id,
		           ($%d - s.session_end) / %d AS week_no,
		           SUM(s.session_end - s.session_start - s.afk_ms) AS playtime
		    FROM sessions s
		    WHERE s.server_id = $%d
		      AND s.session_end > $%d - %d
		      AND s.session_end <= $%d
		    GROUP BY s.player_id, ($%d - s.session_end) / %d
		) q
		GROUP BY q.player_id`,
		threshold, MaxScore, windowWeeks,
		dateArg, weekMs,
		server,
		dateArg, windowMs,
		dateArg,
		dateArg, weekMs,
	)

	return query, []any{serverID, date, thresholdMs}
}
