// Package model はドメインモデルを定義する。
package model

// Server は監視対象のゲームサーバーインスタンスを表す。
type Server struct {
	ID        string
	Name      string
	CreatedAt int64 // epoch ms
}

// Player はプレイヤーの不変の識別情報を表す。
type Player struct {
	ID           string
	Name         string
	RegisteredAt int64 // epoch ms
}

// Membership はプレイヤーのサーバー所属情報を表す。
// BANフラグはサーバー単位で管理される。
type Membership struct {
	ServerID string
	PlayerID string
	Banned   bool
	JoinedAt int64 // epoch ms
}

// Session は1回のプレイセッションの記録を表す。追記専用。
// 不変条件: End >= Start >= 0、AFKMs <= End - Start
type Session struct {
	ID       int64
	ServerID string
	PlayerID string
	Start    int64 // epoch ms
	End      int64 // epoch ms
	AFKMs    int64 // セッション中の離席時間（ms）
}

// GeoObservation はプレイヤーの位置情報の観測記録を表す。追記専用。
// 「最新」は LastUsed が最大の行（同時刻の場合は後に挿入された行）。
type GeoObservation struct {
	ID          int64
	PlayerID    string
	Geolocation string
	LastUsed    int64 // epoch ms
}

// DirectoryEntry はサーバープレイヤーディレクトリの1エントリを表す。
// クエリ実行ごとに構築される読み取り専用の値で、構築後は変更されない。
type DirectoryEntry struct {
	PlayerID       string
	Name           string
	Geolocation    string // 観測履歴がない場合は空文字列
	RegisteredAt   int64  // epoch ms
	LastSeen       *int64 // セッション履歴がない場合はnil
	SessionCount   int
	ActivePlaytime int64 // Σ(end - start - afk)（ms）
	Score          float64
	ScoreDate      int64 // スコア算出の基準日（epoch ms）。スコア欠損時も設定される
	Banned         bool
}

// PlayerProfile はプレイヤー個別ページ用の情報を表す。
type PlayerProfile struct {
	Player
	Geolocation string // 最新の観測位置。履歴がない場合は空文字列
}

// OnlineActivityPoint はサーバーのオンラインアクティビティグラフの1日分を表す。
type OnlineActivityPoint struct {
	Date           int64 // その日の開始時刻（epoch ms、UTC日単位）
	UniquePlayers  int
	ActivePlaytime int64 // その日の全プレイヤーの合計アクティブプレイ時間（ms）
}
