package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, directory, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeServerNotFound     = "SERVER_NOT_FOUND"
	ErrCodePlayerNotFound     = "PLAYER_NOT_FOUND"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInvalidSession     = "INVALID_SESSION"
	ErrCodeMemberNotFound     = "MEMBER_NOT_FOUND"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// NewServerNotFoundError はサーバー未検出エラーを生成する。
func NewServerNotFoundError(serverID string) *APIError {
	return &APIError{
		Code:     ErrCodeServerNotFound,
		Message:  fmt.Sprintf("指定されたサーバーが見つかりません: %s", serverID),
		Category: "directory",
		Action:   "サーバーIDを確認してください。",
	}
}

// NewPlayerNotFoundError はプレイヤー未検出エラーを生成する。
func NewPlayerNotFoundError(playerID string) *APIError {
	return &APIError{
		Code:     ErrCodePlayerNotFound,
		Message:  fmt.Sprintf("指定されたプレイヤーが見つかりません: %s", playerID),
		Category: "directory",
		Action:   "プレイヤーIDを確認してください。",
	}
}

// NewMemberNotFoundError はサーバーに所属していないプレイヤーへの操作エラーを生成する。
func NewMemberNotFoundError(serverID, playerID string) *APIError {
	return &APIError{
		Code:     ErrCodeMemberNotFound,
		Message:  fmt.Sprintf("プレイヤー %s はサーバー %s に所属していません。", playerID, serverID),
		Category: "directory",
		Action:   "先にメンバー登録を行ってください。",
	}
}

// NewInvalidSessionError はセッション記録の不変条件違反エラーを生成する。
func NewInvalidSessionError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSession,
		Message:  fmt.Sprintf("セッション記録が不正です: %s", reason),
		Category: "validation",
		Action:   "session_end >= session_start >= 0、afk_ms <= session_end - session_start を満たすよう修正してください。",
	}
}

// NewInvalidRequestError はリクエスト形式のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト形式を確認してください。",
	}
}

// NewStorageUnavailableError はストア障害エラーを生成する。
// リトライはストアアクセス層の責務のため、ここでは行わずそのまま伝播する。
func NewStorageUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeStorageUnavailable,
		Message:  "データベースへのアクセスに失敗しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
