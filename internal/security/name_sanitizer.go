// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NameSanitizerService はプレイヤー名・サーバー名・位置情報ラベルなど、
// ダッシュボードにそのまま表示される文字列からマークアップを除去する。
// bluemondayライブラリの全タグ除去ポリシーを使用する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxNameLength は表示名の最大長（rune単位）。超過分は切り捨てる。
const maxNameLength = 64

// NameSanitizerService は表示名サニタイズ機能のインターフェースを定義する。
// 登録系エンドポイントの保存前に使用される。
type NameSanitizerService interface {
	// Sanitize は表示名からHTMLタグを全て除去し、前後の空白を取り除いて返す。
	// maxNameLengthを超える場合は切り捨てる。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// nameSanitizer はNameSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type nameSanitizer struct {
	policy *bluemonday.Policy
}

// NewNameSanitizer はNameSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicy（全タグ除去）を使用し、テキスト以外は一切通過させない。
func NewNameSanitizer() *nameSanitizer {
	return &nameSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は表示名からマークアップを除去して返す。
func (s *nameSanitizer) Sanitize(raw string) string {
	cleaned := strings.TrimSpace(s.policy.Sanitize(raw))

	runes := []rune(cleaned)
	if len(runes) > maxNameLength {
		cleaned = string(runes[:maxNameLength])
	}

	return cleaned
}
