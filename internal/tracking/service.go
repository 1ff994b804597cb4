// Package tracking はセッション・位置情報の記録ロジックを提供する。
package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/playdex/internal/metrics"
	"github.com/hitoshi/playdex/internal/model"
	"github.com/hitoshi/playdex/internal/repository"
	"github.com/hitoshi/playdex/internal/security"
)

// Service はプレイ履歴の記録サービス層。
// 書き込みは追記専用で、既存行の更新は行わない。
type Service struct {
	sessionRepo repository.SessionRepository
	geoRepo     repository.GeoRepository
	sanitizer   security.NameSanitizerService
	metrics     metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	sessionRepo repository.SessionRepository,
	geoRepo repository.GeoRepository,
	sanitizer security.NameSanitizerService,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		sessionRepo: sessionRepo,
		geoRepo:     geoRepo,
		sanitizer:   sanitizer,
		metrics:     collector,
	}
}

// RecordSession は終了済みセッションを1件記録する。
// 不変条件（end >= start >= 0、0 <= afk <= end - start）に違反する場合は
// InvalidSessionエラーを返し、ストアには書き込まない。
func (s *Service) RecordSession(ctx context.Context, session *model.Session) error {
	if session.Start < 0 {
		return model.NewInvalidSessionError(
			fmt.Sprintf("session_startが負の値です: %d", session.Start))
	}
	if session.End < session.Start {
		return model.NewInvalidSessionError(
			fmt.Sprintf("session_end(%d)がsession_start(%d)より前です", session.End, session.Start))
	}
	if session.AFKMs < 0 {
		return model.NewInvalidSessionError(
			fmt.Sprintf("afk_msが負の値です: %d", session.AFKMs))
	}
	if session.AFKMs > session.End-session.Start {
		return model.NewInvalidSessionError(
			fmt.Sprintf("afk_ms(%d)がセッション長(%d)を超えています", session.AFKMs, session.End-session.Start))
	}

	if err := s.sessionRepo.Record(ctx, session); err != nil {
		slog.Error("セッションの記録に失敗しました",
			"server_id", session.ServerID,
			"player_id", session.PlayerID,
			"error", err)
		return model.NewStorageUnavailableError()
	}

	s.metrics.RecordSessionRecorded()

	return nil
}

// RecordGeolocation はプレイヤーの位置情報の観測を1件記録する。
// ラベルはサニタイズされ、空になった場合はInvalidRequestエラーを返す。
// lastUsedが0の場合は現在時刻を使用する。
func (s *Service) RecordGeolocation(ctx context.Context, playerID, geolocation string, lastUsed int64) (*model.GeoObservation, error) {
	label := s.sanitizer.Sanitize(geolocation)
	if label == "" {
		return nil, model.NewInvalidRequestError("位置情報ラベルが空です")
	}

	if lastUsed == 0 {
		lastUsed = time.Now().UnixMilli()
	}
	if lastUsed < 0 {
		return nil, model.NewInvalidRequestError(
			fmt.Sprintf("last_usedが負の値です: %d", lastUsed))
	}

	o := &model.GeoObservation{
		PlayerID:    playerID,
		Geolocation: label,
		LastUsed:    lastUsed,
	}
	if err := s.geoRepo.Observe(ctx, o); err != nil {
		slog.Error("位置情報の記録に失敗しました",
			"player_id", playerID,
			"error", err)
		return nil, model.NewStorageUnavailableError()
	}

	s.metrics.RecordGeoObserved()

	return o, nil
}
