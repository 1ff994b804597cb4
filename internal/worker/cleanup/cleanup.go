// Package cleanup はプレイ履歴の自動削除ジョブを提供する。
// 保持期間（デフォルト365日）を超過したセッションと位置情報観測を
// 日次バッチで削除する。各プレイヤーの最新の観測行は保持期間を
// 超過していても削除しない（ディレクトリの最新位置表示を維持するため）。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/playdex/internal/metrics"
	"github.com/hitoshi/playdex/internal/repository"
)

// dayMs は1日をミリ秒で表した定数。
const dayMs = int64(24 * 60 * 60 * 1000)

// CleanupJob は保持期間を超過したプレイ履歴の自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	sessionRepo   repository.SessionRepository
	geoRepo       repository.GeoRepository
	metrics       metrics.MetricsCollector
	logger        *slog.Logger
	RetentionDays int // プレイ履歴の保持日数（デフォルト: 365）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は365日。
func NewCleanupJob(
	sessionRepo repository.SessionRepository,
	geoRepo repository.GeoRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *CleanupJob {
	return &CleanupJob{
		sessionRepo:   sessionRepo,
		geoRepo:       geoRepo,
		metrics:       collector,
		logger:        logger,
		RetentionDays: 365,
	}
}

// Run は保持期間を超過したプレイ履歴を削除する。
// RetentionDays日前より古いセッションと位置情報観測をDELETEする。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := start.UnixMilli() - int64(j.RetentionDays)*dayMs

	deletedSessions, err := j.sessionRepo.DeleteEndedBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("セッションクリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}
	j.metrics.RecordRetentionDeleted("sessions", deletedSessions)

	deletedGeos, err := j.geoRepo.DeleteObservedBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("位置情報クリーンアップの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("位置情報クリーンアップの実行に失敗: %w", err)
	}
	j.metrics.RecordRetentionDeleted("geolocations", deletedGeos)

	duration := time.Since(start)
	j.logger.Info("プレイ履歴クリーンアップジョブが完了しました",
		slog.Int64("deleted_sessions", deletedSessions),
		slog.Int64("deleted_geolocations", deletedGeos),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
