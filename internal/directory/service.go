// Package directory はサーバープレイヤーディレクトリのドメインロジックを提供する。
package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/playdex/internal/config"
	"github.com/hitoshi/playdex/internal/metrics"
	"github.com/hitoshi/playdex/internal/model"
	"github.com/hitoshi/playdex/internal/repository"
)

// dayMs は1日をミリ秒で表した定数。
const dayMs = int64(24 * 60 * 60 * 1000)

// defaultActivityDays はオンラインアクティビティのデフォルト集計期間（日）。
const defaultActivityDays = 30

// Service はディレクトリ読み取りのサービス層。
// 合成クエリの実行、件数上限の適用、ストア障害の変換を担当する。
type Service struct {
	dirRepo repository.DirectoryRepository
	metrics metrics.MetricsCollector
	cfg     *config.Config
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	dirRepo repository.DirectoryRepository,
	collector metrics.MetricsCollector,
	cfg *config.Config,
) *Service {
	return &Service{
		dirRepo: dirRepo,
		metrics: collector,
		cfg:     cfg,
	}
}

// ListServerPlayers はサーバーのプレイヤーディレクトリを返す。
// 件数上限はDirectoryMaxLimitでキャップされる。
// Limitが0以下の場合は空の結果を返す（エラーではない）。
// ストア障害はリトライせずStorageUnavailableとして呼び出し元へ伝播する。
func (s *Service) ListServerPlayers(ctx context.Context, params repository.DirectoryParams) ([]model.DirectoryEntry, error) {
	if params.Limit > s.cfg.DirectoryMaxLimit {
		params.Limit = s.cfg.DirectoryMaxLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	start := time.Now()
	entries, err := s.dirRepo.ListServerPlayers(ctx, params)
	if err != nil {
		slog.Error("ディレクトリクエリに失敗しました",
			"server_id", params.ServerID,
			"error", err)
		return nil, model.NewStorageUnavailableError()
	}

	s.metrics.RecordDirectoryQuery(time.Since(start), len(entries))

	return entries, nil
}

// OnlineActivity はサーバーの直近days日分の日別アクティビティを返す。
// daysが0以下の場合はdefaultActivityDaysを使用する。
func (s *Service) OnlineActivity(ctx context.Context, serverID string, days int) ([]model.OnlineActivityPoint, error) {
	if days <= 0 {
		days = defaultActivityDays
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	since := time.Now().UnixMilli() - int64(days)*dayMs
	points, err := s.dirRepo.OnlineActivity(ctx, serverID, since)
	if err != nil {
		slog.Error("アクティビティ集計クエリに失敗しました",
			"server_id", serverID,
			"error", err)
		return nil, model.NewStorageUnavailableError()
	}

	return points, nil
}
