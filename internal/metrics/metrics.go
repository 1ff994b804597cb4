// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層とワーカーから利用する。
type MetricsCollector interface {
	RecordDirectoryQuery(duration time.Duration, entries int)
	RecordSessionRecorded()
	RecordGeoObserved()
	RecordHTTPStatus(statusCode int)
	RecordRetentionDeleted(table string, count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	directoryLatency prometheus.Histogram
	directoryEntries prometheus.Counter
	sessionsRecorded prometheus.Counter
	geoObserved      prometheus.Counter
	httpStatus       *prometheus.CounterVec
	retentionDeleted *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		directoryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "playdex_directory_query_seconds",
			Help:    "ディレクトリ合成クエリのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		directoryEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playdex_directory_entries_total",
			Help: "返却したディレクトリエントリの合計数",
		}),
		sessionsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playdex_sessions_recorded_total",
			Help: "記録したセッションの合計数",
		}),
		geoObserved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "playdex_geolocations_observed_total",
			Help: "記録した位置情報観測の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playdex_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		retentionDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "playdex_retention_deleted_total",
			Help: "保持期間クリーンアップで削除した行数（テーブル別）",
		}, []string{"table"}),
	}

	reg.MustRegister(
		c.directoryLatency,
		c.directoryEntries,
		c.sessionsRecorded,
		c.geoObserved,
		c.httpStatus,
		c.retentionDeleted,
	)

	return c
}

// RecordDirectoryQuery はディレクトリクエリのレイテンシと返却件数を記録する。
func (c *Collector) RecordDirectoryQuery(duration time.Duration, entries int) {
	c.directoryLatency.Observe(duration.Seconds())
	c.directoryEntries.Add(float64(entries))
}

// RecordSessionRecorded はセッション記録を1件カウントする。
func (c *Collector) RecordSessionRecorded() {
	c.sessionsRecorded.Inc()
}

// RecordGeoObserved は位置情報観測の記録を1件カウントする。
func (c *Collector) RecordGeoObserved() {
	c.geoObserved.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRetentionDeleted は保持期間クリーンアップの削除行数を記録する。
func (c *Collector) RecordRetentionDeleted(table string, count int64) {
	c.retentionDeleted.WithLabelValues(table).Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
