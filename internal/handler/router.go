package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/playdex/internal/metrics"
	"github.com/hitoshi/playdex/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	Gatherer          prometheus.Gatherer

	// ディレクトリ
	DirectoryService DirectoryServiceInterface
	DirectoryConfig  DirectoryHandlerConfig

	// 登録
	RegistryService RegistryServiceInterface

	// 記録
	TrackingService TrackingServiceInterface

	// ヘルスチェック
	HealthChecker HealthChecker
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → RateLimit(Read/Write)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))

	directoryHandler := NewDirectoryHandler(deps.DirectoryService, deps.DirectoryConfig)
	registryHandler := NewRegistryHandler(deps.RegistryService)
	trackingHandler := NewTrackingHandler(deps.TrackingService)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 運用ルート（レート制限なし） ---

	r.Get("/health", healthHandler.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	// --- 読み取りAPI ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.ReadMiddleware())

		r.Route("/api/servers/{serverID}", func(r chi.Router) {
			r.Get("/", registryHandler.GetServer)
			r.Get("/players", directoryHandler.ListServerPlayers)
			r.Get("/activity/online", directoryHandler.OnlineActivity)
		})

		r.Get("/api/players/{playerID}", registryHandler.GetPlayerProfile)
	})

	// --- 書き込みAPI ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.WriteMiddleware())

		r.Post("/api/servers", registryHandler.RegisterServer)
		r.Post("/api/players", registryHandler.RegisterPlayer)

		r.Route("/api/servers/{serverID}", func(r chi.Router) {
			r.Post("/members", registryHandler.Join)
			r.Put("/members/{playerID}/ban", registryHandler.SetBanned)
			r.Post("/sessions", trackingHandler.RecordSession)
		})

		r.Post("/api/players/{playerID}/geolocations", trackingHandler.RecordGeolocation)
	})

	return r
}
