package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/credman/internal/metrics"
	"github.com/hitoshi/credman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// サービス
	AuthService      AuthServiceInterface
	MemberService    MemberServiceInterface
	CredentialIssuer CredentialIssuerInterface
	Resolver         ResolverInterface
	Compositor       CardCompositorInterface

	// 観測
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer

	// 静的配信
	UploadDir string
	BaseURL   string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	SecurityHeaders → CORS → ロギング → Recovery
//	管理API: Auth(Bearer) → RateLimit(General)
//	公開照会: RateLimit(Public, IPキー)
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthService)
	memberHandler := NewMemberHandler(deps.MemberService, deps.CredentialIssuer, deps.Collector)
	publicHandler := NewPublicHandler(deps.Resolver, deps.Collector)
	cardHandler := NewCardHandler(deps.MemberService, deps.Compositor, deps.Collector, deps.BaseURL)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Post("/login", authHandler.Login)

	// 公開QR照会（IPキーのレート制限付き）
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.PublicMiddleware())
		r.Get("/public/members/{id}", publicHandler.LookupMember)
	})

	// 会員写真の静的配信。ファイル名に会員IDが含まれるため、
	// ディレクトリ一覧は公開しない。
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir)))
	r.Handle("/uploads/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	}))

	// Prometheusスクレイプ
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth(Bearer) → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/members", func(r chi.Router) {
			r.Get("/", memberHandler.ListMembers)
			r.Post("/", memberHandler.CreateMember)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", memberHandler.GetMember)
				r.Put("/", memberHandler.UpdateMember)
				r.Delete("/", memberHandler.DeleteMember)

				// クレデンシャル再発行
				r.Post("/credentials", memberHandler.IssueCredential)

				// 会員証PNG出力
				r.Get("/card/{side}", cardHandler.RenderCard)
			})
		})
	})

	return r
}
