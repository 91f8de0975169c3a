package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/credman/internal/credential"
	"github.com/hitoshi/credman/internal/metrics"
	"github.com/hitoshi/credman/internal/middleware"
	"github.com/hitoshi/credman/internal/model"
)

// ResolverInterface は公開照会ハンドラーが必要とするインターフェース。
type ResolverInterface interface {
	Resolve(ctx context.Context, memberID, token string) (*credential.Resolution, error)
}

// PublicHandler はQRコード検証ページ向けの公開APIハンドラー。
type PublicHandler struct {
	resolver  ResolverInterface
	collector metrics.MetricsCollector
}

// NewPublicHandler はPublicHandlerを生成する。
func NewPublicHandler(resolver ResolverInterface, collector metrics.MetricsCollector) *PublicHandler {
	return &PublicHandler{resolver: resolver, collector: collector}
}

// LookupMember はQRトークンによる会員照会を処理する。
// 常に分類済みの結果を200で返す。会員未検出のみ404。
// GET /public/members/{id}?token=...
func (h *PublicHandler) LookupMember(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "id")
	token := r.URL.Query().Get("token")

	res, err := h.resolver.Resolve(r.Context(), memberID, token)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	switch res.ErrorType {
	case model.LookupErrorNotFound:
		h.collector.RecordLookup(metrics.LookupOutcomeNotFound)
		writeJSON(w, http.StatusNotFound, res)
	case model.LookupErrorInvalidQR:
		h.collector.RecordLookup(metrics.LookupOutcomeInvalid)
		writeJSON(w, http.StatusOK, res)
	default:
		h.collector.RecordLookup(metrics.LookupOutcomeValid)
		writeJSON(w, http.StatusOK, res)
	}
}
