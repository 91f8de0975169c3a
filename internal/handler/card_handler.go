package handler

import (
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/credman/internal/card"
	"github.com/hitoshi/credman/internal/credential"
	"github.com/hitoshi/credman/internal/metrics"
	"github.com/hitoshi/credman/internal/middleware"
	"github.com/hitoshi/credman/internal/model"
)

// CardCompositorInterface はカード合成のインターフェース。
type CardCompositorInterface interface {
	Render(member *model.Member, cred *model.Credential, qrPayload string, side card.Side) (image.Image, error)
}

// CardHandler は会員証PNGを出力するHTTPハンドラー。
type CardHandler struct {
	members    MemberServiceInterface
	compositor CardCompositorInterface
	collector  metrics.MetricsCollector
	baseURL    string
}

// NewCardHandler はCardHandlerを生成する。
func NewCardHandler(
	members MemberServiceInterface,
	compositor CardCompositorInterface,
	collector metrics.MetricsCollector,
	baseURL string,
) *CardHandler {
	return &CardHandler{
		members:    members,
		compositor: compositor,
		collector:  collector,
		baseURL:    baseURL,
	}
}

// RenderCard は指定面の会員証を印刷解像度のPNGでストリームする。
// GET /api/members/{id}/card/{side}
func (h *CardHandler) RenderCard(w http.ResponseWriter, r *http.Request) {
	side, err := card.ParseSide(chi.URLParam(r, "side"))
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	member, err := h.members.GetMember(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	// QRペイロードはACTIVEなクレデンシャルのトークンから組み立てる
	active := credential.ActiveCredential(member)
	var payload string
	if active != nil {
		payload = card.BuildQRPayload(h.baseURL, member.ID, active.Token)
	} else {
		payload = card.BuildQRPayload(h.baseURL, member.ID, "")
	}

	start := time.Now()
	canvas, err := h.compositor.Render(member, active, payload, side)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	data, err := card.ExportPNG(canvas)
	if err != nil {
		middleware.WriteAPIError(w, err)
		return
	}

	h.collector.RecordCardRender(string(side))
	h.collector.RecordCardRenderLatency(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", card.ExportFilename(side, member.ID)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
