// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordLookup(outcome string)
	RecordIssuance()
	RecordCardRender(side string)
	RecordCardRenderLatency(duration time.Duration)
}

// 公開照会の結果ラベル。
const (
	LookupOutcomeValid    = "valid"
	LookupOutcomeNotFound = "not_found"
	LookupOutcomeInvalid  = "invalid_qr"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	lookups           *prometheus.CounterVec
	issuances         prometheus.Counter
	cardRenders       *prometheus.CounterVec
	cardRenderLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credman_lookup_total",
			Help: "公開QR照会の結果別の合計数",
		}, []string{"outcome"}),
		issuances: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "credman_issuance_total",
			Help: "クレデンシャル発行の合計数",
		}),
		cardRenders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credman_card_render_total",
			Help: "カード描画の面別の合計数",
		}, []string{"side"}),
		cardRenderLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "credman_card_render_latency_seconds",
			Help:    "カード描画のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.lookups,
		c.issuances,
		c.cardRenders,
		c.cardRenderLatency,
	)

	return c
}

// RecordLookup は公開照会の結果を記録する。
func (c *Collector) RecordLookup(outcome string) {
	c.lookups.WithLabelValues(outcome).Inc()
}

// RecordIssuance はクレデンシャル発行を記録する。
func (c *Collector) RecordIssuance() {
	c.issuances.Inc()
}

// RecordCardRender はカード描画を記録する。
func (c *Collector) RecordCardRender(side string) {
	c.cardRenders.WithLabelValues(side).Inc()
}

// RecordCardRenderLatency はカード描画のレイテンシを記録する。
func (c *Collector) RecordCardRenderLatency(duration time.Duration) {
	c.cardRenderLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
