package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// RequestsTotal は操作と結果ごとの API リクエスト数です。
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "image_studio",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of image API requests, labeled by operation and result.",
	}, []string{"operation", "result"})

	// RequestDurationSeconds はモデル呼び出しを含むハンドラー全体の処理時間です。
	RequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "image_studio",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Time to serve an image API request, including the upstream model call.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"operation", "result"})

	// InFlight はモデルの応答を待っている API リクエスト数です。
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "image_studio",
		Subsystem: "api",
		Name:      "in_flight_requests",
		Help:      "Current number of image API requests being served.",
	})

	// ImagesReturnedTotal は generate と edit が返した画像の枚数です。
	ImagesReturnedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "image_studio",
		Subsystem: "api",
		Name:      "images_returned_total",
		Help:      "Total number of images returned to clients, labeled by operation.",
	}, []string{"operation"})
)

// result ラベルの値
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Register は API のメトリクスをデフォルトのレジストリに登録します。
// 何度呼んでも1回しか登録しません。
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			RequestDurationSeconds,
			InFlight,
			ImagesReturnedTotal,
		)
	})
}

// Observe は終わったリクエスト1件を記録します。
func Observe(operation, result string, seconds float64) {
	RequestsTotal.WithLabelValues(operation, result).Inc()
	RequestDurationSeconds.WithLabelValues(operation, result).Observe(seconds)
}
