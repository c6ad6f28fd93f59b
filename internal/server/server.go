package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/shouni/gemini-image-studio/internal/metrics"
	"github.com/shouni/gemini-image-studio/pkg/generator"
)

const (
	// APIKeyHeader はリクエストごとに Gemini API キーを上書きするヘッダーです。
	APIKeyHeader = "X-API-Key"

	defaultMaxBodyBytes int64 = 32 << 20
)

// Provider は API キーから ImageGenerator を用意する関数です。
// キーが空の場合の扱い（デフォルトキーへのフォールバック等）は実装側に任せます。
type Provider func(ctx context.Context, apiKey string) (generator.ImageGenerator, error)

// FromFactory は generator.Factory を Provider として使えるようにするのだ。
func FromFactory(f *generator.Factory) Provider {
	return func(ctx context.Context, apiKey string) (generator.ImageGenerator, error) {
		gen, err := f.ForKey(ctx, apiKey)
		if err != nil {
			return nil, err
		}
		return gen, nil
	}
}

// Server は画像 API のハンドラー群を保持します。
type Server struct {
	provider       Provider
	maxBodyBytes   int64
	allowedOrigins []string
}

// Option は Server の設定を変更します。
type Option func(*Server)

// WithMaxBodyBytes はリクエストボディの上限を指定します。
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithAllowedOrigins は CORS で許可するオリジンを指定します。
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// New は Server を初期化します。
func New(provider Provider, opts ...Option) *Server {
	s := &Server{
		provider:       provider,
		maxBodyBytes:   defaultMaxBodyBytes,
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler はミドルウェア込みのルーターを返します。
func (s *Server) Handler() http.Handler {
	metrics.Register()

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", s.api("generate", s.generate))
		r.Post("/edit", s.api("edit", s.edit))
		r.Post("/segment", s.api("segment", s.segment))
		r.Post("/validate-key", s.api("validate_key", s.validateKey))
	})

	return cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", APIKeyHeader},
	}).Handler(r)
}
