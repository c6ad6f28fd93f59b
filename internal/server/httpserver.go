package server

import (
	"context"
	"net/http"
	"time"

	"github.com/shouni/gemini-image-studio/internal/config"
)

// HTTPServer は http.Server を包み、起動と graceful shutdown を扱います。
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer は設定から HTTPServer を作成します。
// 画像生成は時間がかかるので、WriteTimeout は設定値 (デフォルト 0) のままにします。
func NewHTTPServer(cfg *config.Config, handler http.Handler) *HTTPServer {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
	return &HTTPServer{server: srv}
}

// Addr は待ち受けアドレスを返します。
func (s *HTTPServer) Addr() string {
	return s.server.Addr
}

// Start は現在の goroutine でサーバーを動かします。
// Shutdown で止めた場合は nil を返します。
func (s *HTTPServer) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown は処理中のリクエストを待ってからサーバーを止めます。
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
