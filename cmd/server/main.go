// Package main は Gemini 画像スタジオのプロキシサーバーを起動します。
//
// 設定は環境変数で行います (.env ファイルがあれば読み込みます):
//
//	PORT                      - 待ち受けポート (デフォルト: 8080)
//	GEMINI_API_KEY            - デフォルトの Gemini API キー (任意。X-API-Key ヘッダーが優先)
//	GEMINI_IMAGE_MODEL        - generate/edit/segment に使うモデル
//	GEMINI_TEXT_MODEL         - キー検証に使うモデル
//	CORS_ALLOWED_ORIGINS      - 許可するオリジン (カンマ区切り、デフォルト: *)
//	MAX_BODY_BYTES            - リクエストボディの上限 (デフォルト: 32 MiB)
//	COMPRESS_REFERENCE_IMAGES - 参照画像を JPEG にして送る (デフォルト: false)
//	REFERENCE_JPEG_QUALITY    - 参照画像の JPEG 品質 (デフォルト: 85)
//	LOG_LEVEL / LOG_FORMAT    - debug|info|warn|error / json|text
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/gemini-image-studio/internal/config"
	"github.com/shouni/gemini-image-studio/internal/logging"
	"github.com/shouni/gemini-image-studio/internal/server"
	"github.com/shouni/gemini-image-studio/pkg/generator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("設定の読み込みに失敗しました", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat))

	factory := generator.NewFactory(cfg.GeminiAPIKey, generator.NewGenAIModel, factoryOptions(cfg)...)
	if !factory.HasDefaultKey() {
		slog.Warn("GEMINI_API_KEY が未設定です。リクエストごとに X-API-Key ヘッダーが必要です")
	}

	srv := server.New(server.FromFactory(factory),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
		server.WithAllowedOrigins(cfg.AllowedOrigins),
	)
	httpServer := server.NewHTTPServer(cfg, srv.Handler())

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("サーバーを停止します")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			slog.Error("シャットダウンに失敗しました", "error", err)
		}
	}()

	slog.Info("サーバーを起動します",
		"addr", httpServer.Addr(),
		"image_model", cfg.ImageModel,
		"compress_references", cfg.CompressRefs,
	)
	if err := httpServer.Start(); err != nil {
		slog.Error("サーバーがエラーで終了しました", "error", err)
		os.Exit(1)
	}
	slog.Info("サーバーを停止しました")
}

func factoryOptions(cfg *config.Config) []generator.FactoryOption {
	opts := []generator.FactoryOption{
		generator.WithImageModel(cfg.ImageModel),
		generator.WithKeyCheckModel(cfg.KeyCheckModel),
	}
	if cfg.CompressRefs {
		opts = append(opts, generator.WithCoreOptions(generator.WithReferenceCompression(cfg.ReferenceQuality)))
	}
	return opts
}
